package pmsm

// iterate calls step until the residual it returns is within tol or max
// calls have been made. A NaN residual never counts as converged.
func iterate(max int, tol float64, step func() float64) (n int, converged bool) {
	for n < max {
		n++
		if step() <= tol {
			return n, true
		}
	}
	return n, false
}
