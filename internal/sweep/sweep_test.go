package sweep

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

func ipmCondition() *pmsm.Condition {
	return pmsm.NewCondition(pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4), 24, 10)
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1000, 11)
	if len(got) != 11 || got[0] != 0 || got[2] != 200 || got[10] != 1000 {
		t.Errorf("unexpected values %v", got)
	}
	if Linspace(0, 1, 0) != nil {
		t.Error("expected nil for n=0")
	}
	if v := Linspace(5, 9, 1); len(v) != 1 || v[0] != 5 {
		t.Errorf("expected [5], got %v", v)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		var sum int64
		seen := make([]int32, n)
		ParallelFor(n, 3, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
				atomic.AddInt64(&sum, int64(i))
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
		if want := int64(n * (n - 1) / 2); sum != want {
			t.Errorf("n=%d: expected sum %d, got %d", n, want, sum)
		}
	}
}

func TestMap(t *testing.T) {
	cond := ipmCondition()
	speeds := Linspace(0, 1000, 11)
	torques := []float64{0.3, 1.0}

	g, err := Map(context.Background(), cond, speeds, torques)
	if err != nil {
		t.Fatalf("map failed: %v", err)
	}
	if len(g.Points) != 2 || len(g.Row(0)) != 11 {
		t.Fatalf("unexpected grid shape %dx%d", len(g.Points), len(g.Row(0)))
	}

	p := g.Row(0)[2]
	want, _ := pmsm.Solve(cond, 0.3, 200)
	if p.Solution != want || p.Torque != 0.3 || p.Speed != 200 {
		t.Errorf("grid point differs from direct solve: %+v", p)
	}

	failures := g.Failures()
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	var se *pmsm.SolveError
	if !errors.As(failures[0], &se) || se.Torque != 1.0 || se.Speed != 400 {
		t.Errorf("unexpected failure %v", failures[0])
	}
	if !errors.Is(failures[0], pmsm.ErrNotConverged) {
		t.Error("failure should wrap ErrNotConverged")
	}

	if n := g.FluxWeakeningCount(); n != 13 {
		t.Errorf("expected 13 flux-weakening points, got %d", n)
	}
}

func TestMapRejectsInvalidCondition(t *testing.T) {
	cond := ipmCondition()
	cond.KcMTPA = 0
	if _, err := Map(context.Background(), cond, []float64{0}, []float64{1}); !errors.Is(err, pmsm.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestMapCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Map(ctx, ipmCondition(), []float64{0}, []float64{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnvelope(t *testing.T) {
	cond := ipmCondition()
	speeds := []float64{0, 200, 400, 500, 1000}

	env, err := Envelope(context.Background(), cond, speeds)
	if err != nil {
		t.Fatalf("envelope failed: %v", err)
	}

	expected := []struct {
		torque   float64
		feasible bool
		fw       bool
	}{
		{1.019, true, false},
		{1.019, true, false},
		{0.730, true, false},
		{0.336, true, true},
		{0, false, false},
	}

	for i, e := range expected {
		p := env[i]
		if p.Speed != speeds[i] {
			t.Errorf("point %d: speed %f", i, p.Speed)
		}
		if p.Feasible != e.feasible {
			t.Errorf("speed %.0f: expected feasible=%v", p.Speed, e.feasible)
			continue
		}
		if math.Abs(p.MaxTorque-e.torque) > 2e-3 {
			t.Errorf("speed %.0f: expected max torque %.3f, got %.4f", p.Speed, e.torque, p.MaxTorque)
		}
		if !p.Feasible {
			continue
		}
		if p.Solution.FW != e.fw {
			t.Errorf("speed %.0f: expected fw=%v", p.Speed, e.fw)
		}
		if !cond.Feasible(&p.Solution, 1e-9) {
			t.Errorf("speed %.0f: envelope solution exceeds limits", p.Speed)
		}
	}
}

func TestTorqueBound(t *testing.T) {
	if b := TorqueBound(ipmCondition()); math.Abs(b-1.2) > 1e-12 {
		t.Errorf("expected 1.2, got %f", b)
	}
}
