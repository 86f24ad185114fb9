package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

func ipmCondition() *pmsm.Condition {
	return pmsm.NewCondition(pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4), 24, 10)
}

func tractionCondition() *pmsm.Condition {
	return pmsm.NewCondition(pmsm.NewMotorParameters(0.05, 0.0003, 0.0009, 0.02, 8), 48, 100)
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{-1, 0, 1, 2}, {0, 3}})

	calls := 0
	best, score, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		calls++
		return (p["a"]-1)*(p["a"]-1) + p["b"], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 8 {
		t.Errorf("expected 8 evaluations, got %d", calls)
	}
	if best["a"] != 1 || best["b"] != 0 || score != 0 {
		t.Errorf("unexpected best %v score %f", best, score)
	}
}

func TestGridSearchSkipsFailures(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	best, _, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		if p["x"] == 1 {
			return 0, errors.New("bad")
		}
		return 5, nil
	})
	if err != nil || best["x"] != 2 {
		t.Errorf("expected x=2, got %v (%v)", best, err)
	}
}

func TestGridSearchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"x"}, [][]float64{{1}})
	if _, _, err := g.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 0, nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIterationCost(t *testing.T) {
	cost, failed := IterationCost(ipmCondition(), []OperatingPoint{{0.3, 200}, {0.8, 100}})
	if cost != 1.5 || failed != 0 {
		t.Errorf("expected cost 1.5 with no failures, got %f/%d", cost, failed)
	}
}

func TestCalibrateKc(t *testing.T) {
	cond := ipmCondition()
	points := []OperatingPoint{{0.3, 200}, {0.8, 100}}

	cal, err := CalibrateKc(context.Background(), cond, []float64{0.95, 1.0, 1.05}, points)
	if err != nil {
		t.Fatalf("calibrate failed: %v", err)
	}
	if cal.Kc != 1.0 || cal.MeanIterations != 1.5 {
		t.Errorf("expected kc 1.0 at 1.5 iterations, got %+v", cal)
	}
	if cond.KcMTPA != 1.0 {
		t.Error("calibration must not modify the condition")
	}
}

func TestCalibrateKcPenalisesFailures(t *testing.T) {
	cal, err := CalibrateKc(context.Background(), tractionCondition(), []float64{10, 1}, []OperatingPoint{{10, 100}})
	if err != nil {
		t.Fatalf("calibrate failed: %v", err)
	}
	if cal.Kc != 1 || cal.MeanIterations != 9 || cal.NotConverged != 0 {
		t.Errorf("expected kc 1 with 9 iterations, got %+v", cal)
	}

	alone, err := CalibrateKc(context.Background(), tractionCondition(), []float64{10}, []OperatingPoint{{10, 100}})
	if err != nil {
		t.Fatal(err)
	}
	if alone.NotConverged != 1 || alone.MeanIterations != pmsm.MTPAMaxIterations+NotConvergedPenalty {
		t.Errorf("expected penalised cost, got %+v", alone)
	}
}

func TestCalibrateKcErrors(t *testing.T) {
	if _, err := CalibrateKc(context.Background(), ipmCondition(), []float64{1}, nil); err == nil {
		t.Error("expected error without points")
	}
	if _, err := CalibrateKc(context.Background(), ipmCondition(), []float64{0, -1}, []OperatingPoint{{0.3, 200}}); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("expected ErrNoCandidate, got %v", err)
	}
}
