package sim

import (
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	x := State{1, 2}
	c := x.Clone()
	c[0] = 5
	if x[0] != 1 {
		t.Error("state clone shares memory")
	}

	u := Control{3}
	uc := u.Clone()
	uc[0] = 0
	if u[0] != 3 {
		t.Error("control clone shares memory")
	}
}
