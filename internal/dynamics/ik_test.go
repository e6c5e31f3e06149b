package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
)

func TestInverseKinematicsTwoLink(t *testing.T) {
	sys := twoLink(t)
	want := []float64{0.4, -0.7}
	xs, err := ForwardKinematics(sys, want)
	if err != nil {
		t.Fatalf("forward kinematics: %v", err)
	}

	res, err := InverseKinematics(sys, "lower", xs[1])
	if err != nil {
		t.Fatalf("inverse kinematics: %v", err)
	}
	if res.Error > 1e-6 {
		t.Errorf("expected objective below 1e-6, got %g", res.Error)
	}
	for i := range want {
		if math.Abs(res.Q[i]-want[i]) > 1e-5 {
			t.Errorf("q[%d]: expected %.6f, got %.6f", i, want[i], res.Q[i])
		}
	}
}

func TestInverseKinematicsRestarts(t *testing.T) {
	sys := twoLink(t)
	want := []float64{-1.2, 0.9}
	xs, err := ForwardKinematics(sys, want)
	if err != nil {
		t.Fatalf("forward kinematics: %v", err)
	}

	a, err := InverseKinematics(sys, "lower", xs[1], WithRandomRestarts(4, 9))
	if err != nil {
		t.Fatalf("inverse kinematics: %v", err)
	}
	b, err := InverseKinematics(sys, "lower", xs[1], WithRandomRestarts(4, 9))
	if err != nil {
		t.Fatalf("inverse kinematics: %v", err)
	}
	if !cmp.Equal(a, b) {
		t.Errorf("expected identical results for one seed, got %+v and %+v", a, b)
	}
	if a.Start < 0 || a.Start >= 4 {
		t.Errorf("expected winning start in [0, 4), got %d", a.Start)
	}
	for i, q := range a.Q {
		if q < -math.Pi || q > math.Pi {
			t.Errorf("q[%d]: expected wrapped hinge angle, got %g", i, q)
		}
		if math.Abs(q-want[i]) > 1e-5 {
			t.Errorf("q[%d]: expected %.6f, got %.6f", i, want[i], q)
		}
	}
}

func TestInverseKinematicsNormalizesQuaternion(t *testing.T) {
	sys := mustSystem(t, []dynamo.Body{
		{Name: "ball", Parent: dynamo.World, Joint: "spherical", Geoms: rod()},
	}, dynamo.DefaultOptions())
	target := spatial.Rotation(spatial.Euler(0.2, -0.1, 0.4))

	res, err := InverseKinematics(sys, "ball", target,
		WithInitialGuess([]float64{2, 0, 0, 0}), WithErrorWeights(1, 0))
	if err != nil {
		t.Fatalf("inverse kinematics: %v", err)
	}
	n := math.Sqrt(res.Q[0]*res.Q[0] + res.Q[1]*res.Q[1] + res.Q[2]*res.Q[2] + res.Q[3]*res.Q[3])
	if math.Abs(n-1) > 1e-12 {
		t.Errorf("expected unit quaternion, got norm %.15f", n)
	}
	if res.Error > 1e-4 {
		t.Errorf("expected objective below 1e-4, got %g", res.Error)
	}
}

func TestInverseKinematicsErrors(t *testing.T) {
	sys := twoLink(t)
	if _, err := InverseKinematics(sys, "missing", spatial.Identity()); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
	_, err := InverseKinematics(sys, "lower", spatial.Identity(), WithInitialGuess([]float64{0}))
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestWrapToPi(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		if got := wrapToPi(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("wrapToPi(%g): expected %g, got %g", tt.in, tt.want, got)
		}
	}
}
