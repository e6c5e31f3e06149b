package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func pointMass(m float64, at r3.Vec) []dynamo.Geometry {
	return []dynamo.Geometry{{Kind: dynamo.Sphere, Mass: m, Transform: spatial.Translation(at), Dim: []float64{0}}}
}

func rod() []dynamo.Geometry {
	return []dynamo.Geometry{{
		Kind:      dynamo.Box,
		Mass:      1,
		Transform: spatial.Translation(r3.Vec{X: 0.5}),
		Dim:       []float64{1, 0.1, 0.1},
	}}
}

func mustSystem(t testing.TB, bodies []dynamo.Body, opts dynamo.Options) *dynamo.System {
	t.Helper()
	sys, err := dynamo.New("test", bodies, opts)
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return sys
}

func mustState(t testing.TB, sys *dynamo.System, q, qd []float64) dynamo.State {
	t.Helper()
	st, err := dynamo.NewState(sys, q, qd)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st
}

func pendulum(t testing.TB, length float64) *dynamo.System {
	return mustSystem(t, []dynamo.Body{
		{Name: "bob", Parent: dynamo.World, Joint: "ry", Geoms: pointMass(1, r3.Vec{X: length})},
	}, dynamo.DefaultOptions())
}

func twoLink(t testing.TB) *dynamo.System {
	return mustSystem(t, []dynamo.Body{
		{Name: "upper", Parent: dynamo.World, Joint: "ry", Damping: []float64{2}, Geoms: rod()},
		{Name: "lower", Parent: 0, Joint: "ry", Transform: spatial.Translation(r3.Vec{X: 1}), Damping: []float64{2}, Geoms: rod()},
	}, dynamo.DefaultOptions())
}

func mixedChain(t testing.TB) *dynamo.System {
	return mustSystem(t, []dynamo.Body{
		{Name: "base", Parent: dynamo.World, Joint: "free", Geoms: rod()},
		{Name: "ball", Parent: 0, Joint: "spherical", Transform: spatial.Translation(r3.Vec{X: 1}), Geoms: rod()},
		{Name: "hinge", Parent: 1, Joint: "rr", Axis: r3.Vec{X: 1, Z: 1}, Transform: spatial.Transform{Pos: r3.Vec{X: 1}, Rot: spatial.Euler(0.2, 0, 0.4)}, Geoms: rod()},
		{Name: "slide", Parent: 0, Joint: "py", Transform: spatial.Translation(r3.Vec{Z: -0.3}), Armature: []float64{0.1}, Geoms: rod()},
	}, dynamo.DefaultOptions())
}

func TestPendulumAcceleration(t *testing.T) {
	const length = 2.0
	sys := pendulum(t, length)
	for _, theta := range []float64{0, 0.4, -1.1} {
		st := mustState(t, sys, []float64{theta}, nil)
		qdd, err := ForwardDynamics(sys, st)
		if err != nil {
			t.Fatalf("forward dynamics: %v", err)
		}
		want := 9.81 * math.Cos(theta) / length
		if math.Abs(qdd[0]-want) > 1e-10 {
			t.Errorf("theta=%.2f: expected qdd %.10f, got %.10f", theta, want, qdd[0])
		}
	}
}

func TestForwardKinematics(t *testing.T) {
	sys := twoLink(t)
	x, err := ForwardKinematics(sys, []float64{math.Pi / 2, math.Pi / 2})
	if err != nil {
		t.Fatalf("forward kinematics: %v", err)
	}
	if d := r3.Norm(r3.Sub(x[1].Pos, r3.Vec{Z: -1})); d > 1e-12 {
		t.Errorf("expected elbow at (0,0,-1), got %v", x[1].Pos)
	}
	tip := x[1].PointToParent(r3.Vec{X: 1})
	if d := r3.Norm(r3.Sub(tip, r3.Vec{X: -1, Z: -1})); d > 1e-12 {
		t.Errorf("expected tip at (-1,0,-1), got %v", tip)
	}

	if _, err := ForwardKinematics(sys, []float64{0}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestInverseDynamicsConsistency(t *testing.T) {
	sys := mixedChain(t)
	rot := spatial.Euler(0.3, -0.2, 0.9)
	ball := spatial.Euler(-0.5, 0.1, 0.2)
	q := []float64{rot.Real, rot.Imag, rot.Jmag, rot.Kmag, 0.1, 0.2, 0.3, ball.Real, ball.Imag, ball.Jmag, ball.Kmag, 0.7, -0.2}
	qd := []float64{0.3, -0.1, 0.5, 1, -2, 0.5, 0.2, 0.4, -0.6, 1.5, -0.8}
	qdd := []float64{1, 0.5, -0.3, 0.2, 0.1, -1, 2, -1, 0.5, 0.3, 0.9}

	h, err := MassMatrix(sys, q)
	if err != nil {
		t.Fatalf("mass matrix: %v", err)
	}
	var chol mat.Cholesky
	if !chol.Factorize(h) {
		t.Fatal("expected positive definite mass matrix")
	}

	c, err := Bias(sys, q, qd)
	if err != nil {
		t.Fatalf("bias: %v", err)
	}
	tau, err := InverseDynamics(sys, q, qd, qdd)
	if err != nil {
		t.Fatalf("inverse dynamics: %v", err)
	}

	var hq mat.VecDense
	hq.MulVec(h, mat.NewVecDense(len(qdd), qdd))
	arm := sys.Armature()
	for i := range tau {
		// inverse dynamics excludes armature
		want := hq.AtVec(i) - arm[i]*qdd[i] + c[i]
		if math.Abs(tau[i]-want) > 1e-9 {
			t.Errorf("dof %d: expected tau %.10f, got %.10f", i, want, tau[i])
		}
	}
}

func TestZeroGravityAtRest(t *testing.T) {
	sys := mixedChain(t)
	sys, err := sys.Replace(dynamo.WithGravity(r3.Vec{}))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	rot := spatial.Euler(0.3, -0.2, 0.9)
	q := []float64{rot.Real, rot.Imag, rot.Jmag, rot.Kmag, 0.1, 0.2, 0.3, 1, 0, 0, 0, 0.7, -0.2}
	st := mustState(t, sys, q, nil)

	next := st
	for range 50 {
		next, err = Step(sys, next)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if !floats.EqualApprox(next.Q, q, 1e-12) {
		t.Errorf("expected q %v, got %v", q, next.Q)
	}
	for i, v := range next.QD {
		if v != 0 {
			t.Errorf("qd[%d]: expected 0, got %g", i, v)
		}
	}
	if !cmp.Equal(st.Q, q) {
		t.Errorf("expected input state untouched, got %v", st.Q)
	}
}

func TestTwoLinkBatchedGravity(t *testing.T) {
	sys := twoLink(t)
	flat, err := sys.Replace(dynamo.WithGravity(r3.Vec{}))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	systems, err := sys.Batch(flat)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	rest := mustState(t, sys, nil, nil)

	out, err := StepBatch(vmap.Over(systems), vmap.Shared(rest))
	if err != nil {
		t.Fatalf("step batch: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 lanes, got %d", out.Len())
	}

	falling := out.At(0).Q
	if falling[0] <= 0 || falling[0] > 0.05 || falling[1] == 0 || math.Abs(falling[1]) > 0.05 {
		t.Errorf("expected small nonzero motion with upper link falling, got %v", falling)
	}
	if still := out.At(1).Q; !cmp.Equal(still, []float64{0, 0}) {
		t.Errorf("expected [0 0] without gravity, got %v", still)
	}
}

func TestBatchingLaw(t *testing.T) {
	base := twoLink(t)
	for _, n := range []int{1, 2, 5} {
		systems := make([]*dynamo.System, n)
		states := make([]dynamo.State, n)
		for i := range n {
			var err error
			systems[i], err = base.Replace(
				dynamo.WithGravity(r3.Vec{Z: -9.81 + float64(i)}),
				dynamo.WithDamping([]float64{0.1 * float64(i), 0.5}),
			)
			if err != nil {
				t.Fatalf("replace: %v", err)
			}
			states[i] = mustState(t, base, []float64{0.1 * float64(i), -0.3}, []float64{0.5, float64(i)})
		}
		sb, err := systems[0].Batch(systems[1:]...)
		if err != nil {
			t.Fatalf("batch systems: %v", err)
		}
		xb, err := states[0].Batch(states[1:]...)
		if err != nil {
			t.Fatalf("batch states: %v", err)
		}

		cases := []struct {
			name string
			sys  vmap.Arg[*dynamo.System]
			st   vmap.Arg[dynamo.State]
			pick func(i int) (*dynamo.System, dynamo.State)
		}{
			{"both", vmap.Over(sb), vmap.Over(xb), func(i int) (*dynamo.System, dynamo.State) { return systems[i], states[i] }},
			{"shared system", vmap.Shared(base), vmap.Over(xb), func(i int) (*dynamo.System, dynamo.State) { return base, states[i] }},
			{"shared state", vmap.Over(sb), vmap.Shared(states[0]), func(i int) (*dynamo.System, dynamo.State) { return systems[i], states[0] }},
		}
		for _, tc := range cases {
			got, err := StepBatch(tc.sys, tc.st)
			if err != nil {
				t.Fatalf("n=%d %s: step batch: %v", n, tc.name, err)
			}
			for i := range n {
				want, err := Step(tc.pick(i))
				if err != nil {
					t.Fatalf("step: %v", err)
				}
				if diff := cmp.Diff(want, got.At(i)); diff != "" {
					t.Errorf("n=%d %s lane %d differs (-want +got):\n%s", n, tc.name, i, diff)
				}
			}
		}
	}
}

func TestStepBatchSizeMismatch(t *testing.T) {
	sys := twoLink(t)
	sb, _ := sys.Batch(sys, sys)
	st := mustState(t, sys, nil, nil)
	xb, _ := st.Batch(st)
	if _, err := StepBatch(vmap.Over(sb), vmap.Over(xb)); !errors.Is(err, dynamo.ErrStructuralMismatch) {
		t.Errorf("expected ErrStructuralMismatch, got %v", err)
	}
}

func TestStepRejectsForeignState(t *testing.T) {
	sys := twoLink(t)
	st := mustState(t, pendulum(t, 1), nil, nil)
	if _, err := Step(sys, st); !errors.Is(err, dynamo.ErrStructuralMismatch) {
		t.Errorf("expected ErrStructuralMismatch, got %v", err)
	}
}

func TestSingularMassMatrix(t *testing.T) {
	sys := mustSystem(t, []dynamo.Body{{Parent: dynamo.World, Joint: "rx"}}, dynamo.DefaultOptions())
	st := mustState(t, sys, nil, nil)
	if _, err := Step(sys, st); !errors.Is(err, ErrSingularMassMatrix) {
		t.Errorf("expected ErrSingularMassMatrix, got %v", err)
	}
}

func TestFreeFall(t *testing.T) {
	sys := mustSystem(t, []dynamo.Body{
		{Parent: dynamo.World, Joint: "free", Geoms: []dynamo.Geometry{{Kind: dynamo.Sphere, Mass: 2, Dim: []float64{0.1}}}},
	}, dynamo.DefaultOptions())
	st := mustState(t, sys, nil, nil)
	var err error
	const n = 100
	for range n {
		if st, err = Step(sys, st); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	want := -9.81 * sys.Dt * sys.Dt * n * (n + 1) / 2
	if math.Abs(st.Q[6]-want) > 1e-9 {
		t.Errorf("expected z %.9f, got %.9f", want, st.Q[6])
	}
	if math.Abs(st.X[0].Pos.Z-want) > 1e-9 {
		t.Errorf("expected cached transform at z %.9f, got %.9f", want, st.X[0].Pos.Z)
	}
}

func TestQuaternionStaysUnit(t *testing.T) {
	sys := mustSystem(t, []dynamo.Body{
		{Parent: dynamo.World, Joint: "free", Geoms: []dynamo.Geometry{{Kind: dynamo.Box, Mass: 1, Dim: []float64{1, 0.4, 0.2}}}},
		{Parent: 0, Joint: "spherical", Transform: spatial.Translation(r3.Vec{X: 0.5}), Geoms: rod()},
	}, dynamo.Options{Dt: 0.005})
	st := mustState(t, sys, nil, []float64{0.5, 3, -1, 0, 0, 0, 2, 0, 1})
	var err error
	for range 2000 {
		if st, err = Step(sys, st); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	for _, lo := range []int{0, 7} {
		n := quat.Abs(quat.Number{Real: st.Q[lo], Imag: st.Q[lo+1], Jmag: st.Q[lo+2], Kmag: st.Q[lo+3]})
		if math.Abs(n-1) > 1e-12 {
			t.Errorf("q[%d:%d]: expected unit norm, got %.15f", lo, lo+4, n)
		}
	}
}

func TestEnergy(t *testing.T) {
	sys := pendulum(t, 1)
	st := mustState(t, sys, []float64{0.5}, nil)
	k0, p0, err := Energy(sys, st)
	if err != nil {
		t.Fatalf("energy: %v", err)
	}
	if k0 != 0 || math.Abs(p0+9.81*math.Sin(0.5)) > 1e-12 {
		t.Errorf("expected (0, %.6f), got (%.6f, %.6f)", -9.81*math.Sin(0.5), k0, p0)
	}

	sys, _ = sys.Replace(dynamo.WithDt(0.001))
	for range 2000 {
		if st, err = Step(sys, st); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	k1, p1, _ := Energy(sys, st)
	if drift := math.Abs((k1 + p1) - (k0 + p0)); drift > 0.02*math.Abs(k0+p0) {
		t.Errorf("expected conserved energy %.6f, got %.6f", k0+p0, k1+p1)
	}

	damped, _ := sys.Replace(dynamo.WithDamping([]float64{0.5}))
	st = mustState(t, damped, []float64{0.5}, nil)
	for range 2000 {
		st, _ = Step(damped, st)
	}
	k2, p2, _ := Energy(damped, st)
	if k2+p2 >= k0+p0 {
		t.Errorf("expected damping to dissipate energy, got %.6f >= %.6f", k2+p2, k0+p0)
	}
}

func TestCenterOfMass(t *testing.T) {
	sys := twoLink(t)
	m, com, err := CenterOfMass(sys, []float64{0, 0})
	if err != nil {
		t.Fatalf("center of mass: %v", err)
	}
	if m != 2 || math.Abs(com.X-1) > 1e-12 {
		t.Errorf("expected mass 2 at x=1, got %f at %v", m, com)
	}
}
