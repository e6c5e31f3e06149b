package dynamics

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/vmap"
	"gonum.org/v1/gonum/mat"
)

// GeneralizedForce returns the passive joint forces: viscous damping on
// every degree of freedom and linear springs on joints whose q and qd
// coordinates coincide.
func GeneralizedForce(sys *dynamo.System, q, qd []float64) ([]float64, error) {
	if err := checkDims(sys, q, qd); err != nil {
		return nil, err
	}
	damping := sys.Damping()
	stiffness := sys.SpringStiffness()
	zero := sys.SpringZero()

	tau := make([]float64, sys.QDSize())
	for i := range tau {
		tau[i] = -damping[i] * qd[i]
	}
	for i := range sys.Bodies {
		j := sys.Joint(i)
		if j.QSize() != j.QDSize() {
			continue
		}
		lo, _ := sys.QRange(i)
		dlo, dhi := sys.QDRange(i)
		for k := range dhi - dlo {
			tau[dlo+k] -= stiffness[dlo+k] * (q[lo+k] - zero[lo+k])
		}
	}
	return tau, nil
}

// ForwardDynamics solves H(q) qdd = tau - C(q, qd) for qdd.
func ForwardDynamics(sys *dynamo.System, st dynamo.State) ([]float64, error) {
	if err := sys.Check(st); err != nil {
		return nil, err
	}
	n := sys.QDSize()
	if n == 0 {
		return []float64{}, nil
	}
	link := linkTransforms(sys, st.Q)
	bias := rnea(sys, link, st.Q, st.QD, nil)
	tau, err := GeneralizedForce(sys, st.Q, st.QD)
	if err != nil {
		return nil, err
	}
	for i := range tau {
		tau[i] -= bias[i]
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(crba(sys, link, st.Q)); !ok {
		return nil, ErrSingularMassMatrix
	}
	qdd := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(qdd, mat.NewVecDense(n, tau)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularMassMatrix, err)
	}
	return qdd.RawVector().Data, nil
}

// Step advances st by one system time step with semi-implicit Euler: the
// velocity is updated first and the new velocity moves the configuration.
// The returned state carries refreshed world transforms; st is unchanged.
func Step(sys *dynamo.System, st dynamo.State) (dynamo.State, error) {
	qdd, err := ForwardDynamics(sys, st)
	if err != nil {
		return dynamo.State{}, err
	}
	dt := sys.Dt

	qd := make([]float64, len(st.QD))
	for i := range qd {
		qd[i] = st.QD[i] + dt*qdd[i]
	}

	q := make([]float64, 0, len(st.Q))
	for i, b := range sys.Bodies {
		lo, hi := sys.QRange(i)
		dlo, dhi := sys.QDRange(i)
		seg, err := sys.Joint(i).Integrate(st.Q[lo:hi], qd[dlo:dhi], dt)
		if err != nil {
			return dynamo.State{}, fmt.Errorf("body %q: %w", b.Name, err)
		}
		q = append(q, seg...)
	}

	return dynamo.State{
		Q:  q,
		QD: qd,
		X:  worldTransforms(sys, linkTransforms(sys, q)),
	}, nil
}

// StepBatch steps every lane. Either argument may be shared across lanes.
func StepBatch(sys vmap.Arg[*dynamo.System], st vmap.Arg[dynamo.State]) (vmap.Batch[dynamo.State], error) {
	return vmap.Map2(Step, sys, st)
}

// Kinematics refreshes the cached world transforms of st.
func Kinematics(sys *dynamo.System, st dynamo.State) (dynamo.State, error) {
	if err := sys.Check(st); err != nil {
		return dynamo.State{}, err
	}
	x, err := ForwardKinematics(sys, st.Q)
	if err != nil {
		return dynamo.State{}, err
	}
	return st.Replace(dynamo.WithX(x))
}
