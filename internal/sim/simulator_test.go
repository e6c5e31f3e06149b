package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
	"gonum.org/v1/gonum/spatial/r3"
)

func pendulum(t *testing.T, damping float64) *dynamo.System {
	t.Helper()
	sys, err := dynamo.New("pendulum", []dynamo.Body{{
		Name:    "bob",
		Parent:  dynamo.World,
		Joint:   "ry",
		Damping: []float64{damping},
		Geoms: []dynamo.Geometry{{
			Kind:      dynamo.Sphere,
			Mass:      1,
			Transform: spatial.Translation(r3.Vec{X: 1}),
			Dim:       []float64{0.05},
		}},
	}}, dynamo.DefaultOptions())
	if err != nil {
		t.Fatalf("new system: %v", err)
	}
	return sys
}

func initial(t *testing.T, sys *dynamo.System, q float64) dynamo.State {
	t.Helper()
	st, err := dynamo.NewState(sys, []float64{q}, nil)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st
}

func TestSimulatorRun(t *testing.T) {
	sys := pendulum(t, 0)
	sim := New(sys)

	result, err := sim.Run(context.Background(), initial(t, sys, 0.3), Config{Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 101 {
		t.Errorf("expected 101 states, got %d", len(result.States))
	}
	if len(result.Times) != 101 {
		t.Errorf("expected 101 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", result.StepsTaken)
	}
	if math.Abs(result.Times[100]-1.0) > 1e-12 {
		t.Errorf("expected final time 1.0, got %v", result.Times[100])
	}

	// the rollout is the fold of Step
	st := result.States[0]
	for i := 0; i < 100; i++ {
		if st, err = dynamics.Step(sys, st); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(st, result.States[100]); diff != "" {
		t.Errorf("final state differs from stepping by hand (-want +got):\n%s", diff)
	}
	if result.EnergyDrift > 0.1 {
		t.Errorf("expected small energy drift, got %v", result.EnergyDrift)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sys := pendulum(t, 0)
	sim := New(sys)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero duration", Config{Duration: 0}},
		{"negative duration", Config{Duration: -1.0}},
		{"shorter than dt", Config{Duration: 0.001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), initial(t, sys, 0), tt.cfg)
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestSimulatorForeignState(t *testing.T) {
	sys := pendulum(t, 0)
	other, err := dynamo.New("free", []dynamo.Body{{Parent: dynamo.World, Joint: "free"}}, dynamo.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	st, err := dynamo.NewState(other, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(sys).Run(context.Background(), st, Config{Duration: 1}); !errors.Is(err, dynamo.ErrStructuralMismatch) {
		t.Errorf("expected ErrStructuralMismatch, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(_ *dynamo.System, st dynamo.State, _ float64) {
	m.count++
	m.sum += st.Q[0]
}
func (m *testMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *testMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sys := pendulum(t, 0)
	sim := New(sys)

	metric := &testMetric{}
	sim.AddMetric(metric)
	var seen int
	sim.AddObserver(ObserverFunc(func(dynamo.State, float64) { seen++ }))

	result, err := sim.Run(context.Background(), initial(t, sys, 0.2), Config{Duration: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if seen != 10 {
		t.Errorf("expected 10 observer calls, got %d", seen)
	}
}

func TestSimulatorCancel(t *testing.T) {
	sys := pendulum(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(sys).Run(ctx, initial(t, sys, 0.2), Config{Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(result.States) != 1 {
		t.Errorf("expected only the initial state, got %d", len(result.States))
	}
}

func TestSimulatorStepError(t *testing.T) {
	sys, err := dynamo.New("massless", []dynamo.Body{{Parent: dynamo.World, Joint: "rx"}}, dynamo.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	st, err := dynamo.NewState(sys, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = New(sys).Run(context.Background(), st, Config{Duration: 1})
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if simErr.Step != 0 {
		t.Errorf("expected failure at step 0, got %d", simErr.Step)
	}
	if !errors.Is(err, dynamics.ErrSingularMassMatrix) {
		t.Errorf("expected ErrSingularMassMatrix, got %v", err)
	}
}

func TestRunWithCallback(t *testing.T) {
	sys := pendulum(t, 0)
	var calls int
	err := New(sys).RunWithCallback(context.Background(), initial(t, sys, 0.2), Config{Duration: 1}, func(_ dynamo.State, tm float64) bool {
		calls++
		return tm < 0.245
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 26 {
		t.Errorf("expected 26 callbacks, got %d", calls)
	}
}

func TestEnsembleMatchesSingleRuns(t *testing.T) {
	light := pendulum(t, 0)
	heavy := pendulum(t, 3)
	systems, err := light.Batch(heavy, light)
	if err != nil {
		t.Fatal(err)
	}
	st := initial(t, light, 0.5)
	cfg := Config{Duration: 0.5}

	results, err := NewEnsemble(func() Metric { return &testMetric{} }).Run(context.Background(), vmap.Over(systems), vmap.Shared(st), cfg)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if results.Len() != 3 {
		t.Fatalf("expected 3 lanes, got %d", results.Len())
	}
	for i, sys := range systems.Lanes() {
		sim := New(sys)
		sim.AddMetric(&testMetric{})
		want, err := sim.Run(context.Background(), st, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, results.At(i)); diff != "" {
			t.Errorf("lane %d differs (-want +got):\n%s", i, diff)
		}
	}
	if cmp.Equal(results.At(0).States, results.At(1).States) {
		t.Error("expected damping to change the rollout")
	}
}
