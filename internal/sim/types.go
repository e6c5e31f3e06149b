package sim

import "github.com/san-kum/chainsim/internal/dynamo"

// Metric accumulates one scalar over a rollout. Observe sees every state
// before it is stepped.
type Metric interface {
	Name() string
	Observe(sys *dynamo.System, st dynamo.State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(st dynamo.State, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(st dynamo.State, t float64)

func (f ObserverFunc) OnStep(st dynamo.State, t float64) { f(st, t) }

// Config describes one rollout. The step size is the system's Dt.
type Config struct {
	Duration      float64 `yaml:"duration"`
	ValidateState bool    `yaml:"validate_state"`
}

// Result holds the visited states, the initial one included.
type Result struct {
	States      []dynamo.State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
}
