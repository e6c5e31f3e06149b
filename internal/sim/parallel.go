package sim

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/vmap"
)

// Ensemble runs one rollout per lane. Either the systems or the initial
// states may be shared across lanes. Every lane gets fresh metrics.
type Ensemble struct {
	metrics []func() Metric
	log     logr.Logger
}

func NewEnsemble(metrics ...func() Metric) *Ensemble {
	return &Ensemble{metrics: metrics, log: logr.Discard()}
}

func (e *Ensemble) WithLogger(l logr.Logger) *Ensemble {
	e.log = l
	return e
}

func (e *Ensemble) Run(ctx context.Context, systems vmap.Arg[*dynamo.System], states vmap.Arg[dynamo.State], cfg Config) (vmap.Batch[*Result], error) {
	return vmap.Map2(func(sys *dynamo.System, st dynamo.State) (*Result, error) {
		s := New(sys, WithLogger(e.log))
		for _, mk := range e.metrics {
			s.AddMetric(mk())
		}
		return s.Run(ctx, st, cfg)
	}, systems, states)
}
