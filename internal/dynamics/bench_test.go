package dynamics

import (
	"testing"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
	"gonum.org/v1/gonum/spatial/r3"
)

func chain(b *testing.B, links int) *dynamo.System {
	bodies := make([]dynamo.Body, links)
	for i := range bodies {
		bodies[i] = dynamo.Body{Parent: i - 1, Joint: "ry", Damping: []float64{0.1}, Geoms: rod()}
		if i > 0 {
			bodies[i].Transform = spatial.Translation(r3.Vec{X: 1})
		}
	}
	return mustSystem(b, bodies, dynamo.DefaultOptions())
}

func BenchmarkStepTwoLink(b *testing.B) {
	sys := chain(b, 2)
	st := mustState(b, sys, []float64{0.3, -0.2}, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st, _ = Step(sys, st)
	}
}

func BenchmarkStepTenLink(b *testing.B) {
	sys := chain(b, 10)
	st := mustState(b, sys, nil, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st, _ = Step(sys, st)
	}
}

func BenchmarkStepBatch64(b *testing.B) {
	sys := chain(b, 4)
	lanes := make([]dynamo.State, 64)
	for i := range lanes {
		lanes[i] = mustState(b, sys, []float64{0.01 * float64(i), 0, 0, 0}, nil)
	}
	batch, _ := lanes[0].Batch(lanes[1:]...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch, _ = StepBatch(vmap.Shared(sys), vmap.Over(batch))
	}
}
