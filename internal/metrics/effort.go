package metrics

import (
	"math"

	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
)

// PassiveEffort is the mean absolute damping and spring force summed over
// all degrees of freedom.
type PassiveEffort struct {
	name    string
	sum     float64
	samples int
}

func NewPassiveEffort() *PassiveEffort {
	return &PassiveEffort{
		name: "passive_effort",
	}
}

func (c *PassiveEffort) Name() string {
	return c.name
}

func (c *PassiveEffort) Observe(sys *dynamo.System, st dynamo.State, t float64) {
	tau, err := dynamics.GeneralizedForce(sys, st.Q, st.QD)
	if err != nil {
		return
	}
	for _, val := range tau {
		c.sum += math.Abs(val)
	}
	c.samples++
}

func (c *PassiveEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *PassiveEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
