package analysis

import (
	"math"

	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent by following st
// and a copy whose first velocity is offset by perturbation, renormalising
// the separation whenever it exceeds 1.
func LyapunovExponent(sys *dynamo.System, st dynamo.State, duration, perturbation float64) (float64, error) {
	if sys.QDSize() == 0 || perturbation <= 0 {
		return 0, nil
	}
	x := st.Clone()
	xp := st.Clone()
	xp.QD[0] += perturbation
	d0 := perturbation

	steps := int(math.Round(duration / sys.Dt))
	sumLog := 0.0
	count := 0
	var err error
	for range steps {
		if x, err = dynamics.Step(sys, x); err != nil {
			return 0, err
		}
		if xp, err = dynamics.Step(sys, xp); err != nil {
			return 0, err
		}

		sep := separation(x, xp)
		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++
		}
		if sep > 1.0 {
			if xp, err = renormalize(sys, x, xp, d0/sep); err != nil {
				return 0, err
			}
		}
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * sys.Dt), nil
}

func separation(a, b dynamo.State) float64 {
	sum := 0.0
	fa, fb := Flatten(a), Flatten(b)
	for i := range fa {
		d := fb[i] - fa[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// renormalize pulls xp towards x by scale. Joint configurations are passed
// through a zero-length step so quaternions stay unit.
func renormalize(sys *dynamo.System, x, xp dynamo.State, scale float64) (dynamo.State, error) {
	out := xp.Clone()
	for i := range out.Q {
		out.Q[i] = x.Q[i] + (xp.Q[i]-x.Q[i])*scale
	}
	for i := range out.QD {
		out.QD[i] = x.QD[i] + (xp.QD[i]-x.QD[i])*scale
	}
	q := make([]float64, 0, len(out.Q))
	for i := range sys.Bodies {
		lo, hi := sys.QRange(i)
		dlo, dhi := sys.QDRange(i)
		seg, err := sys.Joint(i).Integrate(out.Q[lo:hi], make([]float64, dhi-dlo), 0)
		if err != nil {
			return dynamo.State{}, err
		}
		q = append(q, seg...)
	}
	return out.Replace(dynamo.WithQ(q))
}
