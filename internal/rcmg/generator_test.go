package rcmg

import (
	"context"
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func chain() *dynamo.System {
	sys, err := dynamo.New("chain", []dynamo.Body{
		{Name: "base", Parent: dynamo.World, Joint: "free"},
		{Name: "shoulder", Parent: 0, Joint: "spherical", Transform: spatial.Translation(r3.Vec{X: 0.3})},
		{Name: "elbow", Parent: 1, Joint: "ry", Transform: spatial.Translation(r3.Vec{X: 0.4})},
		{Name: "wrist", Parent: 2, Joint: "rr", Axis: r3.Vec{Z: 1}, Transform: spatial.Translation(r3.Vec{X: 0.3})},
		{Name: "slide", Parent: 0, Joint: "p3d"},
		{Name: "tip", Parent: 3, Joint: "frozen", Transform: spatial.Translation(r3.Vec{X: 0.1})},
	}, dynamo.DefaultOptions())
	Expect(err).NotTo(HaveOccurred())
	return sys
}

func shortConfig() Config {
	cfg := DefaultConfig()
	cfg.T = 10
	return cfg
}

func fingerprint(tr Trajectory) string {
	return fmt.Sprint(tr.Q[tr.Steps()-1])
}

var _ = Describe("Generator", func() {
	var (
		sys *dynamo.System
		cfg Config
		gen Generator
	)

	BeforeEach(func() {
		sys = chain()
		cfg = shortConfig()
		var err error
		gen, err = BuildGenerator(sys, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("samples round(T/dt) configurations and transforms", func() {
		tr, err := gen(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Q).To(HaveLen(1000))
		Expect(tr.X).To(HaveLen(1000))
		Expect(tr.Q[999]).To(HaveLen(sys.QSize()))
		Expect(tr.X[999]).To(HaveLen(sys.NumBodies()))
		Expect(tr.XArray()[999]).To(HaveLen(sys.NumBodies()))
	})

	It("is a pure function of the seed", func() {
		a, err := gen(7)
		Expect(err).NotTo(HaveOccurred())
		b, err := gen(7)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))

		c, err := gen(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Q).NotTo(Equal(a.Q))
	})

	It("matches forward kinematics at every sample", func() {
		tr, err := gen(3)
		Expect(err).NotTo(HaveOccurred())
		for _, t := range []int{0, 1, 500, 999} {
			x, err := dynamics.ForwardKinematics(sys, tr.Q[t])
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.X[t]).To(Equal(x))
		}
	})

	It("keeps hinge angles within limits and under the speed limit", func() {
		tr, err := gen(21)
		Expect(err).NotTo(HaveOccurred())
		lo, _ := sys.QRange(2)
		for t := 1; t < tr.Steps(); t++ {
			v := tr.Q[t][lo]
			Expect(v).To(BeNumerically(">=", cfg.AngMin))
			Expect(v).To(BeNumerically("<=", cfg.AngMax))
			Expect(math.Abs(v-tr.Q[t-1][lo]) / sys.Dt).To(BeNumerically("<=", cfg.DangMax+1e-9))
		}
	})

	It("keeps positions within limits and orientations unit", func() {
		tr, err := gen(5)
		Expect(err).NotTo(HaveOccurred())
		for _, q := range tr.Q {
			Expect(quat.Abs(quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]})).To(BeNumerically("~", 1, 1e-12))
			Expect(quat.Abs(quat.Number{Real: q[7], Imag: q[8], Jmag: q[9], Kmag: q[10]})).To(BeNumerically("~", 1, 1e-12))
			for _, p := range q[4:7] {
				Expect(p).To(BeNumerically(">=", cfg.PosMin))
				Expect(p).To(BeNumerically("<=", cfg.PosMax))
			}
		}
	})

	It("starts at the identity when initial angles are zero", func() {
		cfg.Ang0Min, cfg.Ang0Max = 0, 0
		gen, err := BuildGenerator(sys, cfg)
		Expect(err).NotTo(HaveOccurred())
		tr, err := gen(9)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Q[0][:4]).To(Equal([]float64{1, 0, 0, 0}))
		Expect(tr.X[0][0]).To(Equal(spatial.Identity()))
	})

	It("uses per-generator draw overrides", func() {
		hold := func(s Sampler) ([][]float64, error) {
			out := rows(s.Steps(), 1)
			for _, row := range out {
				row[0] = 0.25
			}
			return out, nil
		}
		gen, err := BuildGenerator(sys, cfg, WithDraw("ry", hold))
		Expect(err).NotTo(HaveOccurred())
		tr, err := gen(2)
		Expect(err).NotTo(HaveOccurred())
		lo, _ := sys.QRange(2)
		for _, q := range tr.Q {
			Expect(q[lo]).To(Equal(0.25))
		}
	})

	It("reports infeasible joint limits", func() {
		cfg.AngMin, cfg.AngMax = -0.01, 0.01
		cfg.Ang0Min, cfg.Ang0Max = 0, 0
		cfg.DangMin = 1
		cfg.TMin = 0.5
		cfg.TMax = 0.5
		gen, err := BuildGenerator(sys, cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = gen(1)
		Expect(err).To(MatchError(ErrInfeasibleJointLimits))
	})

	It("rejects invalid configurations up front", func() {
		cfg.TMin = 0
		_, err := BuildGenerator(sys, cfg)
		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	It("applies setup steps with their own seed", func() {
		gen, err := BuildGenerator(sys, cfg, WithSetup(RandomizeJointAxes))
		Expect(err).NotTo(HaveOccurred())
		a, err := gen(4)
		Expect(err).NotTo(HaveOccurred())
		plain, err := BuildGenerator(sys, cfg)
		Expect(err).NotTo(HaveOccurred())
		b, err := plain(4)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Q).To(Equal(b.Q))
		Expect(a.X[500][3]).NotTo(Equal(b.X[500][3]))
		Expect(a.X[500][2]).To(Equal(b.X[500][2]))
	})
})

var _ = Describe("RandomizeJointAxes", func() {
	It("draws deterministic unit axes and leaves the input untouched", func() {
		sys := chain()
		a, err := RandomizeJointAxes(1, sys)
		Expect(err).NotTo(HaveOccurred())
		b, err := RandomizeJointAxes(1, sys)
		Expect(err).NotTo(HaveOccurred())
		c, err := RandomizeJointAxes(2, sys)
		Expect(err).NotTo(HaveOccurred())

		for i := range a.Bodies {
			Expect(r3.Norm(a.Bodies[i].Axis)).To(BeNumerically("~", 1, 1e-12))
			Expect(a.Bodies[i].Axis).To(Equal(b.Bodies[i].Axis))
		}
		Expect(c.Bodies[3].Axis).NotTo(Equal(a.Bodies[3].Axis))
		Expect(sys.Bodies[3].Axis).To(Equal(r3.Vec{Z: 1}))
	})
})

var _ = Describe("Batching", func() {
	var gen Generator

	BeforeEach(func() {
		var err error
		gen, err = BuildGenerator(chain(), shortConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("derives lane i from SplitSeed(seed, i)", func() {
		batch, err := BatchGenerator(gen, 8)(99)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Len()).To(Equal(8))
		for _, i := range []int{0, 3, 7} {
			single, err := gen(SplitSeed(99, uint64(i)))
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.At(i)).To(Equal(single))
		}
	})

	It("concatenates lanes of several generators", func() {
		cfg := shortConfig()
		cfg.Ang0Min, cfg.Ang0Max = 0, 0
		still, err := BuildGenerator(chain(), cfg)
		Expect(err).NotTo(HaveOccurred())

		mixed, err := BatchGenerators([]Generator{gen, still}, []int{3, 2})
		Expect(err).NotTo(HaveOccurred())
		batch, err := mixed(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.Len()).To(Equal(5))

		first, err := gen(SplitSeed(5, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.At(1)).To(Equal(first))
		last, err := still(SplitSeed(5, 4))
		Expect(err).NotTo(HaveOccurred())
		Expect(batch.At(4)).To(Equal(last))
		Expect(batch.At(3).Q[0][:4]).To(Equal([]float64{1, 0, 0, 0}))
	})

	It("rejects mismatched sizes", func() {
		_, err := BatchGenerators([]Generator{gen}, []int{1, 2})
		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	It("names the failing lane", func() {
		failing := func(seed uint64) (Trajectory, error) { return Trajectory{}, ErrInfeasibleJointLimits }
		_, err := BatchGenerator(failing, 4)(1)
		Expect(err).To(MatchError(ErrInfeasibleJointLimits))
		Expect(err.Error()).To(HavePrefix("lane "))
	})
})

var _ = Describe("Stream and Dataset", func() {
	var batched BatchedGenerator

	BeforeEach(func() {
		cfg := shortConfig()
		cfg.T = 1
		gen, err := BuildGenerator(chain(), cfg)
		Expect(err).NotTo(HaveOccurred())
		batched = BatchGenerator(gen, 4)
	})

	It("replays after Reset", func() {
		s := NewStream(batched, 12)
		first, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		second, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(second.At(0)).NotTo(Equal(first.At(0)))

		s.Reset()
		again, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Lanes()).To(Equal(first.Lanes()))
	})

	It("serves the same order every epoch without shuffling", func() {
		d, err := Offline(context.Background(), batched, 3, 12)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Len()).To(Equal(12))
		Expect(d.BatchSize()).To(Equal(4))
		Expect(d.Batches()).To(Equal(3))

		e0, e1 := d.Epoch(0), d.Epoch(1)
		Expect(e0).To(HaveLen(3))
		for k := range e0 {
			Expect(e0[k].Lanes()).To(Equal(e1[k].Lanes()))
		}
		first, err := NewStream(batched, 12).Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(e0[0].Lanes()).To(Equal(first.Lanes()))
	})

	It("reshuffles deterministically per epoch", func() {
		d, err := Offline(context.Background(), batched, 3, 12, Shuffle())
		Expect(err).NotTo(HaveOccurred())
		other, err := Offline(context.Background(), batched, 3, 12, Shuffle())
		Expect(err).NotTo(HaveOccurred())

		seen := map[string]int{}
		for _, b := range d.Epoch(2) {
			for _, tr := range b.Lanes() {
				seen[fingerprint(tr)]++
			}
		}
		Expect(seen).To(HaveLen(12))
		for _, tr := range d.Trajectories() {
			Expect(seen[fingerprint(tr)]).To(Equal(1))
		}

		Expect(d.Epoch(2)).To(Equal(other.Epoch(2)))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Offline(ctx, batched, 3, 1)
		Expect(err).To(MatchError(context.Canceled))
	})
})
