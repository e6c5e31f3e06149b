package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/storage"
	"github.com/san-kum/chainsim/internal/viz"
	"github.com/san-kum/chainsim/internal/vmap"
	"github.com/spf13/cobra"
)

func setup(cmd *cobra.Command, args []string) (*dynamo.System, dynamo.State, *config.Config, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, dynamo.State{}, nil, err
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return nil, dynamo.State{}, nil, err
	}
	st, err := cfg.InitState(sys)
	if err != nil {
		return nil, dynamo.State{}, nil, err
	}
	return sys, st, cfg, nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	sys, st, cfg, err := setup(cmd, args)
	if err != nil {
		return err
	}
	lambda, err := analysis.LyapunovExponent(sys, st, cfg.Sim.Duration, 1e-8)
	if err != nil {
		return err
	}
	fmt.Printf("system: %s\n", sys.Name)
	fmt.Printf("largest lyapunov exponent: %.4f 1/s\n", lambda)
	if lambda > 0 {
		fmt.Println("trajectory separation grows: chaotic")
	} else {
		fmt.Println("trajectory separation does not grow")
	}
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	sys, st, cfg, err := setup(cmd, args)
	if err != nil {
		return err
	}
	values := analysis.Linspace(sweepFrom, sweepTo, sweepN)
	transient := cfg.Sim.Duration / 2
	points, err := analysis.Sweep(sys, st, analysis.ScaleDamping, values, coord, transient, cfg.Sim.Duration-transient)
	if err != nil {
		return err
	}
	fmt.Printf("bifurcation diagram: %s, damping x%.2f to x%.2f, coordinate %d\n\n", sys.Name, sweepFrom, sweepTo, coord)
	fmt.Println(analysis.BifurcationToASCII(points, 80, 20))
	return nil
}

func inverseKinematics(cmd *cobra.Command, args []string) error {
	sys, st, _, err := setup(cmd, args)
	if err != nil {
		return err
	}
	body := ikBody
	if body == "" {
		if sys.NumBodies() == 0 {
			return fmt.Errorf("system %s has no bodies", sys.Name)
		}
		body = sys.Bodies[sys.NumBodies()-1].Name
	}

	var opts []dynamics.IKOption
	var target spatial.Transform
	switch {
	case len(ikTarget) == spatial.PoseSize:
		target = spatial.FromPose([spatial.PoseSize]float64(ikTarget))
		opts = append(opts, dynamics.WithInitialGuess(st.Q))
	case ikTarget == nil:
		x, err := dynamics.ForwardKinematics(sys, st.Q)
		if err != nil {
			return err
		}
		i, ok := sys.IndexOf(body)
		if !ok {
			return fmt.Errorf("%w: %q", dynamics.ErrUnknownBody, body)
		}
		target = x[i]
	default:
		return fmt.Errorf("--target needs %d values, got %d", spatial.PoseSize, len(ikTarget))
	}
	if ikRestarts > 0 {
		opts = append(opts, dynamics.WithRandomRestarts(ikRestarts, seed))
	}

	start := time.Now()
	res, err := dynamics.InverseKinematics(sys, body, target, opts...)
	if err != nil {
		return err
	}
	fmt.Printf("system: %s, body: %s\n", sys.Name, body)
	fmt.Printf("target: %v\n", target.Pose())
	fmt.Printf("q: %v\n", res.Q)
	fmt.Printf("error: %.3g (%s, start %d, %v)\n", res.Error, res.Status, res.Start, time.Since(start).Round(time.Millisecond))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	sys, st, _, err := setup(cmd, args)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(viz.NewModel(sys, st), tea.WithAltScreen()).Run()
	return err
}

func replayDataset(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	spec, ok := config.Systems[meta.System]
	if !ok {
		return fmt.Errorf("%w: %s", config.ErrUnknownSystem, meta.System)
	}
	sys, err := spec.Build()
	if err != nil {
		return err
	}
	if meta.Dt > 0 && meta.Dt != sys.Dt {
		if sys, err = sys.Replace(dynamo.WithDt(meta.Dt)); err != nil {
			return err
		}
	}
	xs, err := store.LoadX(meta.ID)
	if err != nil {
		return err
	}
	if lane < 0 || lane >= len(xs) {
		return fmt.Errorf("lane %d out of range [0, %d)", lane, len(xs))
	}
	_, err = tea.NewProgram(viz.NewReplay(sys, xs[lane]), tea.WithAltScreen()).Run()
	return err
}

func bench(cmd *cobra.Command, args []string) error {
	sys, st, _, err := setup(cmd, args)
	if err != nil {
		return err
	}
	const steps = 200

	fmt.Printf("benchmarking %s (%s)\n\n", sys.Name, sys.Shape())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tLANES\tSTEPS\tTIME\tSTEPS/SEC")

	start := time.Now()
	x := st
	for range steps * lanes {
		if x, err = dynamics.Step(sys, x); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	fmt.Fprintf(w, "single\t1\t%d\t%v\t%.0f\n", steps*lanes, elapsed, float64(steps*lanes)/elapsed.Seconds())

	start0 := make([]dynamo.State, lanes)
	for i := range start0 {
		start0[i] = st
	}
	batch, err := vmap.Stack(start0...)
	if err != nil {
		return err
	}
	start = time.Now()
	for range steps {
		if batch, err = dynamics.StepBatch(vmap.Shared(sys), vmap.Over(batch)); err != nil {
			return err
		}
	}
	elapsed = time.Since(start)
	fmt.Fprintf(w, "batched\t%d\t%d\t%v\t%.0f\n", lanes, steps*lanes, elapsed, float64(steps*lanes)/elapsed.Seconds())

	return w.Flush()
}
