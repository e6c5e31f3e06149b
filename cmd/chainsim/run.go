package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/chainsim/internal/metrics"
	"github.com/san-kum/chainsim/internal/rcmg"
	"github.com/san-kum/chainsim/internal/sensors"
	"github.com/san-kum/chainsim/internal/sim"
	"github.com/san-kum/chainsim/internal/storage"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"
)

const stabilityThreshold = 100.0

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return err
	}
	st0, err := cfg.InitState(sys)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}

	log := newLogger()
	s := sim.New(sys, sim.WithLogger(log))
	s.AddMetric(metrics.NewEnergy())
	s.AddMetric(metrics.NewEnergyDrift())
	s.AddMetric(metrics.NewStability(stabilityThreshold))
	s.AddMetric(metrics.NewLimitViolations(r1.Interval{Min: cfg.RCMG.AngMin, Max: cfg.RCMG.AngMax}))
	s.AddMetric(metrics.NewPassiveEffort())

	fmt.Printf("running %s simulation...\n", sys.Name)
	start := time.Now()
	simCfg := cfg.SimConfig()
	result, err := s.Run(context.Background(), st0, simCfg)
	if err != nil {
		if result == nil || len(result.States) < 2 {
			return err
		}
		log.Error(err, "rollout stopped early, saving partial result", "steps", result.StepsTaken)
	}
	elapsed := time.Since(start)

	runID, err := store.SaveRun(sys, simCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func generateDataset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return err
	}

	log := newLogger()
	opts := []rcmg.Option{rcmg.WithLogger(log)}
	if cfg.Dataset.RandomizeAxes {
		opts = append(opts, rcmg.WithSetup(rcmg.RandomizeJointAxes))
	}
	gen, err := rcmg.BuildGenerator(sys, cfg.RCMG, opts...)
	if err != nil {
		return err
	}

	dsOpts := []rcmg.DatasetOption{rcmg.DatasetLogger(log)}
	if cfg.Dataset.Shuffle {
		dsOpts = append(dsOpts, rcmg.Shuffle())
	}

	fmt.Printf("generating %d x %d trajectories for %s (seed %d)...\n",
		cfg.Dataset.Batches, cfg.Dataset.BatchSize, sys.Name, cfg.Dataset.Seed)
	start := time.Now()
	ds, err := rcmg.Offline(context.Background(), rcmg.BatchGenerator(gen, cfg.Dataset.BatchSize),
		cfg.Dataset.Batches, cfg.Dataset.Seed, dsOpts...)
	if err != nil {
		return err
	}
	var trajs []rcmg.Trajectory
	for _, b := range ds.Epoch(0) {
		trajs = append(trajs, b.Lanes()...)
	}
	elapsed := time.Since(start)

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.SaveDataset(sys, cfg.RCMG, cfg.Dataset.Seed, trajs)
	if err != nil {
		return err
	}

	sampleDt := cfg.RCMG.Dt
	if sampleDt == 0 {
		sampleDt = sys.Dt
	}
	for _, name := range imuBodies {
		body, ok := sys.IndexOf(name)
		if !ok {
			return fmt.Errorf("unknown body %q", name)
		}
		imus := make([]sensors.IMU, len(trajs))
		for i, tr := range trajs {
			var sopts []sensors.Option
			if imuSmoothing > 1 {
				sopts = append(sopts, sensors.WithSmoothing(imuSmoothing))
			}
			if imuNoise {
				sopts = append(sopts, sensors.WithNoise(rcmg.SplitSeed(cfg.Dataset.Seed^uint64(body), uint64(i))))
			}
			if imus[i], err = sensors.Measure(sensors.Column(tr.X, body), sys.Gravity, sampleDt, sopts...); err != nil {
				return fmt.Errorf("imu %s lane %d: %w", name, i, err)
			}
		}
		if err := store.SaveIMU(id, name, imus); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("dataset id: %s\n", id)
	fmt.Printf("trajectories: %d, steps: %d, dt: %g\n", len(trajs), trajs[0].Steps(), sampleDt)
	return nil
}
