package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/export"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/storage"
	"github.com/san-kum/chainsim/internal/viz"
	"github.com/spf13/cobra"
)

const maxPlots = 6

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSYSTEM\tTIME\tDURATION\tDT\tSTEPS\tLANES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Kind,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Lanes,
		)
	}
	return w.Flush()
}

// loadRows returns the stored rows as [q, qd] for runs or q for dataset
// lanes.
func loadRows(st *storage.Store, meta *storage.RunMetadata) ([][]float64, error) {
	if meta.Kind == storage.KindDataset {
		qs, err := st.LoadQ(meta.ID)
		if err != nil {
			return nil, err
		}
		if lane < 0 || lane >= len(qs) {
			return nil, fmt.Errorf("lane %d out of range [0, %d)", lane, len(qs))
		}
		return qs[lane], nil
	}
	states, _, err := st.LoadStates(meta.ID)
	return states, err
}

func column(rows [][]float64, idx int) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if idx < 0 || idx >= len(row) {
			return nil, fmt.Errorf("coordinate %d out of range [0, %d)", idx, len(row))
		}
		out[i] = row[idx]
	}
	return out, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := loadRows(st, meta)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("%s: %s\n", meta.Kind, meta.ID)
	fmt.Printf("system: %s\n", meta.System)
	fmt.Printf("samples: %d\n\n", len(rows))

	for idx := range min(len(rows[0]), maxPlots) {
		data, _ := column(rows, idx)
		caption := fmt.Sprintf("q%d vs time", idx)
		if idx >= meta.QSize {
			caption = fmt.Sprintf("qd%d vs time", idx-meta.QSize)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		))
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := loadRows(st, meta)
	if err != nil {
		return err
	}
	data, err := column(rows, coord)
	if err != nil {
		return err
	}

	freqs, power, err := analysis.PowerSpectrum(data, meta.Dt)
	if err != nil {
		return err
	}
	dominant, err := analysis.DominantFrequency(data, meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("system: %s\n\n", meta.System)
	shown := max(len(power)/4, 2)
	fmt.Println(asciigraph.Plot(power[:shown],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (coordinate %d, 0 to %.1f Hz)", coord, freqs[shown-1])),
	))
	fmt.Println()
	fmt.Printf("dominant frequency: %.3f hz\n", dominant)
	if dominant > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/dominant)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := loadRows(st, meta)
	if err != nil {
		return err
	}
	states := make([]dynamo.State, len(rows))
	for i, row := range rows {
		split := min(meta.QSize, len(row))
		states[i] = dynamo.State{Q: row[:split], QD: row[split:]}
	}

	if poincare {
		points, err := analysis.Poincare(states, coord, 0, xAxis, yAxis)
		if err != nil {
			return err
		}
		fmt.Printf("poincare section: coordinate %d crossing 0, %d points\n\n", coord, len(points))
		if len(points) == 0 {
			fmt.Println("no crossings detected")
			return nil
		}
		fmt.Println(analysis.Scatter(points, 60, 20))
		return nil
	}

	portrait, err := analysis.Portrait(states, xAxis, yAxis)
	if err != nil {
		return err
	}
	fmt.Printf("phase portrait: coordinate %d vs %d\n\n", xAxis, yAxis)
	fmt.Println(portrait.ASCII(60, 20))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	systems := args
	if len(systems) == 0 {
		systems = config.ListSystems()
	}
	for _, system := range systems {
		presets := config.ListPresets(system)
		if len(presets) == 0 {
			fmt.Printf("no presets for system: %s\n", system)
			continue
		}
		fmt.Printf("presets for %s:\n", system)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	var svg string
	if cmd.Flags().Changed("pose") {
		svg, err = poseSVG(st, meta)
	} else {
		svg, err = pathSVG(st, meta)
	}
	if err != nil {
		return err
	}
	if outFile == "" {
		_, err = fmt.Print(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func pathSVG(st *storage.Store, meta *storage.RunMetadata) (string, error) {
	rows, err := loadRows(st, meta)
	if err != nil {
		return "", err
	}
	xs, err := column(rows, xAxis)
	if err != nil {
		return "", err
	}
	ys, err := column(rows, yAxis)
	if err != nil {
		return "", err
	}
	points := make([]analysis.Point, len(xs))
	for i := range xs {
		points[i] = analysis.Point{X: xs[i], Y: ys[i]}
	}
	return export.PathSVG(points, 800, 600, "#00ff88"), nil
}

func poseSVG(st *storage.Store, meta *storage.RunMetadata) (string, error) {
	spec, ok := config.Systems[meta.System]
	if !ok {
		return "", fmt.Errorf("%w: %s", config.ErrUnknownSystem, meta.System)
	}
	sys, err := spec.Build()
	if err != nil {
		return "", err
	}

	var x []spatial.Transform
	if meta.Kind == storage.KindDataset {
		xs, err := st.LoadX(meta.ID)
		if err != nil {
			return "", err
		}
		if lane < 0 || lane >= len(xs) || pose < 0 || pose >= len(xs[lane]) {
			return "", fmt.Errorf("lane %d step %d out of range", lane, pose)
		}
		x = xs[lane][pose]
	} else {
		rows, err := loadRows(st, meta)
		if err != nil {
			return "", err
		}
		if pose < 0 || pose >= len(rows) {
			return "", fmt.Errorf("step %d out of range [0, %d)", pose, len(rows))
		}
		if x, err = dynamics.ForwardKinematics(sys, rows[pose][:meta.QSize]); err != nil {
			return "", err
		}
	}
	return export.SkeletonSVG(sys, x, viz.NewCamera(), 800, 600, "#ffffff"), nil
}
