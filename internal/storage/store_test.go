package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/rcmg"
	"github.com/san-kum/chainsim/internal/sensors"
	"github.com/san-kum/chainsim/internal/sim"
)

func system(t *testing.T, name string) *dynamo.System {
	t.Helper()
	sys, err := config.Systems[name].Build()
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return sys
}

func rollout(t *testing.T, sys *dynamo.System) (sim.Config, *sim.Result) {
	t.Helper()
	st, err := dynamo.NewState(sys, []float64{0.5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.Config{Duration: 0.1}
	result, err := sim.New(sys).Run(context.Background(), st, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return cfg, result
}

func dataset(t *testing.T, sys *dynamo.System, lanes int) (rcmg.Config, []rcmg.Trajectory) {
	t.Helper()
	cfg := rcmg.DefaultConfig()
	cfg.T = 0.2
	gen, err := rcmg.BuildGenerator(sys, cfg)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]rcmg.Trajectory, lanes)
	for i := range out {
		if out[i], err = gen(rcmg.SplitSeed(7, uint64(i))); err != nil {
			t.Fatal(err)
		}
	}
	return cfg, out
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	sys := system(t, "pendulum")
	cfg, result := rollout(t, sys)
	result.Metrics = map[string]float64{"energy": 1.5}

	id, err := st.SaveRun(sys, cfg, result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(id, "pendulum_") {
		t.Errorf("expected id prefixed by system name, got %s", id)
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Kind != KindRun {
		t.Errorf("expected kind %s, got %s", KindRun, meta.Kind)
	}
	if meta.Steps != 10 {
		t.Errorf("expected 10 steps, got %d", meta.Steps)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy metric 1.5, got %v", meta.Metrics["energy"])
	}
	if len(meta.Bodies) != 1 || meta.Bodies[0] != "bob" {
		t.Errorf("expected bodies [bob], got %v", meta.Bodies)
	}

	states, times, err := st.LoadStates(id)
	if err != nil {
		t.Fatalf("load states: %v", err)
	}
	if len(states) != len(result.States) {
		t.Fatalf("expected %d states, got %d", len(result.States), len(states))
	}
	for i, row := range states {
		want := append(append([]float64{}, result.States[i].Q...), result.States[i].QD...)
		for k := range want {
			if row[k] != want[k] {
				t.Errorf("state %d col %d: expected %v, got %v", i, k, want[k], row[k])
			}
		}
		if times[i] != result.Times[i] {
			t.Errorf("time %d: expected %v, got %v", i, result.Times[i], times[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	sys := system(t, "pendulum")
	cfg, result := rollout(t, sys)
	for range 3 {
		if _, err := st.SaveRun(sys, cfg, result); err != nil {
			t.Fatal(err)
		}
	}
	// junk directories are skipped
	os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.After(runs[i-1].Timestamp) {
			t.Errorf("expected newest first at %d", i)
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	sys := system(t, "pendulum")
	cfg, result := rollout(t, sys)
	id, err := st.SaveRun(sys, cfg, result)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{metadataFile, statesFile} {
		if _, err := os.Stat(filepath.Join(st.baseDir, id, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(st.baseDir, id, statesFile))
	if err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != "time,q0,qd0" {
		t.Errorf("expected header time,q0,qd0, got %s", header)
	}
}

func TestStoreDataset(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	sys := system(t, "free_chain")
	cfg, lanes := dataset(t, sys, 2)
	id, err := st.SaveDataset(sys, cfg, 7, lanes)
	if err != nil {
		t.Fatalf("save dataset: %v", err)
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Kind != KindDataset || meta.Lanes != 2 || meta.Seed != 7 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.SeedScheme != rcmg.SeedScheme {
		t.Errorf("expected seed scheme %s, got %s", rcmg.SeedScheme, meta.SeedScheme)
	}
	if meta.Steps != 20 {
		t.Errorf("expected 20 steps, got %d", meta.Steps)
	}

	qs, err := st.LoadQ(id)
	if err != nil {
		t.Fatalf("load q: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(qs))
	}
	for l := range qs {
		for s := range qs[l] {
			for k, v := range qs[l][s] {
				if v != lanes[l].Q[s][k] {
					t.Fatalf("lane %d step %d q%d: expected %v, got %v", l, s, k, lanes[l].Q[s][k], v)
				}
			}
		}
	}

	xs, err := st.LoadX(id)
	if err != nil {
		t.Fatalf("load x: %v", err)
	}
	for l := range xs {
		for s := range xs[l] {
			for b, x := range xs[l][s] {
				want := lanes[l].X[s][b]
				if x.Pos != want.Pos || x.Rot != want.Rot {
					t.Fatalf("lane %d step %d body %d: expected %v, got %v", l, s, b, want, x)
				}
			}
		}
	}

	if _, _, err := st.LoadStates(id); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}
}

func TestStoreIMU(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	sys := system(t, "free_chain")
	cfg, lanes := dataset(t, sys, 1)
	id, err := st.SaveDataset(sys, cfg, 1, lanes)
	if err != nil {
		t.Fatal(err)
	}

	imu, err := sensors.Measure(sensors.Column(lanes[0].X, 0), sys.Gravity, sys.Dt)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveIMU(id, "root", []sensors.IMU{imu}); err != nil {
		t.Fatalf("save imu: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(st.baseDir, id, "imu_root.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 21 {
		t.Errorf("expected header and 20 rows, got %d lines", len(lines))
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	st.Init()

	sys := system(t, "pendulum")
	cfg, result := rollout(t, sys)
	id, err := st.SaveRun(sys, cfg, result)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, id); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.System != "pendulum" {
		t.Errorf("expected system pendulum, got %s", data.System)
	}
	if len(data.Q) != 11 || len(data.QD) != 11 {
		t.Errorf("expected 11 rows, got %d and %d", len(data.Q), len(data.QD))
	}
	if math.Abs(data.Q[0][0]-0.5) > 1e-12 {
		t.Errorf("expected initial q 0.5, got %v", data.Q[0][0])
	}
}
