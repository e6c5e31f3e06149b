// Package storage persists rollouts and generated datasets as a directory
// per record holding metadata.json and CSV tables.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/sim"
)

// ErrWrongKind is returned when a run is read as a dataset or the reverse.
var ErrWrongKind = errors.New("storage: record has a different kind")

const (
	KindRun     = "run"
	KindDataset = "dataset"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	System      string             `json:"system"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	QSize       int                `json:"q_size"`
	QDSize      int                `json:"qd_size"`
	Bodies      []string           `json:"bodies"`
	Seed        uint64             `json:"seed,omitempty"`
	SeedScheme  string             `json:"seed_scheme,omitempty"`
	Lanes       int                `json:"lanes,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	EnergyDrift float64            `json:"energy_drift,omitempty"`
}

func newMetadata(kind string, sys *dynamo.System) RunMetadata {
	names := make([]string, sys.NumBodies())
	for i, b := range sys.Bodies {
		names[i] = b.Name
	}
	return RunMetadata{
		ID:        fmt.Sprintf("%s_%s", sys.Name, uuid.NewString()),
		Kind:      kind,
		System:    sys.Name,
		Timestamp: time.Now(),
		Dt:        sys.Dt,
		QSize:     sys.QSize(),
		QDSize:    sys.QDSize(),
		Bodies:    names,
	}
}

// SaveRun writes a rollout. states.csv holds time, q and qd per row.
func (s *Store) SaveRun(sys *dynamo.System, cfg sim.Config, result *sim.Result) (string, error) {
	meta := newMetadata(KindRun, sys)
	meta.Duration = cfg.Duration
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics
	meta.EnergyDrift = result.EnergyDrift

	runDir, err := s.create(meta)
	if err != nil {
		return "", err
	}

	header := []string{"time"}
	for i := range sys.QSize() {
		header = append(header, fmt.Sprintf("q%d", i))
	}
	for i := range sys.QDSize() {
		header = append(header, fmt.Sprintf("qd%d", i))
	}

	rows := make([][]string, 0, len(result.States))
	for i, st := range result.States {
		row := []string{formatFloat(result.Times[i])}
		row = appendFloats(row, st.Q)
		row = appendFloats(row, st.QD)
		rows = append(rows, row)
	}
	if err := writeCSV(filepath.Join(runDir, statesFile), header, rows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *Store) create(meta RunMetadata) (string, error) {
	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return dir, nil
}

// List returns every record, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads a rollout back as rows of q followed by qd.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	if err := s.expectKind(runID, KindRun); err != nil {
		return nil, nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0, len(records))
	states := make([][]float64, 0, len(records))
	for i, record := range records {
		row, err := parseFloats(record)
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", statesFile, i+2, err)
		}
		times = append(times, row[0])
		states = append(states, row[1:])
	}
	return states, times, nil
}

func (s *Store) expectKind(runID, kind string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	if meta.Kind != kind {
		return fmt.Errorf("%w: %s is a %s", ErrWrongKind, runID, meta.Kind)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// readCSV returns the records after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func appendFloats(row []string, vals []float64) []string {
	for _, v := range vals {
		row = append(row, formatFloat(v))
	}
	return row
}

func parseFloats(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
