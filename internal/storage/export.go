package storage

import (
	"encoding/json"
	"fmt"
	"io"
)

type ExportData struct {
	System      string             `json:"system"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	Bodies      []string           `json:"bodies"`
	Times       []float64          `json:"times"`
	Q           [][]float64        `json:"q"`
	QD          [][]float64        `json:"qd"`
	Metrics     map[string]float64 `json:"metrics"`
	EnergyDrift float64            `json:"energy_drift"`
}

// ExportJSON writes a stored rollout as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		System:      meta.System,
		Dt:          meta.Dt,
		Duration:    meta.Duration,
		Steps:       len(times),
		Bodies:      meta.Bodies,
		Times:       times,
		Q:           make([][]float64, len(states)),
		QD:          make([][]float64, len(states)),
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
	}
	for i, row := range states {
		if len(row) != meta.QSize+meta.QDSize {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), meta.QSize+meta.QDSize)
		}
		data.Q[i] = row[:meta.QSize]
		data.QD[i] = row[meta.QSize:]
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
