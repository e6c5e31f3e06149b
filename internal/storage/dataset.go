package storage

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/rcmg"
	"github.com/san-kum/chainsim/internal/sensors"
	"github.com/san-kum/chainsim/internal/spatial"
)

const (
	qFile = "q.csv"
	xFile = "x.csv"
)

// SaveDataset writes generated trajectories. q.csv has one row per lane and
// sample; x.csv one row per lane, sample and body with the pose
// [px py pz qw qx qy qz].
func (s *Store) SaveDataset(sys *dynamo.System, cfg rcmg.Config, seed uint64, lanes []rcmg.Trajectory) (string, error) {
	if len(lanes) == 0 {
		return "", fmt.Errorf("storage: empty dataset")
	}
	meta := newMetadata(KindDataset, sys)
	if cfg.Dt > 0 {
		meta.Dt = cfg.Dt
	}
	meta.Duration = cfg.T
	meta.Steps = lanes[0].Steps()
	meta.Seed = seed
	meta.SeedScheme = rcmg.SeedScheme
	meta.Lanes = len(lanes)

	dir, err := s.create(meta)
	if err != nil {
		return "", err
	}

	qHeader := []string{"lane", "step"}
	for i := range sys.QSize() {
		qHeader = append(qHeader, fmt.Sprintf("q%d", i))
	}
	var qRows [][]string
	for l, tr := range lanes {
		for t, q := range tr.Q {
			qRows = append(qRows, appendFloats([]string{strconv.Itoa(l), strconv.Itoa(t)}, q))
		}
	}
	if err := writeCSV(filepath.Join(dir, qFile), qHeader, qRows); err != nil {
		return "", err
	}

	xHeader := []string{"lane", "step", "body", "px", "py", "pz", "qw", "qx", "qy", "qz"}
	var xRows [][]string
	for l, tr := range lanes {
		for t, frame := range tr.XArray() {
			for b, pose := range frame {
				row := []string{strconv.Itoa(l), strconv.Itoa(t), meta.Bodies[b]}
				xRows = append(xRows, appendFloats(row, pose[:]))
			}
		}
	}
	if err := writeCSV(filepath.Join(dir, xFile), xHeader, xRows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// LoadQ reads the configurations of a dataset as lanes x steps x q.
func (s *Store) LoadQ(id string) ([][][]float64, error) {
	if err := s.expectKind(id, KindDataset); err != nil {
		return nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, id, qFile))
	if err != nil {
		return nil, err
	}
	var out [][][]float64
	for i, record := range records {
		row, err := parseFloats(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", qFile, i+2, err)
		}
		lane := int(row[0])
		for len(out) <= lane {
			out = append(out, nil)
		}
		out[lane] = append(out[lane], row[2:])
	}
	return out, nil
}

// LoadX reads the body poses of a dataset as lanes x steps x bodies.
func (s *Store) LoadX(id string) ([][][]spatial.Transform, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	if meta.Kind != KindDataset {
		return nil, fmt.Errorf("%w: %s is a %s", ErrWrongKind, id, meta.Kind)
	}
	index := make(map[string]int, len(meta.Bodies))
	for i, name := range meta.Bodies {
		index[name] = i
	}

	records, err := readCSV(filepath.Join(s.baseDir, id, xFile))
	if err != nil {
		return nil, err
	}
	out := make([][][]spatial.Transform, meta.Lanes)
	for l := range out {
		out[l] = make([][]spatial.Transform, meta.Steps)
		for t := range out[l] {
			out[l][t] = make([]spatial.Transform, len(meta.Bodies))
		}
	}
	for i, record := range records {
		if len(record) != 3+spatial.PoseSize {
			return nil, fmt.Errorf("%s line %d: expected %d fields, got %d", xFile, i+2, 3+spatial.PoseSize, len(record))
		}
		lane, err1 := strconv.Atoi(record[0])
		step, err2 := strconv.Atoi(record[1])
		body, ok := index[record[2]]
		vals, err3 := parseFloats(record[3:])
		if err1 != nil || err2 != nil || err3 != nil || !ok || lane >= meta.Lanes || step >= meta.Steps {
			return nil, fmt.Errorf("%s line %d: malformed record", xFile, i+2)
		}
		var pose [spatial.PoseSize]float64
		copy(pose[:], vals)
		out[lane][step][body] = spatial.FromPose(pose)
	}
	return out, nil
}

// SaveIMU adds imu_<body>.csv to a dataset with one simulated IMU reading
// per lane and sample.
func (s *Store) SaveIMU(id, body string, lanes []sensors.IMU) error {
	if err := s.expectKind(id, KindDataset); err != nil {
		return err
	}
	header := []string{"lane", "step", "acc_x", "acc_y", "acc_z", "gyr_x", "gyr_y", "gyr_z"}
	var rows [][]string
	for l, imu := range lanes {
		for t := range imu.Acc {
			a, g := imu.Acc[t], imu.Gyr[t]
			rows = append(rows, appendFloats([]string{strconv.Itoa(l), strconv.Itoa(t)},
				[]float64{a.X, a.Y, a.Z, g.X, g.Y, g.Z}))
		}
	}
	return writeCSV(filepath.Join(s.baseDir, id, "imu_"+body+".csv"), header, rows)
}
