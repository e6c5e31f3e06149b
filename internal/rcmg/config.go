package rcmg

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("rcmg: invalid configuration")

	// ErrInfeasibleJointLimits is returned when no admissible waypoint was
	// found within MaxIter attempts.
	ErrInfeasibleJointLimits = errors.New("rcmg: joint limits infeasible")

	// ErrNoDrawFunc is returned for a joint type without a draw function.
	ErrNoDrawFunc = errors.New("rcmg: no draw function for joint type")
)

// Range-of-motion methods choose the direction of the next waypoint.
const (
	MethodCoinflip = "coinflip"
	MethodUniform  = "uniform"
	MethodSigmoid  = "sigmoid"
)

// Config controls trajectory sampling. Angles are in radians, positions in
// metres, durations in seconds and speeds per second.
type Config struct {
	T  float64 `yaml:"t"`
	Dt float64 `yaml:"dt"`

	TMin float64 `yaml:"t_min"`
	TMax float64 `yaml:"t_max"`

	DangMin              float64 `yaml:"dang_min"`
	DangMax              float64 `yaml:"dang_max"`
	DangMinFreeSpherical float64 `yaml:"dang_min_free_spherical"`
	DangMaxFreeSpherical float64 `yaml:"dang_max_free_spherical"`
	DeltaAngMin          float64 `yaml:"delta_ang_min"`
	DeltaAngMax          float64 `yaml:"delta_ang_max"`
	AngMin               float64 `yaml:"ang_min"`
	AngMax               float64 `yaml:"ang_max"`
	Ang0Min              float64 `yaml:"ang0_min"`
	Ang0Max              float64 `yaml:"ang0_max"`

	DposMin float64 `yaml:"dpos_min"`
	DposMax float64 `yaml:"dpos_max"`
	PosMin  float64 `yaml:"pos_min"`
	PosMax  float64 `yaml:"pos_max"`
	Pos0Min float64 `yaml:"pos0_min"`
	Pos0Max float64 `yaml:"pos0_max"`

	RangeOfMotionMethod string  `yaml:"range_of_motion_method"`
	SigmoidScale        float64 `yaml:"sigmoid_scale"`
	Interpolation       string  `yaml:"interpolation"`
	MaxIter             int     `yaml:"max_iter"`
}

func DefaultConfig() Config {
	return Config{
		T:                    60,
		TMin:                 0.05,
		TMax:                 0.30,
		DangMin:              0.1,
		DangMax:              3.0,
		DangMinFreeSpherical: 0.1,
		DangMaxFreeSpherical: 3.0,
		DeltaAngMin:          0,
		DeltaAngMax:          2 * math.Pi,
		AngMin:               -math.Pi,
		AngMax:               math.Pi,
		Ang0Min:              -math.Pi,
		Ang0Max:              math.Pi,
		DposMin:              0.001,
		DposMax:              0.7,
		PosMin:               -2.5,
		PosMax:               2.5,
		Pos0Min:              0,
		Pos0Max:              0,
		RangeOfMotionMethod:  MethodUniform,
		SigmoidScale:         1.5,
		Interpolation:        Cosine,
		MaxIter:              20,
	}
}

func (c Config) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{c.T > 0, "t must be positive"},
		{c.Dt >= 0, "dt must not be negative"},
		{c.TMin > 0 && c.TMin <= c.TMax, "need 0 < t_min <= t_max"},
		{c.DangMin >= 0 && c.DangMin <= c.DangMax && c.DangMax > 0, "need 0 <= dang_min <= dang_max, dang_max > 0"},
		{c.DangMinFreeSpherical >= 0 && c.DangMinFreeSpherical <= c.DangMaxFreeSpherical && c.DangMaxFreeSpherical > 0,
			"need 0 <= dang_min_free_spherical <= dang_max_free_spherical, dang_max_free_spherical > 0"},
		{c.DeltaAngMin >= 0 && c.DeltaAngMin <= c.DeltaAngMax, "need 0 <= delta_ang_min <= delta_ang_max"},
		{c.AngMin < c.AngMax, "need ang_min < ang_max"},
		{c.Ang0Min <= c.Ang0Max && c.Ang0Min >= c.AngMin && c.Ang0Max <= c.AngMax, "ang0 range must lie within [ang_min, ang_max]"},
		{c.DposMin >= 0 && c.DposMin <= c.DposMax && c.DposMax > 0, "need 0 <= dpos_min <= dpos_max, dpos_max > 0"},
		{c.PosMin < c.PosMax, "need pos_min < pos_max"},
		{c.Pos0Min <= c.Pos0Max && c.Pos0Min >= c.PosMin && c.Pos0Max <= c.PosMax, "pos0 range must lie within [pos_min, pos_max]"},
		{c.MaxIter > 0, "max_iter must be positive"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.msg)
		}
	}
	switch c.RangeOfMotionMethod {
	case MethodCoinflip, MethodUniform:
	case MethodSigmoid:
		if c.SigmoidScale <= 0 {
			return fmt.Errorf("%w: sigmoid_scale must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown range_of_motion_method %q", ErrInvalidConfig, c.RangeOfMotionMethod)
	}
	if _, ok := profiles[c.Interpolation]; !ok {
		return fmt.Errorf("%w: unknown interpolation %q", ErrInvalidConfig, c.Interpolation)
	}
	return nil
}
