package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dvloznov/securepay/internal/domain"
)

// StandardScaler standardizes each feature: (x - mean) / scale.
type StandardScaler struct {
	mean         []float64
	scale        []float64
	featureNames []string
}

// NewStandardScaler builds a scaler from fitted parameters. A zero scale
// marks a constant training feature and is replaced by 1, as scikit-learn does.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if err := checkArity("mean", len(mean), domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeatureShape, err)
	}
	if err := checkArity("scale", len(scale), domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeatureShape, err)
	}

	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, fmt.Errorf("standard scaler: non-finite parameter at %d", i)
		}
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

// Transform implements Scaler.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", domain.ErrFeatureShape, len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// Kind implements Scaler.
func (s *StandardScaler) Kind() string { return KindStandardScaler }

// FeatureNames returns the column names recorded at fit time, if any.
func (s *StandardScaler) FeatureNames() []string { return s.featureNames }

// MinMaxScaler maps each feature with x*scale + min, mirroring the fitted
// attributes scikit-learn exposes as scale_ and min_.
type MinMaxScaler struct {
	min          []float64
	scale        []float64
	featureNames []string
}

// NewMinMaxScaler builds a min-max scaler from fitted parameters.
func NewMinMaxScaler(min, scale []float64) (*MinMaxScaler, error) {
	if err := checkArity("min", len(min), domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeatureShape, err)
	}
	if err := checkArity("scale", len(scale), domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeatureShape, err)
	}
	for i := range min {
		if math.IsNaN(min[i]) || math.IsInf(min[i], 0) || math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) {
			return nil, fmt.Errorf("minmax scaler: non-finite parameter at %d", i)
		}
	}
	return &MinMaxScaler{
		min:   append([]float64(nil), min...),
		scale: append([]float64(nil), scale...),
	}, nil
}

// Transform implements Scaler.
func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.min) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", domain.ErrFeatureShape, len(s.min), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.scale[i] + s.min[i]
	}
	return out, nil
}

// Kind implements Scaler.
func (s *MinMaxScaler) Kind() string { return KindMinMaxScaler }

// FeatureNames returns the column names recorded at fit time, if any.
func (s *MinMaxScaler) FeatureNames() []string { return s.featureNames }

type standardScalerFile struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type minMaxScalerFile struct {
	Min   []float64 `json:"min"`
	Scale []float64 `json:"scale"`
}

// DecodeScaler parses a scaler artifact. The recorded feature names, when
// present, must match the transformer's column order.
func DecodeScaler(data []byte) (Scaler, error) {
	env, err := readEnvelope(data)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckFeatureNames(env.FeatureNames); err != nil {
		return nil, err
	}

	switch env.Kind {
	case KindStandardScaler:
		var f standardScalerFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode standard scaler: %w", err)
		}
		s, err := NewStandardScaler(f.Mean, f.Scale)
		if err != nil {
			return nil, err
		}
		s.featureNames = env.FeatureNames
		return s, nil
	case KindMinMaxScaler:
		var f minMaxScalerFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode minmax scaler: %w", err)
		}
		s, err := NewMinMaxScaler(f.Min, f.Scale)
		if err != nil {
			return nil, err
		}
		s.featureNames = env.FeatureNames
		return s, nil
	default:
		return nil, fmt.Errorf("artifact kind %q is not a scaler", env.Kind)
	}
}
