// Package model holds the pre-fitted scaler and classifier artifacts.
//
// Artifacts are exported from the training notebook as JSON envelopes and are
// immutable once decoded, so a single instance may serve concurrent requests.
package model

import (
	"encoding/json"
	"fmt"
)

// Scaler is a fitted feature normalizer. Transform must return a vector of
// the same arity as its input.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	Kind() string
}

// Classifier is a fitted binary classifier over scaled features.
type Classifier interface {
	// Predict returns class 0 or 1.
	Predict(x []float64) (int, error)
	Kind() string
}

// ProbabilisticClassifier additionally exposes the probability of class 1.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(x []float64) (float64, error)
}

// Artifact kinds recognized in the "kind" field of an envelope.
const (
	KindStandardScaler     = "standard_scaler"
	KindMinMaxScaler       = "minmax_scaler"
	KindLogisticRegression = "logistic_regression"
)

// SupportedVersion is the only envelope version this build understands.
const SupportedVersion = 1

// envelope is the common header of every artifact file.
type envelope struct {
	Kind         string   `json:"kind"`
	Version      int      `json:"version"`
	FeatureNames []string `json:"feature_names,omitempty"`
}

func readEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode artifact header: %w", err)
	}
	if env.Kind == "" {
		return env, fmt.Errorf("artifact has no kind")
	}
	if env.Version != 0 && env.Version != SupportedVersion {
		return env, fmt.Errorf("unsupported %s version %d", env.Kind, env.Version)
	}
	return env, nil
}

func checkArity(name string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s has %d values, want %d", name, got, want)
	}
	return nil
}
