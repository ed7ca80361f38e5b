package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dvloznov/securepay/internal/domain"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	coef         []float64
	intercept    float64
	featureNames []string
}

// NewLogisticRegression builds a classifier from fitted coefficients.
func NewLogisticRegression(coef []float64, intercept float64) (*LogisticRegression, error) {
	if err := checkArity("coef", len(coef), domain.FeatureCount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeatureShape, err)
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("logistic regression: non-finite coefficient at %d", i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("logistic regression: non-finite intercept")
	}
	return &LogisticRegression{
		coef:      append([]float64(nil), coef...),
		intercept: intercept,
	}, nil
}

// DecisionFunction returns the signed distance coef·x + intercept.
func (m *LogisticRegression) DecisionFunction(x []float64) (float64, error) {
	if len(x) != len(m.coef) {
		return 0, fmt.Errorf("%w: classifier expects %d features, got %d", domain.ErrFeatureShape, len(m.coef), len(x))
	}
	z := m.intercept
	for i, v := range x {
		z += m.coef[i] * v
	}
	if math.IsNaN(z) {
		return 0, fmt.Errorf("decision function is NaN")
	}
	return z, nil
}

// Predict implements Classifier. Class 1 is returned iff the decision
// function is strictly positive.
func (m *LogisticRegression) Predict(x []float64) (int, error) {
	z, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	if z > 0 {
		return 1, nil
	}
	return 0, nil
}

// PredictProba implements ProbabilisticClassifier.
func (m *LogisticRegression) PredictProba(x []float64) (float64, error) {
	z, err := m.DecisionFunction(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

// Kind implements Classifier.
func (m *LogisticRegression) Kind() string { return KindLogisticRegression }

// FeatureNames returns the column names recorded at fit time, if any.
func (m *LogisticRegression) FeatureNames() []string { return m.featureNames }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

type logisticRegressionFile struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Classes   []int     `json:"classes,omitempty"`
}

// DecodeClassifier parses a classifier artifact.
func DecodeClassifier(data []byte) (Classifier, error) {
	env, err := readEnvelope(data)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckFeatureNames(env.FeatureNames); err != nil {
		return nil, err
	}

	switch env.Kind {
	case KindLogisticRegression:
		var f logisticRegressionFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode logistic regression: %w", err)
		}
		if len(f.Classes) != 0 && (len(f.Classes) != 2 || f.Classes[0] != 0 || f.Classes[1] != 1) {
			return nil, fmt.Errorf("logistic regression classes %v, want [0 1]", f.Classes)
		}
		m, err := NewLogisticRegression(f.Coef, f.Intercept)
		if err != nil {
			return nil, err
		}
		m.featureNames = env.FeatureNames
		return m, nil
	default:
		return nil, fmt.Errorf("artifact kind %q is not a classifier", env.Kind)
	}
}
