// Package inference scores feature vectors with a pre-fitted scaler and
// classifier pair.
package inference

import (
	"fmt"

	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/model"
)

// Inference stages reported in domain.InferenceError.
const (
	StageScale    = "scale"
	StageClassify = "classify"
	StageScore    = "score"
)

// Adapter applies the scaler then the classifier to a single vector.
// It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	scaler     model.Scaler
	classifier model.Classifier
}

// NewAdapter creates an adapter over already-loaded artifacts.
func NewAdapter(scaler model.Scaler, classifier model.Classifier) (*Adapter, error) {
	if scaler == nil || classifier == nil {
		return nil, fmt.Errorf("inference: scaler and classifier are required")
	}
	return &Adapter{scaler: scaler, classifier: classifier}, nil
}

// NewAdapterFromBundle creates an adapter from a loaded bundle.
func NewAdapterFromBundle(b *model.Bundle) (*Adapter, error) {
	if b == nil {
		return nil, fmt.Errorf("inference: nil bundle")
	}
	return NewAdapter(b.Scaler, b.Classifier)
}

// Predict scores one feature vector. Every failure is returned as a
// *domain.InferenceError; none of them are retried.
func (a *Adapter) Predict(features domain.FeatureVector) (domain.PredictionResult, error) {
	return a.PredictSlice(features[:])
}

// PredictSlice scores a vector given as a slice and rejects any length other
// than domain.FeatureCount.
func (a *Adapter) PredictSlice(features []float64) (domain.PredictionResult, error) {
	var res domain.PredictionResult

	if len(features) != domain.FeatureCount {
		return res, &domain.InferenceError{
			Stage: StageScale,
			Err:   fmt.Errorf("%w: got %d features, want %d", domain.ErrFeatureShape, len(features), domain.FeatureCount),
		}
	}

	scaled, err := a.scaler.Transform(features)
	if err != nil {
		return res, &domain.InferenceError{Stage: StageScale, Err: err}
	}
	if len(scaled) != len(features) {
		return res, &domain.InferenceError{
			Stage: StageScale,
			Err:   fmt.Errorf("%w: scaler returned %d values for %d inputs", domain.ErrFeatureShape, len(scaled), len(features)),
		}
	}

	class, err := a.classifier.Predict(scaled)
	if err != nil {
		return res, &domain.InferenceError{Stage: StageClassify, Err: err}
	}
	label, err := domain.LabelFromClass(class)
	if err != nil {
		return res, &domain.InferenceError{Stage: StageClassify, Err: err}
	}
	res.Label = label

	if pc, ok := a.classifier.(model.ProbabilisticClassifier); ok {
		p, err := pc.PredictProba(scaled)
		if err != nil {
			return domain.PredictionResult{}, &domain.InferenceError{Stage: StageScore, Err: err}
		}
		res.RawScore = &p
	}

	return res, nil
}

// ScalerKind reports the loaded scaler's kind.
func (a *Adapter) ScalerKind() string { return a.scaler.Kind() }

// ClassifierKind reports the loaded classifier's kind.
func (a *Adapter) ClassifierKind() string { return a.classifier.Kind() }
