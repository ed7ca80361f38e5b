package inference

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/features"
	"github.com/dvloznov/securepay/internal/logger"
	"github.com/dvloznov/securepay/internal/metrics"
)

// StageTransform labels failures raised by the feature transformer.
const StageTransform = "transform"

// Predictor scores a feature vector. *Adapter is the production implementation.
type Predictor interface {
	Predict(features domain.FeatureVector) (domain.PredictionResult, error)
}

// Scan is the outcome of scoring one submitted transaction.
type Scan struct {
	ID          string                  `json:"scan_id"`
	Transaction domain.RawTransaction   `json:"transaction"`
	Features    domain.FeatureVector    `json:"features"`
	Result      domain.PredictionResult `json:"result"`
	Elapsed     time.Duration           `json:"elapsed_ns"`
}

// Scanner runs the transform and predict steps for one transaction and
// records the outcome.
type Scanner struct {
	predictor Predictor
	metrics   *metrics.Metrics
}

// NewScanner creates a scanner. m may be nil to disable metrics.
func NewScanner(predictor Predictor, m *metrics.Metrics) *Scanner {
	return &Scanner{predictor: predictor, metrics: m}
}

// Scan transforms tx and scores it. The request logger is taken from ctx.
func (s *Scanner) Scan(ctx context.Context, tx domain.RawTransaction) (*Scan, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	scan := &Scan{ID: uuid.NewString(), Transaction: tx}

	vec, err := features.Transform(tx)
	if err != nil {
		s.observeError(StageTransform)
		log.Error().Err(err).Str("scan_id", scan.ID).Msg("Feature transform failed")
		return nil, err
	}
	scan.Features = vec

	res, err := s.predictor.Predict(vec)
	if err != nil {
		stage := StageClassify
		var infErr *domain.InferenceError
		if errors.As(err, &infErr) {
			stage = infErr.Stage
		}
		s.observeError(stage)
		log.Error().Err(err).Str("scan_id", scan.ID).Str("stage", stage).Msg("Inference failed")
		return nil, err
	}
	scan.Result = res
	scan.Elapsed = time.Since(start)

	if s.metrics != nil {
		s.metrics.ObservePrediction(string(res.Label), res.RawScore, scan.Elapsed)
	}

	event := log.Info().
		Str("scan_id", scan.ID).
		Str("type", tx.TransactionType.String()).
		Int("step", tx.Step).
		Float64("amount", tx.Amount).
		Str("label", string(res.Label)).
		Dur("duration", scan.Elapsed)
	if res.RawScore != nil {
		event = event.Float64("risk", *res.RawScore)
	}
	event.Msg("Transaction scanned")

	return scan, nil
}

func (s *Scanner) observeError(stage string) {
	if s.metrics != nil {
		s.metrics.ObservePredictionError(stage)
	}
}
