package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTransactionType is returned for a category outside the closed set.
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrFeatureShape is returned when a vector or artifact has the wrong arity.
	ErrFeatureShape = errors.New("feature shape mismatch")

	// ErrFeatureLayout is returned when an artifact was fit on a different column order.
	ErrFeatureLayout = errors.New("feature layout mismatch")
)

// ValidationError describes one rejected form field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every rejected field of a submission.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// ByField indexes the messages by field name.
func (e ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		out[ve.Field] = ve.Message
	}
	return out
}

// InferenceError wraps a failure while scaling or classifying a single vector.
// It is local to one request and never retried.
type InferenceError struct {
	Stage string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// ArtifactError reports a scaler or classifier that could not be loaded.
// It is fatal at startup.
type ArtifactError struct {
	Kind string
	URI  string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load %s artifact %s: %v", e.Kind, e.URI, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}
