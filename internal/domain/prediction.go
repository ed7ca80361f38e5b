package domain

import "fmt"

// Label is the classifier verdict.
type Label string

const (
	LabelFraud      Label = "FRAUD"
	LabelLegitimate Label = "LEGITIMATE"
)

// LabelFromClass maps the classifier output class to a Label.
// Only 0 and 1 are valid classes.
func LabelFromClass(class int) (Label, error) {
	switch class {
	case 1:
		return LabelFraud, nil
	case 0:
		return LabelLegitimate, nil
	default:
		return "", fmt.Errorf("unexpected classifier class %d", class)
	}
}

// PredictionResult is the outcome of scoring one transaction.
// RawScore is the fraud probability when the classifier exposes one.
type PredictionResult struct {
	Label    Label    `json:"label"`
	RawScore *float64 `json:"raw_score,omitempty"`
}

// IsFraud reports whether the transaction was flagged.
func (r PredictionResult) IsFraud() bool {
	return r.Label == LabelFraud
}
