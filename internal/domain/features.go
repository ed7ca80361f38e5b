package domain

import "fmt"

// FeatureCount is the arity of the vector the scaler and classifier were fit on.
const FeatureCount = 11

// FeatureNames is the training column order. Index i of a FeatureVector holds
// the value of FeatureNames[i].
var FeatureNames = [FeatureCount]string{
	"step",
	"amount",
	"isFlaggedFraud",
	"balance_diff_orig",
	"balance_diff_dest",
	"orig_balance_change",
	"dest_balance_change",
	"type_CASH_OUT",
	"type_DEBIT",
	"type_PAYMENT",
	"type_TRANSFER",
}

// Feature indexes into a FeatureVector.
const (
	FeatStep = iota
	FeatAmount
	FeatIsFlaggedFraud
	FeatBalanceDiffOrig
	FeatBalanceDiffDest
	FeatOrigBalanceChange
	FeatDestBalanceChange
	FeatTypeCashOut
	FeatTypeDebit
	FeatTypePayment
	FeatTypeTransfer
)

// FeatureVector is the fixed-order model input. Being an array, its length
// cannot drift from FeatureCount.
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Named pairs each value with its column name.
func (v FeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// FeatureVectorFromSlice converts a slice into a FeatureVector, rejecting
// anything that is not exactly FeatureCount long.
func FeatureVectorFromSlice(values []float64) (FeatureVector, error) {
	var v FeatureVector
	if len(values) != FeatureCount {
		return v, fmt.Errorf("%w: got %d values, want %d", ErrFeatureShape, len(values), FeatureCount)
	}
	copy(v[:], values)
	return v, nil
}

// CheckFeatureNames verifies that names matches the training column order.
// An empty list is accepted since older artifacts do not record names.
func CheckFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != FeatureCount {
		return fmt.Errorf("%w: artifact has %d feature names, want %d", ErrFeatureShape, len(names), FeatureCount)
	}
	for i, name := range names {
		if name != FeatureNames[i] {
			return fmt.Errorf("%w: position %d is %q, want %q", ErrFeatureLayout, i, name, FeatureNames[i])
		}
	}
	return nil
}
