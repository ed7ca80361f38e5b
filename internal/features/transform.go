// Package features turns a raw transaction into the model's input vector.
//
// The layout reproduces the preprocessing the scaler and classifier were fit
// on: balance difference features, balance deltas and a drop-first one-hot
// encoding of the transaction type with CASH_IN as the reference category.
package features

import (
	"fmt"

	"github.com/dvloznov/securepay/internal/domain"
)

// Transform builds the feature vector for tx. No range checks are applied:
// negative or out-of-range values flow through arithmetically. The only
// failure is a transaction type outside the closed set.
func Transform(tx domain.RawTransaction) (domain.FeatureVector, error) {
	var v domain.FeatureVector

	flags, err := typeFlags(tx.TransactionType)
	if err != nil {
		return v, fmt.Errorf("transform: %w", err)
	}

	v[domain.FeatStep] = float64(tx.Step)
	v[domain.FeatAmount] = tx.Amount
	v[domain.FeatIsFlaggedFraud] = 0
	v[domain.FeatBalanceDiffOrig] = tx.OldBalanceOrig - tx.NewBalanceOrig - tx.Amount
	v[domain.FeatBalanceDiffDest] = tx.NewBalanceDest - tx.OldBalanceDest - tx.Amount
	v[domain.FeatOrigBalanceChange] = tx.OldBalanceOrig - tx.NewBalanceOrig
	v[domain.FeatDestBalanceChange] = tx.NewBalanceDest - tx.OldBalanceDest
	copy(v[domain.FeatTypeCashOut:], flags[:])

	return v, nil
}

// typeFlags returns the dummy block [CASH_OUT, DEBIT, PAYMENT, TRANSFER].
func typeFlags(t domain.TransactionType) ([4]float64, error) {
	var f [4]float64
	switch t {
	case domain.TypeCashOut:
		f[0] = 1
	case domain.TypeDebit:
		f[1] = 1
	case domain.TypePayment:
		f[2] = 1
	case domain.TypeTransfer:
		f[3] = 1
	case domain.TypeCashIn:
		// reference category
	default:
		return f, fmt.Errorf("%w: %q", domain.ErrUnknownTransactionType, string(t))
	}
	return f, nil
}
