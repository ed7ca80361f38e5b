package domain

import (
	"fmt"
	"strings"
)

// TransactionType is the PaySim transaction category.
type TransactionType string

const (
	TypePayment  TransactionType = "PAYMENT"
	TypeTransfer TransactionType = "TRANSFER"
	TypeCashOut  TransactionType = "CASH_OUT"
	TypeDebit    TransactionType = "DEBIT"
	TypeCashIn   TransactionType = "CASH_IN"
)

// ReferenceType is the category dropped by the drop-first one-hot encoding
// the model was trained with. It is encoded as all dummy flags set to zero.
const ReferenceType = TypeCashIn

// TransactionTypes lists every known category in the order the form offers them.
var TransactionTypes = []TransactionType{
	TypePayment,
	TypeTransfer,
	TypeCashOut,
	TypeDebit,
	TypeCashIn,
}

// Step bounds: one step is one hour of the 31-day simulation.
const (
	MinStep = 1
	MaxStep = 744
)

// ParseTransactionType converts a user supplied category into a TransactionType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the five known categories.
func (t TransactionType) Valid() bool {
	switch t {
	case TypePayment, TypeTransfer, TypeCashOut, TypeDebit, TypeCashIn:
		return true
	}
	return false
}

func (t TransactionType) String() string {
	return string(t)
}

// RawTransaction holds the fields collected by the scan form.
// NewBalanceOrig and NewBalanceDest are expected to be filled by Derive
// unless the caller supplies explicit values.
type RawTransaction struct {
	Step            int             `json:"step"`
	Amount          float64         `json:"amount"`
	OldBalanceOrig  float64         `json:"old_balance_orig"`
	NewBalanceOrig  float64         `json:"new_balance_orig"`
	OldBalanceDest  float64         `json:"old_balance_dest"`
	NewBalanceDest  float64         `json:"new_balance_dest"`
	TransactionType TransactionType `json:"type"`
}

// BalanceOverrides carries explicitly supplied post-transaction balances.
// A nil field means the balance is derived from the amount.
type BalanceOverrides struct {
	NewBalanceOrig *float64
	NewBalanceDest *float64
}

// Derive fills the post-transaction balances the way the scan form does:
// the sender loses the amount and the receiver gains it.
func (tx RawTransaction) Derive(o BalanceOverrides) RawTransaction {
	tx.NewBalanceOrig = tx.OldBalanceOrig - tx.Amount
	if o.NewBalanceOrig != nil {
		tx.NewBalanceOrig = *o.NewBalanceOrig
	}
	tx.NewBalanceDest = tx.OldBalanceDest + tx.Amount
	if o.NewBalanceDest != nil {
		tx.NewBalanceDest = *o.NewBalanceDest
	}
	return tx
}
