package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dvloznov/securepay/internal/domain"
)

// Form field names, shared by the HTML form and the JSON API.
const (
	FieldAmount         = "amount"
	FieldOldBalanceOrig = "old_balance_orig"
	FieldOldBalanceDest = "old_balance_dest"
	FieldNewBalanceOrig = "new_balance_orig"
	FieldNewBalanceDest = "new_balance_dest"
	FieldType           = "type"
	FieldStep           = "step"
)

// ScanForm is one submitted transaction before feature derivation.
// Destination and resulting balances are optional; missing ones are derived.
type ScanForm struct {
	Amount         float64  `json:"amount" validate:"gte=0"`
	OldBalanceOrig float64  `json:"old_balance_orig" validate:"gte=0"`
	OldBalanceDest float64  `json:"old_balance_dest" validate:"gte=0"`
	NewBalanceOrig *float64 `json:"new_balance_orig,omitempty"`
	NewBalanceDest *float64 `json:"new_balance_dest,omitempty"`
	Type           string   `json:"type" validate:"required,oneof=PAYMENT TRANSFER CASH_OUT DEBIT CASH_IN"`
	Step           int      `json:"step" validate:"min=1,max=744"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseScanForm reads a urlencoded form submission. Every unparsable field is
// reported, then the parsed form is normalized and validated.
func ParseScanForm(r *http.Request) (ScanForm, error) {
	if err := r.ParseForm(); err != nil {
		return ScanForm{}, domain.ValidationErrors{{Field: "form", Message: "could not be read"}}
	}

	var errs domain.ValidationErrors
	form := ScanForm{Step: domain.MinStep}

	floatField := func(name string, dst *float64) {
		v, err := parseFloat(r.PostForm.Get(name))
		if err != nil {
			errs = append(errs, &domain.ValidationError{Field: name, Message: err.Error()})
			return
		}
		*dst = v
	}

	floatField(FieldAmount, &form.Amount)
	floatField(FieldOldBalanceOrig, &form.OldBalanceOrig)
	floatField(FieldOldBalanceDest, &form.OldBalanceDest)
	form.Type = r.PostForm.Get(FieldType)

	if s := strings.TrimSpace(r.PostForm.Get(FieldStep)); s != "" {
		step, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, &domain.ValidationError{Field: FieldStep, Message: "must be a whole number"})
		} else {
			form.Step = step
		}
	}

	if len(errs) > 0 {
		return form, errs
	}

	form.Normalize()
	return form, form.Validate()
}

// Normalize canonicalizes the type, defaulting to PAYMENT when missing.
// Step defaults are applied by the decoders, so an explicit 0 is rejected.
func (f *ScanForm) Normalize() {
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Type == "" {
		f.Type = string(domain.TypePayment)
	}
}

// Validate checks field constraints and returns domain.ValidationErrors.
func (f ScanForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &domain.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

// Transaction converts a validated form into a raw transaction with derived
// resulting balances.
func (f ScanForm) Transaction() (domain.RawTransaction, error) {
	txType, err := domain.ParseTransactionType(f.Type)
	if err != nil {
		return domain.RawTransaction{}, err
	}

	tx := domain.RawTransaction{
		Step:            f.Step,
		Amount:          f.Amount,
		OldBalanceOrig:  f.OldBalanceOrig,
		OldBalanceDest:  f.OldBalanceDest,
		TransactionType: txType,
	}
	return tx.Derive(domain.BalanceOverrides{
		NewBalanceOrig: f.NewBalanceOrig,
		NewBalanceDest: f.NewBalanceDest,
	}), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("must be a finite number")
	}
	return v, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
