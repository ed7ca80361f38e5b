package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/securepay/internal/domain"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestParseScanForm_Defaults(t *testing.T) {
	form, err := ParseScanForm(formRequest(url.Values{
		FieldAmount:         {"250.5"},
		FieldOldBalanceOrig: {"1000"},
	}))
	require.NoError(t, err)

	assert.Equal(t, "PAYMENT", form.Type)
	assert.Equal(t, 1, form.Step)
	assert.Equal(t, 0.0, form.OldBalanceDest)

	tx, err := form.Transaction()
	require.NoError(t, err)
	assert.Equal(t, domain.TypePayment, tx.TransactionType)
	assert.Equal(t, 749.5, tx.NewBalanceOrig)
	assert.Equal(t, 250.5, tx.NewBalanceDest)
}

func TestParseScanForm_LowercaseType(t *testing.T) {
	form, err := ParseScanForm(formRequest(url.Values{
		FieldType: {" cash_out "},
		FieldStep: {"744"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "CASH_OUT", form.Type)
	assert.Equal(t, 744, form.Step)
}

func TestParseScanForm_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		field   string
		message string
	}{
		{"negative amount", url.Values{FieldAmount: {"-5"}}, FieldAmount, "must be at least 0"},
		{"negative balance", url.Values{FieldOldBalanceOrig: {"-0.01"}}, FieldOldBalanceOrig, "must be at least 0"},
		{"negative receiver", url.Values{FieldOldBalanceDest: {"-1"}}, FieldOldBalanceDest, "must be at least 0"},
		{"step too high", url.Values{FieldStep: {"745"}}, FieldStep, "must be at most 744"},
		{"step negative", url.Values{FieldStep: {"-3"}}, FieldStep, "must be at least 1"},
		{"step zero", url.Values{FieldStep: {"0"}}, FieldStep, "must be at least 1"},
		{"step not a number", url.Values{FieldStep: {"noon"}}, FieldStep, "must be a whole number"},
		{"amount not a number", url.Values{FieldAmount: {"lots"}}, FieldAmount, "must be a number"},
		{"amount not finite", url.Values{FieldAmount: {"NaN"}}, FieldAmount, "must be a finite number"},
		{"unknown type", url.Values{FieldType: {"WIRE"}}, FieldType, "must be one of PAYMENT, TRANSFER, CASH_OUT, DEBIT, CASH_IN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScanForm(formRequest(tt.values))
			require.Error(t, err)

			var verrs domain.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.message, verrs.ByField()[tt.field])
		})
	}
}

func TestScanForm_ReportsEveryField(t *testing.T) {
	form := ScanForm{Amount: -1, OldBalanceOrig: -1, Type: "WIRE", Step: 800}
	err := form.Validate()

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ByField()
	assert.Len(t, fields, 4)
	assert.Contains(t, fields, FieldAmount)
	assert.Contains(t, fields, FieldOldBalanceOrig)
	assert.Contains(t, fields, FieldType)
	assert.Contains(t, fields, FieldStep)
}

func TestScanForm_OverridesKeepExplicitBalances(t *testing.T) {
	newOrig, newDest := 900.0, 1000.0
	form := ScanForm{
		Amount:         100,
		OldBalanceOrig: 0,
		OldBalanceDest: 1140,
		NewBalanceOrig: &newOrig,
		NewBalanceDest: &newDest,
		Type:           "CASH_OUT",
		Step:           3,
	}
	require.NoError(t, form.Validate())

	tx, err := form.Transaction()
	require.NoError(t, err)
	assert.Equal(t, 900.0, tx.NewBalanceOrig)
	assert.Equal(t, 1000.0, tx.NewBalanceDest)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$500.00", formatMoney(500))
	assert.Equal(t, "$0.00", formatMoney(0))
	assert.Equal(t, "-$25.50", formatMoney(-25.5))
	assert.Equal(t, "97.0%", formatRisk(0.97))
}
