package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/inference"
	"github.com/dvloznov/securepay/internal/logger"
	"github.com/dvloznov/securepay/internal/model"
)

// newAdapter builds a model that flags any amount above 500.
func newAdapter(t *testing.T) *inference.Adapter {
	t.Helper()

	mean := make([]float64, domain.FeatureCount)
	scale := make([]float64, domain.FeatureCount)
	for i := range scale {
		scale[i] = 1
	}
	scale[domain.FeatAmount] = 1000
	scaler, err := model.NewStandardScaler(mean, scale)
	require.NoError(t, err)

	coef := make([]float64, domain.FeatureCount)
	coef[domain.FeatAmount] = 10
	clf, err := model.NewLogisticRegression(coef, -5)
	require.NoError(t, err)

	a, err := inference.NewAdapter(scaler, clf)
	require.NoError(t, err)
	return a
}

func newHandler(t *testing.T) *ScanHandler {
	t.Helper()
	return NewScanHandler(inference.NewScanner(newAdapter(t), nil), zerolog.Nop())
}

type failingScanner struct{}

func (failingScanner) Scan(ctx context.Context, tx domain.RawTransaction) (*inference.Scan, error) {
	return nil, &domain.InferenceError{Stage: inference.StageScale, Err: domain.ErrFeatureShape}
}

func withLogger(req *http.Request) *http.Request {
	return req.WithContext(logger.WithContext(req.Context(), zerolog.Nop()))
}

func jsonRequest(t *testing.T, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return withLogger(req)
}

func TestShowForm(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).ShowForm(rec, withLogger(httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Transaction Security Scanner")
	for _, typ := range domain.TransactionTypes {
		assert.Contains(t, body, `<option value="`+string(typ)+`"`)
	}
	assert.Contains(t, body, `<option value="PAYMENT" selected>`)
	assert.NotContains(t, body, "High Risk Detected")
	assert.NotContains(t, body, "Secure Transaction")
}

func TestSubmitForm_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		wantText   string
		notText    string
		wantRemain string
	}{
		{
			name: "low risk payment",
			values: url.Values{
				FieldAmount:         {"500"},
				FieldOldBalanceOrig: {"1000"},
				FieldType:           {"PAYMENT"},
				FieldStep:           {"10"},
			},
			wantText:   "Secure Transaction",
			notText:    "High Risk Detected",
			wantRemain: "Estimated Remaining Balance: $500.00",
		},
		{
			name: "large transfer",
			values: url.Values{
				FieldAmount:         {"2000"},
				FieldOldBalanceOrig: {"2000"},
				FieldType:           {"TRANSFER"},
			},
			wantText:   "High Risk Detected",
			notText:    "Secure Transaction",
			wantRemain: "Estimated Remaining Balance: $0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHandler(t).SubmitForm(rec, withLogger(formRequest(tt.values)))

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, tt.wantText)
			assert.NotContains(t, body, tt.notText)
			assert.Contains(t, body, tt.wantRemain)
			assert.Contains(t, body, "Risk score:")
		})
	}
}

func TestSubmitForm_ValidationErrorRedisplaysForm(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).SubmitForm(rec, withLogger(formRequest(url.Values{
		FieldAmount: {"-10"},
		FieldStep:   {"42"},
	})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Amount must be at least 0")
	assert.Contains(t, body, `value="42"`)
	assert.NotContains(t, body, "Secure Transaction")
	assert.NotContains(t, body, "Error processing prediction")
}

func TestSubmitForm_InferenceFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	h := NewScanHandler(failingScanner{}, zerolog.Nop())
	h.SubmitForm(rec, withLogger(formRequest(url.Values{FieldAmount: {"10"}})))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Error processing prediction")
	assert.NotContains(t, body, "Secure Transaction")
	assert.NotContains(t, body, "High Risk Detected")
}

func TestPredict(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Predict(rec, jsonRequest(t, "/api/predict", map[string]interface{}{
		"amount":           2000,
		"old_balance_orig": 2000,
		"type":             "transfer",
		"step":             7,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ScanID)
	assert.Equal(t, domain.LabelFraud, resp.Label)
	assert.True(t, resp.Fraud)
	require.NotNil(t, resp.Risk)
	assert.Greater(t, *resp.Risk, 0.5)
	assert.Equal(t, []float64{7, 2000, 0, 0, 0, 2000, 2000, 0, 0, 0, 1}, resp.Vector)
	assert.Equal(t, 1.0, resp.Features["type_TRANSFER"])
	assert.Equal(t, domain.TypeTransfer, resp.Transaction.TransactionType)
}

func TestPredict_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantField  string
	}{
		{"malformed", `{"amount":`, http.StatusBadRequest, ""},
		{"unknown field", `{"amount": 1, "currency": "USD"}`, http.StatusBadRequest, ""},
		{"negative amount", map[string]interface{}{"amount": -1}, http.StatusBadRequest, FieldAmount},
		{"unknown type", map[string]interface{}{"type": "WIRE"}, http.StatusBadRequest, FieldType},
		{"step out of range", map[string]interface{}{"step": 1000}, http.StatusBadRequest, FieldStep},
		{"explicit zero step", map[string]interface{}{"step": 0}, http.StatusBadRequest, FieldStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHandler(t).Predict(rec, jsonRequest(t, "/api/predict", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			if tt.wantField != "" {
				fields, ok := resp["fields"].(map[string]interface{})
				require.True(t, ok)
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func TestFeatures_MissingStepDefaultsToFirstHour(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Features(rec, jsonRequest(t, "/api/features", map[string]interface{}{"amount": 5}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeaturesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(domain.MinStep), resp.Vector[domain.FeatStep])
	assert.Equal(t, domain.TypePayment, resp.Transaction.TransactionType)
}

func TestPredict_InferenceFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	h := NewScanHandler(failingScanner{}, zerolog.Nop())
	h.Predict(rec, jsonRequest(t, "/api/predict", map[string]interface{}{"amount": 1}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error processing prediction")
}

func TestFeatures(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Features(rec, jsonRequest(t, "/api/features", map[string]interface{}{
		"amount":           500,
		"old_balance_orig": 1000,
		"type":             "PAYMENT",
		"step":             10,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeaturesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.FeatureNames[:], resp.Names)
	assert.Equal(t, []float64{10, 500, 0, 0, 0, 500, 500, 0, 0, 1, 0}, resp.Vector)
	assert.Equal(t, 500.0, resp.Transaction.NewBalanceOrig)
}

func TestFeatures_CashInIsReference(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Features(rec, jsonRequest(t, "/api/features", map[string]interface{}{
		"amount": 50,
		"type":   "CASH_IN",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeaturesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []float64{0, 0, 0, 0}, resp.Vector[domain.FeatTypeCashOut:])
}

func TestSchema(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t).Schema(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		FeatureNames     []string `json:"feature_names"`
		TransactionTypes []string `json:"transaction_types"`
		ReferenceType    string   `json:"reference_type"`
		StepMax          int      `json:"step_max"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.FeatureNames, domain.FeatureCount)
	assert.Equal(t, "CASH_IN", resp.ReferenceType)
	assert.Len(t, resp.TransactionTypes, 5)
	assert.Equal(t, 744, resp.StepMax)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(newAdapter(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, model.KindStandardScaler, resp["scaler"])
	assert.Equal(t, model.KindLogisticRegression, resp["classifier"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ErrUnknownTransactionType))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.ValidationErrors{{Field: "x", Message: "y"}}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&domain.InferenceError{Stage: "scale", Err: errors.New("boom")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}
