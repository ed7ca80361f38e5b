package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/securepay/internal/api/middleware"
	"github.com/dvloznov/securepay/internal/domain"
	"github.com/dvloznov/securepay/internal/features"
	"github.com/dvloznov/securepay/internal/inference"
	"github.com/dvloznov/securepay/internal/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Scanner scores one transaction. *inference.Scanner implements it.
type Scanner interface {
	Scan(ctx context.Context, tx domain.RawTransaction) (*inference.Scan, error)
}

// ScanHandler handles the scan form and the scoring API.
type ScanHandler struct {
	scanner Scanner
	log     zerolog.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(scanner Scanner, log zerolog.Logger) *ScanHandler {
	return &ScanHandler{
		scanner: scanner,
		log:     log,
	}
}

// ShowForm handles GET /
func (h *ScanHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newPageData())
}

// SubmitForm handles POST /scan
func (h *ScanHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	data := newPageData()
	for _, name := range []string{FieldAmount, FieldOldBalanceOrig, FieldOldBalanceDest, FieldType, FieldStep} {
		if v := r.PostFormValue(name); v != "" {
			data.Values[name] = v
		}
	}

	form, err := ParseScanForm(r)
	if err != nil {
		var verrs domain.ValidationErrors
		if !errors.As(err, &verrs) {
			verrs = domain.ValidationErrors{{Field: "form", Message: err.Error()}}
		}
		data.Errors = verrs.ByField()
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	tx, err := form.Transaction()
	if err != nil {
		data.Errors[FieldType] = err.Error()
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	scan, err := h.scanner.Scan(r.Context(), tx)
	if err != nil {
		data.Failed = true
		h.render(w, r, statusFor(err), data)
		return
	}

	view := &resultView{
		ScanID:    scan.ID,
		Fraud:     scan.Result.IsFraud(),
		Remaining: formatMoney(tx.NewBalanceOrig),
	}
	if scan.Result.RawScore != nil {
		view.Risk = formatRisk(*scan.Result.RawScore)
	}
	data.Result = view
	h.render(w, r, http.StatusOK, data)
}

// PredictResponse is the body returned by POST /api/predict.
type PredictResponse struct {
	ScanID      string                `json:"scan_id"`
	Label       domain.Label          `json:"label"`
	Fraud       bool                  `json:"fraud"`
	Risk        *float64              `json:"risk,omitempty"`
	Features    map[string]float64    `json:"features"`
	Vector      []float64             `json:"vector"`
	Transaction domain.RawTransaction `json:"transaction"`
	ElapsedMS   float64               `json:"elapsed_ms"`
}

// Predict handles POST /api/predict
func (h *ScanHandler) Predict(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}

	scan, err := h.scanner.Scan(r.Context(), tx)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			middleware.WriteError(w, status, err.Error())
			return
		}
		middleware.WriteError(w, status, "Error processing prediction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, PredictResponse{
		ScanID:      scan.ID,
		Label:       scan.Result.Label,
		Fraud:       scan.Result.IsFraud(),
		Risk:        scan.Result.RawScore,
		Features:    scan.Features.Named(),
		Vector:      scan.Features.Slice(),
		Transaction: scan.Transaction,
		ElapsedMS:   float64(scan.Elapsed) / float64(time.Millisecond),
	})
}

// FeaturesResponse is the body returned by POST /api/features.
type FeaturesResponse struct {
	Names       []string              `json:"names"`
	Vector      []float64             `json:"vector"`
	Transaction domain.RawTransaction `json:"transaction"`
}

// Features handles POST /api/features. It runs the transform only.
func (h *ScanHandler) Features(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.decodeTransaction(w, r)
	if !ok {
		return
	}

	vec, err := features.Transform(tx)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, FeaturesResponse{
		Names:       domain.FeatureNames[:],
		Vector:      vec.Slice(),
		Transaction: tx,
	})
}

// Schema handles GET /api/schema
func (h *ScanHandler) Schema(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"feature_names":     domain.FeatureNames[:],
		"transaction_types": domain.TransactionTypes,
		"reference_type":    domain.ReferenceType,
		"step_min":          domain.MinStep,
		"step_max":          domain.MaxStep,
	})
}

func (h *ScanHandler) decodeTransaction(w http.ResponseWriter, r *http.Request) (domain.RawTransaction, bool) {
	form := ScanForm{Step: domain.MinStep}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&form); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return domain.RawTransaction{}, false
	}

	form.Normalize()
	if err := form.Validate(); err != nil {
		writeValidationError(w, err)
		return domain.RawTransaction{}, false
	}

	tx, err := form.Transaction()
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return domain.RawTransaction{}, false
	}
	return tx, true
}

func (h *ScanHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write page")
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Invalid input",
			"fields": verrs.ByField(),
		})
		return
	}
	middleware.WriteError(w, http.StatusBadRequest, err.Error())
}

// statusFor maps a scan failure to an HTTP status.
func statusFor(err error) int {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, domain.ErrUnknownTransactionType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ArtifactInfo reports which artifacts are serving predictions.
type ArtifactInfo interface {
	ScalerKind() string
	ClassifierKind() string
}

// HealthHandler handles GET /health
type HealthHandler struct {
	artifacts ArtifactInfo
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(artifacts ArtifactInfo) *HealthHandler {
	return &HealthHandler{artifacts: artifacts}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"time":       time.Now().Format(time.RFC3339),
		"scaler":     h.artifacts.ScalerKind(),
		"classifier": h.artifacts.ClassifierKind(),
	})
}
