package billing

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/modules/jsonschema"
)

//go:embed schemas/charge.json
var chargeSchemaJSON []byte

var chargeSchema = jsonschema.MustCompile("charge.json", chargeSchemaJSON)

const maxChargeBody = 64 << 10

type chargeBody struct {
	Provider string `json:"provider"`
	ChargeRequest
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Routes mounts the billing API under /billing.
func (m *Module) Routes(r chi.Router) {
	r.Route("/billing", func(r chi.Router) {
		r.Get("/providers", m.listProviders)
		r.Post("/charges", m.createCharge)
		r.Get("/receipts", m.listReceipts)
	})
}

func (m *Module) listProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": m.Providers(),
		"default":   m.cfg.Default,
		"currency":  m.cfg.Currency,
	})
}

func (m *Module) createCharge(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxChargeBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := chargeSchema.ValidateBytes(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	var body chargeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	receipt, err := m.Charge(r.Context(), body.Provider, body.ChargeRequest)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, receipt)
	case errors.Is(err, ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case modkit.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: string(modkit.CodeNotFound)})
	case errors.Is(err, ErrDeclined):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Code: string(modkit.CodeOf(err))})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *Module) listReceipts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	receipts, err := m.Receipts(r.Context(), limit)
	switch {
	case errors.Is(err, ErrNoLedger):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
	}
}
