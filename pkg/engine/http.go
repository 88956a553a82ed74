package engine

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aurevtech/coder/pkg/common/logger"
	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/history"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/code", h.handleCode).Methods(http.MethodPost)
	router.HandleFunc("/code/validate", h.handleValidate).Methods(http.MethodPost)
	router.HandleFunc("/code/history/{id}", h.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/system/info", h.handleSystemInfo).Methods(http.MethodGet)
	router.HandleFunc("/example", h.handleExample).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleCode(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req models.CodingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid coding payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeAnalyze
	}

	resp, err := h.service.Process(r.Context(), req)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message": "Input validation failed",
				"errors":  ve.Errors,
			})
			return
		}
		logger.Log.WithError(err).Error("failed to process coding request")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req models.CodingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid validation payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	errs := Validate(req)
	if errs == nil {
		errs = []models.ProcessingError{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

func (h *HTTPHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.service.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			http.Error(w, "coding record not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch coding record")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *HTTPHandler) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Aurevtech AI Coder",
		"version": Version,
		"status":  "operational",
		"capabilities": []string{
			"clinical_fact_extraction",
			"cpt_hcpcs_coding",
			"icd10_coding",
			"ncci_ptp_checking",
			"mue_validation",
			"lcd_ncd_checking",
			"payer_rule_validation",
			"claim_readiness_scoring",
		},
		"supported_modes": []string{models.ModeAnalyze, models.ModeExplain},
	})
}

func (h *HTTPHandler) handleExample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CodingRequest{
		Mode: models.ModeAnalyze,
		Patient: models.Patient{
			Age: 46,
			Sex: "F",
		},
		Encounter: models.Encounter{
			Date:         "2025-08-16",
			POSCode:      "11",
			Payer:        "GenericPPO",
			ProviderType: "Internal Medicine",
		},
		ClinicalNote: "Patient presents with palpitations. Normal physical examination. " +
			"ECG performed and interpreted showing normal sinus rhythm. " +
			"Separate visit-level assessment for new complaint of palpitations.",
		Structured: &models.StructuredData{
			Orders: []string{"ECG 12-lead"},
			Vitals: models.Vitals{BP: "118/72", HR: "92", Temp: "98.6"},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
