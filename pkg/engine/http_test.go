package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/aurevtech/coder/pkg/common/models"
	"github.com/aurevtech/coder/pkg/terminology"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := NewService(New(terminology.DefaultStore()), nil, nil, nil)
	handler := NewHTTPHandler(svc, 1<<20)

	router := mux.NewRouter()
	handler.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestHandleCodeReturnsResponse(t *testing.T) {
	server := testServer(t)

	resp := postJSON(t, server.URL+"/code", validRequest(models.ModeExplain))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var coding models.CodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&coding); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if coding.Version != Version {
		t.Fatalf("expected version %s, got %s", Version, coding.Version)
	}
	if len(coding.Suggestions) == 0 {
		t.Fatal("expected code suggestions")
	}
	if len(coding.Explanation.Notes) == 0 {
		t.Fatal("expected explanation notes in explain mode")
	}
}

func TestHandleCodeRejectsInvalidRequest(t *testing.T) {
	server := testServer(t)

	req := validRequest(models.ModeAnalyze)
	req.ClinicalNote = "short"
	resp := postJSON(t, server.URL+"/code", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var payload struct {
		Message string                   `json:"message"`
		Errors  []models.ProcessingError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if len(payload.Errors) == 0 || payload.Errors[0].Code != models.ErrInputValidation {
		t.Fatalf("expected validation errors, got %+v", payload)
	}
}

func TestHandleCodeRejectsMalformedJSON(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/code", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleValidateReportsErrors(t *testing.T) {
	server := testServer(t)

	req := validRequest(models.ModeAnalyze)
	req.Encounter.Payer = ""
	resp := postJSON(t, server.URL+"/code/validate", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Valid  bool                     `json:"valid"`
		Errors []models.ProcessingError `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Valid || len(payload.Errors) != 1 {
		t.Fatalf("expected single validation error, got %+v", payload)
	}
}

func TestHandleExampleIsValid(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/example")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var example models.CodingRequest
	if err := json.NewDecoder(resp.Body).Decode(&example); err != nil {
		t.Fatalf("failed to decode example: %v", err)
	}
	if errs := Validate(example); len(errs) != 0 {
		t.Fatalf("expected example request to validate, got %v", errs)
	}
}

func TestHandleSystemInfo(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/system/info")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var info struct {
		Version        string   `json:"version"`
		Capabilities   []string `json:"capabilities"`
		SupportedModes []string `json:"supported_modes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode info: %v", err)
	}
	if info.Version != Version {
		t.Fatalf("expected version %s, got %s", Version, info.Version)
	}
	if len(info.Capabilities) == 0 || len(info.SupportedModes) != 2 {
		t.Fatalf("expected capabilities and two modes, got %+v", info)
	}
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/code/history/unknown-id")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without a history store, got %d", resp.StatusCode)
	}
}
