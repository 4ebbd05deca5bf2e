package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	adapters := AdapterTable{} // no real adapters needed for validation-rejection tests
	validator := NewStaticValidator(compileDenylist(defaultDenylist()), false)
	orch := NewOrchestrator(adapters, validator, nil, OrchestratorConfig{
		MinTimeout: 1, MaxTimeout: 10, DefaultTimeout: 5,
	})
	return NewRouter(RouterDeps{
		Orchestrator: orch,
		Config:       Config{Version: "test", ReplicaName: "replica-1"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["status"] != "healthy" || body["replica"] != "replica-1" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestRunEndpointRejectsMissingSource(t *testing.T) {
	r := newTestRouter()
	body := `{"language":"python","code":"","sample_test_cases":[{"input":"","expected_output":""}]}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitEndpointRequiresUserAndQuestionID(t *testing.T) {
	r := newTestRouter()
	body := `{"language":"python","code":"print(1)","test_cases":[{"input":"","expected_output":"1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRunEndpointRejectsUnknownLanguage(t *testing.T) {
	r := newTestRouter()
	body := `{"language":"cobol","code":"DISPLAY 1","sample_test_cases":[{"input":"","expected_output":"1"}]}`
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
