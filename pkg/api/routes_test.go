package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/earlyguard/platform/pkg/aggregation"
	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/config"
	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/extraction"
	"github.com/earlyguard/platform/pkg/simulation"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type staticRecognizer string

func (s staticRecognizer) Recognize(ctx context.Context, image []byte, progress func(int)) (string, error) {
	progress(100)
	return string(s), nil
}

// newTestServer wires the full handler stack over a fallback-only
// aggregation engine: no prediction clients configured, so every score is
// deterministic.
func newTestServer(t *testing.T, recognizer extraction.Recognizer) *httptest.Server {
	t.Helper()

	parser, err := extraction.NewParser(extraction.DefaultRules())
	if err != nil {
		t.Fatalf("failed to build parser: %v", err)
	}

	engine := aggregation.New(nil, nil)
	router := mux.NewRouter()
	Register(router, &Handler{
		Store:  NewSessionStore(parser, recognizer, time.Hour),
		Engine: engine,
		Sim:    simulation.New(engine),
		Cfg:    &config.Config{MaxRequestBody: 1 << 20},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	var snapshot assessment.SessionSnapshot
	if status := doJSON(t, http.MethodPost, base+"/api/v1/sessions", nil, &snapshot); status != http.StatusCreated {
		t.Fatalf("create session returned %d", status)
	}
	return snapshot.ID.String()
}

func TestFullAssessmentFlow(t *testing.T) {
	server := newTestServer(t, staticRecognizer(""))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	profile := assessment.UserProfile{Name: "Dana", Age: 45, Sex: assessment.SexFemale}
	if status := doJSON(t, http.MethodPut, sessionURL+"/profile", profile, nil); status != http.StatusOK {
		t.Fatalf("update profile returned %d", status)
	}

	for i := 0; i < 2; i++ {
		if status := doJSON(t, http.MethodPost, sessionURL+"/advance", nil, nil); status != http.StatusOK {
			t.Fatalf("advance %d returned %d", i+1, status)
		}
	}

	var snapshot assessment.SessionSnapshot
	if status := doJSON(t, http.MethodPost, sessionURL+"/score", nil, &snapshot); status != http.StatusOK {
		t.Fatalf("score returned %d", status)
	}
	if snapshot.Step != assessment.StepReport {
		t.Fatalf("expected report step after scoring, got %s", snapshot.StepName)
	}
	if snapshot.Result == nil {
		t.Fatal("expected a stored result")
	}
	if snapshot.Result.Composite != 19.5 {
		t.Fatalf("expected fallback composite 19.5, got %v", snapshot.Result.Composite)
	}
	if snapshot.Result.Verified {
		t.Fatal("fallback-only result must not be verified")
	}

	// Completed sessions reject further edits.
	if status := doJSON(t, http.MethodPut, sessionURL+"/profile", profile, nil); status != http.StatusConflict {
		t.Fatalf("expected 409 for profile edit after completion, got %d", status)
	}
}

func TestAdvanceRejectsIncompleteProfile(t *testing.T) {
	server := newTestServer(t, staticRecognizer(""))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	var body map[string]string
	if status := doJSON(t, http.MethodPost, sessionURL+"/advance", nil, &body); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank profile, got %d", status)
	}
	if body["error"] == "" {
		t.Fatal("expected an error payload")
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	server := newTestServer(t, staticRecognizer(""))

	if status := doJSON(t, http.MethodGet, server.URL+"/api/v1/sessions/8e4b03a6-15a1-4b0e-8f54-123456789abc", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, server.URL+"/api/v1/sessions/not-a-uuid", nil, nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", status)
	}
}

func TestSimulateRejectsEmptyDomainSubset(t *testing.T) {
	server := newTestServer(t, staticRecognizer(""))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	var body map[string]interface{}
	if status := doJSON(t, http.MethodPost, sessionURL+"/simulate", map[string]interface{}{"domains": []string{}}, &body); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty simulation subset, got %d", status)
	}
}

func TestSimulateDoesNotTouchCanonicalInputs(t *testing.T) {
	server := newTestServer(t, staticRecognizer(""))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	profile := assessment.UserProfile{Name: "Dana", Age: 45, Sex: assessment.SexFemale}
	if status := doJSON(t, http.MethodPut, sessionURL+"/profile", profile, nil); status != http.StatusOK {
		t.Fatalf("update profile failed")
	}

	hypothetical := assessment.DefaultInputs()
	hypothetical.Metabolic.Glucose = 180

	var result simulation.Result
	status := doJSON(t, http.MethodPost, sessionURL+"/simulate", map[string]interface{}{
		"domains": []string{"metabolic"},
		"inputs":  hypothetical,
	}, &result)
	if status != http.StatusOK {
		t.Fatalf("simulate returned %d", status)
	}
	if result.Scores[assessment.DomainMetabolic] != 65 {
		t.Fatalf("expected elevated-glucose fallback 65, got %v", result.Scores[assessment.DomainMetabolic])
	}

	var snapshot assessment.SessionSnapshot
	if status := doJSON(t, http.MethodGet, sessionURL, nil, &snapshot); status != http.StatusOK {
		t.Fatalf("get session returned %d", status)
	}
	if snapshot.Inputs.Metabolic.Glucose != 100 {
		t.Fatalf("simulation must not mutate canonical glucose, got %v", snapshot.Inputs.Metabolic.Glucose)
	}
}

func TestExtractConfirmAppliesCandidates(t *testing.T) {
	server := newTestServer(t, staticRecognizer("Glucose: 141\nPulse 88"))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	resp, err := http.Post(sessionURL+"/extract", "application/octet-stream", bytes.NewReader([]byte("fake-image")))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract returned %d", resp.StatusCode)
	}

	var status extractStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode extract status: %v", err)
	}
	if status.State != extraction.StateParsed {
		t.Fatalf("expected parsed state, got %s", status.State)
	}
	if status.Candidates[extraction.FieldGlucose] != 141 {
		t.Fatalf("unexpected candidates: %v", status.Candidates)
	}

	var snapshot assessment.SessionSnapshot
	if code := doJSON(t, http.MethodPost, sessionURL+"/extract/confirm", nil, &snapshot); code != http.StatusOK {
		t.Fatalf("confirm returned %d", code)
	}
	if snapshot.Inputs.Metabolic.Glucose != 141 {
		t.Fatalf("expected glucose applied to canonical inputs, got %v", snapshot.Inputs.Metabolic.Glucose)
	}
	if snapshot.Inputs.Cardiac.MaxHeartRate != 88 {
		t.Fatalf("expected heart rate applied, got %v", snapshot.Inputs.Cardiac.MaxHeartRate)
	}

	// The candidate set is released exactly once.
	if code := doJSON(t, http.MethodPost, sessionURL+"/extract/confirm", nil, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 on double confirm, got %d", code)
	}
}

func TestExtractCancelDiscards(t *testing.T) {
	server := newTestServer(t, staticRecognizer("glucose 120"))
	sessionURL := server.URL + "/api/v1/sessions/" + createSession(t, server.URL)

	resp, err := http.Post(sessionURL+"/extract", "application/octet-stream", bytes.NewReader([]byte("fake-image")))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPost, sessionURL+"/extract/cancel", nil)
	cancelResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel returned %d", cancelResp.StatusCode)
	}

	var status extractStatus
	if code := doJSON(t, http.MethodGet, sessionURL+"/extract", nil, &status); code != http.StatusOK {
		t.Fatalf("status returned %d", code)
	}
	if status.State != extraction.StateIdle {
		t.Fatalf("expected idle state after cancel, got %s", status.State)
	}
}
