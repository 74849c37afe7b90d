package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/earlyguard/platform/pkg/aggregation"
	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/config"
	"github.com/earlyguard/platform/pkg/common/events"
	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/extraction"
	"github.com/earlyguard/platform/pkg/observability/metrics"
	"github.com/earlyguard/platform/pkg/simulation"
)

// Handler exposes the assessment engine over HTTP.
type Handler struct {
	Store    *SessionStore
	Engine   *aggregation.Engine
	Sim      *simulation.Engine
	Producer *events.Producer
	Cfg      *config.Config
}

func Register(router *mux.Router, h *Handler) {
	if h == nil || h.Store == nil || h.Engine == nil || h.Sim == nil || h.Cfg == nil {
		panic("api handler requires store, engines and config")
	}

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/metrics", handleMetrics).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/sessions", h.handleCreateSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", h.handleGetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/profile", h.handleUpdateProfile).Methods(http.MethodPut)
	v1.HandleFunc("/sessions/{id}/inputs/{domain}", h.handleUpdateInputs).Methods(http.MethodPut)
	v1.HandleFunc("/sessions/{id}/advance", h.handleAdvance).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/retreat", h.handleRetreat).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/jump", h.handleJump).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/restart", h.handleRestart).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/score", h.handleScore).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/simulate", h.handleSimulate).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/extract", h.handleExtract).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/extract", h.handleExtractStatus).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/extract/confirm", h.handleExtractConfirm).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/extract/cancel", h.handleExtractCancel).Methods(http.MethodPost)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.Store.Create()
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var profile assessment.UserProfile
	if err := h.decode(w, r, &profile); err != nil {
		return
	}
	if err := session.SetProfile(profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type hepaticUpdate struct {
	assessment.HepaticInputs
	Skip bool `json:"skip"`
}

func (h *Handler) handleUpdateInputs(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch mux.Vars(r)["domain"] {
	case string(assessment.DomainMetabolic):
		var in assessment.MetabolicInputs
		if err := h.decode(w, r, &in); err != nil {
			return
		}
		err = session.UpdateMetabolic(in)
	case string(assessment.DomainCardiac):
		var in assessment.CardiacInputs
		if err := h.decode(w, r, &in); err != nil {
			return
		}
		err = session.UpdateCardiac(in)
	case string(assessment.DomainHepatic):
		var in hepaticUpdate
		if err := h.decode(w, r, &in); err != nil {
			return
		}
		err = session.UpdateHepatic(in.HepaticInputs, in.Skip)
	case string(assessment.DomainMental):
		var in assessment.MentalInputs
		if err := h.decode(w, r, &in); err != nil {
			return
		}
		err = session.UpdateMental(in)
	case "lifestyle":
		var in assessment.LifestyleInputs
		if err := h.decode(w, r, &in); err != nil {
			return
		}
		err = session.UpdateLifestyle(in)
	default:
		http.Error(w, "Unknown input domain", http.StatusNotFound)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *assessment.Session) error { return s.Advance() })
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *assessment.Session) error { return s.Retreat() })
}

func (h *Handler) handleJump(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step assessment.Step `json:"step"`
	}
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.decode(w, r, &req); err != nil {
		return
	}
	if err := session.JumpTo(req.Step); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *assessment.Session) error { return s.Restart() })
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(*assessment.Session) error) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := apply(session); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := session.Submit(r.Context(), h.Engine, h.Cfg.ScoringPause)
	if err != nil {
		metrics.IncAssessmentFailed()
		writeError(w, err)
		return
	}
	metrics.IncAssessmentCompleted()

	h.publishCompleted(session.ID(), result, time.Since(start))

	writeJSON(w, http.StatusOK, session.Snapshot())
}

// publishCompleted emits operational telemetry only: counts, flags and
// timing, no vitals and no scores.
func (h *Handler) publishCompleted(sessionID uuid.UUID, result *assessment.RiskAssessmentResult, elapsed time.Duration) {
	if h.Producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Producer.Publish(ctx, "assessment.completed", map[string]interface{}{
			"session_id":     sessionID.String(),
			"domains_scored": len(result.ScoredDomains()),
			"verified":       result.Verified,
			"duration_ms":    elapsed.Milliseconds(),
		})
	}()
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Domains []assessment.Domain        `json:"domains"`
		Inputs  *assessment.ClinicalInputs `json:"inputs"`
	}
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	// The hypothetical set starts from a clone of canonical inputs when
	// the caller does not supply a full alternate set.
	inputs := session.Inputs()
	if req.Inputs != nil {
		inputs = *req.Inputs
	}

	result, err := h.Sim.Run(r.Context(), session.Profile(), req.Domains, inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type extractStatus struct {
	State      extraction.State      `json:"state"`
	Progress   int                   `json:"progress"`
	Candidates extraction.Candidates `json:"candidates,omitempty"`
	Notice     string                `json:"notice,omitempty"`
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	_, pipeline, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.Cfg.MaxRequestBody))
	if err != nil {
		http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(image) == 0 {
		http.Error(w, "Empty image", http.StatusBadRequest)
		return
	}

	metrics.IncExtractionRun()
	if err := pipeline.Submit(r.Context(), image); err != nil {
		writeError(w, err)
		return
	}
	if pipeline.Notice() != "" {
		metrics.IncExtractionFailure()
	}

	h.writeExtractStatus(w, pipeline)
}

func (h *Handler) handleExtractStatus(w http.ResponseWriter, r *http.Request) {
	_, pipeline, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeExtractStatus(w, pipeline)
}

func (h *Handler) writeExtractStatus(w http.ResponseWriter, pipeline *extraction.Pipeline) {
	writeJSON(w, http.StatusOK, extractStatus{
		State:      pipeline.State(),
		Progress:   pipeline.Progress(),
		Candidates: pipeline.Candidates(),
		Notice:     pipeline.Notice(),
	})
}

func (h *Handler) handleExtractConfirm(w http.ResponseWriter, r *http.Request) {
	session, pipeline, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	candidates, err := pipeline.Confirm()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := session.ApplyCandidates(candidates); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *Handler) handleExtractCancel(w http.ResponseWriter, r *http.Request) {
	_, pipeline, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pipeline.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(r *http.Request) (*assessment.Session, *extraction.Pipeline, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}
	return h.Store.Get(id)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.Cfg.MaxRequestBody)).Decode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to decode request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, assessment.ErrScoringInProgress),
		errors.Is(err, assessment.ErrProfileLocked),
		errors.Is(err, assessment.ErrSessionCompleted),
		errors.Is(err, extraction.ErrNoCandidates),
		errors.Is(err, extraction.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, aggregation.ErrNoScorableDomains):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
