// Package httpx provides the JSON control plane for the timesheet sync
// engine: migration lifecycle, queue administration, and health.
package httpx

import (
	"errors"
	"net/http"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

const defaultListLimit = 20

// MigrationHandlers provides HTTP handlers for migration job operations.
type MigrationHandlers struct {
	Svc *service.Coordinator
}

// Create handles HTTP requests to start a new migration job.
func (h *MigrationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var cfg model.MigrationConfig
	if !DecodeJSON(w, r, &cfg) {
		return
	}

	result, err := h.Svc.Start(r.Context(), cfg, ActorFromContext(r.Context()))
	if err != nil {
		writeMigrationError(w, "start_failed", err)
		return
	}

	WriteJSON(w, http.StatusCreated, result)
}

// Preview handles HTTP requests to dry-validate a migration configuration
// without starting anything.
func (h *MigrationHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	var cfg model.MigrationConfig
	if !DecodeJSON(w, r, &cfg) {
		return
	}

	report, err := h.Svc.Preview(r.Context(), cfg)
	if err != nil {
		writeMigrationError(w, "preview_failed", err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// Control handles pause/resume/cancel requests for a migration job.
func (h *MigrationHandlers) Control(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	action, err := core.ParseControlAction(req.Action)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "unknown_action", Err: err})
		return
	}

	actor := ActorFromContext(r.Context())
	var job *model.MigrationJob
	switch action {
	case core.ControlPause:
		job, err = h.Svc.Pause(r.Context(), jobID, actor)
	case core.ControlResume:
		job, err = h.Svc.Resume(r.Context(), jobID, actor)
	case core.ControlCancel:
		job, err = h.Svc.Cancel(r.Context(), jobID, actor)
	}
	if err != nil {
		writeMigrationError(w, "control_failed", err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Progress handles HTTP requests for a job's live progress snapshot.
func (h *MigrationHandlers) Progress(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	snapshot, err := h.Svc.Progress(r.Context(), jobID)
	if err != nil {
		writeMigrationError(w, "progress_failed", err)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// Get handles HTTP requests for a single migration job with its errors.
func (h *MigrationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	job, err := h.Svc.Get(r.Context(), jobID)
	if err != nil {
		writeMigrationError(w, "get_failed", err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// List handles HTTP requests for recent migration jobs, newest first.
func (h *MigrationHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)

	jobs, err := h.Svc.List(r.Context(), limit)
	if err != nil {
		writeMigrationError(w, "list_failed", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// writeMigrationError maps service errors onto HTTP status codes. Blocking
// validation gets a 422 carrying the full report so operators can see every
// offending record.
func writeMigrationError(w http.ResponseWriter, errCode string, err error) {
	var blocked *service.ValidationBlockedError
	if errors.As(err, &blocked) {
		WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation_blocked",
			"message":    blocked.Error(),
			"validation": blocked.Report,
		})
		return
	}

	code := http.StatusBadRequest
	switch {
	case errors.Is(err, core.ErrScopeConflict):
		code = http.StatusConflict
		errCode = "scope_conflict"
	case errors.Is(err, core.ErrJobNotFound):
		code = http.StatusNotFound
		errCode = "not_found"
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
}
