package httpx

import (
	"context"
	"net/http"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
)

const defaultAuditLimit = 50

// AuditReader lists recently recorded audit events.
type AuditReader interface {
	RecentEvents(ctx context.Context, limit int) ([]core.AuditEvent, error)
}

// AuditHandlers provides HTTP handlers for the audit trail.
type AuditHandlers struct {
	Reader AuditReader
}

// Recent handles HTTP requests for the latest audit events, newest first.
func (h *AuditHandlers) Recent(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultAuditLimit)

	events, err := h.Reader.RecentEvents(r.Context(), limit)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "audit_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
