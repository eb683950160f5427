package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

// QueueHandlers provides HTTP handlers for queue administration.
type QueueHandlers struct {
	Svc *service.QueueService
}

// queueCommandRequest is the wire shape of a queue command: a closed action
// name plus action-specific arguments.
type queueCommandRequest struct {
	Action string          `json:"action"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Command handles HTTP requests to run one queue command against a named
// queue. Unknown actions and invalid arguments are rejected at the boundary.
func (h *QueueHandlers) Command(w http.ResponseWriter, r *http.Request) {
	queue := r.PathValue("name")
	if queue == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("queue name is required")})
		return
	}

	var req queueCommandRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	cmd, err := core.DecodeQueueCommand(req.Action, req.Args)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_command", Err: err})
		return
	}

	result, err := h.Svc.Execute(r.Context(), queue, cmd, ActorFromContext(r.Context()))
	if err != nil {
		code := http.StatusBadRequest
		errCode := "command_failed"
		if errors.Is(err, core.ErrQueueJobNotFound) {
			code = http.StatusNotFound
			errCode = "not_found"
		}
		WriteError(w, ErrorParams{Code: code, ErrCode: errCode, Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"queue":  queue,
		"action": cmd.Name(),
		"result": result,
	})
}

// Stats handles HTTP requests for a stats summary of every known queue.
func (h *QueueHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.StatsAll(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "stats_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"queues": stats})
}
