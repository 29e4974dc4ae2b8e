package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/target/bullboard/internal/domain/model"
	"github.com/target/bullboard/internal/service"
)

// ActionHandlers serves job and queue operations.
type ActionHandlers struct {
	Actions *service.ActionService
}

// Logs handles GET /api/queues/{queue}/jobs/{id}/logs.
func (h *ActionHandlers) Logs(w http.ResponseWriter, r *http.Request) {
	ref, err := jobRefFromPath(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	lines, err := h.Actions.Logs(r.Context(), ref)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"logs": lines, "count": len(lines)})
}

// Retry handles POST /api/queues/{queue}/jobs/{id}/retry.
func (h *ActionHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	ref, err := jobRefFromPath(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if err := h.Actions.Retry(r.Context(), ref); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/queues/{queue}/jobs/{id}.
func (h *ActionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	ref, err := jobRefFromPath(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if err := h.Actions.Delete(r.Context(), ref); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// addJobBody is the body of POST /api/queues/{queue}/jobs.
// Data may be any JSON value; a JSON string is parsed the way the add-job form does.
type addJobBody struct {
	Name    string            `json:"name"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Options *model.JobOptions `json:"options,omitempty"`
}

// AddJob handles POST /api/queues/{queue}/jobs.
func (h *ActionHandlers) AddJob(w http.ResponseWriter, r *http.Request) {
	var body addJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	row, err := h.Actions.AddJob(r.Context(), model.AddJobRequest{
		Queue:   r.PathValue("queue"),
		Name:    body.Name,
		Data:    normalizeJobData(body.Data),
		Options: body.Options,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, row)
}

func normalizeJobData(raw json.RawMessage) json.RawMessage {
	if !model.HasValue(raw) {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return model.ParseJobData(text)
	}
	return raw
}

// Pause handles POST /api/queues/{queue}/pause.
func (h *ActionHandlers) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.Actions.Pause(r.Context(), r.PathValue("queue")); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /api/queues/{queue}/resume.
func (h *ActionHandlers) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.Actions.Resume(r.Context(), r.PathValue("queue")); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cleanBody struct {
	States []string `json:"states"`
}

// Clean handles POST /api/queues/{queue}/clean.
func (h *ActionHandlers) Clean(w http.ResponseWriter, r *http.Request) {
	var body cleanBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	removed, err := h.Actions.Clean(r.Context(), r.PathValue("queue"), body.States)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// Errors handles GET /api/errors and returns every non-empty error slot.
func (h *ActionHandlers) Errors(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"errors": h.Actions.Errors()})
}
