package api

import (
	"net/http"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/httputil"
)

// ListCalls returns the single-call log, newest first.
//
//	GET /api/calls?page=&limit=
func (h *Handlers) ListCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := h.calls.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, paginate(calls, ParsePagination(r, defaultPageLimit, maxPageLimit)))
}

// RecordCall adds a call to the log, or updates the entry with the same id.
//
//	POST /api/calls
func (h *Handlers) RecordCall(w http.ResponseWriter, r *http.Request) {
	var call domain.SingleCall
	if !httputil.Decode(w, r, &call) {
		return
	}
	if call.StudentID == "" && call.FullName == "" {
		httputil.BadRequest(w, "studentId or full_name is required")
		return
	}
	saved, err := h.calls.Record(r.Context(), call)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, saved)
}

// ClearCalls empties the log.
//
//	DELETE /api/calls
func (h *Handlers) ClearCalls(w http.ResponseWriter, r *http.Request) {
	if err := h.calls.Clear(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ExportCalls downloads the log as JSON.
//
//	GET /api/calls/export
func (h *Handlers) ExportCalls(w http.ResponseWriter, r *http.Request) {
	body, err := h.calls.ExportJSON(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Attachment(w, "single-calls.json", "application/json", []byte(body))
}
