package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/reachpoint/internal/pkg/httputil"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/report"
)

// GetInsights returns the campaign's outcome breakdown.
//
//	GET /api/campaigns/{id}/insights
func (h *Handlers) GetInsights(w http.ResponseWriter, r *http.Request) {
	in, err := h.reports.Insights(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, in)
}

// DownloadExport renders an export as a file download.
//
//	GET /api/campaigns/{id}/exports/{kind}
func (h *Handlers) DownloadExport(w http.ResponseWriter, r *http.Request) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	f, err := h.reports.Export(r.Context(), chi.URLParam(r, "id"), kind)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Attachment(w, f.Name, f.ContentType, f.Body)
}

// DeliverExport renders an export and writes it to the configured sink.
//
//	POST /api/campaigns/{id}/exports/{kind}
func (h *Handlers) DeliverExport(w http.ResponseWriter, r *http.Request) {
	if h.sink == nil {
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "export_disabled", "no export destination is configured")
		return
	}
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	location, err := h.reports.Deliver(r.Context(), h.sink, id, kind)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	logger.Info("export delivered", "campaign_id", id, "kind", kind, "location", location)
	httputil.Created(w, map[string]string{
		"campaignId": id,
		"kind":       string(kind),
		"name":       report.FileName(id, kind),
		"location":   location,
	})
}
