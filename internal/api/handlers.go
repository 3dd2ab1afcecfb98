package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/reachpoint/internal/dataset"
	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/export"
	"github.com/ignite/reachpoint/internal/pkg/httputil"
	"github.com/ignite/reachpoint/internal/report"
	"github.com/ignite/reachpoint/internal/service/campaign"
	"github.com/ignite/reachpoint/internal/service/progress"
	"github.com/ignite/reachpoint/internal/service/singlecall"
	"github.com/ignite/reachpoint/internal/storage"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	campaigns *campaign.Registry
	progress  *progress.Store
	calls     *singlecall.Service
	reports   *report.Builder
	data      *dataset.Source
	sink      export.Sink
}

// Deps are the services the handlers call.
type Deps struct {
	Campaigns *campaign.Registry
	Progress  *progress.Store
	Calls     *singlecall.Service
	Reports   *report.Builder
	Data      *dataset.Source
	// Sink receives exports requested with POST; nil disables delivery.
	Sink export.Sink
}

// NewHandlers creates handlers over deps.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		campaigns: deps.Campaigns,
		progress:  deps.Progress,
		calls:     deps.Calls,
		reports:   deps.Reports,
		data:      deps.Data,
		sink:      deps.Sink,
	}
}

// loadCampaign resolves the {id} URL parameter, writing a 404 when the
// campaign does not exist.
func (h *Handlers) loadCampaign(w http.ResponseWriter, r *http.Request) (*domain.Campaign, bool) {
	id := chi.URLParam(r, "id")
	c, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return nil, false
	}
	if c == nil {
		httputil.NotFound(w, "campaign not found")
		return nil, false
	}
	return c, true
}

// respondServiceError maps service errors to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, campaign.ErrInvalid),
		errors.Is(err, report.ErrUnknownKind),
		errors.Is(err, export.ErrInvalidName):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, storage.ErrQuotaExceeded):
		respondSafeError(w, http.StatusInsufficientStorage, "quota_exceeded", err, "storage quota exceeded; nothing was saved")
	case errors.Is(err, progress.ErrCorruptRecord), errors.Is(err, campaign.ErrCorruptList):
		respondSafeError(w, http.StatusInternalServerError, "corrupt_record", err, "stored data is unreadable")
	default:
		code := http.StatusInternalServerError
		respondSafeError(w, code, "", err, safeErrorMessage(code, err))
	}
}
