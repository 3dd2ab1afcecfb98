package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/httputil"
	"github.com/ignite/reachpoint/internal/segmentation"
	"github.com/ignite/reachpoint/internal/service/campaign"
)

// campaignView is a campaign plus its rendered reminder label.
type campaignView struct {
	domain.Campaign
	RemindersLabel string `json:"remindersLabel"`
}

func viewOf(c domain.Campaign) campaignView {
	return campaignView{Campaign: c, RemindersLabel: campaign.RemindersLabel(c)}
}

// ListCampaigns returns every campaign in saved order.
//
//	GET /api/campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.campaigns.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]campaignView, len(list))
	for i, c := range list {
		out[i] = viewOf(c)
	}
	httputil.OK(w, out)
}

// CreateCampaign selects contacts from the dataset and saves a new campaign.
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rows, err := h.data.Rows(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	c, err := h.campaigns.Create(r.Context(), rows, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, viewOf(*c))
}

// GetCampaign returns one campaign.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	httputil.OK(w, viewOf(*c))
}

// UpdateCampaign replaces a campaign in place. The id in the body, if any,
// must match the URL.
//
//	PUT /api/campaigns/{id}
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.campaigns.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if existing == nil {
		httputil.NotFound(w, "campaign not found")
		return
	}

	var c domain.Campaign
	if !httputil.Decode(w, r, &c) {
		return
	}
	if c.ID != "" && c.ID != id {
		httputil.BadRequest(w, "campaign id does not match URL")
		return
	}
	c.ID = id
	if c.CreatedAt == 0 {
		c.CreatedAt = existing.CreatedAt
	}
	saved, err := h.campaigns.Save(r.Context(), c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, viewOf(*saved))
}

// DeleteCampaign removes a campaign and its progress.
//
//	DELETE /api/campaigns/{id}
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// DatasetFields lists the dataset's field names, or the distinct values of
// one field with ?field=.
//
//	GET /api/dataset/fields
func (h *Handlers) DatasetFields(w http.ResponseWriter, r *http.Request) {
	rows, err := h.data.Rows(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if f := r.URL.Query().Get("field"); f != "" {
		httputil.OK(w, map[string]any{"field": f, "values": segmentation.Values(rows, f)})
		return
	}
	httputil.OK(w, map[string]any{"fields": segmentation.Fields(rows), "rows": len(rows)})
}
