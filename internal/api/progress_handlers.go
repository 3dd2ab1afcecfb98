package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/httputil"
	"github.com/ignite/reachpoint/internal/service/progress"
)

// queueEntry is one contact of a campaign queue.
type queueEntry struct {
	ContactID string        `json:"contactId"`
	FullName  string        `json:"full_name"`
	Phone     string        `json:"phone,omitempty"`
	Record    domain.Record `json:"record"`
}

// GetQueue lists the contacts the campaign's filters currently select.
//
//	GET /api/campaigns/{id}/queue?page=&limit=
func (h *Handlers) GetQueue(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	rows, ids, err := h.reports.Queue(r.Context(), c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]queueEntry, len(ids))
	for i, id := range ids {
		out[i] = queueEntry{
			ContactID: id,
			FullName:  progress.FullName(rows[i]),
			Phone:     progress.PickPhone(rows[i]),
			Record:    rows[i],
		}
	}
	httputil.OK(w, paginate(out, ParsePagination(r, defaultPageLimit, maxPageLimit)))
}

// GetProgress returns the campaign's progress record, initializing it from
// the current queue when none exists.
//
//	GET /api/campaigns/{id}/progress
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	_, ids, err := h.reports.Queue(r.Context(), c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	p, err := h.progress.LoadOrInit(r.Context(), c.ID, ids)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

// GetSummary returns the campaign totals.
//
//	GET /api/campaigns/{id}/summary
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	totals, err := h.progress.GetSummary(r.Context(), c.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	hasSurvey, err := h.progress.HasSurveyResponses(r.Context(), c.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"campaignId":         c.ID,
		"totals":             totals,
		"hasSurveyResponses": hasSurvey,
	})
}

// GetContact returns one contact's calling state.
//
//	GET /api/campaigns/{id}/contacts/{contactId}
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	p, err := h.progress.LoadOrInit(r.Context(), c.ID, nil)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	state := p.Contact(chi.URLParam(r, "contactId"))
	if state == nil {
		state = domain.NewContactState()
	}
	httputil.OK(w, state)
}

type outcomeRequest struct {
	Outcome string `json:"outcome"`
}

// RecordOutcome records one call attempt.
//
//	POST /api/campaigns/{id}/contacts/{contactId}/outcome
func (h *Handlers) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	var req outcomeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	p, err := h.progress.RecordOutcome(r.Context(), c.ID, chi.URLParam(r, "contactId"), req.Outcome)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

type surveyRequest struct {
	Answer string `json:"answer"`
}

// RecordSurvey records a survey answer. The campaign must carry a survey.
//
//	POST /api/campaigns/{id}/contacts/{contactId}/survey
func (h *Handlers) RecordSurvey(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	if c.Survey == nil {
		httputil.BadRequest(w, "campaign has no survey")
		return
	}
	var req surveyRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		httputil.BadRequest(w, "answer is required")
		return
	}
	p, err := h.progress.RecordSurveyResponse(r.Context(), c.ID, chi.URLParam(r, "contactId"), req.Answer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, p)
}

type noteRequest struct {
	Text string `json:"text"`
}

// RecordNote replaces the contact's note.
//
//	POST /api/campaigns/{id}/contacts/{contactId}/note
func (h *Handlers) RecordNote(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	text, err := h.progress.RecordNote(r.Context(), c.ID, chi.URLParam(r, "contactId"), req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"notes": text})
}

// GetNotCalled lists queue contacts with no attempt, sorted by name.
//
//	GET /api/campaigns/{id}/not-called?page=&limit=
func (h *Handlers) GetNotCalled(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	rows, ids, err := h.reports.Queue(r.Context(), c)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	index := make(progress.RecordResolver, len(ids))
	for i, id := range ids {
		index[id] = rows[i]
	}
	list, err := h.progress.GetNotCalled(r.Context(), c.ID, ids, index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, paginate(list, ParsePagination(r, defaultPageLimit, maxPageLimit)))
}
