package campaign

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/segmentation"
)

// ProgressRemover erases a campaign's progress record. progress.Store
// satisfies it.
type ProgressRemover interface {
	RemoveProgress(ctx context.Context, campaignID string) error
}

// Registry implements campaign business logic over a Repository.
type Registry struct {
	repo     Repository
	progress ProgressRemover
	now      func() time.Time
}

// NewRegistry creates a registry. progress may be nil, in which case Delete
// does not cascade.
func NewRegistry(repo Repository, progress ProgressRemover) *Registry {
	return &Registry{repo: repo, progress: progress, now: time.Now}
}

// WithClock returns a copy of r that stamps new campaigns with now.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	cp := *r
	cp.now = now
	return &cp
}

// List returns campaigns in saved order.
func (r *Registry) List(ctx context.Context) ([]domain.Campaign, error) {
	return r.repo.Load(ctx)
}

// Get returns the campaign with id, or nil when there is none.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	list, err := r.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			c := list[i]
			return &c, nil
		}
	}
	return nil, nil
}

// MustGet is Get for flows where a missing campaign is an error.
func (r *Registry) MustGet(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

// Save upserts c by id: an existing entry is replaced in place, a new one is
// appended.
func (r *Registry) Save(ctx context.Context, c domain.Campaign) (*domain.Campaign, error) {
	list, err := r.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range list {
		if list[i].ID == c.ID {
			list[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, c)
	}
	if err := r.repo.Replace(ctx, list); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the campaign and then its progress record. Deleting a
// missing campaign is a no-op for the list but still clears any orphaned
// progress.
func (r *Registry) Delete(ctx context.Context, id string) error {
	list, err := r.repo.Load(ctx)
	if err != nil {
		return err
	}
	kept := make([]domain.Campaign, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if err := r.repo.Replace(ctx, kept); err != nil {
		return err
	}

	if r.progress != nil {
		if err := r.progress.RemoveProgress(ctx, id); err != nil {
			return fmt.Errorf("removing progress of campaign %s: %w", id, err)
		}
	}
	logger.Info("campaign deleted", "campaign_id", id)
	return nil
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name          string              `json:"name"`
	Filters       []domain.FilterRule `json:"filters"`
	ReminderDates []string            `json:"reminderDates"`
	Survey        *SurveyInput        `json:"survey,omitempty"`
}

// SurveyInput is the optional survey question of a new campaign.
type SurveyInput struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Create validates input, selects the campaign's contacts from rows and
// saves the new campaign. The id is the creation time in epoch
// milliseconds, bumped when it collides with an existing id.
func (r *Registry) Create(ctx context.Context, rows []domain.Record, input CreateInput) (*domain.Campaign, error) {
	dates, err := normalizeDates(input.ReminderDates)
	if err != nil {
		return nil, err
	}
	for i, f := range input.Filters {
		if strings.TrimSpace(f.Field) == "" {
			return nil, fmt.Errorf("%w: filter %d has no field", ErrInvalid, i)
		}
	}

	var survey *domain.Survey
	now := r.now()
	nowMs := now.UnixMilli()
	if input.Survey != nil {
		q := strings.TrimSpace(input.Survey.Question)
		if q == "" {
			return nil, fmt.Errorf("%w: survey question is required", ErrInvalid)
		}
		survey = &domain.Survey{
			Question:  q,
			Options:   normalizeOptions(input.Survey.Options),
			CreatedAt: nowMs,
			UpdatedAt: nowMs,
			Active:    true,
		}
	}

	list, err := r.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(list))
	for _, c := range list {
		taken[c.ID] = true
	}
	id := nowMs
	for taken[strconv.FormatInt(id, 10)] {
		id++
	}

	filters := input.Filters
	if filters == nil {
		filters = []domain.FilterRule{}
	}
	_, ids := segmentation.Queue(rows, filters)
	reminders := make([]domain.Reminder, len(ids))
	for i, sid := range ids {
		reminders[i] = domain.Reminder{ContactID: sid, Dates: append([]string(nil), dates...)}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Campaign " + now.Format("2006-01-02")
	}

	c := domain.Campaign{
		ID:         strconv.FormatInt(id, 10),
		Name:       name,
		CreatedAt:  nowMs,
		Filters:    filters,
		StudentIDs: ids,
		Reminders:  reminders,
		Survey:     survey,
	}
	if err := r.repo.Replace(ctx, append(list, c)); err != nil {
		return nil, err
	}
	logger.Info("campaign created", "campaign_id", c.ID, "contacts", len(ids))
	return &c, nil
}

func normalizeDates(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("%w: reminder date %q is not YYYY-MM-DD", ErrInvalid, d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one reminder date is required", ErrInvalid)
	}
	sort.Strings(out)
	return out, nil
}

func normalizeOptions(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

// RemindersLabel renders the sorted union of a campaign's reminder dates.
func RemindersLabel(c domain.Campaign) string {
	seen := make(map[string]bool)
	var dates []string
	for _, r := range c.Reminders {
		for _, d := range r.Dates {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	if len(dates) == 0 {
		return "Reminders: —"
	}
	sort.Strings(dates)
	return "Reminders: " + strings.Join(dates, ", ")
}
