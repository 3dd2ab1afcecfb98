package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/storage"
)

const (
	progressPrefix = "reachpoint.progress."
	surveyPrefix   = "reachpoint.survey."
)

// Key returns the storage key of a campaign's progress record.
func Key(campaignID string) string { return progressPrefix + campaignID }

// SurveyMarkerKey returns the key flagging that a campaign has survey answers.
func SurveyMarkerKey(campaignID string) string { return surveyPrefix + campaignID }

// TotalPolicy decides what happens to Totals.Total when a record that
// already exists is initialized again with a queue.
type TotalPolicy string

const (
	// TotalSticky keeps the total fixed at the first initialization.
	TotalSticky TotalPolicy = "sticky"
	// TotalLive resizes the total to any non-empty queue passed later.
	TotalLive TotalPolicy = "live"
)

// ParseTotalPolicy maps a config value to a policy, defaulting to sticky.
func ParseTotalPolicy(s string) TotalPolicy {
	if TotalPolicy(s) == TotalLive {
		return TotalLive
	}
	return TotalSticky
}

// Store is the progress store. It is safe for concurrent use.
type Store struct {
	kv     storage.Store
	local  *keyMutex
	shared Locker
	now    func() time.Time
	policy TotalPolicy
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for lastCalledAt and log entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocker adds a cross-process lock taken after the in-process one. Use it
// whenever the backing store is shared between processes.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.shared = l }
}

// WithTotalPolicy sets the re-initialization policy for Totals.Total.
func WithTotalPolicy(p TotalPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// NewStore creates a progress store over kv.
func NewStore(kv storage.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		local:  newKeyMutex(),
		now:    time.Now,
		policy: TotalSticky,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) nowMillis() int64 { return s.now().UnixMilli() }

// lock takes the in-process lock and, when configured, the shared one.
func (s *Store) lock(ctx context.Context, campaignID string) (func(), error) {
	key := Key(campaignID)
	unlockLocal, err := s.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.shared == nil {
		return unlockLocal, nil
	}
	unlockShared, err := s.shared.Lock(ctx, key)
	if err != nil {
		unlockLocal()
		return nil, fmt.Errorf("locking progress %s: %w", campaignID, err)
	}
	return func() {
		unlockShared()
		unlockLocal()
	}, nil
}

// load reads a persisted record. ok is false when none exists.
func (s *Store) load(ctx context.Context, campaignID string) (*domain.Progress, bool, error) {
	raw, ok, err := s.kv.Get(ctx, Key(campaignID))
	if err != nil {
		return nil, false, fmt.Errorf("reading progress %s: %w", campaignID, err)
	}
	if !ok {
		return nil, false, nil
	}

	var p domain.Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false, fmt.Errorf("%w: campaign %s: %v", ErrCorruptRecord, campaignID, err)
	}
	if p.Contacts == nil {
		p.Contacts = make(map[string]*domain.ContactState)
	}
	if p.CampaignID == "" {
		p.CampaignID = campaignID
	}
	return &p, true, nil
}

// save writes the whole record in one call and bumps its version.
func (s *Store) save(ctx context.Context, p *domain.Progress) error {
	next := *p
	next.Version++
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encoding progress %s: %w", p.CampaignID, err)
	}
	if err := s.kv.Set(ctx, Key(p.CampaignID), string(data)); err != nil {
		return fmt.Errorf("saving progress %s: %w", p.CampaignID, err)
	}
	p.Version = next.Version
	return nil
}

func newProgress(campaignID string, total int) *domain.Progress {
	return &domain.Progress{
		CampaignID: campaignID,
		Totals:     domain.Totals{Total: total},
		Contacts:   make(map[string]*domain.ContactState),
	}
}

// loadOrInitLocked is LoadOrInit without locking.
func (s *Store) loadOrInitLocked(ctx context.Context, campaignID string, queueIDs []string) (*domain.Progress, error) {
	p, ok, err := s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if ok {
		if s.policy == TotalLive && len(queueIDs) > 0 && p.Totals.Total != len(queueIDs) {
			p.Totals.Total = len(queueIDs)
			if err := s.save(ctx, p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	p = newProgress(campaignID, len(queueIDs))
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	logger.Debug("progress initialized", "campaign_id", campaignID, "total", p.Totals.Total)
	return p, nil
}

// LoadOrInit returns the campaign's record, creating and persisting one with
// Total = len(queueIDs) when none exists. Under the sticky policy a later call
// with a different queue leaves Total unchanged.
func (s *Store) LoadOrInit(ctx context.Context, campaignID string, queueIDs []string) (*domain.Progress, error) {
	unlock, err := s.lock(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.loadOrInitLocked(ctx, campaignID, queueIDs)
}

// Snapshot returns the persisted record, or an empty one when none exists,
// without writing anything.
func (s *Store) Snapshot(ctx context.Context, campaignID string) (*domain.Progress, error) {
	p, ok, err := s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newProgress(campaignID, 0), nil
	}
	return p, nil
}

// mutate applies fn to one contact under the campaign lock, recounts the
// totals and persists the record in a single write. A missing record is
// created as part of the same write.
func (s *Store) mutate(ctx context.Context, campaignID, contactID, op string, fn func(c *domain.ContactState)) (*domain.Progress, error) {
	unlock, err := s.lock(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, ok, err := s.load(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !ok {
		p = newProgress(campaignID, 0)
	}

	c := p.Contacts[contactID]
	if c == nil {
		c = domain.NewContactState()
	}
	fn(c)
	p.Contacts[contactID] = c
	p.Recount()

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	logger.Debug("progress updated",
		"campaign_id", campaignID,
		"contact_id", contactID,
		"op", op,
		"version", p.Version,
	)
	return p, nil
}

// RecordOutcome counts one more attempt for the contact and stores its latest
// outcome. Anything other than "answered" is recorded as no_answer.
func (s *Store) RecordOutcome(ctx context.Context, campaignID, contactID, outcome string) (*domain.Progress, error) {
	now := s.nowMillis()
	return s.mutate(ctx, campaignID, contactID, "outcome", func(c *domain.ContactState) {
		c.Attempts++
		c.LastCalledAt = now
		c.Outcome = domain.NormalizeOutcome(outcome)
	})
}

// RecordSurveyResponse sets the contact's current answer and appends it to
// the survey log. The log is never trimmed.
func (s *Store) RecordSurveyResponse(ctx context.Context, campaignID, contactID, answer string) (*domain.Progress, error) {
	now := s.nowMillis()
	p, err := s.mutate(ctx, campaignID, contactID, "survey", func(c *domain.ContactState) {
		a := answer
		c.SurveyAnswer = &a
		c.SurveyLogs = append(c.SurveyLogs, domain.SurveyLog{Answer: answer, At: now})
	})
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, SurveyMarkerKey(campaignID), "1"); err != nil {
		return nil, fmt.Errorf("marking survey responses %s: %w", campaignID, err)
	}
	return p, nil
}

// RecordNote replaces the contact's note and appends it to the note history,
// keeping only the most recent domain.MaxNotesLogs entries. It returns the
// stored text.
func (s *Store) RecordNote(ctx context.Context, campaignID, contactID, text string) (string, error) {
	now := s.nowMillis()
	_, err := s.mutate(ctx, campaignID, contactID, "note", func(c *domain.ContactState) {
		c.Notes = text
		c.NotesLogs = append(c.NotesLogs, domain.NoteLog{Text: text, At: now})
		if n := len(c.NotesLogs); n > domain.MaxNotesLogs {
			c.NotesLogs = append([]domain.NoteLog(nil), c.NotesLogs[n-domain.MaxNotesLogs:]...)
		}
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GetSurveyResponse returns the contact's current answer; ok is false when
// none was recorded. Like every read here, it initializes a missing record.
func (s *Store) GetSurveyResponse(ctx context.Context, campaignID, contactID string) (answer string, ok bool, err error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return "", false, err
	}
	c := p.Contact(contactID)
	if c == nil || c.SurveyAnswer == nil {
		return "", false, nil
	}
	return *c.SurveyAnswer, true, nil
}

// GetNote returns the contact's note, or "".
func (s *Store) GetNote(ctx context.Context, campaignID, contactID string) (string, error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return "", err
	}
	if c := p.Contact(contactID); c != nil {
		return c.Notes, nil
	}
	return "", nil
}

// GetSummary returns the campaign totals.
func (s *Store) GetSummary(ctx context.Context, campaignID string) (domain.Totals, error) {
	p, err := s.LoadOrInit(ctx, campaignID, nil)
	if err != nil {
		return domain.Totals{}, err
	}
	return p.Totals, nil
}

// HasSurveyResponses reports whether any survey answer was ever recorded for
// the campaign.
func (s *Store) HasSurveyResponses(ctx context.Context, campaignID string) (bool, error) {
	v, ok, err := s.kv.Get(ctx, SurveyMarkerKey(campaignID))
	if err != nil {
		return false, fmt.Errorf("reading survey marker %s: %w", campaignID, err)
	}
	return ok && v == "1", nil
}

// GetNotCalledIDs returns the ids of queueIDs with no recorded attempt, in
// queue order.
func (s *Store) GetNotCalledIDs(ctx context.Context, campaignID string, queueIDs []string) ([]string, error) {
	p, err := s.LoadOrInit(ctx, campaignID, queueIDs)
	if err != nil {
		return nil, err
	}
	return notCalled(p, queueIDs), nil
}

func notCalled(p *domain.Progress, queueIDs []string) []string {
	out := make([]string, 0, len(queueIDs))
	for _, id := range queueIDs {
		if !p.Contact(id).Called() {
			out = append(out, id)
		}
	}
	return out
}

// NotCalledEntry is one row of the not-called list.
type NotCalledEntry struct {
	ContactID string `json:"contactId"`
	FullName  string `json:"full_name"`
}

// GetNotCalled resolves the not-called contacts to display names and sorts
// them by name, case-insensitively.
func (s *Store) GetNotCalled(ctx context.Context, campaignID string, queueIDs []string, r Resolver) ([]NotCalledEntry, error) {
	ids, err := s.GetNotCalledIDs(ctx, campaignID, queueIDs)
	if err != nil {
		return nil, err
	}
	rows := make([]NotCalledEntry, len(ids))
	for i, id := range ids {
		rows[i] = NotCalledEntry{ContactID: id, FullName: ResolveName(r, id)}
	}
	sortByName(rows)
	return rows, nil
}

// RemoveProgress deletes the campaign's record and survey marker. Removing a
// missing record is not an error.
func (s *Store) RemoveProgress(ctx context.Context, campaignID string) error {
	unlock, err := s.lock(ctx, campaignID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.kv.Remove(ctx, Key(campaignID)); err != nil {
		return fmt.Errorf("removing progress %s: %w", campaignID, err)
	}
	if err := s.kv.Remove(ctx, SurveyMarkerKey(campaignID)); err != nil {
		return fmt.Errorf("removing survey marker %s: %w", campaignID, err)
	}
	logger.Debug("progress removed", "campaign_id", campaignID)
	return nil
}
