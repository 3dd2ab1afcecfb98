package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/reachpoint/internal/dataset"
	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/export"
	"github.com/ignite/reachpoint/internal/segmentation"
	"github.com/ignite/reachpoint/internal/service/campaign"
	"github.com/ignite/reachpoint/internal/service/progress"
)

// Kind names an export.
type Kind string

const (
	KindFull      Kind = "full"
	KindNotCalled Kind = "not-called"
	KindSurvey    Kind = "survey"
	KindOutcomes  Kind = "outcomes"
	KindNotes     Kind = "notes"
)

// Kinds lists every export kind.
var Kinds = []Kind{KindFull, KindNotCalled, KindSurvey, KindOutcomes, KindNotes}

// ErrUnknownKind is returned for an export kind not in Kinds.
var ErrUnknownKind = errors.New("unknown export kind")

// ParseKind validates an export kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FileName is the name an export of the campaign is delivered under.
func FileName(campaignID string, kind Kind) string {
	return fmt.Sprintf("campaign-%s-%s.csv", campaignID, kind)
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Builder renders exports for stored campaigns.
type Builder struct {
	campaigns *campaign.Registry
	progress  *progress.Store
	data      *dataset.Source
	loc       *time.Location
}

// NewBuilder creates a Builder. loc is used for insights buckets.
func NewBuilder(campaigns *campaign.Registry, ps *progress.Store, data *dataset.Source, loc *time.Location) *Builder {
	return &Builder{campaigns: campaigns, progress: ps, data: data, loc: loc}
}

// Queue returns the campaign's current contacts and their ids.
func (b *Builder) Queue(ctx context.Context, c *domain.Campaign) ([]domain.Record, []string, error) {
	rows, err := b.data.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading dataset: %w", err)
	}
	matched, ids := segmentation.Queue(rows, c.Filters)
	return matched, ids, nil
}

// Export renders one export of a stored campaign. A missing campaign is
// campaign.ErrNotFound.
func (b *Builder) Export(ctx context.Context, campaignID string, kind Kind) (*File, error) {
	c, err := b.campaigns.MustGet(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	var body string
	switch kind {
	case KindFull:
		rows, err := b.data.Rows(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading dataset: %w", err)
		}
		p, err := b.progress.Snapshot(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		body = SummaryCSV(Summary(*c, rows, p))
	case KindNotCalled:
		matched, ids, err := b.Queue(ctx, c)
		if err != nil {
			return nil, err
		}
		index := make(progress.RecordResolver, len(ids))
		for i, id := range ids {
			index[id] = matched[i]
		}
		body, err = b.progress.ExportNotCalledCSV(ctx, c.ID, ids, index)
		if err != nil {
			return nil, err
		}
	case KindSurvey:
		body, err = b.progress.ExportSurveyCSV(ctx, c.ID)
	case KindOutcomes:
		body, err = b.progress.ExportCallOutcomesCSV(ctx, c.ID)
	case KindNotes:
		body, err = b.progress.ExportNotesCSV(ctx, c.ID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        FileName(c.ID, kind),
		ContentType: "text/csv; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

// Deliver renders an export and hands it to sink.
func (b *Builder) Deliver(ctx context.Context, sink export.Sink, campaignID string, kind Kind) (string, error) {
	f, err := b.Export(ctx, campaignID, kind)
	if err != nil {
		return "", err
	}
	return sink.Deliver(ctx, f.Name, f.ContentType, f.Body)
}

// Insights aggregates a stored campaign's progress.
func (b *Builder) Insights(ctx context.Context, campaignID string) (*Insights, error) {
	c, err := b.campaigns.MustGet(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	rows, err := b.data.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	p, err := b.progress.Snapshot(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	in := BuildInsights(*c, rows, p, b.loc)
	return &in, nil
}
