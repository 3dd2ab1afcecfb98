// Package dataset loads the static contact dataset: a JSON array of records,
// or an object whose "data" member is that array. Numbers are kept as
// json.Number so large ids survive unchanged.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/httpretry"
	"github.com/ignite/reachpoint/internal/pkg/logger"
)

// ErrUnsupportedFormat is returned for a document that is neither an array
// of records nor an object with a "data" array.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// ObjectGetter fetches an object body; ok is false when it does not exist.
// storage.AWSStorage satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, bool, error)
}

// Parse decodes a dataset document.
func Parse(r io.Reader) ([]domain.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrUnsupportedFormat)
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	switch first {
	case '[':
		var rows []domain.Record
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("decoding dataset: %w", err)
		}
		return nonNil(rows), nil
	case '{':
		var doc struct {
			Data *[]domain.Record `json:"data"`
		}
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding dataset: %w", err)
		}
		if doc.Data == nil {
			return nil, fmt.Errorf("%w: object without a data array", ErrUnsupportedFormat)
		}
		return nonNil(*doc.Data), nil
	default:
		return nil, fmt.Errorf("%w: document starts with %q", ErrUnsupportedFormat, first)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF:
			// UTF-8 byte order mark.
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			continue
		}
		return b, br.UnreadByte()
	}
}

func nonNil(rows []domain.Record) []domain.Record {
	if rows == nil {
		return []domain.Record{}
	}
	return rows
}

// LoadFile reads a dataset from a local file.
func LoadFile(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// LoadObject reads a dataset stored as an S3 object.
func LoadObject(ctx context.Context, objects ObjectGetter, bucket, key string) ([]domain.Record, error) {
	body, ok, err := objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset s3://%s/%s: %w", bucket, key, err)
	}
	if !ok {
		return nil, fmt.Errorf("dataset s3://%s/%s: %w", bucket, key, os.ErrNotExist)
	}
	return Parse(bytes.NewReader(body))
}

// LoadURL fetches a dataset over HTTP. Any status other than 200 is an error.
func LoadURL(ctx context.Context, client httpretry.HTTPDoer, url string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset url: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching dataset: status %d", resp.StatusCode)
	}
	return Parse(resp.Body)
}

// Load reads the dataset cfg points at: an S3 object, then a URL, then a
// local file. objects may be nil when cfg names no S3 bucket.
func Load(ctx context.Context, cfg config.DatasetConfig, objects ObjectGetter) ([]domain.Record, error) {
	switch {
	case cfg.S3Bucket != "":
		if objects == nil {
			return nil, fmt.Errorf("dataset in s3://%s needs an S3 client", cfg.S3Bucket)
		}
		return LoadObject(ctx, objects, cfg.S3Bucket, cfg.S3Key)
	case cfg.URL != "":
		return LoadURL(ctx, httpretry.NewRetryClient(nil, 3), cfg.URL)
	default:
		return LoadFile(cfg.Path)
	}
}

// Source caches a loaded dataset. It is safe for concurrent use.
type Source struct {
	load func(ctx context.Context) ([]domain.Record, error)

	mu   sync.RWMutex
	rows []domain.Record
}

// NewSource returns a Source that loads with fn on first use.
func NewSource(fn func(ctx context.Context) ([]domain.Record, error)) *Source {
	return &Source{load: fn}
}

// Static returns a Source over fixed rows.
func Static(rows []domain.Record) *Source {
	return &Source{rows: nonNil(rows)}
}

// Rows returns the dataset, loading it on first call.
func (s *Source) Rows(ctx context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	rows := s.rows
	s.mu.RUnlock()
	if rows != nil {
		return rows, nil
	}
	return s.Reload(ctx)
}

// Reload discards the cached rows and loads them again.
func (s *Source) Reload(ctx context.Context) ([]domain.Record, error) {
	if s.load == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.rows, nil
	}
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	logger.Info("dataset loaded", "rows", len(rows))
	return rows, nil
}
