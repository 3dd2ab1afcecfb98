// Package singlecall keeps the ad-hoc call log: calls made outside any
// campaign, stored as one JSON array.
//
// Unlike campaign progress, an unreadable log is treated as empty.
package singlecall

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/logger"
	"github.com/ignite/reachpoint/internal/storage"
)

// Key is the storage key of the call log.
const Key = "reachpoint.singleCall.progress"

// Service records and lists single calls.
type Service struct {
	kv    storage.Store
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewService creates a call log over kv.
func NewService(kv storage.Store) *Service {
	return &Service{
		kv:    kv,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

func (s *Service) load(ctx context.Context) ([]domain.SingleCall, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("reading call log: %w", err)
	}
	if !ok {
		return []domain.SingleCall{}, nil
	}
	var out []domain.SingleCall
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn("call log unreadable, treating as empty", "error", err.Error())
		return []domain.SingleCall{}, nil
	}
	if out == nil {
		out = []domain.SingleCall{}
	}
	return out, nil
}

func (s *Service) store(ctx context.Context, calls []domain.SingleCall) error {
	data, err := json.Marshal(calls)
	if err != nil {
		return fmt.Errorf("encoding call log: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("saving call log: %w", err)
	}
	return nil
}

// List returns the log newest first.
func (s *Service) List(ctx context.Context) ([]domain.SingleCall, error) {
	calls, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].At > calls[j].At })
	return calls, nil
}

// Record updates the entry whose id matches call.ID, or appends call under a
// fresh id. A zero At is stamped with the current time.
func (s *Service) Record(ctx context.Context, call domain.SingleCall) (*domain.SingleCall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if call.At == 0 {
		call.At = s.now().UnixMilli()
	}
	calls, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if call.ID != "" {
		for i := range calls {
			if calls[i].ID == call.ID {
				calls[i] = call
				if err := s.store(ctx, calls); err != nil {
					return nil, err
				}
				return &call, nil
			}
		}
	}

	call.ID = s.newID()
	calls = append(calls, call)
	if err := s.store(ctx, calls); err != nil {
		return nil, err
	}
	logger.Debug("single call recorded", "id", call.ID, "student_id", call.StudentID, "caller", call.Caller)
	return &call, nil
}

// Clear empties the log.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, []domain.SingleCall{})
}

// Export is the document written by ExportJSON.
type Export struct {
	Version     int                 `json:"version"`
	GeneratedAt string              `json:"generatedAt"`
	Data        []domain.SingleCall `json:"data"`
}

// ExportJSON renders the log, newest first, as indented JSON.
func (s *Service) ExportJSON(ctx context.Context) (string, error) {
	calls, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	doc := Export{
		Version:     1,
		GeneratedAt: s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Data:        calls,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding call log export: %w", err)
	}
	return string(data), nil
}
