package singlecall_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/service/singlecall"
	"github.com/ignite/reachpoint/internal/storage"
)

func newService(t *testing.T) (*singlecall.Service, *storage.Memory) {
	t.Helper()
	kv := storage.NewMemory(0)
	s := singlecall.NewService(kv)
	s.SetClock(func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) })
	n := 0
	s.SetIDs(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return s, kv
}

func TestRecordAppendsAndUpdates(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	a, err := s.Record(ctx, domain.SingleCall{StudentID: "s1", FullName: "Ana", Caller: "Karla", At: 100})
	require.NoError(t, err)
	assert.Equal(t, "id-1", a.ID)

	b, err := s.Record(ctx, domain.SingleCall{StudentID: "s2", Caller: "Darian"})
	require.NoError(t, err)
	assert.Equal(t, "id-2", b.ID)
	assert.Equal(t, time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), b.At)

	upd, err := s.Record(ctx, domain.SingleCall{ID: "id-1", StudentID: "s1", Caller: "Karla", Notes: "call back Friday", At: 200})
	require.NoError(t, err)
	assert.Equal(t, "id-1", upd.ID)

	// An unknown id is appended under a fresh id.
	c, err := s.Record(ctx, domain.SingleCall{ID: "nope", StudentID: "s3", At: 150})
	require.NoError(t, err)
	assert.Equal(t, "id-3", c.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"id-2", "id-1", "id-3"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "call back Friday", list[1].Notes)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	_, err := s.Record(ctx, domain.SingleCall{StudentID: "s1"})
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMalformedLogFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newService(t)
	require.NoError(t, kv.Set(ctx, singlecall.Key, "not json"))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Record(ctx, domain.SingleCall{StudentID: "s1"})
	require.NoError(t, err)
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWriteFailurePropagates(t *testing.T) {
	s := singlecall.NewService(storage.NewMemory(5))
	_, err := s.Record(context.Background(), domain.SingleCall{StudentID: "s1"})
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
}

func TestExportJSON(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	_, err := s.Record(ctx, domain.SingleCall{StudentID: "s1", FullName: "Ana", At: 1})
	require.NoError(t, err)
	_, err = s.Record(ctx, domain.SingleCall{StudentID: "s2", FullName: "Bo", At: 2})
	require.NoError(t, err)

	out, err := s.ExportJSON(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"version\": 1")

	var doc singlecall.Export
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "2025-04-01T12:00:00.000Z", doc.GeneratedAt)
	require.Len(t, doc.Data, 2)
	assert.Equal(t, "Bo", doc.Data[0].FullName)
}
