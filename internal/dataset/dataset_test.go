package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/domain"
	"github.com/ignite/reachpoint/internal/pkg/httpretry"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr error
	}{
		{"array", `[{"id":1},{"id":2}]`, 2, nil},
		{"wrapped", ` {"data":[{"id":1}],"meta":{}}`, 1, nil},
		{"bom", "\xEF\xBB\xBF[{\"id\":1}]", 1, nil},
		{"empty array", `[]`, 0, nil},
		{"object without data", `{"rows":[]}`, 0, ErrUnsupportedFormat},
		{"scalar", `42`, 0, ErrUnsupportedFormat},
		{"empty", "  \n", 0, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Parse(strings.NewReader(tt.doc))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
			assert.NotNil(t, rows)
		})
	}
}

func TestParseKeepsNumbers(t *testing.T) {
	rows, err := Parse(strings.NewReader(`[{"id":12345678901234567890,"gpa":3.75}]`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), rows[0]["id"])
	assert.Equal(t, json.Number("3.75"), rows[0]["gpa"])
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"id":1},`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[{"first_name":"Ana"}]}`), 0644))

	rows, err := Load(context.Background(), config.DatasetConfig{Path: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{"first_name": "Ana"}}, rows)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fakeObjects map[string][]byte

func (f fakeObjects) GetObject(_ context.Context, bucket, key string) ([]byte, bool, error) {
	b, ok := f[bucket+"/"+key]
	return b, ok, nil
}

func TestLoadObject(t *testing.T) {
	objects := fakeObjects{"data/students.json": []byte(`[{"id":"s1"}]`)}
	cfg := config.DatasetConfig{S3Bucket: "data", S3Key: "students.json"}

	rows, err := Load(context.Background(), cfg, objects)
	require.NoError(t, err)
	assert.Equal(t, "s1", rows[0]["id"])

	_, err = Load(context.Background(), config.DatasetConfig{S3Bucket: "data", S3Key: "nope"}, objects)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}]}`))
	}))
	defer srv.Close()

	client := httpretry.NewRetryClient(nil, 2, httpretry.WithBackoff(time.Millisecond, time.Millisecond))
	rows, err := LoadURL(context.Background(), client, srv.URL)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLoadURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := LoadURL(context.Background(), http.DefaultClient, srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestSourceCachesUntilReload(t *testing.T) {
	var calls int32
	src := NewSource(func(context.Context) ([]domain.Record, error) {
		n := atomic.AddInt32(&calls, 1)
		return []domain.Record{{"n": n}}, nil
	})
	ctx := context.Background()

	rows, err := src.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), rows[0]["n"])
	_, err = src.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	rows, err = src.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), rows[0]["n"])
}

func TestStaticSource(t *testing.T) {
	src := Static(nil)
	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
