package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

var testNow = time.Date(2025, 9, 2, 18, 30, 0, 0, time.UTC)

const testCampaignID = "1756837800000"

type testEnv struct {
	router    http.Handler
	exportDir string
}

func setupTestRouter(t *testing.T, kv storage.Store) *testEnv {
	t.Helper()
	clock := func() time.Time { return testNow }

	ps := progress.NewStore(kv, progress.WithClock(clock))
	reg := campaign.NewRegistry(campaign.NewKVRepository(kv), ps).WithClock(clock)
	data := dataset.Static([]domain.Record{
		{"id": "s1", "full_name": "Ana Diaz", "grad": "2025", "Mobile Phone*": "555-0101"},
		{"id": "s2", "full_name": "Bo Li", "grad": "2025"},
		{"id": "s3", "full_name": "Cy Ng", "grad": "2024"},
	})
	dir := t.TempDir()
	sink, err := export.NewDirSink(dir)
	require.NoError(t, err)

	h := NewHandlers(Deps{
		Campaigns: reg,
		Progress:  ps,
		Calls:     singlecall.NewService(kv),
		Reports:   report.NewBuilder(reg, ps, data, time.UTC),
		Data:      data,
		Sink:      sink,
	})
	hc := NewHealthChecker(kv, data, nil, nil)
	return &testEnv{
		router:    SetupRoutes(h, hc, RouteOptions{AllowedOrigins: []string{"http://localhost:5173"}}),
		exportDir: dir,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createCampaign(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/campaigns", campaign.CreateInput{
		Name:          "Fall calls",
		Filters:       []domain.FilterRule{{Field: "grad", Op: domain.OpEquals, Value: "2025"}},
		ReminderDates: []string{"2025-09-10", "2025-09-05"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCampaignLifecycle(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))
	env.createCampaign(t)

	rec := env.do(t, http.MethodGet, "/api/campaigns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]campaignView](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, testCampaignID, list[0].ID)
	assert.Equal(t, []string{"s1", "s2"}, list[0].StudentIDs)
	assert.Equal(t, "Reminders: 2025-09-05, 2025-09-10", list[0].RemindersLabel)

	rec = env.do(t, http.MethodPut, "/api/campaigns/"+testCampaignID, domain.Campaign{Name: "Renamed", StudentIDs: []string{"s1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[campaignView](t, rec)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, testNow.UnixMilli(), updated.CreatedAt)

	rec = env.do(t, http.MethodPut, "/api/campaigns/"+testCampaignID, domain.Campaign{ID: "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/campaigns/"+testCampaignID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/campaigns/"+testCampaignID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCampaignValidation(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))

	rec := env.do(t, http.MethodPost, "/api/campaigns", campaign.CreateInput{Name: "No dates"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	env.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestProgressFlow(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))
	env.createCampaign(t)
	base := "/api/campaigns/" + testCampaignID

	rec := env.do(t, http.MethodGet, base+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[domain.Progress](t, rec).Totals.Total)

	rec = env.do(t, http.MethodPost, base+"/contacts/s1/outcome", outcomeRequest{Outcome: "answered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[domain.Progress](t, rec)
	assert.Equal(t, domain.Totals{Total: 2, Made: 1, Answered: 1}, p.Totals)

	rec = env.do(t, http.MethodPost, base+"/contacts/s1/note", noteRequest{Text: "call back friday"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"notes": "call back friday"}, decode[map[string]string](t, rec))

	rec = env.do(t, http.MethodPost, base+"/contacts/s1/survey", surveyRequest{Answer: "Yes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "campaign has no survey")

	rec = env.do(t, http.MethodGet, base+"/contacts/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[domain.ContactState](t, rec)
	assert.Equal(t, 1, state.Attempts)
	assert.Equal(t, "call back friday", state.Notes)

	rec = env.do(t, http.MethodGet, base+"/contacts/s2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[domain.ContactState](t, rec).Attempts)

	rec = env.do(t, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[struct {
		Totals             domain.Totals `json:"totals"`
		HasSurveyResponses bool          `json:"hasSurveyResponses"`
	}](t, rec)
	assert.Equal(t, 1, summary.Totals.Made)
	assert.False(t, summary.HasSurveyResponses)

	rec = env.do(t, http.MethodGet, base+"/not-called", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data       []progress.NotCalledEntry `json:"data"`
		Pagination PaginationMeta            `json:"pagination"`
	}](t, rec)
	assert.Equal(t, []progress.NotCalledEntry{{ContactID: "s2", FullName: "Bo Li"}}, page.Data)
	assert.Equal(t, int64(1), page.Pagination.Total)

	rec = env.do(t, http.MethodGet, base+"/queue?limit=1&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[struct {
		Data       []queueEntry   `json:"data"`
		Pagination PaginationMeta `json:"pagination"`
	}](t, rec)
	require.Len(t, queue.Data, 1)
	assert.Equal(t, "s2", queue.Data[0].ContactID)
	assert.False(t, queue.Pagination.HasMore)
}

func TestSurveyRecording(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))
	rec := env.do(t, http.MethodPost, "/api/campaigns", campaign.CreateInput{
		ReminderDates: []string{"2025-09-10"},
		Survey:        &campaign.SurveyInput{Question: "Visiting?", Options: []string{"Yes", "No"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/api/campaigns/" + testCampaignID

	rec = env.do(t, http.MethodPost, base+"/contacts/s3/survey", surveyRequest{Answer: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/contacts/s3/survey", surveyRequest{Answer: "Yes"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, base+"/summary", nil)
	assert.Contains(t, rec.Body.String(), `"hasSurveyResponses":true`)
}

func TestExports(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))
	env.createCampaign(t)
	base := "/api/campaigns/" + testCampaignID

	rec := env.do(t, http.MethodPost, base+"/contacts/s1/outcome", outcomeRequest{Outcome: "answered"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, base+"/exports/outcomes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=campaign-"+testCampaignID+"-outcomes.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "contactId,outcome,timestamp\ns1,answered,2025-09-02T18:30:00.000Z", rec.Body.String())

	rec = env.do(t, http.MethodGet, base+"/exports/everything", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/campaigns/404/exports/full", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/exports/not-called", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[map[string]string](t, rec)
	want := filepath.Join(env.exportDir, "campaign-"+testCampaignID+"-not-called.csv")
	assert.Equal(t, want, out["location"])
	body, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "contactId,full_name\ns2,Bo Li", string(body))

	rec = env.do(t, http.MethodGet, base+"/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[report.Insights](t, rec).Answered)
}

func TestDeliverExportWithoutSink(t *testing.T) {
	kv := storage.NewMemory(0)
	ps := progress.NewStore(kv)
	reg := campaign.NewRegistry(campaign.NewKVRepository(kv), ps)
	h := NewHandlers(Deps{Campaigns: reg, Progress: ps, Reports: report.NewBuilder(reg, ps, dataset.Static(nil), time.UTC)})
	router := SetupRoutes(h, nil, RouteOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/campaigns/1/exports/full", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSingleCalls(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))

	rec := env.do(t, http.MethodPost, "/api/calls", domain.SingleCall{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/calls", domain.SingleCall{StudentID: "s1", FullName: "Ana Diaz", Notes: "left voicemail"})
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[domain.SingleCall](t, rec)
	assert.NotEmpty(t, saved.ID)

	rec = env.do(t, http.MethodGet, "/api/calls", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), saved.ID)

	rec = env.do(t, http.MethodGet, "/api/calls/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=single-calls.json", rec.Header().Get("Content-Disposition"))
	doc := decode[singlecall.Export](t, rec)
	assert.Equal(t, 1, doc.Version)
	require.Len(t, doc.Data, 1)

	rec = env.do(t, http.MethodDelete, "/api/calls", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/calls", nil)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestQuotaExceeded(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(16))

	rec := env.do(t, http.MethodPost, "/api/campaigns", campaign.CreateInput{ReminderDates: []string{"2025-09-10"}})
	require.Equal(t, http.StatusInsufficientStorage, rec.Code)
	resp := decode[httputil.ErrorResponse](t, rec)
	assert.Equal(t, "quota_exceeded", resp.Code)

	rec = env.do(t, http.MethodGet, "/api/campaigns", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestDatasetFields(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))

	rec := env.do(t, http.MethodGet, "/api/dataset/fields", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":3`)

	rec = env.do(t, http.MethodGet, "/api/dataset/fields?field=grad", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"values":["2024","2025"]`)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))
	req := httptest.NewRequest(http.MethodOptions, "/api/campaigns", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	env := setupTestRouter(t, storage.NewMemory(0))

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Checks["storage"].Status)
	assert.Equal(t, "3 records", status.Checks["dataset"].Message)
	assert.Equal(t, notConfigured, status.Checks["redis"].Message)

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/health/live", nil)
	assert.Contains(t, rec.Body.String(), `"alive"`)
}

func TestHealthRedisAndFailingDataset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	broken := dataset.NewSource(func(context.Context) ([]domain.Record, error) {
		return nil, errors.New("open students.json: no such file")
	})
	hc := NewHealthChecker(storage.NewRedis(client), broken, nil, client)
	router := SetupRoutes(NewHandlers(Deps{}), hc, RouteOptions{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "up", status.Checks["redis"].Status)
	assert.Equal(t, "up", status.Checks["storage"].Status)
	assert.Equal(t, "down", status.Checks["dataset"].Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDetermineOverallStatus(t *testing.T) {
	up := ComponentCheck{Status: "up"}
	off := ComponentCheck{Status: "down", Message: notConfigured}
	tests := []struct {
		name   string
		checks map[string]ComponentCheck
		want   string
	}{
		{"all up", map[string]ComponentCheck{"storage": up, "dataset": up, "redis": off}, "healthy"},
		{"storage down", map[string]ComponentCheck{"storage": {Status: "down"}, "dataset": up}, "unhealthy"},
		{"dataset down", map[string]ComponentCheck{"storage": up, "dataset": {Status: "down", Message: "x"}}, "unhealthy"},
		{"slow redis", map[string]ComponentCheck{"storage": up, "dataset": up, "redis": {Status: "degraded"}}, "degraded"},
		{"configured db down", map[string]ComponentCheck{"storage": up, "dataset": up, "database": {Status: "down", Message: "refused"}}, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineOverallStatus(tt.checks))
		})
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5s", formatUptime(5*time.Second))
	assert.Equal(t, "2m 3s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h 0m 0s", formatUptime(time.Hour))
	assert.Equal(t, "2d 1h 0m 0s", formatUptime(49*time.Hour))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	p := paginate(items, PaginationParams{Page: 2, Limit: 2, Offset: 2})
	assert.Equal(t, []int{3, 4}, p.Data)
	assert.True(t, p.Pagination.HasMore)
	assert.Equal(t, 3, p.Pagination.TotalPages)

	p = paginate(items, PaginationParams{Page: 9, Limit: 2, Offset: 16})
	assert.Equal(t, []int{}, p.Data)
	assert.False(t, p.Pagination.HasMore)
}

func TestSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "bad field", safeErrorMessage(400, errors.New("bad field")))
	assert.Equal(t, "Service temporarily unavailable", safeErrorMessage(500, errors.New("dial tcp 10.0.0.1:6379: connection refused")))
	assert.Equal(t, "A database error occurred", safeErrorMessage(500, errors.New("pq: relation kv does not exist")))
	assert.Equal(t, "Request timed out", safeErrorMessage(500, errors.New("context deadline exceeded")))
	assert.Equal(t, "An internal error occurred", safeErrorMessage(500, nil))
}
