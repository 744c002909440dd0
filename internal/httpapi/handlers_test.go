package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"internmatch-engine/internal/domain"
	"internmatch-engine/internal/events"
	"internmatch-engine/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zaptest.NewLogger(t)

	pools := store.NewPoolRegistry(log, filepath.Join(t.TempDir(), "primary.db"), "", "", store.PoolOpts{})
	t.Cleanup(func() { _ = pools.CloseAll() })

	primary, err := pools.Primary()
	require.NoError(t, err)
	require.NoError(t, store.Migrate(primary))

	srv := httptest.NewServer(Routes(Deps{
		Pools:    pools,
		Router:   store.NewRouter(pools),
		Postings: store.NewPostingStore(primary, log),
		Queries:  store.NewShardQueries(primary, log),
		Runs:     store.NewSequencer(primary, log),
		Hub:      events.NewHub(),
		Log:      log,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestPostingRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	p := domain.Posting{
		ID: "I100", Tier: domain.Tier2, State: "GJ",
		Sector: "IT", Capacity: 12, Stipend: 5000, LocationType: "Office",
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/postings", p, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var byState []domain.Posting
	resp = doJSON(t, http.MethodGet, srv.URL+"/postings/state/gj", nil, &byState)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, byState, 1)
	assert.Equal(t, "I100", byState[0].ID)

	var byTier []domain.Posting
	resp = doJSON(t, http.MethodGet, srv.URL+"/postings/tier/Tier2", nil, &byTier)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, byTier, 1)
	assert.Equal(t, "I100", byTier[0].ID)

	var unified []domain.Posting
	resp = doJSON(t, http.MethodGet, srv.URL+"/postings", nil, &unified)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, unified, 1)

	var stats store.ShardStats
	resp = doJSON(t, http.MethodGet, srv.URL+"/stats", nil, &stats)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), stats.CanonicalCount)
	assert.Equal(t, int64(1), stats.Mirror2Count)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var h store.Health
	resp := doJSON(t, http.MethodGet, srv.URL+"/health", nil, &h)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, h.Primary)
	assert.False(t, h.ReplicaNorth)
	assert.False(t, h.ReplicaSouth)
}

func TestRunEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var run domain.AllocationRun
	resp := doJSON(t, http.MethodPost, srv.URL+"/runs", map[string]string{"by": "admin"}, &run)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), run.RunNo)

	resp = doJSON(t, http.MethodPost, srv.URL+"/runs/"+run.ID+"/complete",
		domain.RunStats{Processed: 10, Created: 7}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var sum domain.Summary
	resp = doJSON(t, http.MethodGet, srv.URL+"/runs/summary", nil, &sum)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), sum.TotalRuns)
	assert.Equal(t, int64(1), sum.CompletedRuns)
	assert.Equal(t, int64(2), sum.TotalEvents) // run_started + run_completed

	resp = doJSON(t, http.MethodPost, srv.URL+"/runs/unknown/fail",
		map[string]string{"message": "boom"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStudentIngestAndRecompute(t *testing.T) {
	srv := newTestServer(t)

	p := domain.Posting{ID: "I001", Tier: domain.Tier1, State: "MH"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/postings", p, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	st := domain.Student{ID: "S00001", Prefs: []string{"I001"}}
	resp = doJSON(t, http.MethodPost, srv.URL+"/students", st, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/maintenance/recompute-demand", nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var unified []domain.Posting
	resp = doJSON(t, http.MethodGet, srv.URL+"/postings", nil, &unified)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, unified, 1)
	assert.Equal(t, 1, unified[0].DemandCount)
}
