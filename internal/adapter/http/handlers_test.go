package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	adapthttp "heartscore/internal/adapter/http"
	"heartscore/internal/adapter/memory"
	"heartscore/internal/app"
	"heartscore/internal/auth"
	"heartscore/internal/clock"
	"heartscore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

const today = "2026-06-15"

type fixture struct {
	store *memory.DB
	svc   adapthttp.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	c := clock.Fixed{T: now}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	scores := app.NewScoreService(store, store, nil, c, time.UTC, logger)
	streaks := app.NewStreakService(store, time.UTC, logger)
	ledger := app.NewLedgerService(store, c, logger)
	achievements := app.NewAchievementService(store, store, store, ledger, c, time.UTC, logger)
	return &fixture{
		store: store,
		svc: adapthttp.Services{
			Scores:       scores,
			Streaks:      streaks,
			Achievements: achievements,
			Ledger:       ledger,
			Readings:     app.NewReadingService(store, streaks, achievements, scores, c, time.UTC, logger),
			History:      app.NewHistoryService(store, c, time.UTC),
			Job:          app.NewDailyJob(store, scores, 2, logger),
			Auth:         app.NewAuthService(store, store.NewSessionRepo(), c),
		},
	}
}

func (f *fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	u, err := f.store.Create(context.Background(), name, "")
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) server(t *testing.T, opts adapthttp.Options) *adapthttp.Server {
	t.Helper()
	opts.Clock = clock.Fixed{T: now}
	return adapthttp.New(f.svc, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// serve starts a test server acting as p.
func (f *fixture) serve(t *testing.T, p domain.Principal) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(f.server(t, adapthttp.Options{}).WithoutAuth(p).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	ts := f.serve(t, domain.Principal{UserID: 1, Role: domain.RoleUser})

	resp := do(t, ts, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["ok"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestRecordBPAndCalculateScore(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	ts := f.serve(t, domain.Principal{UserID: uid, Role: domain.RoleUser})

	resp := do(t, ts, http.MethodPost, "/api/readings/bp", map[string]any{"systolic": 118, "diastolic": 76})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, today, body["day"])
	assert.Equal(t, float64(1), body["streak"].(map[string]any)["count"])

	resp = do(t, ts, http.MethodPost, "/api/calculate-score", map[string]any{"date": today})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(100), body["heartScore"])
	assert.Equal(t, map[string]any{"bp": float64(100)}, body["breakdown"])

	// Omitted date means today.
	resp = do(t, ts, http.MethodPost, "/calculate-score", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, today, decodeBody(t, resp)["scoreDate"])

	resp = do(t, ts, http.MethodGet, "/api/scores/"+today, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(100), decodeBody(t, resp)["heartScore"])
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	ts := f.serve(t, domain.Principal{UserID: uid, Role: domain.RoleUser})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"no data", http.MethodPost, "/api/calculate-score", map[string]any{"date": today}, http.StatusUnprocessableEntity},
		{"bad date", http.MethodPost, "/api/calculate-score", map[string]any{"date": "2026-13-01"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/calculate-score", map[string]any{"day": today}, http.StatusBadRequest},
		{"bp out of range", http.MethodPost, "/api/readings/bp", map[string]any{"systolic": 400, "diastolic": 80}, http.StatusBadRequest},
		{"bad measurement type", http.MethodPost, "/api/readings/glucose", map[string]any{"glucoseMgDl": 100, "measurementType": "bedtime"}, http.StatusBadRequest},
		{"missing score", http.MethodGet, "/api/scores/" + today, nil, http.StatusNotFound},
		{"missing action", http.MethodGet, "/api/agent-actions/nope", nil, http.StatusNotFound},
		{"other user", http.MethodGet, "/api/streaks?userId=99", nil, http.StatusForbidden},
		{"other user in body", http.MethodPost, "/api/achievements/evaluate", map[string]any{"userId": 99}, http.StatusForbidden},
		{"job as user", http.MethodPost, "/api/jobs/daily", nil, http.StatusForbidden},
		{"bad user query", http.MethodGet, "/api/achievements?userId=abc", nil, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/api/streaks", nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want != http.StatusMethodNotAllowed {
				assert.NotEmpty(t, decodeBody(t, resp)["error"])
			}
		})
	}
}

func TestStreakAndAchievementRoutes(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	ts := f.serve(t, domain.Principal{UserID: uid, Role: domain.RoleUser})

	resp := do(t, ts, http.MethodPost, "/api/streaks/record", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, domain.StreakDailyCheckin, body["streakType"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, today, body["lastLoggedDay"])

	// A chunked request with no content is an empty body.
	req := httptest.NewRequest(http.MethodPost, "/api/streaks/record", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	f.server(t, adapthttp.Options{}).WithoutAuth(domain.Principal{UserID: uid, Role: domain.RoleUser}).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"count":1`)

	resp = do(t, ts, http.MethodPost, "/api/streaks/record", map[string]any{"streakType": "Bad Type"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/streaks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var streaks []domain.Streak
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&streaks))
	require.Len(t, streaks, 1)

	resp = do(t, ts, http.MethodPost, "/api/achievements/evaluate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, decodeBody(t, resp)["newBadges"])

	resp = do(t, ts, http.MethodGet, "/api/achievements", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var badges []domain.Achievement
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&badges))
	assert.Empty(t, badges)
}

func TestBehaviorAndRituals(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	ts := f.serve(t, domain.Principal{UserID: uid, Role: domain.RoleUser})

	resp := do(t, ts, http.MethodPost, "/api/behavior", map[string]any{"ritualType": "morning", "mood": "great"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/rituals/"+today, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"morning": true, "evening": false}, decodeBody(t, resp))

	resp = do(t, ts, http.MethodGet, "/api/scores/daily?days=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var points []app.DayPoint
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&points))
	require.Len(t, points, 3)
	assert.Equal(t, today, points[2].Day)
	assert.NotNil(t, points[2].HeartScore)
	assert.Nil(t, points[0].HeartScore)
}

func TestAgentActionLifecycle(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	ts := f.serve(t, domain.Principal{UserID: uid, Role: domain.RoleUser})

	resp := do(t, ts, http.MethodPost, "/api/agent-actions", map[string]any{
		"actionType":    "goal_adjust",
		"actionPayload": map[string]any{"goal": "steps", "previousTarget": 6000, "newTarget": 7000},
		"triggerReason": "  three strong weeks ",
		"triggerType":   "threshold",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	id := created["id"].(string)
	assert.Equal(t, "three strong weeks", created["triggerReason"])
	assert.Equal(t, "completed", created["status"])

	resp = do(t, ts, http.MethodGet, "/api/agent-actions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/agent-actions/"+id+"/revert", map[string]any{"reason": "user asked"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "goal_adjust", body["actionType"])
	assert.Equal(t, map[string]any{"goal": "steps", "restoreTarget": float64(6000)}, body["reversal"])

	resp = do(t, ts, http.MethodPost, "/api/agent-actions/"+id+"/revert", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/agent-actions?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "reverted", entries[0]["status"])

	resp = do(t, ts, http.MethodPost, "/api/agent-actions", map[string]any{
		"actionType":    "launch_rocket",
		"actionPayload": map[string]any{},
		"triggerReason": "x",
		"triggerType":   "manual",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSchedulerRoutes(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	f.user(t, "bo")
	ts := f.serve(t, domain.Principal{Role: domain.RoleScheduler})

	resp := do(t, ts, http.MethodPost, "/api/readings/bp", map[string]any{"userId": uid, "systolic": 118, "diastolic": 76})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Scheduler calls must name the user.
	resp = do(t, ts, http.MethodPost, "/api/calculate-score", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/jobs/daily", map[string]any{"date": today})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["users"])
	assert.Equal(t, float64(1), body["computed"])
	assert.Equal(t, float64(1), body["skipped"])
}

func TestUnauthenticated(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server(t, adapthttp.Options{}).Handler())
	t.Cleanup(ts.Close)

	resp := do(t, ts, http.MethodGet, "/api/streaks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/streaks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp2, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeBody(t, resp)["sso_enabled"])
}

func TestBearerToken(t *testing.T) {
	f := newFixture(t)
	uid := f.user(t, "amara")
	jwtMgr, err := auth.NewJWTManager("", "", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ts := httptest.NewServer(f.server(t, adapthttp.Options{Tokens: jwtMgr}).Handler())
	t.Cleanup(ts.Close)

	token, _, err := jwtMgr.IssueToken(domain.Principal{UserID: uid, Role: domain.RoleUser})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(uid), body["userId"])
	assert.Equal(t, "user", body["role"])
}

func TestSessionLogin(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server(t, adapthttp.Options{}).Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar

	post := func(path string, body any) *http.Response {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewReader(b))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	creds := map[string]string{"username": "amara", "password": "correct horse"}
	assert.Equal(t, http.StatusOK, post("/api/auth/setup", creds).StatusCode)
	assert.Equal(t, http.StatusConflict, post("/api/auth/setup", creds).StatusCode)
	assert.Equal(t, http.StatusUnauthorized,
		post("/api/auth/login", map[string]string{"username": "amara", "password": "wrong password"}).StatusCode)
	require.Equal(t, http.StatusOK, post("/api/auth/login", creds).StatusCode)

	resp, err := client.Get(ts.URL + "/api/streaks")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, http.StatusOK, post("/api/auth/logout", nil).StatusCode)
	resp2, err := client.Get(ts.URL + "/api/streaks")
	require.NoError(t, err)
	defer resp2.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestServesSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))

	f := newFixture(t)
	ts := httptest.NewServer(f.server(t, adapthttp.Options{WebDir: dir}).Handler())
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "app")
}
