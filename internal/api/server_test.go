package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/memstore"
	"github.com/gridpools/scorewire/internal/squares"
)

func newTestServer(t *testing.T) (http.Handler, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledger.NewService(store, logger)
	cfg := &config.Config{
		CORSAllowOrigins: []string{"*"},
		RateLimitEnabled: false,
		CacheEnabled:     true,
	}
	return NewRouter(store, svc, cache.New(true), cfg), store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func identityDigits(t *testing.T) squares.Digits {
	t.Helper()
	d, err := squares.ParseDigits([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("ParseDigits: %v", err)
	}
	return d
}

// seedGame creates a locked pool with identity digits and one game,
// returning their ids.
func seedGame(t *testing.T, store *memstore.Store, mode squares.ScoringMode, reverse bool) (int64, int64) {
	t.Helper()
	ctx := t.Context()
	pool, err := store.CreatePool(ctx, squares.Pool{Label: "Test Pool", Sport: "nfl", Mode: mode, ReverseScoring: reverse})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if err := pool.Lock(identityDigits(t), identityDigits(t), time.Now()); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := store.UpdatePool(ctx, pool); err != nil {
		t.Fatalf("UpdatePool: %v", err)
	}
	game, err := store.CreateGame(ctx, ledger.Game{PoolID: pool.ID, HomeTeam: "PHI", AwayTeam: "DAL"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return pool.ID, game.ID
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("body = %s, want healthy status", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/healthz/db", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("db status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCreateEvent(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "valid external event",
			body:     `{"sport":"nfl","label":"PHI @ DAL","event_type":"team_game","provider":"external","external_ref":"ngs-401","start_time":"2025-11-02T18:00:00Z"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "valid manual event",
			body:     `{"sport":"nba","label":"Scrimmage","event_type":"team_game","provider":"manual","start_time":"2025-11-02T18:00:00Z"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "unknown sport",
			body:     `{"sport":"cricket","event_type":"team_game","provider":"manual","start_time":"2025-11-02T18:00:00Z"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "external without ref",
			body:     `{"sport":"nfl","event_type":"team_game","provider":"external","start_time":"2025-11-02T18:00:00Z"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad start time",
			body:     `{"sport":"nfl","event_type":"team_game","provider":"manual","start_time":"tomorrow"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed json",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/events", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	t.Run("metadata round trip", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/events",
			`{"sport":"nfl","label":"SF @ SEA","event_type":"team_game","provider":"manual","start_time":"2025-11-09T18:00:00Z","metadata":{"venue":"Lumen Field","week":"10"}}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created struct {
			Metadata map[string]string `json:"metadata"`
		}
		decode(t, rec, &created)
		if created.Metadata["venue"] != "Lumen Field" || created.Metadata["week"] != "10" {
			t.Errorf("metadata = %v, want venue and week carried through", created.Metadata)
		}
	})
}

func TestGetEventWithState(t *testing.T) {
	h, store := newTestServer(t)
	ctx := t.Context()

	ref := "ngs-401"
	ev, err := store.CreateEvent(ctx, event.Event{
		Sport: "nfl", Label: "PHI @ DAL", Type: event.TypeTeamGame,
		Provider: event.ProviderExternal, ExternalRef: &ref,
		StartTime: time.Now(), Status: event.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	// Before any poll lands the state is null.
	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/events/%d", ev.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var detail struct {
		ID    int64 `json:"id"`
		State *struct {
			HomeScore int `json:"home_score"`
			AwayScore int `json:"away_score"`
		} `json:"state"`
	}
	decode(t, rec, &detail)
	if detail.State != nil {
		t.Errorf("state = %+v, want null before first poll", detail.State)
	}

	if err := store.UpsertState(ctx, event.State{
		EventID: ev.ID, HomeTeam: "PHI", AwayTeam: "DAL",
		HomeScore: 14, AwayScore: 7, Period: 2,
		LastProviderUpdate: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertState: %v", err)
	}

	// The first read is cached for the TTL, so assert the populated
	// shape through a second event.
	ev2, err := store.CreateEvent(ctx, event.Event{
		Sport: "nfl", Label: "Second", Type: event.TypeTeamGame,
		Provider: event.ProviderManual, StartTime: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := store.UpsertState(ctx, event.State{
		EventID: ev2.ID, HomeScore: 3, AwayScore: 0, LastProviderUpdate: time.Now(),
	}); err != nil {
		t.Fatalf("UpsertState: %v", err)
	}
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/events/%d", ev2.ID), "")
	decode(t, rec, &detail)
	if detail.State == nil || detail.State.HomeScore != 3 {
		t.Errorf("state = %+v, want home score 3", detail.State)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/events/999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing event status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/events/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestListEventsFilters(t *testing.T) {
	h, store := newTestServer(t)
	ctx := t.Context()

	for _, seedEv := range []struct {
		sport  string
		status event.Status
	}{
		{"nfl", event.StatusScheduled},
		{"nfl", event.StatusFinal},
		{"nba", event.StatusScheduled},
	} {
		ev, err := store.CreateEvent(ctx, event.Event{
			Sport: seedEv.sport, Type: event.TypeTeamGame,
			Provider: event.ProviderManual, StartTime: time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
		if seedEv.status != event.StatusScheduled {
			if err := store.UpdateEventStatus(ctx, ev.ID, seedEv.status); err != nil {
				t.Fatalf("UpdateEventStatus: %v", err)
			}
		}
	}

	var events []struct {
		Sport  string `json:"sport"`
		Status string `json:"status"`
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/events?status=scheduled&sport=nfl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	decode(t, rec, &events)
	if len(events) != 1 {
		t.Fatalf("filtered events = %d, want 1", len(events))
	}
	if events[0].Sport != "nfl" || events[0].Status != "scheduled" {
		t.Errorf("event = %+v, want scheduled nfl", events[0])
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/events?status=someday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAppendChangeFlow(t *testing.T) {
	h, store := newTestServer(t)
	_, gameID := seedGame(t, store, squares.ModeScoreChange, true)
	base := fmt.Sprintf("/api/v1/games/%d", gameID)

	// Before any append the game carries no ledger position.
	rec := doJSON(t, h, http.MethodGet, base, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get game status = %d, want %d", rec.Code, http.StatusOK)
	}
	var detail struct {
		HomeScore    int         `json:"home_score"`
		Status       string      `json:"status"`
		LatestChange interface{} `json:"latest_change"`
	}
	decode(t, rec, &detail)
	if detail.LatestChange != nil {
		t.Errorf("latest_change = %v, want null on empty ledger", detail.LatestChange)
	}

	// Kickoff entry, then a home touchdown.
	rec = doJSON(t, h, http.MethodPost, base+"/changes", `{"home_score":0,"away_score":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("append 0-0 status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var change struct {
		ChangeOrder int `json:"change_order"`
	}
	decode(t, rec, &change)
	if change.ChangeOrder != 1 {
		t.Errorf("change_order = %d, want 1", change.ChangeOrder)
	}

	rec = doJSON(t, h, http.MethodPost, base+"/changes", `{"home_score":7,"away_score":0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("append 7-0 status = %d (body %s)", rec.Code, rec.Body.String())
	}
	decode(t, rec, &change)
	if change.ChangeOrder != 2 {
		t.Errorf("change_order = %d, want 2", change.ChangeOrder)
	}

	// A score can never decrease.
	rec = doJSON(t, h, http.MethodPost, base+"/changes", `{"home_score":3,"away_score":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("decreasing append status = %d, want %d (body %s)",
			rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION_FAILED") {
		t.Errorf("body = %s, want VALIDATION_FAILED code", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, base+"/changes", "")
	var changes []struct {
		ChangeOrder int `json:"change_order"`
		HomeScore   int `json:"home_score"`
	}
	decode(t, rec, &changes)
	if len(changes) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(changes))
	}

	// Score-change mode emits forward and reverse rows per entry.
	rec = doJSON(t, h, http.MethodGet, base+"/winners", "")
	var winners []struct {
		WinType   string `json:"win_type"`
		PayoutRef int    `json:"payout_ref"`
		Row       int    `json:"row"`
		Col       int    `json:"col"`
		Label     string `json:"label"`
	}
	decode(t, rec, &winners)
	if len(winners) != 4 {
		t.Fatalf("winners = %d, want 4 (forward+reverse for two entries)", len(winners))
	}
	if winners[0].Label != "Unclaimed" {
		t.Errorf("label = %q, want Unclaimed on an empty grid", winners[0].Label)
	}
	var sawReverse bool
	for _, w := range winners {
		if w.PayoutRef == 2 && w.WinType == "score_change_reverse" {
			sawReverse = true
			if w.Row != 0 || w.Col != 7 {
				t.Errorf("reverse cell = (%d,%d), want (0,7)", w.Row, w.Col)
			}
		}
	}
	if !sawReverse {
		t.Error("no score_change_reverse winner for entry 2")
	}

	// Truncating from entry 2 rewinds the mirror to the kickoff score.
	rec = doJSON(t, h, http.MethodDelete, base+"/changes/2", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = doJSON(t, h, http.MethodGet, base+"/changes", "")
	decode(t, rec, &changes)
	if len(changes) != 1 {
		t.Fatalf("ledger length after truncate = %d, want 1", len(changes))
	}
	rec = doJSON(t, h, http.MethodGet, base, "")
	decode(t, rec, &detail)
	if detail.HomeScore != 0 {
		t.Errorf("mirror home score = %d, want 0 after truncate", detail.HomeScore)
	}
	rec = doJSON(t, h, http.MethodGet, base+"/winners", "")
	decode(t, rec, &winners)
	if len(winners) != 2 {
		t.Fatalf("winners after truncate = %d, want 2", len(winners))
	}
}

func TestMarkQuarterOrdering(t *testing.T) {
	h, store := newTestServer(t)
	_, gameID := seedGame(t, store, squares.ModeHybrid, false)
	base := fmt.Sprintf("/api/v1/games/%d", gameID)

	if rec := doJSON(t, h, http.MethodPost, base+"/changes", `{"home_score":0,"away_score":0}`); rec.Code != http.StatusCreated {
		t.Fatalf("append status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec := doJSON(t, h, http.MethodPost, base+"/quarters/halftime", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("halftime before q1 status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	rec = doJSON(t, h, http.MethodPost, base+"/quarters/q1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mark q1 status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var change struct {
		Markers []string `json:"markers"`
	}
	decode(t, rec, &change)
	if len(change.Markers) != 1 || change.Markers[0] != "q1" {
		t.Errorf("markers = %v, want [q1]", change.Markers)
	}

	rec = doJSON(t, h, http.MethodPost, base+"/quarters/overtime", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown checkpoint status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestQuarterScoresEndpoint(t *testing.T) {
	h, store := newTestServer(t)
	_, gameID := seedGame(t, store, squares.ModeQuarter, true)
	base := fmt.Sprintf("/api/v1/games/%d", gameID)

	rec := doJSON(t, h, http.MethodPut, base+"/quarter-scores", `{"q1":{"home":7,"away":3}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put quarter scores status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, base+"/winners", "")
	var winners []struct {
		WinType   string `json:"win_type"`
		PayoutRef int    `json:"payout_ref"`
	}
	decode(t, rec, &winners)
	if len(winners) != 2 {
		t.Fatalf("winners = %d, want forward+reverse for q1", len(winners))
	}
	for _, w := range winners {
		if w.PayoutRef != squares.QuarterPayoutRef {
			t.Errorf("payout_ref = %d, want %d", w.PayoutRef, squares.QuarterPayoutRef)
		}
	}

	rec = doJSON(t, h, http.MethodPut, base+"/quarter-scores",
		`{"q1":{"home":7,"away":3},"halftime":{"home":14,"away":10},"q3":{"home":21,"away":10},"final":{"home":28,"away":17},"finalize":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var game struct {
		Status string `json:"status"`
	}
	decode(t, rec, &game)
	if game.Status != "final" {
		t.Errorf("status = %q, want final", game.Status)
	}
}

func TestLockPool(t *testing.T) {
	h, store := newTestServer(t)
	ctx := t.Context()
	pool, err := store.CreatePool(ctx, squares.Pool{Label: "Open Pool", Sport: "nfl", Mode: squares.ModeQuarter})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	path := fmt.Sprintf("/api/v1/pools/%d/lock", pool.ID)

	rec := doJSON(t, h, http.MethodPost, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lock status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var locked struct {
		Locked    bool  `json:"locked"`
		RowDigits []int `json:"row_digits"`
		ColDigits []int `json:"col_digits"`
	}
	decode(t, rec, &locked)
	if !locked.Locked {
		t.Error("locked = false after lock")
	}
	for _, axis := range [][]int{locked.RowDigits, locked.ColDigits} {
		if len(axis) != 10 {
			t.Fatalf("axis length = %d, want 10", len(axis))
		}
		var seen [10]bool
		for _, d := range axis {
			if d < 0 || d > 9 || seen[d] {
				t.Fatalf("axis %v is not a 0-9 permutation", axis)
			}
			seen[d] = true
		}
	}

	rec = doJSON(t, h, http.MethodPost, path, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second lock status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), "POOL_LOCKED") {
		t.Errorf("body = %s, want POOL_LOCKED code", rec.Body.String())
	}
}

func TestPoolGridETag(t *testing.T) {
	h, store := newTestServer(t)
	poolID, _ := seedGame(t, store, squares.ModeQuarter, false)
	path := fmt.Sprintf("/api/v1/pools/%d", poolID)

	rec := doJSON(t, h, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on pool read")
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS on first read", rec.Header().Get("X-Cache"))
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want %d", rec2.Code, http.StatusNotModified)
	}

	rec3 := doJSON(t, h, http.MethodGet, path, "")
	if rec3.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q, want HIT on repeat read", rec3.Header().Get("X-Cache"))
	}
}
