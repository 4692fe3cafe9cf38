package scorefeed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func gameEvent(ref string) event.Event {
	return event.Event{
		ID:          1,
		Sport:       "nfl",
		Type:        event.TypeTeamGame,
		Provider:    event.ProviderExternal,
		ExternalRef: strPtr(ref),
		StartTime:   time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC),
		Status:      event.StatusInProgress,
	}
}

func TestFetch_Game(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/games/nfl-2025-123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Authorization = %q, want test-key", got)
		}
		w.Write([]byte(`{
			"status": "live",
			"home_team": {"name": "PHI", "score": 14},
			"away_team": {"name": "DAL", "score": 10},
			"period": 2,
			"clock": "01:21",
			"halftime": false
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 600, testLogger())
	snap, err := c.Fetch(context.Background(), gameEvent("nfl-2025-123"))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if snap.Status != event.StatusInProgress {
		t.Errorf("status = %q, want in_progress", snap.Status)
	}
	if snap.HomeTeam != "PHI" || snap.HomeScore != 14 || snap.AwayScore != 10 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Quarters != nil {
		t.Errorf("quarters = %+v, want nil when the feed omits them", snap.Quarters)
	}
}

func TestFetch_GameWithQuarters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "final",
			"home_team": {"name": "PHI", "score": 24},
			"away_team": {"name": "DAL", "score": 17},
			"period": 4,
			"quarters": {"q1": {"home": 7, "away": 3}, "halftime": {"home": 14, "away": 10}, "q4": {"home": 24, "away": 17}}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 600, testLogger())
	snap, err := c.Fetch(context.Background(), gameEvent("x"))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if snap.Status != event.StatusFinal {
		t.Errorf("status = %q, want final", snap.Status)
	}
	q := snap.Quarters
	if q == nil || q.Q1 == nil || q.Q1.Home != 7 || q.Half == nil || q.Final == nil || q.Final.Away != 17 {
		t.Errorf("quarters = %+v", q)
	}
	if q.Q3 != nil {
		t.Errorf("q3 = %+v, want nil for an omitted boundary", q.Q3)
	}
}

func TestFetch_Tournament(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tournaments/golf-77" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "in_progress",
			"current_round": 3,
			"round_status": "suspended",
			"leaderboard": [
				{"position": 1, "name": "A. Player", "score": "-12", "thru": "14"},
				{"position": 2, "name": "B. Golfer", "score": "-9", "thru": "F"}
			]
		}`))
	}))
	defer srv.Close()

	ev := gameEvent("golf-77")
	ev.Type = event.TypeTournament
	ev.Sport = "golf"

	c := NewClient(srv.URL, "k", 600, testLogger())
	snap, err := c.Fetch(context.Background(), ev)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if snap.CurrentRound != 3 || snap.RoundStatus != "suspended" {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Leaderboard) != 2 || snap.Leaderboard[0].Competitor != "A. Player" {
		t.Errorf("leaderboard = %+v", snap.Leaderboard)
	}
}

func TestFetch_UpstreamFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 600, testLogger())
	_, err := c.Fetch(context.Background(), gameEvent("x"))
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("Fetch() error = %v, want ErrUnavailable", err)
	}
}

func TestFetch_MissingExternalRef(t *testing.T) {
	c := NewClient("http://localhost", "k", 600, testLogger())
	ev := gameEvent("x")
	ev.ExternalRef = nil

	if _, err := c.Fetch(context.Background(), ev); err == nil {
		t.Error("Fetch() with nil external ref succeeded")
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		feed string
		want event.Status
	}{
		{"live", event.StatusInProgress},
		{"halftime", event.StatusInProgress},
		{"final", event.StatusFinal},
		{"completed", event.StatusFinal},
		{"postponed", event.StatusCancelled},
		{"pre", event.StatusScheduled},
		{"", event.StatusScheduled},
	}
	for _, tt := range tests {
		t.Run(tt.feed, func(t *testing.T) {
			if got := mapStatus(tt.feed); got != tt.want {
				t.Errorf("mapStatus(%q) = %q, want %q", tt.feed, got, tt.want)
			}
		})
	}
}
