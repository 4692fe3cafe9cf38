// Package scorefeed implements the provider adapter for the hosted
// scorefeed API.
//
// The feed serves one document per event keyed by our external ref,
// authenticated with an Authorization header. Rate limiting is handled
// via a token bucket limiter shared across all event fetches.
package scorefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/provider"
)

// Client is the scorefeed HTTP adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a scorefeed client with rate limiting.
func NewClient(baseURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Fetch implements provider.Adapter.
func (c *Client) Fetch(ctx context.Context, ev event.Event) (provider.Snapshot, error) {
	if ev.ExternalRef == nil || *ev.ExternalRef == "" {
		return provider.Snapshot{}, fmt.Errorf("event %d has no external ref", ev.ID)
	}

	var path string
	switch ev.Type {
	case event.TypeTournament:
		path = "/v1/tournaments/" + *ev.ExternalRef
	default:
		path = "/v1/games/" + *ev.ExternalRef
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return provider.Snapshot{}, err
	}

	if ev.Type == event.TypeTournament {
		return decodeTournament(body)
	}
	return decodeGame(body)
}

// get performs a rate-limited GET against the feed. Any transport or
// status failure comes back wrapped in provider.ErrUnavailable.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", provider.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", provider.ErrUnavailable, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d: %s", provider.ErrUnavailable, path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// --------------------------------------------------------------------------
// Payloads
// --------------------------------------------------------------------------

type sidePayload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type pairPayload struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type gamePayload struct {
	Status   string      `json:"status"`
	HomeTeam sidePayload `json:"home_team"`
	AwayTeam sidePayload `json:"away_team"`
	Period   int         `json:"period"`
	Clock    string      `json:"clock"`
	Halftime bool        `json:"halftime"`
	Quarters *struct {
		Q1   *pairPayload `json:"q1"`
		Half *pairPayload `json:"halftime"`
		Q3   *pairPayload `json:"q3"`
		Q4   *pairPayload `json:"q4"`
	} `json:"quarters"`
}

type tournamentPayload struct {
	Status      string `json:"status"`
	Round       int    `json:"current_round"`
	RoundStatus string `json:"round_status"`
	Leaderboard []struct {
		Position int    `json:"position"`
		Name     string `json:"name"`
		Score    string `json:"score"`
		Thru     string `json:"thru"`
	} `json:"leaderboard"`
}

func decodeGame(body []byte) (provider.Snapshot, error) {
	var p gamePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return provider.Snapshot{}, fmt.Errorf("decode game payload: %w", err)
	}
	snap := provider.Snapshot{
		Status:    mapStatus(p.Status),
		HomeTeam:  p.HomeTeam.Name,
		AwayTeam:  p.AwayTeam.Name,
		HomeScore: p.HomeTeam.Score,
		AwayScore: p.AwayTeam.Score,
		Period:    p.Period,
		Clock:     p.Clock,
		Halftime:  p.Halftime,
	}
	if p.Quarters != nil {
		snap.Quarters = &ledger.QuarterScores{
			Q1:    toPair(p.Quarters.Q1),
			Half:  toPair(p.Quarters.Half),
			Q3:    toPair(p.Quarters.Q3),
			Final: toPair(p.Quarters.Q4),
		}
	}
	return snap, nil
}

func decodeTournament(body []byte) (provider.Snapshot, error) {
	var p tournamentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return provider.Snapshot{}, fmt.Errorf("decode tournament payload: %w", err)
	}
	snap := provider.Snapshot{
		Status:       mapStatus(p.Status),
		CurrentRound: p.Round,
		RoundStatus:  p.RoundStatus,
	}
	for _, e := range p.Leaderboard {
		snap.Leaderboard = append(snap.Leaderboard, event.LeaderboardEntry{
			Position:   e.Position,
			Competitor: e.Name,
			Score:      e.Score,
			Thru:       e.Thru,
		})
	}
	return snap, nil
}

func toPair(p *pairPayload) *ledger.ScorePair {
	if p == nil {
		return nil
	}
	return &ledger.ScorePair{Home: p.Home, Away: p.Away}
}

// mapStatus folds the feed's status vocabulary onto ours. Unknown
// values map to scheduled, which the scheduler ignores as a no-op
// transition.
func mapStatus(s string) event.Status {
	switch s {
	case "live", "in_progress", "halftime":
		return event.StatusInProgress
	case "final", "completed":
		return event.StatusFinal
	case "cancelled", "postponed":
		return event.StatusCancelled
	default:
		return event.StatusScheduled
	}
}
