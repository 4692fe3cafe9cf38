package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridpools/scorewire/internal/api/respond"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
)

type eventJSON struct {
	ID          int64             `json:"id"`
	Sport       string            `json:"sport"`
	Label       string            `json:"label"`
	EventType   string            `json:"event_type"`
	Provider    string            `json:"provider"`
	ExternalRef *string           `json:"external_ref,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	Status      string            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toEventJSON(ev event.Event) eventJSON {
	return eventJSON{
		ID:          ev.ID,
		Sport:       ev.Sport,
		Label:       ev.Label,
		EventType:   string(ev.Type),
		Provider:    string(ev.Provider),
		ExternalRef: ev.ExternalRef,
		StartTime:   ev.StartTime,
		Status:      string(ev.Status),
		Metadata:    ev.Metadata,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
}

type stateJSON struct {
	HomeTeam           string                   `json:"home_team,omitempty"`
	AwayTeam           string                   `json:"away_team,omitempty"`
	HomeScore          int                      `json:"home_score"`
	AwayScore          int                      `json:"away_score"`
	Period             int                      `json:"period,omitempty"`
	Clock              string                   `json:"clock,omitempty"`
	Halftime           bool                     `json:"halftime,omitempty"`
	CurrentRound       int                      `json:"current_round,omitempty"`
	RoundStatus        string                   `json:"round_status,omitempty"`
	Leaderboard        []event.LeaderboardEntry `json:"leaderboard,omitempty"`
	LastProviderUpdate time.Time                `json:"last_provider_update"`
}

func toStateJSON(st event.State) *stateJSON {
	return &stateJSON{
		HomeTeam:           st.HomeTeam,
		AwayTeam:           st.AwayTeam,
		HomeScore:          st.HomeScore,
		AwayScore:          st.AwayScore,
		Period:             st.Period,
		Clock:              st.Clock,
		Halftime:           st.Halftime,
		CurrentRound:       st.CurrentRound,
		RoundStatus:        st.RoundStatus,
		Leaderboard:        st.Leaderboard,
		LastProviderUpdate: st.LastProviderUpdate,
	}
}

// ListEvents returns all events, optionally filtered.
// @Summary List events
// @Description Returns tracked events, newest start time last. Optional status and sport filters.
// @Tags events
// @Produce json
// @Param status query string false "Filter by status" Enums(scheduled, in_progress, final, cancelled)
// @Param sport query string false "Filter by sport id"
// @Success 200 {array} eventJSON
// @Failure 400 {object} respond.ErrorResponse
// @Router /events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	sport := strings.ToLower(r.URL.Query().Get("sport"))

	if status != "" {
		if _, err := event.ParseStatus(status); err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_STATUS", err.Error())
			return
		}
	}

	key := fmt.Sprintf("events:list:%s:%s", status, sport)
	h.serveCached(w, r, key, cache.TTLEventList, func(ctx context.Context) (interface{}, error) {
		events, err := h.store.ListEvents(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]eventJSON, 0, len(events))
		for _, ev := range events {
			if status != "" && string(ev.Status) != status {
				continue
			}
			if sport != "" && ev.Sport != sport {
				continue
			}
			out = append(out, toEventJSON(ev))
		}
		return out, nil
	})
}

type createEventRequest struct {
	Sport       string            `json:"sport"`
	Label       string            `json:"label"`
	EventType   string            `json:"event_type"`
	Provider    string            `json:"provider"`
	ExternalRef *string           `json:"external_ref"`
	StartTime   string            `json:"start_time"`
	Metadata    map[string]string `json:"metadata"`
}

// CreateEvent registers a trackable event.
// @Summary Register event
// @Description Registers an event for score tracking. External events need an external_ref the provider recognizes; manual events are scored through the ledger endpoints only.
// @Tags events
// @Accept json
// @Produce json
// @Param event body createEventRequest true "Event to register"
// @Success 201 {object} eventJSON
// @Failure 400 {object} respond.ErrorResponse
// @Router /events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	sport := strings.ToLower(req.Sport)
	if !config.KnownSport(sport) {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_SPORT",
			fmt.Sprintf("sport %q is not registered", req.Sport))
		return
	}
	evType, err := event.ParseType(req.EventType)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TYPE", err.Error())
		return
	}
	provider, err := event.ParseProvider(req.Provider)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PROVIDER", err.Error())
		return
	}
	if provider == event.ProviderExternal && (req.ExternalRef == nil || *req.ExternalRef == "") {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_EXTERNAL_REF",
			"external events require an external_ref")
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_START_TIME",
			"start_time must be RFC3339")
		return
	}

	created, err := h.store.CreateEvent(r.Context(), event.Event{
		Sport:       sport,
		Label:       req.Label,
		Type:        evType,
		Provider:    provider,
		ExternalRef: req.ExternalRef,
		StartTime:   startTime,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.cache.InvalidatePrefix("events:list:")
	respond.WriteJSONObject(w, http.StatusCreated, toEventJSON(created))
}

type eventDetailJSON struct {
	eventJSON
	State *stateJSON `json:"state"`
}

// GetEvent returns one event with its latest provider state.
// @Summary Get event
// @Description Returns the event row plus the latest normalized provider snapshot. State is null before the first successful poll.
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} eventDetailJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /events/{eventID} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Event ID must be an integer")
		return
	}

	key := fmt.Sprintf("events:%d", id)
	h.serveCached(w, r, key, cache.TTLLiveState, func(ctx context.Context) (interface{}, error) {
		ev, err := h.store.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		detail := eventDetailJSON{eventJSON: toEventJSON(ev)}
		st, err := h.store.GetState(ctx, id)
		switch {
		case err == nil:
			detail.State = toStateJSON(st)
		case errors.Is(err, ledger.ErrNotFound):
			// No poll has landed yet.
		default:
			return nil, err
		}
		return detail, nil
	})
}
