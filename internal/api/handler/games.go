package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridpools/scorewire/internal/api/respond"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

type gameJSON struct {
	ID            int64                `json:"id"`
	PoolID        int64                `json:"pool_id"`
	EventID       *int64               `json:"event_id,omitempty"`
	HomeTeam      string               `json:"home_team"`
	AwayTeam      string               `json:"away_team"`
	HomeScore     int                  `json:"home_score"`
	AwayScore     int                  `json:"away_score"`
	Status        string               `json:"status"`
	QuarterScores ledger.QuarterScores `json:"quarter_scores"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func toGameJSON(g ledger.Game) gameJSON {
	return gameJSON{
		ID:            g.ID,
		PoolID:        g.PoolID,
		EventID:       g.EventID,
		HomeTeam:      g.HomeTeam,
		AwayTeam:      g.AwayTeam,
		HomeScore:     g.HomeScore,
		AwayScore:     g.AwayScore,
		Status:        string(g.Status),
		QuarterScores: g.Quarters,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

type changeJSON struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"game_id"`
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	ChangeOrder int       `json:"change_order"`
	Markers     []string  `json:"markers"`
	CreatedAt   time.Time `json:"created_at"`
}

func toChangeJSON(c ledger.ScoreChange) changeJSON {
	markers := make([]string, 0, len(c.Markers))
	for _, m := range c.Markers {
		markers = append(markers, string(m))
	}
	return changeJSON{
		ID:          c.ID,
		GameID:      c.GameID,
		HomeScore:   c.HomeScore,
		AwayScore:   c.AwayScore,
		ChangeOrder: c.Order,
		Markers:     markers,
		CreatedAt:   c.CreatedAt,
	}
}

type winnerJSON struct {
	ID         string    `json:"id"`
	GameID     int64     `json:"game_id"`
	SquareID   *int64    `json:"square_id,omitempty"`
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	WinType    string    `json:"win_type"`
	Checkpoint string    `json:"checkpoint,omitempty"`
	Direction  string    `json:"direction"`
	PayoutRef  int       `json:"payout_ref"`
	Label      string    `json:"label"`
	CreatedAt  time.Time `json:"created_at"`
}

func toWinnerJSON(w squares.Winner, mode squares.ScoringMode) winnerJSON {
	return winnerJSON{
		ID:         w.ID,
		GameID:     w.GameID,
		SquareID:   w.SquareID,
		Row:        w.Row,
		Col:        w.Col,
		WinType:    w.Type.Tag(mode),
		Checkpoint: string(w.Type.Checkpoint),
		Direction:  string(w.Type.Direction),
		PayoutRef:  w.PayoutRef,
		Label:      w.Label,
		CreatedAt:  w.CreatedAt,
	}
}

func (h *Handler) invalidateGame(gameID int64) {
	h.cache.Invalidate(fmt.Sprintf("games:%d", gameID))
	h.cache.InvalidatePrefix(fmt.Sprintf("games:%d:", gameID))
}

type gameDetailJSON struct {
	gameJSON
	LatestChange *changeJSON `json:"latest_change"`
}

// GetGame returns a game with its mirror scores and ledger position.
// @Summary Get game
// @Description Returns the game row (mirror scores, status, quarter scores) plus the latest ledger entry. latest_change is null before the first append.
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} gameDetailJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /games/{gameID} [get]
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}

	key := fmt.Sprintf("games:%d", id)
	h.serveCached(w, r, key, cache.TTLLiveState, func(ctx context.Context) (interface{}, error) {
		game, err := h.store.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		detail := gameDetailJSON{gameJSON: toGameJSON(game)}
		latest, err := h.store.LatestChange(ctx, id)
		switch {
		case err == nil:
			cj := toChangeJSON(latest)
			detail.LatestChange = &cj
		case errors.Is(err, ledger.ErrNotFound):
			// Ledger is empty, game has not started.
		default:
			return nil, err
		}
		return detail, nil
	})
}

// ListChanges returns the full score-change ledger for a game.
// @Summary List score changes
// @Description Returns every ledger entry for the game in change order, markers included.
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {array} changeJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /games/{gameID}/changes [get]
func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}

	key := fmt.Sprintf("games:%d:changes", id)
	h.serveCached(w, r, key, cache.TTLLedger, func(ctx context.Context) (interface{}, error) {
		if _, err := h.store.GetGame(ctx, id); err != nil {
			return nil, err
		}
		changes, err := h.store.ListChanges(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make([]changeJSON, 0, len(changes))
		for _, c := range changes {
			out = append(out, toChangeJSON(c))
		}
		return out, nil
	})
}

type appendChangeRequest struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

// AppendChange records a manual score change.
// @Summary Append score change
// @Description Appends a commissioner-entered score to the game's ledger. The entry passes the same validation and winner derivation as automated polls.
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param change body appendChangeRequest true "Observed score"
// @Success 201 {object} changeJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /games/{gameID}/changes [post]
func (h *Handler) AppendChange(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}
	var req appendChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	change, err := h.ledger.Append(r.Context(), id, req.HomeScore, req.AwayScore)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateGame(id)
	respond.WriteJSONObject(w, http.StatusCreated, toChangeJSON(change))
}

// DeleteChange truncates the ledger from a change order onward.
// @Summary Delete score changes
// @Description Deletes the entry at change_order and every later entry, with all winners they produced. The game's mirror rewinds to the remaining latest entry.
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Param changeOrder path int true "First change order to delete"
// @Success 204 "ledger truncated"
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /games/{gameID}/changes/{changeOrder} [delete]
func (h *Handler) DeleteChange(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}
	order, err := strconv.Atoi(chi.URLParam(r, "changeOrder"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ORDER", "Change order must be an integer")
		return
	}

	if err := h.ledger.Delete(r.Context(), id, order); err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateGame(id)
	w.WriteHeader(http.StatusNoContent)
}

// MarkQuarter marks a checkpoint on the latest ledger entry.
// @Summary Mark checkpoint
// @Description Attaches a quarter checkpoint (q1, halftime, q3, final) to the latest ledger entry and retags that entry's winners. Checkpoints must arrive in order.
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Param checkpoint path string true "Checkpoint" Enums(q1, halftime, q3, final)
// @Success 200 {object} changeJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /games/{gameID}/quarters/{checkpoint} [post]
func (h *Handler) MarkQuarter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}
	cp, err := squares.ParseCheckpoint(chi.URLParam(r, "checkpoint"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_CHECKPOINT", err.Error())
		return
	}

	change, err := h.ledger.MarkQuarter(r.Context(), id, cp)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateGame(id)
	respond.WriteJSONObject(w, http.StatusOK, toChangeJSON(change))
}

type quarterScoresRequest struct {
	ledger.QuarterScores
	Finalize bool `json:"finalize"`
}

// SetQuarterScores saves checkpoint scores for a quarter-mode game.
// @Summary Set quarter scores
// @Description Saves explicit checkpoint scores and fully recomputes the quarter winner family. Passing finalize marks the game final.
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param scores body quarterScoresRequest true "Checkpoint scores"
// @Success 200 {object} gameJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /games/{gameID}/quarter-scores [put]
func (h *Handler) SetQuarterScores(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}
	var req quarterScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return
	}

	game, err := h.ledger.SetQuarterScores(r.Context(), id, req.QuarterScores, req.Finalize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.invalidateGame(id)
	respond.WriteJSONObject(w, http.StatusOK, toGameJSON(game))
}

// ListWinners returns the winner ledger for a game.
// @Summary List winners
// @Description Returns derived winner records ordered by payout_ref. Quarter-family winners carry payout_ref 0; ledger-family winners carry their change_order.
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {array} winnerJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /games/{gameID}/winners [get]
func (h *Handler) ListWinners(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Game ID must be an integer")
		return
	}

	key := fmt.Sprintf("games:%d:winners", id)
	h.serveCached(w, r, key, cache.TTLWinners, func(ctx context.Context) (interface{}, error) {
		game, err := h.store.GetGame(ctx, id)
		if err != nil {
			return nil, err
		}
		pool, err := h.store.GetPool(ctx, game.PoolID)
		if err != nil {
			return nil, err
		}
		winners, err := h.store.ListWinners(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make([]winnerJSON, 0, len(winners))
		for _, win := range winners {
			out = append(out, toWinnerJSON(win, pool.Mode))
		}
		return out, nil
	})
}
