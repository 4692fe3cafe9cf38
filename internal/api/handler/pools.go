package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridpools/scorewire/internal/api/respond"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/squares"
)

type poolJSON struct {
	ID             int64      `json:"id"`
	Label          string     `json:"label"`
	Sport          string     `json:"sport"`
	Mode           string     `json:"mode"`
	ReverseScoring bool       `json:"reverse_scoring"`
	Locked         bool       `json:"locked"`
	RowDigits      []int      `json:"row_digits,omitempty"`
	ColDigits      []int      `json:"col_digits,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toPoolJSON(p squares.Pool) poolJSON {
	out := poolJSON{
		ID:             p.ID,
		Label:          p.Label,
		Sport:          p.Sport,
		Mode:           string(p.Mode),
		ReverseScoring: p.ReverseScoring,
		Locked:         p.Locked,
		LockedAt:       p.LockedAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	// Digit permutations exist only once the pool locks.
	if p.Locked {
		out.RowDigits = p.RowDigits.Slice()
		out.ColDigits = p.ColDigits.Slice()
	}
	return out
}

type squareJSON struct {
	ID        int64  `json:"id"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	ClaimedBy string `json:"claimed_by"`
}

type poolDetailJSON struct {
	poolJSON
	Squares []squareJSON `json:"squares"`
}

// GetPool returns pool configuration and claimed grid.
// @Summary Get pool
// @Description Returns the pool configuration plus every claimed square. Digit permutations appear only after the pool locks.
// @Tags pools
// @Produce json
// @Param poolID path int true "Pool ID"
// @Success 200 {object} poolDetailJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /pools/{poolID} [get]
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "poolID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Pool ID must be an integer")
		return
	}

	key := fmt.Sprintf("pools:%d", id)
	h.serveCached(w, r, key, cache.TTLPoolGrid, func(ctx context.Context) (interface{}, error) {
		pool, err := h.store.GetPool(ctx, id)
		if err != nil {
			return nil, err
		}
		cells, err := h.store.ListSquares(ctx, id)
		if err != nil {
			return nil, err
		}
		detail := poolDetailJSON{poolJSON: toPoolJSON(pool), Squares: make([]squareJSON, 0, len(cells))}
		for _, sq := range cells {
			detail.Squares = append(detail.Squares, squareJSON{
				ID:        sq.ID,
				Row:       sq.Row,
				Col:       sq.Col,
				ClaimedBy: sq.ClaimedBy,
			})
		}
		return detail, nil
	})
}

// LockPool assigns digit permutations and locks the pool.
// @Summary Lock pool
// @Description Shuffles 0-9 onto the row and column axes and locks the pool. Locking is one-shot; a second lock returns 409.
// @Tags pools
// @Produce json
// @Param poolID path int true "Pool ID"
// @Success 200 {object} poolJSON
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Router /pools/{poolID}/lock [post]
func (h *Handler) LockPool(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "poolID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "Pool ID must be an integer")
		return
	}

	pool, err := h.store.GetPool(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := pool.Lock(squares.RandomDigits(), squares.RandomDigits(), time.Now().UTC()); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.store.UpdatePool(r.Context(), pool); err != nil {
		writeDomainError(w, err)
		return
	}

	h.cache.Invalidate(fmt.Sprintf("pools:%d", id))
	h.cache.InvalidatePrefix(fmt.Sprintf("pools:%d:", id))
	respond.WriteJSONObject(w, http.StatusOK, toPoolJSON(pool))
}
