// Package handler provides HTTP handlers for all API endpoints.
// Reads go through the store and the in-memory cache; every mutation
// that touches a game's ledger goes through the ledger service so the
// validation and winner-derivation pipeline is identical for HTTP and
// poller writes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gridpools/scorewire/internal/api/respond"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/squares"
)

// Store is the persistence surface the API reads from. Both the
// Postgres store and the in-memory store satisfy it.
type Store interface {
	HealthCheck(ctx context.Context) error

	CreateEvent(ctx context.Context, ev event.Event) (event.Event, error)
	GetEvent(ctx context.Context, id int64) (event.Event, error)
	ListEvents(ctx context.Context) ([]event.Event, error)
	GetState(ctx context.Context, eventID int64) (event.State, error)

	GetGame(ctx context.Context, id int64) (ledger.Game, error)
	ListChanges(ctx context.Context, gameID int64) ([]ledger.ScoreChange, error)
	LatestChange(ctx context.Context, gameID int64) (ledger.ScoreChange, error)
	ListWinners(ctx context.Context, gameID int64) ([]squares.Winner, error)

	GetPool(ctx context.Context, id int64) (squares.Pool, error)
	UpdatePool(ctx context.Context, p squares.Pool) error
	ListSquares(ctx context.Context, poolID int64) ([]squares.Square, error)
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  Store
	ledger *ledger.Service
	cache  *cache.Cache
	cfg    *config.Config
}

// New creates a Handler with shared dependencies.
func New(store Store, svc *ledger.Service, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store:  store,
		ledger: svc,
		cache:  c,
		cfg:    cfg,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "ScoreWire API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// Healthz returns basic health status.
// @Summary Liveness check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthzDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies store connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /healthz/db [get]
func (h *Handler) HealthzDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthzCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz/cache [get]
func (h *Handler) HealthzCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// serveCached runs the shared read flow: a cache hit honors
// If-None-Match with a 304, a miss builds the payload, stores it, and
// serves it with the fresh ETag.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func(ctx context.Context) (interface{}, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

// writeDomainError maps service and store errors onto HTTP statuses.
// Validation messages pass through verbatim so the commissioner sees
// exactly what the ledger rejected.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Msg)
	case errors.Is(err, ledger.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, ledger.ErrChangeConflict):
		respond.WriteError(w, http.StatusConflict, "CHANGE_CONFLICT",
			"Another writer appended to this ledger first, retry with fresh state")
	case errors.Is(err, squares.ErrPoolLocked):
		respond.WriteError(w, http.StatusConflict, "POOL_LOCKED", "Pool is already locked")
	case errors.Is(err, squares.ErrPoolUnlocked):
		respond.WriteError(w, http.StatusUnprocessableEntity, "POOL_UNLOCKED",
			"Pool digits are not assigned yet")
	case errors.Is(err, squares.ErrSquareTaken):
		respond.WriteError(w, http.StatusConflict, "SQUARE_TAKEN", "Square is already claimed")
	default:
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}
