// Package listener keeps an API node's read cache coherent with the
// database. Postgres triggers fire pg_notify on score, winner, pool,
// and event mutations; this consumer holds a dedicated connection (not
// from the pool) on the invalidation channel and drops the affected
// cache keys. A write on one node then invalidates cached reads on
// every node, not just the one that handled the request.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gridpools/scorewire/internal/cache"
)

const (
	channel          = "scorewire_invalidate"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Invalidation is the JSON payload from pg_notify('scorewire_invalidate', ...).
type Invalidation struct {
	Scope string `json:"scope"`
	ID    int64  `json:"id"`
}

// Start opens a dedicated connection and listens on the invalidation
// channel. It reconnects automatically on connection loss. Blocks until
// ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, appCache *cache.Cache, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, appCache, logger)
		if ctx.Err() != nil {
			logger.Info("Invalidation listener stopped (context cancelled)")
			return
		}

		logger.Error("Invalidation listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection
// drops or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, appCache *cache.Cache, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Invalidation listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		Apply(appCache, notification.Payload, logger)
	}
}

// Apply drops the cached reads named by one notification payload. The
// key families mirror the ones the HTTP handlers populate.
func Apply(appCache *cache.Cache, payload string, logger *slog.Logger) {
	var inv Invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		logger.Warn("Failed to parse invalidation payload",
			"payload", payload, "error", err)
		return
	}

	switch inv.Scope {
	case "game":
		appCache.Invalidate(fmt.Sprintf("games:%d", inv.ID))
		appCache.InvalidatePrefix(fmt.Sprintf("games:%d:", inv.ID))
	case "pool":
		appCache.Invalidate(fmt.Sprintf("pools:%d", inv.ID))
		appCache.InvalidatePrefix(fmt.Sprintf("pools:%d:", inv.ID))
	case "event":
		appCache.Invalidate(fmt.Sprintf("events:%d", inv.ID))
		appCache.InvalidatePrefix("events:list:")
	default:
		logger.Warn("Unknown invalidation scope", "scope", inv.Scope, "id", inv.ID)
	}
}
