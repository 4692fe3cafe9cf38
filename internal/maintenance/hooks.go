package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RefreshPollWatermarks rebuilds mv_event_poll_watermarks, the view
// operators watch for events whose leases have gone quiet. CONCURRENTLY
// keeps reads available during the rebuild; the view's unique index is
// what makes that legal.
func RefreshPollWatermarks(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	start := time.Now()
	_, err := pool.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY mv_event_poll_watermarks")
	dur := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.Warn("Watermark view refresh failed", "duration", dur, "error", err)
		return fmt.Errorf("refresh mv_event_poll_watermarks: %w", err)
	}
	logger.Debug("Watermark view refreshed", "duration", dur)
	return nil
}
