// Command poller is the ScoreWire polling CLI.
//
// Usage:
//
//	scorewire-poller run
//	scorewire-poller tick
//	scorewire-poller events add --sport nfl --label "PHI @ DAL" --ref ngs-401 --start 2025-11-02T18:00:00Z
//	scorewire-poller events list
//	scorewire-poller games append --game 3 --home 7 --away 0
//	scorewire-poller games mark --game 3 --checkpoint q1
//	scorewire-poller games delete --game 3 --order 2
//	scorewire-poller pools lock --pool 1
//	scorewire-poller demo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/db"
	"github.com/gridpools/scorewire/internal/event"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/lock"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/postgres"
	"github.com/gridpools/scorewire/internal/provider/scorefeed"
	"github.com/gridpools/scorewire/internal/squares"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "scorewire-poller",
		Short: "ScoreWire score polling CLI",
	}

	root.AddCommand(runCmd())
	root.AddCommand(tickCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(gamesCmd())
	root.AddCommand(poolsCmd())
	root.AddCommand(demoCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the poll scheduler loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				sched, err := buildScheduler(cfg, pool, store)
				if err != nil {
					return err
				}
				sched.Run(ctx)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// tick command
// --------------------------------------------------------------------------

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduling pass and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				sched, err := buildScheduler(cfg, pool, store)
				if err != nil {
					return err
				}
				result := sched.Tick(ctx)
				logger.Info("Tick complete", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("tick error", "error", e)
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// events command
// --------------------------------------------------------------------------

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage trackable events",
	}
	cmd.AddCommand(eventsAddCmd())
	cmd.AddCommand(eventsListCmd())
	return cmd
}

func eventsAddCmd() *cobra.Command {
	var (
		sport     string
		label     string
		evType    string
		provider  string
		ref       string
		startTime string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an event for score tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			sport = strings.ToLower(sport)
			if !config.KnownSport(sport) {
				return fmt.Errorf("sport %q is not registered", sport)
			}
			parsedType, err := event.ParseType(evType)
			if err != nil {
				return err
			}
			parsedProvider, err := event.ParseProvider(provider)
			if err != nil {
				return err
			}
			if parsedProvider == event.ProviderExternal && ref == "" {
				return fmt.Errorf("--ref is required for external events")
			}
			start, err := time.Parse(time.RFC3339, startTime)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}

			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				ev := event.Event{
					Sport:     sport,
					Label:     label,
					Type:      parsedType,
					Provider:  parsedProvider,
					StartTime: start,
				}
				if ref != "" {
					ev.ExternalRef = &ref
				}
				created, err := store.CreateEvent(ctx, ev)
				if err != nil {
					return fmt.Errorf("create event: %w", err)
				}
				logger.Info("Event registered",
					"id", created.ID, "sport", created.Sport,
					"label", created.Label, "start", created.StartTime.Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sport, "sport", "", "Sport id (nfl, nba, golf)")
	cmd.Flags().StringVar(&label, "label", "", "Display label")
	cmd.Flags().StringVar(&evType, "type", "team_game", "Event type (team_game, tournament)")
	cmd.Flags().StringVar(&provider, "provider", "external", "Score provider (external, manual)")
	cmd.Flags().StringVar(&ref, "ref", "", "Provider's event reference")
	cmd.Flags().StringVar(&startTime, "start", "", "Start time, RFC3339")
	return cmd
}

func eventsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				events, err := store.ListEvents(ctx)
				if err != nil {
					return fmt.Errorf("list events: %w", err)
				}
				for _, ev := range events {
					fmt.Printf("%6d  %-5s %-12s %-10s %s  %s\n",
						ev.ID, ev.Sport, ev.Status, ev.Provider,
						ev.StartTime.Format("2006-01-02 15:04"), ev.Label)
				}
				logger.Info("Listed events", "count", len(events))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// games command
// --------------------------------------------------------------------------

func gamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Manual ledger operations",
	}
	cmd.AddCommand(gamesAppendCmd())
	cmd.AddCommand(gamesMarkCmd())
	cmd.AddCommand(gamesDeleteCmd())
	return cmd
}

func gamesAppendCmd() *cobra.Command {
	var (
		gameID int64
		home   int
		away   int
	)
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append an observed score to a game's ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				svc := ledger.NewService(store, logger)
				change, err := svc.Append(ctx, gameID, home, away)
				if err != nil {
					return err
				}
				logger.Info("Score change appended",
					"game_id", gameID, "order", change.Order,
					"score", fmt.Sprintf("%d-%d", change.HomeScore, change.AwayScore))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&gameID, "game", 0, "Game ID")
	cmd.Flags().IntVar(&home, "home", 0, "Home score")
	cmd.Flags().IntVar(&away, "away", 0, "Away score")
	return cmd
}

func gamesMarkCmd() *cobra.Command {
	var (
		gameID     int64
		checkpoint string
	)
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Mark a quarter checkpoint on the latest ledger entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, err := squares.ParseCheckpoint(checkpoint)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				svc := ledger.NewService(store, logger)
				change, err := svc.MarkQuarter(ctx, gameID, cp)
				if err != nil {
					return err
				}
				logger.Info("Checkpoint marked",
					"game_id", gameID, "checkpoint", checkpoint, "order", change.Order)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&gameID, "game", 0, "Game ID")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint (q1, halftime, q3, final)")
	return cmd
}

func gamesDeleteCmd() *cobra.Command {
	var (
		gameID int64
		order  int
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a ledger entry and everything after it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				svc := ledger.NewService(store, logger)
				if err := svc.Delete(ctx, gameID, order); err != nil {
					return err
				}
				logger.Info("Ledger truncated", "game_id", gameID, "from_order", order)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&gameID, "game", 0, "Game ID")
	cmd.Flags().IntVar(&order, "order", 0, "First change order to delete")
	return cmd
}

// --------------------------------------------------------------------------
// pools command
// --------------------------------------------------------------------------

func poolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Manage squares pools",
	}
	cmd.AddCommand(poolsLockCmd())
	return cmd
}

func poolsLockCmd() *cobra.Command {
	var poolID int64
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Assign random digit permutations and lock a pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error {
				p, err := store.GetPool(ctx, poolID)
				if err != nil {
					return err
				}
				if err := p.Lock(squares.RandomDigits(), squares.RandomDigits(), time.Now().UTC()); err != nil {
					return err
				}
				if err := store.UpdatePool(ctx, p); err != nil {
					return err
				}
				logger.Info("Pool locked",
					"pool_id", p.ID,
					"row_digits", fmt.Sprintf("%v", p.RowDigits.Slice()),
					"col_digits", fmt.Sprintf("%v", p.ColDigits.Slice()))
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&poolID, "pool", 0, "Pool ID")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withStore handles config loading, DB connection, and context cancellation.
func withStore(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, store *postgres.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool, postgres.New(pool))
}

func buildScheduler(cfg *config.Config, pool *db.Pool, store *postgres.Store) (*poller.Scheduler, error) {
	locker, err := newLocker(cfg, pool)
	if err != nil {
		return nil, err
	}
	svc := ledger.NewService(store, logger)
	adapter := scorefeed.NewClient(cfg.ScoreFeedBaseURL, cfg.ScoreFeedAPIKey, cfg.ScoreFeedRPM, logger)
	return poller.NewScheduler(store, store, svc, adapter, locker, poller.Config{
		TickInterval: cfg.PollTick,
		LeaseTTL:     cfg.PollLeaseTTL,
		Lookahead:    cfg.PollLookahead,
		Workers:      cfg.PollWorkers,
	}, logger), nil
}

func newLocker(cfg *config.Config, pool *db.Pool) (lock.TryLocker, error) {
	switch cfg.LockBackend {
	case "memory":
		return lock.NewMemory(), nil
	case "advisory":
		return lock.NewAdvisory(pool.Pool), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return lock.NewRedis(client, 10*time.Second), nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
}
