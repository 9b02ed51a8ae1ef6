// main.go
//
// Entry point for the Skyrdle server.
// Subcommands:
//   - serve:   run the HTTP API with its background workers.
//   - migrate: apply pending SQL migrations and exit.
//   - sync:    run one mirror pass against the AT Protocol repo and exit.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smolfarm/skyrdle/internal/atproto"
	"github.com/smolfarm/skyrdle/internal/config"
	"github.com/smolfarm/skyrdle/internal/game"
	"github.com/smolfarm/skyrdle/internal/httpserver"
	"github.com/smolfarm/skyrdle/internal/leaderboard"
	"github.com/smolfarm/skyrdle/internal/mirror"
	"github.com/smolfarm/skyrdle/internal/puzzle"
	"github.com/smolfarm/skyrdle/internal/stats"
	"github.com/smolfarm/skyrdle/internal/store"
	"github.com/smolfarm/skyrdle/internal/words"
)

var cfgPath string

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	root := &cobra.Command{
		Use:           "skyrdle",
		Short:         "Daily word game backed by decentralized identity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml")

	root.AddCommand(serveCmd(), migrateCmd(), syncCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			db, err := openDB(cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			st := store.NewSQLite(db)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			vocab, err := words.Load(cfg.Words.File, cfg.Puzzle.WordLength)
			if err != nil {
				return fmt.Errorf("load vocabulary: %w", err)
			}

			// Refusing to start with an empty answer list beats serving a
			// game that cannot pick a word.
			snap, err := puzzle.NewSnapshot(ctx, st)
			if err != nil {
				return fmt.Errorf("load puzzle words: %w", err)
			}
			// Curated answers are always accepted as guesses.
			for _, w := range snap.Words() {
				vocab.Add(w)
			}

			epoch, loc, err := cfg.EpochTime()
			if err != nil {
				return fmt.Errorf("puzzle epoch: %w", err)
			}
			indexer := puzzle.NewIndexer(epoch, loc)

			engine := game.NewEngine(st, vocab, indexer, snap,
				game.WithMaxGuesses(cfg.Puzzle.MaxGuesses),
				game.WithWordLength(cfg.Puzzle.WordLength),
			)

			var boards *leaderboard.Service
			if cfg.Redis.Addr != "" {
				boards, err = leaderboard.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					log.Warn().Err(err).Msg("redis unavailable, leaderboards fall back to sql")
					boards = nil
				}
			}

			statsSvc := stats.New(st, boards)

			srv := httpserver.New(engine, st, boards, snap, vocab, cfg)
			httpSrv := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      srv.Handler(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				log.Info().Int("port", cfg.Server.Port).Msg("starting skyrdle server")
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			})

			g.Go(func() error {
				snap.RefreshEvery(ctx, cfg.Puzzle.ReloadInterval)
				return nil
			})
			g.Go(func() error {
				statsSvc.RunEvery(ctx, cfg.Stats.Interval)
				return nil
			})

			if cfg.Mirror.Enabled {
				client := atproto.NewClient(cfg.Mirror.Service, cfg.Mirror.Identifier, cfg.Mirror.AppPassword)
				worker := mirror.NewWorker(st, client, cfg.Mirror)
				worker.Start(ctx)
				defer worker.Stop()
			}

			return g.Wait()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			db, err := openDB(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrate(db)
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror unsynced scores to the AT Protocol repo once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cfg.Mirror.Identifier == "" || cfg.Mirror.AppPassword == "" {
				return errors.New("mirror credentials are not configured")
			}

			db, err := openDB(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()
			st := store.NewSQLite(db)

			client := atproto.NewClient(cfg.Mirror.Service, cfg.Mirror.Identifier, cfg.Mirror.AppPassword)
			worker := mirror.NewWorker(st, client, cfg.Mirror)
			return worker.RunOnce(cmd.Context())
		},
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
