package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rollcall-scores-go/assistant"
	"rollcall-scores-go/db"
	"rollcall-scores-go/handlers"
	"rollcall-scores-go/logging"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(f *rootFlags) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the roster and score report HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Config{Debug: cfg.Logging.Debug})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			redisClient, err := db.InitializeRedisClient(cfg.Redis, logger)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			redisService := db.NewRedisService(redisClient, logger)
			if seed {
				checkAndSeedData(redisService, logger)
			}

			var gen assistant.Generator
			if g, err := assistant.NewGemini(cmd.Context(), assistant.Options{
				APIKey: cfg.Gemini.APIKey,
				Model:  cfg.Gemini.Model,
			}); err != nil {
				logger.Warn("Gemini disabled", zap.Error(err))
			} else {
				logger.Info("Gemini enabled", zap.String("model", g.Model()))
				gen = g
			}

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: handlers.NewRouter(handlers.NewAPIHandler(redisService, gen, logger)),
			}
			return serve(cmd.Context(), srv, logger)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed-data", true, "add demo data when Redis holds no classes")
	return cmd
}

// serve runs srv until SIGINT/SIGTERM, then shuts it down gracefully.
func serve(parent context.Context, srv *http.Server, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// checkAndSeedData adds demo data only when no class exists yet.
func checkAndSeedData(service *db.RedisService, logger *zap.Logger) {
	hasData, err := service.HasData()
	if err != nil {
		logger.Warn("Unable to check for existing data, skipping seed", zap.Error(err))
		return
	}
	if hasData {
		logger.Info("Existing class data found, skipping seed")
		return
	}
	service.SeedData()
}
