package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/config"
	"github.com/princinho/stackforum/controllers"
	"github.com/princinho/stackforum/database"
	"github.com/princinho/stackforum/repositories"
	"github.com/princinho/stackforum/server"
	"github.com/princinho/stackforum/session"
	"github.com/princinho/stackforum/storage"
	"github.com/princinho/stackforum/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repos repositories.Set
	switch cfg.DBDriver {
	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on exit")
		repos = repositories.NewMemorySet()
	default:
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.DatabaseName, cfg.DBTimeout)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := db.Disconnect(dctx); err != nil {
				slog.Error("mongo disconnect failed", "err", err)
			}
		}()
		if err := db.EnsureIndexes(ctx); err != nil {
			return err
		}
		repos = repositories.NewMongoSet(db)
	}

	//seeding admin user
	if cfg.AdminEmail != "" {
		if err := utils.SeedAdminUser(ctx, repos.Users, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			return err
		}
	}

	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	if uploader == nil {
		slog.Info("no storage backend configured, avatar uploads disabled")
	}

	router := server.NewRouter(server.Deps{
		Repos:     repos,
		Sessions:  session.NewManager(session.OptionsFromConfig(cfg)),
		Uploader:  uploader,
		Validator: storage.ValidatorFromConfig(cfg),
		Limits: controllers.QueryLimits{
			Default: cfg.DefaultReadQueryLimit,
			Max:     cfg.ReadQueryMaxLimit,
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := server.NewHTTPServer(":"+cfg.Port, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
