package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/testforge/internal/api/http"
	auth "github.com/mind-engage/testforge/internal/auth/middleware"
	"github.com/mind-engage/testforge/internal/config"
	"github.com/mind-engage/testforge/internal/db"
	"github.com/mind-engage/testforge/internal/exam"
	"github.com/mind-engage/testforge/internal/grading"
	"github.com/mind-engage/testforge/internal/storage"
	syncx "github.com/mind-engage/testforge/internal/sync"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	events := syncx.NewEventRepo(dbh)
	grader := grading.NewGrader(grading.WithMaxEditDistance(cfg.NearMissDistance))
	svc := exam.NewService(exam.NewSQLStore(dbh), grader, events)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Service:        svc,
		Auth:           auth.NewAuthService(cfg.AuthHMACSecret),
		Blobs:          bs,
		Events:         events,
		CORSOrigins:    cfg.CORSOrigins(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		deps.Login = &auth.LoginOptions{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevLogin:      cfg.Mode == config.ModeOffline,
		}
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewRouter(deps)}
	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Printf("shutting down")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	return srv.Shutdown(shutCtx)
}
