package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/config"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/handlers"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/jobs"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/migrations"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/appconfig"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/db"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/health"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/logger"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/mailer"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/mailer/resend"
)

const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 2 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Sentry, handlers.RequestIDExtractor())

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.Files, cfg.DB.MigrationsTable, log); err != nil {
		return err
	}
	if err := jobs.MigrateQueue(ctx, pool); err != nil {
		return err
	}

	files, err := filesystem.NewFactory(ctx, cfg.Filesystem)
	if err != nil {
		return err
	}

	catalog, err := appconfig.New(cfg.AppConfigPath, files.S3Client())
	if err != nil {
		return err
	}

	enqueuer, err := jobs.NewEnqueuer(pool, log)
	if err != nil {
		return err
	}

	svcOpts := []jobs.ServiceOption{jobs.WithLogger(log)}
	if sender := newMailSender(cfg.Mail, log); sender != nil {
		svcOpts = append(svcOpts, jobs.WithMailer(sender, cfg.Mail.From))
	}
	jobService, err := jobs.NewService(pool, files, catalog, enqueuer, svcOpts...)
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.Deps{
		Files:          files,
		Jobs:           jobService,
		Logger:         log,
		InternalAPIKey: cfg.InternalAPIKey,
		FrontendOrigin: cfg.HTTP.FrontendURL,
		ReadinessChecks: health.Checks{
			"postgres": db.Healthcheck(pool),
		},
	})

	return serve(ctx, cfg.HTTP, router, log, db.Shutdown(pool))
}

// newMailSender picks the notification provider. Without one configured,
// terminal job states simply go unannounced.
func newMailSender(cfg config.Mail, log *slog.Logger) mailer.Sender {
	switch cfg.Service {
	case "resend":
		return resend.New(cfg.Resend)
	case "noop":
		return mailer.Noop{}
	case "":
		return nil
	default:
		log.Warn("unknown email sender service, notifications disabled",
			slog.String("service", cfg.Service))
		return nil
	}
}

// serve runs the HTTP server until the context is cancelled, then shuts
// down gracefully and runs the shutdown hooks.
func serve(ctx context.Context, cfg config.HTTP, handler http.Handler, log *slog.Logger, hooks ...func(context.Context) error) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Info("shutdown completed")
	return nil
}
