// Command server runs the enquiry backend: the contact-form API and,
// optionally, the static marketing site.
//
//	@title						Enquiry Backend API
//	@version					1.0
//	@description				Contact-form enquiry backend for a home-theatre and AV installation website.
//	@BasePath					/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-enquiry-backend/docs"
	"github.com/tbourn/go-enquiry-backend/internal/config"
	httpapi "github.com/tbourn/go-enquiry-backend/internal/http"
	"github.com/tbourn/go-enquiry-backend/internal/http/handlers"
	"github.com/tbourn/go-enquiry-backend/internal/http/middleware"
	"github.com/tbourn/go-enquiry-backend/internal/observability"
	"github.com/tbourn/go-enquiry-backend/internal/repo"
	"github.com/tbourn/go-enquiry-backend/internal/services"
	"github.com/tbourn/go-enquiry-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogging(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := repo.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Msg("record store ready")

	var limiter middleware.Limiter
	if cfg.Rate.RedisAddr != "" {
		rdb, err := middleware.ConnectRedis(ctx, cfg.Rate.RedisAddr, cfg.Rate.RedisPassword, cfg.Rate.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = middleware.NewRedisWindowLimiter(rdb, cfg.Rate.Burst, cfg.Rate.Window)
		log.Info().Str("addr", cfg.Rate.RedisAddr).Dur("window", cfg.Rate.Window).Msg("shared rate limiter enabled")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, handlers.New(services.NewEnquiryService(store)), cfg, limiter)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("api", cfg.APIBasePath).
			Bool("static", cfg.StaticDir != "").
			Bool("admin_routes", cfg.AdminRoutesEnabled).
			Msg("listening")
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

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
