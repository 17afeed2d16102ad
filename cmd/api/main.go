package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vet-clinic-api/internal/adapters/auth/jwtauth"
	"vet-clinic-api/internal/adapters/files/local"
	"vet-clinic-api/internal/adapters/notifications/logpub"
	"vet-clinic-api/internal/adapters/notifications/rabbitmq"
	mem "vet-clinic-api/internal/adapters/storage/memory"
	pg "vet-clinic-api/internal/adapters/storage/postgres"
	"vet-clinic-api/internal/middleware"
	"vet-clinic-api/internal/platform/config"
	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/auth"
	"vet-clinic-api/internal/ports/notifications"
	"vet-clinic-api/internal/router"
	"vet-clinic-api/internal/seed"
)

// @title Vet Clinic API
// @version 1.0
// @description Administración de clínica veterinaria: usuarios, tutores, mascotas e historias clínicas.
// @BasePath /
func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.App,
		Env:    cfg.AppEnv,
	})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Fields{"err": err})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return err
		}
		defer opened.Close()
		if err := pg.Migrate(ctx, opened); err != nil {
			return err
		}
		db = opened
		log.Info("storage: postgres", nil)
	} else {
		log.Info("storage: memory", logger.Fields{"latency": cfg.MemoryLatency.String()})
	}

	store, err := local.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	events, closeEvents, err := publisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeEvents()

	// sin secreto, modo dev: el actor sale de X-Debug-User-ID
	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		verifier = jwtauth.New(jwtauth.Options{Secret: cfg.JWTSecret, Issuer: cfg.App})
	}

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	opts := router.Options{
		AuthVerifier:       verifier,
		DB:                 db,
		Memory:             mem.Options{Latency: cfg.MemoryLatency},
		Files:              store,
		Events:             events,
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		TrustProxy:         cfg.TrustProxy,
	}
	svc := router.NewServices(opts)

	if cfg.SeedDemo {
		if err := seed.Demo(ctx, seed.Services{Users: svc.Users, Tutors: svc.Tutors, Pets: svc.Pets}, log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.Mount(svc, opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": srv.Addr})
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

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// publisher usa RabbitMQ si hay AMQP_URL (y consume los eventos para las notificaciones
// de bienvenida); si no, los eventos sólo se loguean.
func publisher(ctx context.Context, cfg config.Config, log logger.Logger) (notifications.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return logpub.New(log), func() {}, nil
	}

	pub, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := pub.Consume(ctx, welcome(log)); err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := pub.Close(); err != nil {
			log.Warn("close amqp", logger.Fields{"err": err})
		}
	}
	return pub, closeFn, nil
}
