package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lingopods/roomsync/internal/infrastructure/configs"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/ratelimiter"
	adminHandler "github.com/lingopods/roomsync/internal/presentation/handler/admin"
	healthHandler "github.com/lingopods/roomsync/internal/presentation/handler/health"
	roomsHandler "github.com/lingopods/roomsync/internal/presentation/handler/rooms"
	tokensHandler "github.com/lingopods/roomsync/internal/presentation/handler/tokens"
	webhooksHandler "github.com/lingopods/roomsync/internal/presentation/handler/webhooks"
)

type Application struct {
	config          configs.Config
	webhooksHandler webhooksHandler.Handler
	tokensHandler   tokensHandler.Handler
	roomsHandler    roomsHandler.Handler
	healthHandler   healthHandler.Handler
	adminHandler    adminHandler.Handler
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	webhooksHandler webhooksHandler.Handler,
	tokensHandler tokensHandler.Handler,
	roomsHandler roomsHandler.Handler,
	healthHandler healthHandler.Handler,
	adminHandler adminHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		webhooksHandler: webhooksHandler,
		tokensHandler:   tokensHandler,
		roomsHandler:    roomsHandler,
		healthHandler:   healthHandler,
		adminHandler:    adminHandler,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.enableCors)

	// LiveKit delivers here with its own retry loop; the endpoint is
	// authenticated by signature, not by the proxy, and is never
	// rate-limited so redeliveries are not dropped.
	r.Post("/webhooks/livekit", app.webhooksHandler.HandleLiveKitWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(app.rateLimiterMiddleware)

		r.Post("/token", app.tokensHandler.IssueTokenHandler)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", app.roomsHandler.ListRoomsHandler)
			r.Get("/{roomId}", app.roomsHandler.GetRoomHandler)
			r.Get("/{roomId}/audit", app.roomsHandler.GetRoomAuditHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetReady)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Post("/internal/sweep", app.adminHandler.TriggerSweepHandler)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return otelhttp.NewHandler(r, "roomsync")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
