package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/livekit/protocol/auth"

	"github.com/lingopods/roomsync/internal/infrastructure/configs"
	"github.com/lingopods/roomsync/internal/infrastructure/env"
	"github.com/lingopods/roomsync/internal/infrastructure/events"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/messaging"
	"github.com/lingopods/roomsync/internal/infrastructure/ratelimiter"
	"github.com/lingopods/roomsync/internal/infrastructure/tracing"
	"github.com/lingopods/roomsync/internal/persistence/db"
	"github.com/lingopods/roomsync/internal/persistence/repository"
	"github.com/lingopods/roomsync/internal/presentation/api"
	"github.com/lingopods/roomsync/internal/presentation/handler/admin"
	"github.com/lingopods/roomsync/internal/presentation/handler/health"
	"github.com/lingopods/roomsync/internal/presentation/handler/rooms"
	tokensHandler "github.com/lingopods/roomsync/internal/presentation/handler/tokens"
	"github.com/lingopods/roomsync/internal/presentation/handler/webhooks"
	"github.com/lingopods/roomsync/internal/reconcile"
	"github.com/lingopods/roomsync/internal/sweeper"
	"github.com/lingopods/roomsync/internal/tokens"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	serviceName = "roomsync"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())
	logger.Init()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	mongoCfg := db.NewMongoDefaultConfig()
	mongoClient, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.DisconnectMongo(context.Background(), mongoClient)

	database := db.GetDatabase(mongoClient, mongoCfg)

	roomRepository := repository.NewRoomRepository(database)
	auditRepository := repository.NewRoomAuditLogRepository(database)

	if err := roomRepository.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}
	if err := auditRepository.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}

	// The broker is optional: with no RABBITMQ_URI the service runs
	// standalone and lifecycle events are simply not published.
	var rabbitmq *messaging.RabbitMQ
	if rabbitMqURI := env.GetString("RABBITMQ_URI", ""); rabbitMqURI != "" {
		rabbitmq, err = messaging.NewRabbitMQ(rabbitMqURI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		auditConsumer := events.NewAuditConsumer(rabbitmq, auditRepository, logger)
		go auditConsumer.Listen(ctx)
	}

	roomPublisher := events.NewRoomPublisher(rabbitmq)

	apiKey := env.GetString("LIVEKIT_API_KEY", "")
	apiSecret := env.GetString("LIVEKIT_API_SECRET", "")
	if apiKey == "" || apiSecret == "" {
		log.Fatal("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
	}
	keyProvider := auth.NewSimpleKeyProvider(apiKey, apiSecret)

	issuer, err := tokens.NewIssuer(apiKey, apiSecret, cfg.Token.TTL)
	if err != nil {
		log.Fatal(err)
	}

	rules := reconcile.Rules{
		GraceWindow: cfg.Sweeper.GraceWindow,
		MaxAge:      cfg.Sweeper.MaxAge,
	}

	roomSweeper := sweeper.New(roomRepository, roomPublisher, rules, cfg.Sweeper.Interval, logger)
	go roomSweeper.Run(ctx)

	webhookHandler := webhooks.NewHandler(roomRepository, keyProvider, logger)
	tokenHandler := tokensHandler.NewHandler(issuer, cfg.Token.IdentityHeader, logger)
	roomHandler := rooms.NewHandler(roomRepository, auditRepository, logger)
	healthHandler := health.NewHandler(func(ctx context.Context) error {
		return mongoClient.Ping(ctx, readpref.Primary())
	})
	adminHandler := admin.NewHandler(roomSweeper)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(*cfg, *webhookHandler, *tokenHandler, *roomHandler, *healthHandler, *adminHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server terminated", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
