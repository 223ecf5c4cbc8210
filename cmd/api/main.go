package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wayfarelabs/tour-marketplace/internal/adapters/crdb"
	mongoadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/mongo"
	"github.com/wayfarelabs/tour-marketplace/internal/adapters/rabbit"
	redisadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/redis"
	"github.com/wayfarelabs/tour-marketplace/internal/auth"
	"github.com/wayfarelabs/tour-marketplace/internal/booking"
	"github.com/wayfarelabs/tour-marketplace/internal/config"
	httphandler "github.com/wayfarelabs/tour-marketplace/internal/http"
	"github.com/wayfarelabs/tour-marketplace/internal/idempotency"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
	"github.com/wayfarelabs/tour-marketplace/internal/outbox"
	"github.com/wayfarelabs/tour-marketplace/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database(cfg.MongoDB)
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)
	messages := mongoadapter.NewMessageRepository(mongoDB, logger)
	notifs := mongoadapter.NewNotificationRepository(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cache := redisadapter.NewCache(redisClient)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := ratelimit.NewRateLimiter(cache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	bookings := booking.NewService(repo, audit, logger)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	handlers := httphandler.NewHandlers(cfg, repo, bookings, cache, idemp, messages, notifs, tokens, logger)
	r := httphandler.NewRouter(handlers, rl, logger)

	// The API also drains its own outbox so a single-binary deployment
	// still publishes events; the dedicated publisher can run alongside.
	outboxCtx, cancelOutbox := context.WithCancel(context.Background())
	defer cancelOutbox()
	go outbox.NewPublisher(repo, rabbitPub, logger).Run(outboxCtx)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		logger.Info("listening on ", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown: ", err)
	}
	logger.Info("server exiting")
}
