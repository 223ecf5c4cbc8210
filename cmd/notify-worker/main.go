package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/mongo"
	"github.com/wayfarelabs/tour-marketplace/internal/adapters/rabbit"
	"github.com/wayfarelabs/tour-marketplace/internal/config"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	notifs := mongoadapter.NewNotificationRepository(mongoClient.Database(cfg.MongoDB), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "notifications",
		"booking.created", "booking.cancelled", "booking.status_changed", "message.sent")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	worker := NewNotifyWorker(notifs, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, consumer)
	logger.Info("notify worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown notify worker")
}

type NotifyWorker struct {
	notifs *mongoadapter.NotificationRepository
	logger observability.Logger
}

func NewNotifyWorker(notifs *mongoadapter.NotificationRepository, logger observability.Logger) *NotifyWorker {
	return &NotifyWorker{notifs: notifs, logger: logger}
}

func (w *NotifyWorker) Run(ctx context.Context, consumer *rabbit.Consumer) {
	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		w.logger.Error("failed to start consuming: ", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.handle(ctx, d); err != nil {
				w.logger.WithField("routing_key", d.RoutingKey).Error("failed to handle event: ", err)
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

type eventPayload struct {
	UserID    string `json:"user_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (w *NotifyWorker) handle(ctx context.Context, d amqp.Delivery) error {
	var p eventPayload
	if err := json.Unmarshal(d.Body, &p); err != nil {
		return err
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return err
	}

	var content string
	switch d.RoutingKey {
	case "booking.created":
		content = fmt.Sprintf("Your booking %s is confirmed pending payment.", p.Reference)
	case "booking.cancelled":
		content = fmt.Sprintf("Your booking %s has been cancelled.", p.Reference)
	case "booking.status_changed":
		content = fmt.Sprintf("Your booking status changed to %s.", p.Status)
	case "message.sent":
		content = "You have a new message."
	default:
		// unknown key bound later than this build; drop it
		return nil
	}

	return w.notifs.Insert(ctx, userID, content)
}
