package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
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

const schema = `
	CREATE DATABASE IF NOT EXISTS marketplace;
	CREATE TABLE IF NOT EXISTS marketplace.users (
		id UUID PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin BOOL NOT NULL DEFAULT false,
		reset_token TEXT,
		reset_token_expires TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS marketplace.items (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL,
		duration INT NOT NULL DEFAULT 1,
		price FLOAT8 NOT NULL,
		category TEXT NOT NULL DEFAULT 'Tour',
		available_spots INT NOT NULL,
		is_available BOOL NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS marketplace.categories (
		id UUID PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS marketplace.guides (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		destinations UUID[] NOT NULL DEFAULT '{}',
		languages TEXT[] NOT NULL DEFAULT '{}',
		experience_years INT NOT NULL DEFAULT 0,
		is_available BOOL NOT NULL DEFAULT true,
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS marketplace.bookings (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		item_id UUID NOT NULL,
		booking_date TIMESTAMPTZ NOT NULL,
		number_of_people INT NOT NULL,
		total_price FLOAT8 NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'completed')),
		payment_status TEXT NOT NULL CHECK (payment_status IN ('pending', 'paid', 'failed', 'refunded')),
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		special_requests TEXT NOT NULL DEFAULT '',
		booking_reference TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS marketplace.liked_items (
		user_id UUID NOT NULL,
		item_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, item_id)
	);
	CREATE TABLE IF NOT EXISTS marketplace.outbox (
		id UUID PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		dedupe_key TEXT NOT NULL
	);
`

func TestIntegration_BookingLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	crdbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp", "8080/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer crdbContainer.Terminate(ctx)

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForExec([]string{"mongosh", "--eval", "db.runCommand('ping').ok"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer mongoContainer.Terminate(ctx)

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer redisContainer.Terminate(ctx)

	rabbitContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitContainer.Terminate(ctx)

	crdbDSN, err := crdbContainer.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}
	mongoHost, _ := mongoContainer.Host(ctx)
	mongoPort, _ := mongoContainer.MappedPort(ctx, "27017")
	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")
	rabbitHost, _ := rabbitContainer.Host(ctx)
	rabbitPort, _ := rabbitContainer.MappedPort(ctx, "5672")

	cfg := &config.Config{
		Addr:           ":8085",
		PostgresDSN:    crdbDSN + "/marketplace?sslmode=disable",
		MongoURI:       "mongodb://" + mongoHost + ":" + mongoPort.Port(),
		MongoDB:        "marketplace",
		RedisAddr:      redisHost + ":" + redisPort.Port(),
		RabbitURL:      "amqp://guest:guest@" + rabbitHost + ":" + rabbitPort.Port() + "/",
		JWTSecret:      "integration-test-secret",
		TokenTTL:       time.Hour,
		ResetTokenTTL:  time.Hour,
		IdempotencyTTL: time.Hour,
		ItemCacheTTL:   time.Minute,
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatal(err)
	}
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDB)
	logger := observability.NewLogger()
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)
	messages := mongoadapter.NewMessageRepository(mongoDB, logger)
	notifs := mongoadapter.NewNotificationRepository(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cache := redisadapter.NewCache(redisClient)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), cfg.IdempotencyTTL)
	rl := ratelimit.NewRateLimiter(cache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}

	bookings := booking.NewService(repo, audit, logger)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	handlers := httphandler.NewHandlers(cfg, repo, bookings, cache, idemp, messages, notifs, tokens, logger)
	r := httphandler.NewRouter(handlers, rl, logger)

	outboxCtx, cancelOutbox := context.WithCancel(ctx)
	defer cancelOutbox()
	go outbox.NewPublisher(repo, rabbitPub, logger).Run(outboxCtx)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go srv.ListenAndServe()
	defer srv.Shutdown(ctx)
	time.Sleep(200 * time.Millisecond)

	base := "http://localhost:8085"

	post := func(path, token, idempKey string, body interface{}) *http.Response {
		t.Helper()
		data, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", base+path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if idempKey != "" {
			req.Header.Set("Idempotency-Key", idempKey)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Register the admin and promote directly; registration never
	// grants admin over HTTP.
	resp := post("/api/auth/register", "", "", map[string]string{
		"username": "admin", "email": "admin@example.com", "password": "adminpassword1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin register failed: %d", resp.StatusCode)
	}
	if _, err := pool.Exec(ctx, `UPDATE users SET is_admin = true WHERE email = 'admin@example.com'`); err != nil {
		t.Fatal(err)
	}

	resp = post("/api/auth/login", "", "", map[string]string{
		"email": "admin@example.com", "password": "adminpassword1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login failed: %d", resp.StatusCode)
	}
	var adminLogin struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&adminLogin)

	resp = post("/api/items", adminLogin.Token, "", map[string]interface{}{
		"name": "Reef Dive", "destination": "Cairns", "duration": 2,
		"price": 150.0, "availableSpots": 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create item failed: %d", resp.StatusCode)
	}
	var item struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&item)

	resp = post("/api/auth/register", "", "", map[string]string{
		"username": "traveller", "email": "trav@example.com", "password": "travpassword1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}
	resp = post("/api/auth/login", "", "", map[string]string{
		"email": "trav@example.com", "password": "travpassword1",
	})
	var userLogin struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&userLogin)

	bookingReq := map[string]interface{}{
		"itemId":         item.ID,
		"bookingDate":    "2026-10-01",
		"numberOfPeople": 5,
		"customerInfo": map[string]string{
			"fullName": "Trav Eller", "phone": "+1", "email": "trav@example.com",
		},
	}
	resp = post("/api/bookings", userLogin.Token, uuid.NewString(), bookingReq)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking failed: %d", resp.StatusCode)
	}
	var created struct {
		ID         string  `json:"id"`
		TotalPrice float64 `json:"totalPrice"`
		Status     string  `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	if created.TotalPrice != 750 || created.Status != "pending" {
		t.Errorf("unexpected booking: %+v", created)
	}

	// the item is now sold out
	getItem, err := http.Get(base + "/api/items/" + item.ID)
	if err != nil {
		t.Fatal(err)
	}
	var itemState struct {
		AvailableSpots int  `json:"availableSpots"`
		IsAvailable    bool `json:"isAvailable"`
	}
	json.NewDecoder(getItem.Body).Decode(&itemState)
	if itemState.AvailableSpots != 0 || itemState.IsAvailable {
		t.Errorf("expected sold-out item, got %+v", itemState)
	}

	// a second booking must be rejected
	resp = post("/api/bookings", userLogin.Token, uuid.NewString(), bookingReq)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on sold-out item, got %d", resp.StatusCode)
	}

	// cancel restores the spots
	req, _ := http.NewRequest("PATCH", base+"/api/bookings/"+created.ID+"/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+userLogin.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel failed: %v, status %d", err, resp.StatusCode)
	}

	getItem, err = http.Get(base + "/api/items/" + item.ID)
	if err != nil {
		t.Fatal(err)
	}
	json.NewDecoder(getItem.Body).Decode(&itemState)
	if itemState.AvailableSpots != 5 || !itemState.IsAvailable {
		t.Errorf("expected restored item, got %+v", itemState)
	}

	// admin stats see the cancelled booking
	req, _ = http.NewRequest("GET", base+"/api/bookings/stats/overview", nil)
	req.Header.Set("Authorization", "Bearer "+adminLogin.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("stats failed: %v, status %d", err, resp.StatusCode)
	}
	var stats struct {
		TotalBookings int `json:"totalBookings"`
	}
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.TotalBookings != 1 {
		t.Errorf("expected 1 booking in stats, got %d", stats.TotalBookings)
	}
}
