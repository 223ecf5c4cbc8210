package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/wayfarelabs/tour-marketplace/internal/adapters/crdb"
	mongoadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/mongo"
	redisadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/redis"
	"github.com/wayfarelabs/tour-marketplace/internal/auth"
	"github.com/wayfarelabs/tour-marketplace/internal/booking"
	"github.com/wayfarelabs/tour-marketplace/internal/config"
	"github.com/wayfarelabs/tour-marketplace/internal/idempotency"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

type Handlers struct {
	cfg      *config.Config
	repo     *crdb.Repository
	bookings *booking.Service
	cache    *redisadapter.Cache
	idemp    *idempotency.Idempotency
	messages *mongoadapter.MessageRepository
	notifs   *mongoadapter.NotificationRepository
	tokens   *auth.Manager
	validate *validator.Validate
	logger   observability.Logger
}

func NewHandlers(
	cfg *config.Config,
	repo *crdb.Repository,
	bookings *booking.Service,
	cache *redisadapter.Cache,
	idemp *idempotency.Idempotency,
	messages *mongoadapter.MessageRepository,
	notifs *mongoadapter.NotificationRepository,
	tokens *auth.Manager,
	logger observability.Logger,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		repo:     repo,
		bookings: bookings,
		cache:    cache,
		idemp:    idemp,
		messages: messages,
		notifs:   notifs,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
