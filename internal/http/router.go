package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfarelabs/tour-marketplace/internal/observability"
	"github.com/wayfarelabs/tour-marketplace/internal/ratelimit"
)

func NewRouter(h *Handlers, rl *ratelimit.RateLimiter, logger observability.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password/{token}", h.ResetPassword)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Get("/{id}", h.GetItem)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware, h.AdminOnly)
				r.Post("/", h.CreateItem)
				r.Put("/{id}", h.UpdateItem)
				r.Delete("/{id}", h.DeleteItem)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/{id}", h.GetCategory)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware, h.AdminOnly)
				r.Post("/", h.CreateCategory)
				r.Put("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})

		r.Route("/guides", func(r chi.Router) {
			r.Get("/", h.ListGuides)
			r.Get("/{id}", h.GetGuide)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware, h.AdminOnly)
				r.Post("/", h.CreateGuide)
				r.Put("/{id}", h.UpdateGuide)
				r.Delete("/{id}", h.DeleteGuide)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.With(IdempotencyRequired).Post("/", h.CreateBooking)
			r.Get("/my-bookings", h.GetMyBookings)
			r.Get("/{id}", h.GetBooking)
			r.Patch("/{id}/cancel", h.CancelBooking)

			r.Group(func(r chi.Router) {
				r.Use(h.AdminOnly)
				r.Get("/", h.GetAllBookings)
				r.Get("/user/{userId}", h.GetBookingsByUser)
				r.Patch("/{id}/status", h.UpdateBookingStatus)
				r.Get("/stats/overview", h.GetBookingStats)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/me", h.GetMe)
			r.Get("/likes", h.ListLikedItems)
			r.Post("/likes/{itemId}", h.LikeItem)
			r.Delete("/likes/{itemId}", h.UnlikeItem)

			r.Group(func(r chi.Router) {
				r.Use(h.AdminOnly)
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
			})
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/", h.SendMessage)
			r.Get("/conversations", h.GetConversations)
			r.Get("/conversations/{guideId}", h.GetConversation)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/", h.ListNotifications)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})
	})

	return r
}
