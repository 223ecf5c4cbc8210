package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mongoadapter "github.com/wayfarelabs/tour-marketplace/internal/adapters/mongo"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type notificationDTO struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationDTO(n mongoadapter.NotificationDoc) notificationDTO {
	return notificationDTO{
		ID:        n.ID.String(),
		Content:   n.Content,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePage(r.URL.Query())

	user := CurrentUser(r.Context())
	docs, total, err := h.notifs.List(r.Context(), user.ID, page, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	pg := domain.NewPage(page, limit, total)

	dtos := make([]notificationDTO, 0, len(docs))
	for _, d := range docs {
		dtos = append(dtos, toNotificationDTO(d))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": dtos,
		"totalPages":    pg.TotalPages,
		"currentPage":   pg.CurrentPage,
		"totalItems":    pg.TotalItems,
	})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid notification id"))
		return
	}
	user := CurrentUser(r.Context())
	doc, err := h.notifs.MarkRead(r.Context(), user.ID, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTO(*doc))
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid notification id"))
		return
	}
	user := CurrentUser(r.Context())
	if err := h.notifs.Delete(r.Context(), user.ID, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}
