package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePage(q)

	f := domain.UserFilter{
		Search:  q.Get("search"),
		IsAdmin: queryBool(q, "isAdmin"),
		Page:    page,
		Limit:   limit,
	}
	users, total, err := h.repo.ListUsers(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	pg := domain.NewPage(page, limit, total)

	dtos := make([]userDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":       dtos,
		"totalPages":  pg.TotalPages,
		"currentPage": pg.CurrentPage,
		"totalItems":  pg.TotalItems,
	})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid user id"))
		return
	}
	u, err := h.repo.GetUser(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*u))
}

func (h *Handlers) LikeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid item id"))
		return
	}
	// Liking a missing item must 404, not silently insert an orphan.
	if _, err := h.repo.GetItem(r.Context(), itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	user := CurrentUser(r.Context())
	if err := h.repo.LikeItem(r.Context(), user.ID, itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item added to likes"})
}

func (h *Handlers) UnlikeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid item id"))
		return
	}
	user := CurrentUser(r.Context())
	if err := h.repo.UnlikeItem(r.Context(), user.ID, itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from likes"})
}

func (h *Handlers) ListLikedItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePage(q)

	f := domain.LikedItemFilter{
		Search:   q.Get("search"),
		MinPrice: queryFloat(q, "minPrice"),
		MaxPrice: queryFloat(q, "maxPrice"),
		Page:     page,
		Limit:    limit,
	}
	user := CurrentUser(r.Context())
	items, total, err := h.repo.ListLikedItems(r.Context(), user.ID, f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	pg := domain.NewPage(page, limit, total)

	dtos := make([]itemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toItemDTO(it))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       dtos,
		"totalPages":  pg.TotalPages,
		"currentPage": pg.CurrentPage,
		"totalItems":  pg.TotalItems,
	})
}
