package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type categoryDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCategoryDTO(c domain.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		dtos = append(dtos, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": dtos})
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid category id"))
		return
	}
	c, err := h.repo.GetCategory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*c))
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	c := &domain.Category{Name: req.Name, Description: req.Description, ImageURL: req.ImageURL}
	if err := h.repo.CreateCategory(r.Context(), c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			h.writeDomainError(w, errors.Wrap(domain.ErrConflict, "category already exists"))
			return
		}
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(*c))
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid category id"))
		return
	}
	var req categoryRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	c := &domain.Category{ID: id, Name: req.Name, Description: req.Description, ImageURL: req.ImageURL}
	if err := h.repo.UpdateCategory(r.Context(), c); err != nil {
		h.writeDomainError(w, err)
		return
	}
	updated, err := h.repo.GetCategory(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(*updated))
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid category id"))
		return
	}
	if err := h.repo.DeleteCategory(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted successfully"})
}
