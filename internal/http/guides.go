package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type guideDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Bio             string    `json:"bio"`
	Destinations    []string  `json:"destinations"`
	Languages       []string  `json:"languages"`
	ExperienceYears int       `json:"experienceYears"`
	IsAvailable     bool      `json:"isAvailable"`
	ImageURL        string    `json:"imageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toGuideDTO(g domain.Guide) guideDTO {
	dests := make([]string, 0, len(g.Destinations))
	for _, d := range g.Destinations {
		dests = append(dests, d.String())
	}
	langs := g.Languages
	if langs == nil {
		langs = []string{}
	}
	return guideDTO{
		ID:              g.ID.String(),
		Name:            g.Name,
		Email:           g.Email,
		Phone:           g.Phone,
		Bio:             g.Bio,
		Destinations:    dests,
		Languages:       langs,
		ExperienceYears: g.ExperienceYears,
		IsAvailable:     g.IsAvailable,
		ImageURL:        g.ImageURL,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

type guideRequest struct {
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           string   `json:"phone"`
	Bio             string   `json:"bio"`
	Destinations    []string `json:"destinations"`
	Languages       []string `json:"languages"`
	ExperienceYears int      `json:"experienceYears" validate:"min=0"`
	IsAvailable     *bool    `json:"isAvailable"`
	ImageURL        string   `json:"imageUrl"`
}

func (req guideRequest) toGuide() (*domain.Guide, error) {
	dests := make([]uuid.UUID, 0, len(req.Destinations))
	for _, d := range req.Destinations {
		id, err := uuid.Parse(d)
		if err != nil {
			return nil, errors.Wrap(domain.ErrInvalidInput, "invalid destination item id")
		}
		dests = append(dests, id)
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return &domain.Guide{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Bio:             req.Bio,
		Destinations:    dests,
		Languages:       req.Languages,
		ExperienceYears: req.ExperienceYears,
		IsAvailable:     available,
		ImageURL:        req.ImageURL,
	}, nil
}

func (h *Handlers) ListGuides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePage(q)

	f := domain.GuideFilter{
		Language:    q.Get("language"),
		IsAvailable: queryBool(q, "isAvailable"),
		Page:        page,
		Limit:       limit,
	}
	if dest := q.Get("destination"); dest != "" {
		id, err := uuid.Parse(dest)
		if err != nil {
			h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid destination item id"))
			return
		}
		f.Destination = id
	}

	guides, total, err := h.repo.ListGuides(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	pg := domain.NewPage(page, limit, total)

	dtos := make([]guideDTO, 0, len(guides))
	for _, g := range guides {
		dtos = append(dtos, toGuideDTO(g))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guides":      dtos,
		"totalPages":  pg.TotalPages,
		"currentPage": pg.CurrentPage,
		"totalItems":  pg.TotalItems,
	})
}

func (h *Handlers) GetGuide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid guide id"))
		return
	}
	g, err := h.repo.GetGuide(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGuideDTO(*g))
}

func (h *Handlers) CreateGuide(w http.ResponseWriter, r *http.Request) {
	var req guideRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	g, err := req.toGuide()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.repo.CreateGuide(r.Context(), g); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			h.writeDomainError(w, errors.Wrap(domain.ErrConflict, "guide email already registered"))
			return
		}
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGuideDTO(*g))
}

func (h *Handlers) UpdateGuide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid guide id"))
		return
	}
	var req guideRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	g, err := req.toGuide()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	g.ID = id
	if err := h.repo.UpdateGuide(r.Context(), g); err != nil {
		h.writeDomainError(w, err)
		return
	}
	updated, err := h.repo.GetGuide(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGuideDTO(*updated))
}

func (h *Handlers) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid guide id"))
		return
	}
	if err := h.repo.DeleteGuide(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "guide deleted successfully"})
}
