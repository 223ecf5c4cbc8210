package http

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

type itemDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Destination    string    `json:"destination"`
	Duration       int       `json:"duration"`
	Price          float64   `json:"price"`
	Category       string    `json:"category"`
	AvailableSpots int       `json:"availableSpots"`
	IsAvailable    bool      `json:"isAvailable"`
	ImageURL       string    `json:"imageUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toItemDTO(it domain.Item) itemDTO {
	return itemDTO{
		ID:             it.ID.String(),
		Name:           it.Name,
		Description:    it.Description,
		Destination:    it.Destination,
		Duration:       it.Duration,
		Price:          it.Price,
		Category:       it.Category,
		AvailableSpots: it.AvailableSpots,
		IsAvailable:    it.IsAvailable,
		ImageURL:       it.ImageURL,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}

type itemRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    string  `json:"description"`
	Destination    string  `json:"destination" validate:"required"`
	Duration       int     `json:"duration" validate:"min=1"`
	Price          float64 `json:"price" validate:"min=0"`
	Category       string  `json:"category"`
	AvailableSpots int     `json:"availableSpots" validate:"min=0"`
	ImageURL       string  `json:"imageUrl"`
}

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePage(q)
	sortBy, desc := parseSort(q)

	f := domain.ItemFilter{
		Category:    q.Get("category"),
		Destination: q.Get("destination"),
		IsAvailable: queryBool(q, "isAvailable"),
		MinPrice:    queryFloat(q, "minPrice"),
		MaxPrice:    queryFloat(q, "maxPrice"),
		MinDuration: queryInt(q, "minDuration"),
		MaxDuration: queryInt(q, "maxDuration"),
		Search:      q.Get("search"),
		Page:        page,
		Limit:       limit,
		SortBy:      sortBy,
		SortDesc:    desc,
	}

	items, total, err := h.repo.ListItems(r.Context(), f)
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
		"items": dtos,
		"pagination": map[string]int{
			"currentPage":  pg.CurrentPage,
			"totalPages":   pg.TotalPages,
			"totalItems":   pg.TotalItems,
			"itemsPerPage": limit,
		},
	})
}

// GetItem serves single-item reads through the redis cache.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid item id"))
		return
	}

	if cached, err := h.cache.GetItem(r.Context(), id.String()); err == nil && cached != nil {
		writeJSON(w, http.StatusOK, toItemDTO(*cached))
		return
	}

	item, err := h.repo.GetItem(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.cache.SetItem(r.Context(), item, h.cfg.ItemCacheTTL); err != nil {
		h.logger.Warn("item cache write failed: ", err)
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	item := &domain.Item{
		Name:           req.Name,
		Description:    req.Description,
		Destination:    req.Destination,
		Duration:       req.Duration,
		Price:          req.Price,
		Category:       req.Category,
		AvailableSpots: req.AvailableSpots,
		IsAvailable:    req.AvailableSpots > 0,
		ImageURL:       req.ImageURL,
	}
	if item.Duration < 1 {
		item.Duration = 1
	}
	if item.Category == "" {
		item.Category = "Tour"
	}
	if err := h.repo.CreateItem(r.Context(), item); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*item))
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid item id"))
		return
	}
	var req itemRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	item := &domain.Item{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Destination:    req.Destination,
		Duration:       req.Duration,
		Price:          req.Price,
		Category:       req.Category,
		AvailableSpots: req.AvailableSpots,
		ImageURL:       req.ImageURL,
	}
	if err := h.repo.UpdateItem(r.Context(), item); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.cache.InvalidateItem(r.Context(), id.String())

	updated, err := h.repo.GetItem(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*updated))
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid item id"))
		return
	}
	if err := h.repo.DeleteItem(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.cache.InvalidateItem(r.Context(), id.String())
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted successfully"})
}
