package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/booking"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
	"github.com/wayfarelabs/tour-marketplace/internal/idempotency"
)

type customerInfoDTO struct {
	FullName        string `json:"fullName" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	SpecialRequests string `json:"specialRequests"`
}

type createBookingRequest struct {
	ItemID         string          `json:"itemId" validate:"required"`
	BookingDate    string          `json:"bookingDate" validate:"required"`
	NumberOfPeople int             `json:"numberOfPeople" validate:"required,min=1"`
	CustomerInfo   customerInfoDTO `json:"customerInfo"`
}

type userSummaryDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type itemSummaryDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
}

type bookingDTO struct {
	ID               string          `json:"id"`
	User             *userSummaryDTO `json:"user,omitempty"`
	Item             *itemSummaryDTO `json:"item,omitempty"`
	BookingDate      string          `json:"bookingDate"`
	NumberOfPeople   int             `json:"numberOfPeople"`
	TotalPrice       float64         `json:"totalPrice"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"paymentStatus"`
	CustomerInfo     customerInfoDTO `json:"customerInfo"`
	BookingReference string          `json:"bookingReference"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:             b.ID.String(),
		BookingDate:    b.BookingDate.Format("2006-01-02"),
		NumberOfPeople: b.NumberOfPeople,
		TotalPrice:     b.TotalPrice,
		Status:         string(b.Status),
		PaymentStatus:  string(b.PaymentStatus),
		CustomerInfo: customerInfoDTO{
			FullName:        b.CustomerInfo.FullName,
			Phone:           b.CustomerInfo.Phone,
			Email:           b.CustomerInfo.Email,
			SpecialRequests: b.CustomerInfo.SpecialRequests,
		},
		BookingReference: b.BookingReference,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toBookingDetailDTO(d domain.BookingDetail) bookingDTO {
	dto := toBookingDTO(d.Booking)
	dto.User = &userSummaryDTO{ID: d.User.ID.String(), Username: d.User.Username, Email: d.User.Email}
	dto.Item = &itemSummaryDTO{ID: d.Item.ID.String(), Name: d.Item.Name, Destination: d.Item.Destination, Price: d.Item.Price}
	return dto
}

type bookingListResponse struct {
	Bookings    []bookingDTO `json:"bookings"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	TotalItems  int          `json:"totalItems"`
}

func toBookingListResponse(list []domain.BookingDetail, page domain.Page) bookingListResponse {
	resp := bookingListResponse{
		Bookings:    make([]bookingDTO, 0, len(list)),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		TotalItems:  page.TotalItems,
	}
	for _, d := range list {
		resp.Bookings = append(resp.Bookings, toBookingDetailDTO(d))
	}
	return resp
}

func parseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrap(domain.ErrInvalidInput, "bookingDate must be YYYY-MM-DD or RFC3339")
	}
	return t, nil
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if existing, err := h.idemp.Get(r.Context(), key); err != nil {
		h.writeDomainError(w, err)
		return
	} else if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req createBookingRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid itemId"))
		return
	}
	date, err := parseBookingDate(req.BookingDate)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	user := CurrentUser(r.Context())
	detail, err := h.bookings.Create(r.Context(), user.ID, booking.CreateRequest{
		ItemID:         itemID,
		BookingDate:    date,
		NumberOfPeople: req.NumberOfPeople,
		CustomerInfo: domain.CustomerInfo{
			FullName:        req.CustomerInfo.FullName,
			Phone:           req.CustomerInfo.Phone,
			Email:           req.CustomerInfo.Email,
			SpecialRequests: req.CustomerInfo.SpecialRequests,
		},
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.cache.InvalidateItem(r.Context(), itemID.String())

	body, _ := json.Marshal(toBookingDetailDTO(*detail))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(body)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: body})
}

func bookingFilterFromQuery(r *http.Request) domain.BookingFilter {
	q := r.URL.Query()
	page, limit := parsePage(q)
	sortBy, desc := parseSort(q)
	return domain.BookingFilter{
		Status:        domain.BookingStatus(q.Get("status")),
		PaymentStatus: domain.PaymentStatus(q.Get("paymentStatus")),
		Page:          page,
		Limit:         limit,
		SortBy:        sortBy,
		SortDesc:      desc,
	}
}

func (h *Handlers) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	list, page, err := h.bookings.ListForUser(r.Context(), user.ID, bookingFilterFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingListResponse(list, page))
}

func (h *Handlers) GetAllBookings(w http.ResponseWriter, r *http.Request) {
	list, page, err := h.bookings.ListAll(r.Context(), bookingFilterFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingListResponse(list, page))
}

func (h *Handlers) GetBookingsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid user id"))
		return
	}
	list, page, userInfo, err := h.bookings.ListByUser(r.Context(), userID, bookingFilterFromQuery(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		bookingListResponse
		UserInfo userSummaryDTO `json:"userInfo"`
	}{
		bookingListResponse: toBookingListResponse(list, page),
		UserInfo:            userSummaryDTO{ID: userInfo.ID.String(), Username: userInfo.Username, Email: userInfo.Email},
	})
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid booking id"))
		return
	}
	user := CurrentUser(r.Context())
	detail, err := h.bookings.Get(r.Context(), id, user.ID, user.IsAdmin)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": toBookingDetailDTO(*detail)})
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid booking id"))
		return
	}
	user := CurrentUser(r.Context())
	b, err := h.bookings.Cancel(r.Context(), id, user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.cache.InvalidateItem(r.Context(), b.ItemID.String())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "booking cancelled successfully",
		"booking": toBookingDTO(*b),
	})
}

type updateBookingStatusRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, errors.Wrap(domain.ErrInvalidInput, "invalid booking id"))
		return
	}
	var req updateBookingStatusRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeDomainError(w, err)
		return
	}

	var status *domain.BookingStatus
	if req.Status != nil {
		s := domain.BookingStatus(*req.Status)
		status = &s
	}
	var payment *domain.PaymentStatus
	if req.PaymentStatus != nil {
		p := domain.PaymentStatus(*req.PaymentStatus)
		payment = &p
	}

	detail, err := h.bookings.UpdateStatus(r.Context(), id, status, payment)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.cache.InvalidateItem(r.Context(), detail.ItemID.String())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "booking updated successfully",
		"booking": toBookingDetailDTO(*detail),
	})
}

type statusStatDTO struct {
	Status       string  `json:"status"`
	Count        int     `json:"count"`
	TotalRevenue float64 `json:"totalRevenue"`
}

func (h *Handlers) GetBookingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.bookings.Stats(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	byStatus := make([]statusStatDTO, 0, len(stats.ByStatus))
	for _, st := range stats.ByStatus {
		byStatus = append(byStatus, statusStatDTO{Status: string(st.Status), Count: st.Count, TotalRevenue: st.Revenue})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":         byStatus,
		"totalBookings": stats.TotalBookings,
		"totalRevenue":  stats.TotalRevenue,
	})
}
