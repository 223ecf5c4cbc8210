package booking

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

// Store is the persistence surface the booking service runs on. InTx
// executes fn against a transaction-bound Store at SERIALIZABLE
// isolation, so the read-check-write spot accounting below is atomic:
// two competing bookings cannot both pass the capacity check.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	// AdjustItemSpots changes available_spots by delta and rederives
	// is_available in the same statement. A negative delta that would
	// take spots below zero returns ErrInvalidState.
	AdjustItemSpots(ctx context.Context, id uuid.UUID, delta int) error

	InsertBooking(ctx context.Context, b *domain.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, b *domain.Booking) error
	GetBookingDetail(ctx context.Context, id uuid.UUID) (*domain.BookingDetail, error)
	ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, int, error)
	BookingStats(ctx context.Context) (*domain.BookingStats, error)

	GetUserSummary(ctx context.Context, id uuid.UUID) (*domain.UserSummary, error)

	// EnqueueEvent appends to the transactional outbox.
	EnqueueEvent(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]interface{}) error
}

// Auditor records booking actions out-of-band. Failures are logged and
// swallowed; the audit trail never blocks a booking.
type Auditor interface {
	LogEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error
}

type Service struct {
	store Store
	audit Auditor
	log   observability.Logger
}

func NewService(store Store, audit Auditor, log observability.Logger) *Service {
	return &Service{store: store, audit: audit, log: log}
}

type CreateRequest struct {
	ItemID         uuid.UUID
	BookingDate    time.Time
	NumberOfPeople int
	CustomerInfo   domain.CustomerInfo
}

// Create books NumberOfPeople spots on an item for a user. The booking
// insert, the spot decrement and the outbox record commit together or
// not at all.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*domain.BookingDetail, error) {
	if req.NumberOfPeople < 1 {
		return nil, errors.Wrap(domain.ErrInvalidInput, "numberOfPeople must be at least 1")
	}

	var b domain.Booking
	err := s.store.InTx(ctx, func(tx Store) error {
		item, err := tx.GetItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable {
			return errors.Wrap(domain.ErrInvalidState, "item is not available for booking")
		}
		if item.AvailableSpots < req.NumberOfPeople {
			observability.SpotConflicts.Inc()
			return errors.Wrapf(domain.ErrInvalidState,
				"only %d spots available, requested %d", item.AvailableSpots, req.NumberOfPeople)
		}

		b = domain.NewBooking(userID, item, req.BookingDate, req.NumberOfPeople, req.CustomerInfo)
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}
		if err := tx.AdjustItemSpots(ctx, item.ID, -req.NumberOfPeople); err != nil {
			return err
		}
		return tx.EnqueueEvent(ctx, "booking", b.ID, "booking.created", map[string]interface{}{
			"booking_id": b.ID.String(),
			"user_id":    userID.String(),
			"item_id":    item.ID.String(),
			"reference":  b.BookingReference,
		})
	})
	if err != nil {
		return nil, err
	}

	observability.BookingsCreated.Inc()
	s.auditEvent(ctx, "booking.created", userID, map[string]interface{}{
		"booking_id": b.ID.String(),
		"reference":  b.BookingReference,
		"total":      b.TotalPrice,
	})

	return s.store.GetBookingDetail(ctx, b.ID)
}

// Cancel flips an owned, non-terminal booking to cancelled and restores
// the item's spots in the same transaction.
func (s *Service) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		b, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != requesterID {
			return errors.Wrap(domain.ErrForbidden, "access denied")
		}
		if b.Status.Terminal() {
			return errors.Wrapf(domain.ErrInvalidState, "cannot cancel booking with status: %s", b.Status)
		}

		b.Status = domain.BookingCancelled
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.AdjustItemSpots(ctx, b.ItemID, b.NumberOfPeople); err != nil {
			return err
		}
		return tx.EnqueueEvent(ctx, "booking", b.ID, "booking.cancelled", map[string]interface{}{
			"booking_id": b.ID.String(),
			"user_id":    b.UserID.String(),
			"reference":  b.BookingReference,
		})
	})
	if err != nil {
		return nil, err
	}

	observability.BookingsCancelled.Inc()
	s.auditEvent(ctx, "booking.cancelled", requesterID, map[string]interface{}{
		"booking_id": b.ID.String(),
		"reference":  b.BookingReference,
	})
	return b, nil
}

// UpdateStatus applies whichever of status and paymentStatus is set.
// A transition into cancelled restores the item's spots, once.
func (s *Service) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status *domain.BookingStatus, payment *domain.PaymentStatus) (*domain.BookingDetail, error) {
	if status == nil && payment == nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, "nothing to update")
	}
	if status != nil && !domain.ValidBookingStatus(*status) {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "invalid status value: %s", *status)
	}
	if payment != nil && !domain.ValidPaymentStatus(*payment) {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "invalid payment status value: %s", *payment)
	}

	var id uuid.UUID
	err := s.store.InTx(ctx, func(tx Store) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		wasCancelled := b.Status == domain.BookingCancelled
		if status != nil {
			b.Status = *status
		}
		if payment != nil {
			b.PaymentStatus = *payment
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if status != nil && *status == domain.BookingCancelled && !wasCancelled {
			if err := tx.AdjustItemSpots(ctx, b.ItemID, b.NumberOfPeople); err != nil {
				return err
			}
		}
		id = b.ID
		return tx.EnqueueEvent(ctx, "booking", b.ID, "booking.status_changed", map[string]interface{}{
			"booking_id":     b.ID.String(),
			"user_id":        b.UserID.String(),
			"status":         string(b.Status),
			"payment_status": string(b.PaymentStatus),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetBookingDetail(ctx, id)
}

// Get returns a populated booking to its owner or an admin.
func (s *Service) Get(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*domain.BookingDetail, error) {
	detail, err := s.store.GetBookingDetail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if detail.UserID != requesterID && !isAdmin {
		return nil, errors.Wrap(domain.ErrForbidden, "access denied")
	}
	return detail, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, f domain.BookingFilter) ([]domain.BookingDetail, domain.Page, error) {
	f.UserID = userID
	return s.list(ctx, f)
}

func (s *Service) ListAll(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, domain.Page, error) {
	f.UserID = uuid.Nil
	return s.list(ctx, f)
}

// ListByUser is the admin view over another user's bookings. The user
// must exist; their summary rides along in the response.
func (s *Service) ListByUser(ctx context.Context, targetUserID uuid.UUID, f domain.BookingFilter) ([]domain.BookingDetail, domain.Page, *domain.UserSummary, error) {
	user, err := s.store.GetUserSummary(ctx, targetUserID)
	if err != nil {
		return nil, domain.Page{}, nil, err
	}
	f.UserID = targetUserID
	list, page, err := s.list(ctx, f)
	if err != nil {
		return nil, domain.Page{}, nil, err
	}
	return list, page, user, nil
}

func (s *Service) list(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, domain.Page, error) {
	if err := normalizeFilter(&f); err != nil {
		return nil, domain.Page{}, err
	}
	list, total, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return list, domain.NewPage(f.Page, f.Limit, total), nil
}

func (s *Service) Stats(ctx context.Context) (*domain.BookingStats, error) {
	return s.store.BookingStats(ctx)
}

func normalizeFilter(f *domain.BookingFilter) error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Status != "" && !domain.ValidBookingStatus(f.Status) {
		return errors.Wrapf(domain.ErrInvalidInput, "invalid status value: %s", f.Status)
	}
	if f.PaymentStatus != "" && !domain.ValidPaymentStatus(f.PaymentStatus) {
		return errors.Wrapf(domain.ErrInvalidInput, "invalid payment status value: %s", f.PaymentStatus)
	}
	if _, ok := domain.BookingSortFields[f.SortBy]; !ok {
		f.SortBy = "createdAt"
		f.SortDesc = true
	}
	return nil
}

func (s *Service) auditEvent(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, action, userID, data); err != nil {
		s.log.WithField("action", action).Error("audit log write failed: ", err)
	}
}
