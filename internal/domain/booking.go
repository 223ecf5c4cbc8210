package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingReference returns a human-facing identifier of the form
// BK<unix-millis><5 random chars>, distinct from the record id.
func NewBookingReference() string {
	buf := make([]byte, 5)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("BK%d%s", time.Now().UnixMilli(), buf)
}

// NewBooking prices a party of people against an item and returns the
// pending booking. Inventory checks happen in the service, inside the
// transaction that persists it.
func NewBooking(userID uuid.UUID, item *Item, date time.Time, people int, info CustomerInfo) Booking {
	return Booking{
		ID:               uuid.New(),
		UserID:           userID,
		ItemID:           item.ID,
		BookingDate:      date,
		NumberOfPeople:   people,
		TotalPrice:       item.Price * float64(people),
		Status:           BookingPending,
		PaymentStatus:    PaymentPending,
		CustomerInfo:     info,
		BookingReference: NewBookingReference(),
	}
}
