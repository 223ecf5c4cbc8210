package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID
	Username            string
	Email               string
	PasswordHash        string
	IsAdmin             bool
	ResetPasswordToken  string
	ResetPasswordExpiry *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Item is a bookable tour or package. AvailableSpots is the remaining
// inventory; IsAvailable is derived from it on every write.
type Item struct {
	ID             uuid.UUID
	Name           string
	Description    string
	Destination    string
	Duration       int
	Price          float64
	Category       string
	AvailableSpots int
	IsAvailable    bool
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Guide struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	Bio             string
	Destinations    []uuid.UUID
	Languages       []string
	ExperienceYears int
	IsAvailable     bool
	ImageURL        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CustomerInfo struct {
	FullName        string
	Phone           string
	Email           string
	SpecialRequests string
}

type Booking struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ItemID           uuid.UUID
	BookingDate      time.Time
	NumberOfPeople   int
	TotalPrice       float64
	Status           BookingStatus
	PaymentStatus    PaymentStatus
	CustomerInfo     CustomerInfo
	BookingReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserSummary and ItemSummary are the populated projections returned
// alongside a booking.
type UserSummary struct {
	ID       uuid.UUID
	Username string
	Email    string
}

type ItemSummary struct {
	ID          uuid.UUID
	Name        string
	Destination string
	Price       float64
}

type BookingDetail struct {
	Booking
	User UserSummary
	Item ItemSummary
}
