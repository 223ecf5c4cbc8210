package domain

import "github.com/google/uuid"

// Page is the envelope every list endpoint returns.
type Page struct {
	TotalPages  int
	CurrentPage int
	TotalItems  int
}

func NewPage(page, limit, total int) Page {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return Page{TotalPages: pages, CurrentPage: page, TotalItems: total}
}

// BookingFilter narrows booking list queries. Zero values mean "no filter".
type BookingFilter struct {
	UserID        uuid.UUID
	Status        BookingStatus
	PaymentStatus PaymentStatus
	Page          int
	Limit         int
	SortBy        string
	SortDesc      bool
}

// Sortable booking columns. Anything else falls back to createdAt.
var BookingSortFields = map[string]string{
	"createdAt":      "created_at",
	"bookingDate":    "booking_date",
	"totalPrice":     "total_price",
	"numberOfPeople": "number_of_people",
}

type ItemFilter struct {
	Category    string
	Destination string
	IsAvailable *bool
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	Search      string
	Page        int
	Limit       int
	SortBy      string
	SortDesc    bool
}

var ItemSortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"duration":  "duration",
	"name":      "name",
}

type UserFilter struct {
	Search  string
	IsAdmin *bool
	Page    int
	Limit   int
}

type GuideFilter struct {
	Destination uuid.UUID
	Language    string
	IsAvailable *bool
	Page        int
	Limit       int
}

type LikedItemFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Limit    int
}

// StatusStat is one row of the per-status booking aggregate.
type StatusStat struct {
	Status  BookingStatus
	Count   int
	Revenue float64
}

type BookingStats struct {
	ByStatus      []StatusStat
	TotalBookings int
	TotalRevenue  float64 // summed totalPrice where paymentStatus = paid
}
