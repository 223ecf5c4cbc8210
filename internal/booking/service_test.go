package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelabs/tour-marketplace/internal/booking"
	"github.com/wayfarelabs/tour-marketplace/internal/domain"
	"github.com/wayfarelabs/tour-marketplace/internal/observability"
)

// fakeStore keeps everything in maps. InTx runs the callback directly;
// isolation is the real store's concern, not the service's.
type fakeStore struct {
	items    map[uuid.UUID]*domain.Item
	bookings map[uuid.UUID]*domain.Booking
	users    map[uuid.UUID]*domain.UserSummary
	events   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:    make(map[uuid.UUID]*domain.Item),
		bookings: make(map[uuid.UUID]*domain.Booking),
		users:    make(map[uuid.UUID]*domain.UserSummary),
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(booking.Store) error) error {
	return fn(f)
}

func (f *fakeStore) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeStore) AdjustItemSpots(ctx context.Context, id uuid.UUID, delta int) error {
	item, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if item.AvailableSpots+delta < 0 {
		return domain.ErrInvalidState
	}
	item.AvailableSpots += delta
	item.IsAvailable = item.AvailableSpots > 0
	return nil
}

func (f *fakeStore) InsertBooking(ctx context.Context, b *domain.Booking) error {
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	if _, ok := f.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) GetBookingDetail(ctx context.Context, id uuid.UUID) (*domain.BookingDetail, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d := domain.BookingDetail{Booking: *b}
	if u, ok := f.users[b.UserID]; ok {
		d.User = *u
	}
	if it, ok := f.items[b.ItemID]; ok {
		d.Item = domain.ItemSummary{ID: it.ID, Name: it.Name, Destination: it.Destination, Price: it.Price}
	}
	return &d, nil
}

func (f *fakeStore) ListBookings(ctx context.Context, flt domain.BookingFilter) ([]domain.BookingDetail, int, error) {
	var out []domain.BookingDetail
	for _, b := range f.bookings {
		if flt.UserID != uuid.Nil && b.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && b.Status != flt.Status {
			continue
		}
		d, _ := f.GetBookingDetail(ctx, b.ID)
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeStore) BookingStats(ctx context.Context) (*domain.BookingStats, error) {
	stats := &domain.BookingStats{}
	byStatus := make(map[domain.BookingStatus]*domain.StatusStat)
	for _, b := range f.bookings {
		stats.TotalBookings++
		st, ok := byStatus[b.Status]
		if !ok {
			st = &domain.StatusStat{Status: b.Status}
			byStatus[b.Status] = st
		}
		st.Count++
		st.Revenue += b.TotalPrice
		if b.PaymentStatus == domain.PaymentPaid {
			stats.TotalRevenue += b.TotalPrice
		}
	}
	for _, st := range byStatus {
		stats.ByStatus = append(stats.ByStatus, *st)
	}
	return stats, nil
}

func (f *fakeStore) GetUserSummary(ctx context.Context, id uuid.UUID) (*domain.UserSummary, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) EnqueueEvent(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func newTestService(store *fakeStore) *booking.Service {
	return booking.NewService(store, nil, observability.NewLogger())
}

func seedItem(store *fakeStore, spots int, price float64) *domain.Item {
	item := &domain.Item{
		ID:             uuid.New(),
		Name:           "Reef Dive",
		Destination:    "Cairns",
		Price:          price,
		AvailableSpots: spots,
		IsAvailable:    spots > 0,
	}
	store.items[item.ID] = item
	return item
}

func seedUser(store *fakeStore) uuid.UUID {
	id := uuid.New()
	store.users[id] = &domain.UserSummary{ID: id, Username: "trav", Email: "trav@example.com"}
	return id
}

func createReq(itemID uuid.UUID, people int) booking.CreateRequest {
	return booking.CreateRequest{
		ItemID:         itemID,
		BookingDate:    time.Now().Add(48 * time.Hour),
		NumberOfPeople: people,
		CustomerInfo:   domain.CustomerInfo{FullName: "Trav Eller", Phone: "+1", Email: "trav@example.com"},
	}
}

func TestService_Create(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 10, 200)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 3))
	require.NoError(t, err)

	assert.Equal(t, 600.0, detail.TotalPrice)
	assert.Equal(t, domain.BookingPending, detail.Status)
	assert.Equal(t, domain.PaymentPending, detail.PaymentStatus)
	assert.Equal(t, 7, store.items[item.ID].AvailableSpots)
	assert.True(t, store.items[item.ID].IsAvailable)
	assert.Equal(t, []string{"booking.created"}, store.events)
	assert.Equal(t, "trav", detail.User.Username)
	assert.Equal(t, "Reef Dive", detail.Item.Name)
}

func TestService_Create_ExhaustsInventory(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	_, err := svc.Create(context.Background(), userID, createReq(item.ID, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, store.items[item.ID].AvailableSpots)
	assert.False(t, store.items[item.ID].IsAvailable)

	_, err = svc.Create(context.Background(), userID, createReq(item.ID, 1))
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "not available")
}

func TestService_Create_InsufficientSpots(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 2, 100)
	userID := seedUser(store)

	_, err := svc.Create(context.Background(), userID, createReq(item.ID, 3))
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "only 2 spots available, requested 3")
	// nothing committed
	assert.Equal(t, 2, store.items[item.ID].AvailableSpots)
	assert.Empty(t, store.bookings)
}

func TestService_Create_ItemMissing(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	userID := seedUser(store)

	_, err := svc.Create(context.Background(), userID, createReq(uuid.New(), 1))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Create_InvalidPeople(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	_, err := svc.Create(context.Background(), userID, createReq(item.ID, 0))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_Cancel(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 5))
	require.NoError(t, err)
	assert.False(t, store.items[item.ID].IsAvailable)

	b, err := svc.Cancel(context.Background(), detail.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	assert.Equal(t, 5, store.items[item.ID].AvailableSpots)
	assert.True(t, store.items[item.ID].IsAvailable)
	assert.Equal(t, []string{"booking.created", "booking.cancelled"}, store.events)
}

func TestService_Cancel_NotOwner(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 2))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), detail.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrForbidden)
	// spots stay decremented
	assert.Equal(t, 3, store.items[item.ID].AvailableSpots)
}

func TestService_Cancel_Terminal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 2))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), detail.ID, userID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), detail.ID, userID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "cannot cancel booking with status: cancelled")
	// no double restore
	assert.Equal(t, 5, store.items[item.ID].AvailableSpots)
}

func TestService_UpdateStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 2))
	require.NoError(t, err)

	confirmed := domain.BookingConfirmed
	paid := domain.PaymentPaid
	updated, err := svc.UpdateStatus(context.Background(), detail.ID, &confirmed, &paid)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, updated.Status)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, 3, store.items[item.ID].AvailableSpots)
}

func TestService_UpdateStatus_CancelRestoresOnce(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 2))
	require.NoError(t, err)

	cancelled := domain.BookingCancelled
	_, err = svc.UpdateStatus(context.Background(), detail.ID, &cancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, store.items[item.ID].AvailableSpots)

	// a second cancel update must not restore again
	_, err = svc.UpdateStatus(context.Background(), detail.ID, &cancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, store.items[item.ID].AvailableSpots)
}

func TestService_UpdateStatus_Invalid(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	bogus := domain.BookingStatus("shipped")
	_, err := svc.UpdateStatus(context.Background(), uuid.New(), &bogus, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), nil, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_Get_Access(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 5, 100)
	userID := seedUser(store)

	detail, err := svc.Create(context.Background(), userID, createReq(item.ID, 1))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), detail.ID, userID, false)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), detail.ID, uuid.New(), true)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), detail.ID, uuid.New(), false)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_ListForUser_FiltersAndPages(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 100, 50)
	userID := seedUser(store)
	otherID := seedUser(store)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), userID, createReq(item.ID, 1))
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), otherID, createReq(item.ID, 1))
	require.NoError(t, err)

	list, page, err := svc.ListForUser(context.Background(), userID, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalItems)

	_, _, err = svc.ListForUser(context.Background(), userID, domain.BookingFilter{Status: "shipped"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestService_ListByUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 10, 50)
	userID := seedUser(store)

	_, err := svc.Create(context.Background(), userID, createReq(item.ID, 1))
	require.NoError(t, err)

	list, _, user, err := svc.ListByUser(context.Background(), userID, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "trav", user.Username)

	_, _, _, err = svc.ListByUser(context.Background(), uuid.New(), domain.BookingFilter{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	item := seedItem(store, 10, 100)
	userID := seedUser(store)

	d1, err := svc.Create(context.Background(), userID, createReq(item.ID, 2))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), userID, createReq(item.ID, 1))
	require.NoError(t, err)

	confirmed := domain.BookingConfirmed
	paid := domain.PaymentPaid
	_, err = svc.UpdateStatus(context.Background(), d1.ID, &confirmed, &paid)
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Equal(t, 200.0, stats.TotalRevenue)
}
