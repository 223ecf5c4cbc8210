package crdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

const bookingColumns = `id, user_id, item_id, booking_date, number_of_people, total_price, status, payment_status,
	customer_name, customer_phone, customer_email, special_requests, booking_reference, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ItemID, &b.BookingDate, &b.NumberOfPeople, &b.TotalPrice,
		&b.Status, &b.PaymentStatus,
		&b.CustomerInfo.FullName, &b.CustomerInfo.Phone, &b.CustomerInfo.Email, &b.CustomerInfo.SpecialRequests,
		&b.BookingReference, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, item_id, booking_date, number_of_people, total_price, status, payment_status,
			customer_name, customer_phone, customer_email, special_requests, booking_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, b.ID, b.UserID, b.ItemID, b.BookingDate, b.NumberOfPeople, b.TotalPrice, b.Status, b.PaymentStatus,
		b.CustomerInfo.FullName, b.CustomerInfo.Phone, b.CustomerInfo.Email, b.CustomerInfo.SpecialRequests,
		b.BookingReference).Scan(&b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *Repository) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *Repository) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET status = $2, payment_status = $3, updated_at = now() WHERE id = $1
	`, b.ID, b.Status, b.PaymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const bookingDetailSelect = `
	SELECT b.id, b.user_id, b.item_id, b.booking_date, b.number_of_people, b.total_price, b.status, b.payment_status,
		b.customer_name, b.customer_phone, b.customer_email, b.special_requests, b.booking_reference,
		b.created_at, b.updated_at,
		u.username, u.email,
		i.name, i.destination, i.price
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN items i ON i.id = b.item_id`

func scanBookingDetail(row pgx.Row) (*domain.BookingDetail, error) {
	var d domain.BookingDetail
	err := row.Scan(&d.ID, &d.UserID, &d.ItemID, &d.BookingDate, &d.NumberOfPeople, &d.TotalPrice,
		&d.Status, &d.PaymentStatus,
		&d.CustomerInfo.FullName, &d.CustomerInfo.Phone, &d.CustomerInfo.Email, &d.CustomerInfo.SpecialRequests,
		&d.BookingReference, &d.CreatedAt, &d.UpdatedAt,
		&d.User.Username, &d.User.Email,
		&d.Item.Name, &d.Item.Destination, &d.Item.Price)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.User.ID = d.UserID
	d.Item.ID = d.ItemID
	return &d, nil
}

func (r *Repository) GetBookingDetail(ctx context.Context, id uuid.UUID) (*domain.BookingDetail, error) {
	return scanBookingDetail(r.db.QueryRow(ctx, bookingDetailSelect+` WHERE b.id = $1`, id))
}

func (r *Repository) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.BookingDetail, int, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != uuid.Nil {
		add("b.user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("b.status = $%d", f.Status)
	}
	if f.PaymentStatus != "" {
		add("b.payment_status = $%d", f.PaymentStatus)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	sortCol, ok := domain.BookingSortFields[f.SortBy]
	if !ok {
		sortCol = "created_at"
		f.SortDesc = true
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	listSQL := fmt.Sprintf(`%s %s ORDER BY b.%s %s LIMIT %d OFFSET %d`,
		bookingDetailSelect, where, sortCol, dir, f.Limit, (f.Page-1)*f.Limit)
	countSQL := `SELECT COUNT(*) FROM bookings b ` + where

	var list []domain.BookingDetail
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.Query(gctx, listSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var d domain.BookingDetail
			if err := rows.Scan(&d.ID, &d.UserID, &d.ItemID, &d.BookingDate, &d.NumberOfPeople, &d.TotalPrice,
				&d.Status, &d.PaymentStatus,
				&d.CustomerInfo.FullName, &d.CustomerInfo.Phone, &d.CustomerInfo.Email, &d.CustomerInfo.SpecialRequests,
				&d.BookingReference, &d.CreatedAt, &d.UpdatedAt,
				&d.User.Username, &d.User.Email,
				&d.Item.Name, &d.Item.Destination, &d.Item.Price); err != nil {
				return err
			}
			d.User.ID = d.UserID
			d.Item.ID = d.ItemID
			list = append(list, d)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// BookingStats aggregates count and revenue per status, plus the
// paid-only revenue total.
func (r *Repository) BookingStats(ctx context.Context) (*domain.BookingStats, error) {
	stats := &domain.BookingStats{}

	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_price), 0)
		FROM bookings GROUP BY status ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st domain.StatusStat
		if err := rows.Scan(&st.Status, &st.Count, &st.Revenue); err != nil {
			return nil, err
		}
		stats.ByStatus = append(stats.ByStatus, st)
		stats.TotalBookings += st.Count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE payment_status = 'paid'
	`).Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
