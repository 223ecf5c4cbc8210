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

const itemColumns = `id, name, description, destination, duration, price, category, available_spots, is_available, image_url, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Destination, &it.Duration,
		&it.Price, &it.Category, &it.AvailableSpots, &it.IsAvailable, &it.ImageURL,
		&it.CreatedAt, &it.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repository) CreateItem(ctx context.Context, it *domain.Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO items (id, name, description, destination, duration, price, category, available_spots, is_available, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8 > 0, $9)
		RETURNING created_at, updated_at
	`, it.ID, it.Name, it.Description, it.Destination, it.Duration, it.Price, it.Category,
		it.AvailableSpots, it.ImageURL).Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
}

func (r *Repository) UpdateItem(ctx context.Context, it *domain.Item) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE items
		SET name = $2, description = $3, destination = $4, duration = $5, price = $6,
		    category = $7, available_spots = $8, is_available = $8 > 0, image_url = $9,
		    updated_at = now()
		WHERE id = $1
	`, it.ID, it.Name, it.Description, it.Destination, it.Duration, it.Price, it.Category,
		it.AvailableSpots, it.ImageURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustItemSpots applies the inventory delta and rederives
// is_available in the same statement, so the availability flag can
// never disagree with the spot count. A decrement past zero matches no
// row and reports ErrInvalidState.
func (r *Repository) AdjustItemSpots(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE items
		SET available_spots = available_spots + $2,
		    is_available    = available_spots + $2 > 0,
		    updated_at      = now()
		WHERE id = $1 AND available_spots + $2 >= 0
	`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, f domain.ItemFilter) ([]domain.Item, int, error) {
	where, args := itemWhere(f)

	sortCol, ok := domain.ItemSortFields[f.SortBy]
	if !ok {
		sortCol = "created_at"
		f.SortDesc = true
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM items %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		itemColumns, where, sortCol, dir, f.Limit, (f.Page-1)*f.Limit)
	countSQL := `SELECT COUNT(*) FROM items ` + where

	var items []domain.Item
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.Query(gctx, listSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var it domain.Item
			if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Destination, &it.Duration,
				&it.Price, &it.Category, &it.AvailableSpots, &it.IsAvailable, &it.ImageURL,
				&it.CreatedAt, &it.UpdatedAt); err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func itemWhere(f domain.ItemFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Destination != "" {
		add("destination = $%d", f.Destination)
	}
	if f.IsAvailable != nil {
		add("is_available = $%d", *f.IsAvailable)
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.MinDuration != nil {
		add("duration >= $%d", *f.MinDuration)
	}
	if f.MaxDuration != nil {
		add("duration <= $%d", *f.MaxDuration)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
