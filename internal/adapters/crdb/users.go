package crdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarelabs/tour-marketplace/internal/domain"
)

const userColumns = `id, username, email, password_hash, is_admin, reset_token, reset_token_expires, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var token *string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin,
		&token, &u.ResetPasswordExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if token != nil {
		u.ResetPasswordToken = *token
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) GetUserSummary(ctx context.Context, id uuid.UUID) (*domain.UserSummary, error) {
	var s domain.UserSummary
	err := r.db.QueryRow(ctx, `SELECT id, username, email FROM users WHERE id = $1`, id).
		Scan(&s.ID, &s.Username, &s.Email)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expires = $3, updated_at = now() WHERE id = $1
	`, userID, token, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetPassword swaps the password for the user holding a live reset
// token and clears the token in the same statement.
func (r *Repository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires = NULL, updated_at = now()
		WHERE reset_token = $1 AND reset_token_expires > $3
	`, token, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	var conds []string
	var args []any
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(username ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if f.IsAdmin != nil {
		args = append(args, *f.IsAdmin)
		conds = append(conds, fmt.Sprintf("is_admin = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, where, f.Limit, (f.Page-1)*f.Limit)
	countSQL := `SELECT COUNT(*) FROM users ` + where

	var users []domain.User
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.Query(gctx, listSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var u domain.User
			var token *string
			if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin,
				&token, &u.ResetPasswordExpiry, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return err
			}
			if token != nil {
				u.ResetPasswordToken = *token
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *Repository) LikeItem(ctx context.Context, userID, itemID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO liked_items (user_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, userID, itemID)
	return err
}

func (r *Repository) UnlikeItem(ctx context.Context, userID, itemID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM liked_items WHERE user_id = $1 AND item_id = $2
	`, userID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListLikedItems(ctx context.Context, userID uuid.UUID, f domain.LikedItemFilter) ([]domain.Item, int, error) {
	conds := []string{"l.user_id = $1"}
	args := []any{userID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(i.name ILIKE $%d OR i.destination ILIKE $%d)", len(args), len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("i.price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("i.price <= $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	base := `FROM liked_items l JOIN items i ON i.id = l.item_id ` + where
	listSQL := fmt.Sprintf(`SELECT i.id, i.name, i.description, i.destination, i.duration, i.price, i.category,
		i.available_spots, i.is_available, i.image_url, i.created_at, i.updated_at
		%s ORDER BY l.created_at DESC LIMIT %d OFFSET %d`, base, f.Limit, (f.Page-1)*f.Limit)
	countSQL := `SELECT COUNT(*) ` + base

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
