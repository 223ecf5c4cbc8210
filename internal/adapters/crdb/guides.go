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

const guideColumns = `id, name, email, phone, bio, destinations, languages, experience_years, is_available, image_url, created_at, updated_at`

func scanGuide(row pgx.Row) (*domain.Guide, error) {
	var g domain.Guide
	err := row.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.Bio, &g.Destinations, &g.Languages,
		&g.ExperienceYears, &g.IsAvailable, &g.ImageURL, &g.CreatedAt, &g.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) CreateGuide(ctx context.Context, g *domain.Guide) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO guides (id, name, email, phone, bio, destinations, languages, experience_years, is_available, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, g.ID, g.Name, g.Email, g.Phone, g.Bio, g.Destinations, g.Languages,
		g.ExperienceYears, g.IsAvailable, g.ImageURL).Scan(&g.CreatedAt, &g.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *Repository) GetGuide(ctx context.Context, id uuid.UUID) (*domain.Guide, error) {
	return scanGuide(r.db.QueryRow(ctx, `SELECT `+guideColumns+` FROM guides WHERE id = $1`, id))
}

func (r *Repository) UpdateGuide(ctx context.Context, g *domain.Guide) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE guides
		SET name = $2, email = $3, phone = $4, bio = $5, destinations = $6, languages = $7,
		    experience_years = $8, is_available = $9, image_url = $10, updated_at = now()
		WHERE id = $1
	`, g.ID, g.Name, g.Email, g.Phone, g.Bio, g.Destinations, g.Languages,
		g.ExperienceYears, g.IsAvailable, g.ImageURL)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteGuide(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM guides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListGuides(ctx context.Context, f domain.GuideFilter) ([]domain.Guide, int, error) {
	var conds []string
	var args []any
	if f.Destination != uuid.Nil {
		args = append(args, f.Destination)
		conds = append(conds, fmt.Sprintf("$%d = ANY(destinations)", len(args)))
	}
	if f.Language != "" {
		args = append(args, f.Language)
		conds = append(conds, fmt.Sprintf("$%d = ANY(languages)", len(args)))
	}
	if f.IsAvailable != nil {
		args = append(args, *f.IsAvailable)
		conds = append(conds, fmt.Sprintf("is_available = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM guides %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		guideColumns, where, f.Limit, (f.Page-1)*f.Limit)
	countSQL := `SELECT COUNT(*) FROM guides ` + where

	var guides []domain.Guide
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.db.Query(gctx, listSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var gd domain.Guide
			if err := rows.Scan(&gd.ID, &gd.Name, &gd.Email, &gd.Phone, &gd.Bio, &gd.Destinations,
				&gd.Languages, &gd.ExperienceYears, &gd.IsAvailable, &gd.ImageURL,
				&gd.CreatedAt, &gd.UpdatedAt); err != nil {
				return err
			}
			guides = append(guides, gd)
		}
		return rows.Err()
	})
	g.Go(func() error {
		return r.db.QueryRow(gctx, countSQL, args...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return guides, total, nil
}
