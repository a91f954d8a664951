package catalog

import (
	"context"
	"errors"
	"fmt"

	"tandyr-pos/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog entry not found")

// Lookup is the read-only catalog view the dialogue works against.
// Concurrent admin edits simply become visible on the next call.
type Lookup interface {
	Categories(ctx context.Context) ([]models.Category, error)
	SidesByCategory(ctx context.Context, categoryID int64) ([]models.Side, error)
	SideByID(ctx context.Context, id int64) (models.Side, error)
	CategoryByID(ctx context.Context, id int64) (models.Category, error)
}

type Repo struct {
	dbPool *pgxpool.Pool
}

func NewRepo(dbPool *pgxpool.Pool) *Repo {
	return &Repo{dbPool: dbPool}
}

func (r *Repo) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.dbPool.Query(ctx, `
        SELECT id, name FROM categories ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repo) CategoryByID(ctx context.Context, id int64) (models.Category, error) {
	var c models.Category
	err := r.dbPool.QueryRow(ctx, `
        SELECT id, name FROM categories WHERE id = $1
    `, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Category{}, ErrNotFound
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

func (r *Repo) SidesByCategory(ctx context.Context, categoryID int64) ([]models.Side, error) {
	rows, err := r.dbPool.Query(ctx, `
        SELECT id, category_id, name, price FROM sides
        WHERE category_id = $1 ORDER BY name
    `, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sides: %w", err)
	}
	defer rows.Close()

	var sides []models.Side
	for rows.Next() {
		var s models.Side
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		sides = append(sides, s)
	}
	return sides, rows.Err()
}

func (r *Repo) SideByID(ctx context.Context, id int64) (models.Side, error) {
	var s models.Side
	err := r.dbPool.QueryRow(ctx, `
        SELECT id, category_id, name, price FROM sides WHERE id = $1
    `, id).Scan(&s.ID, &s.CategoryID, &s.Name, &s.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Side{}, ErrNotFound
	}
	if err != nil {
		return models.Side{}, fmt.Errorf("failed to query side: %w", err)
	}
	return s, nil
}
