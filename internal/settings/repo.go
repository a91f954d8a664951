package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepo struct {
	dbPool *pgxpool.Pool
}

func NewPgRepo(dbPool *pgxpool.Pool) *PgRepo {
	return &PgRepo{dbPool: dbPool}
}

func (r *PgRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.dbPool.QueryRow(ctx, `
        SELECT value FROM settings WHERE key = $1
    `, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}
