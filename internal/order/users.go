package order

import (
	"context"
	"errors"
	"fmt"

	"tandyr-pos/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserDirectory struct {
	dbPool *pgxpool.Pool
}

func NewPgUserDirectory(dbPool *pgxpool.Pool) *PgUserDirectory {
	return &PgUserDirectory{dbPool: dbPool}
}

func (d *PgUserDirectory) ByChatID(ctx context.Context, chatID int64) (models.User, error) {
	var u models.User
	err := d.dbPool.QueryRow(ctx, `
        SELECT id, chat_id, name, role, branch_id FROM users WHERE chat_id = $1
    `, chatID).Scan(&u.ID, &u.ChatID, &u.Name, &u.Role, &u.BranchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}
