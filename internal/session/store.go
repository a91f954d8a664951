package session

import (
	"context"

	"tandyr-pos/internal/dialogue"
)

// Store keeps in-flight dialogue sessions keyed by chat id. There is no
// durability contract: an expired or lost session simply loses the draft.
type Store interface {
	Get(ctx context.Context, chatID int64) (*dialogue.Session, bool, error)
	Put(ctx context.Context, s *dialogue.Session) error
	Delete(ctx context.Context, chatID int64) error
}
