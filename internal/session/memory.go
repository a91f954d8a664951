package session

import (
	"context"
	"sync"
	"time"

	"tandyr-pos/internal/dialogue"
)

type entry struct {
	session  *dialogue.Session
	expireAt time.Time
}

// Memory is the default session backend: a mutex-guarded map with a
// janitor that evicts abandoned sessions after the TTL.
type Memory struct {
	mu    sync.Mutex
	items map[int64]entry
	ttl   time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		items: make(map[int64]entry),
		ttl:   ttl,
	}
}

func (m *Memory) Get(_ context.Context, chatID int64) (*dialogue.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[chatID]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expireAt) {
		delete(m.items, chatID)
		return nil, false, nil
	}
	return e.session, true, nil
}

func (m *Memory) Put(_ context.Context, s *dialogue.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[s.ChatID] = entry{session: s, expireAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, chatID)
	return nil
}

// Run sweeps expired sessions until the context ends.
func (m *Memory) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for chatID, e := range m.items {
		if now.After(e.expireAt) {
			delete(m.items, chatID)
		}
	}
}
