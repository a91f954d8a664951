package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Setting keys written by the admin configuration scenes.
const (
	KeyChannel  = "channel_config"
	KeySheets   = "g_sheets_config"
	KeyEmail    = "email_config"
	KeySchedule = "schedule_config"
)

var ErrNotFound = errors.New("setting not found")

// Cipher decrypts setting blobs at rest. Key management lives outside this
// module.
type Cipher interface {
	Decrypt(data []byte) ([]byte, error)
}

// PlainCipher passes blobs through unchanged, for tests and local runs.
type PlainCipher struct{}

func (PlainCipher) Decrypt(data []byte) ([]byte, error) { return data, nil }

type Repo interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type ChannelConfig struct {
	Enabled bool  `json:"enabled"`
	ChatID  int64 `json:"chat_id"`
}

type SheetsConfig struct {
	Enabled         bool   `json:"enabled"`
	SheetID         string `json:"sheet_id"`
	SheetName       string `json:"sheet_name"`
	CredentialsJSON string `json:"credentials_json"`
}

type EmailConfig struct {
	Enabled    bool     `json:"enabled"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
}

type ScheduleConfig struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron"`
	Report  string `json:"report"`
}

type Store struct {
	repo   Repo
	cipher Cipher
}

func NewStore(repo Repo, cipher Cipher) *Store {
	return &Store{repo: repo, cipher: cipher}
}

func (s *Store) get(ctx context.Context, key string, out any) error {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return err
	}
	plain, err := s.cipher.Decrypt(raw)
	if err != nil {
		return fmt.Errorf("failed to decrypt setting %s: %w", key, err)
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("failed to parse setting %s: %w", key, err)
	}
	return nil
}

// Channel returns the broadcast destination, or nil when unconfigured or
// disabled; the caller treats nil as a no-op.
func (s *Store) Channel(ctx context.Context) (*ChannelConfig, error) {
	cfg := &ChannelConfig{}
	err := s.get(ctx, KeyChannel, cfg)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, nil
	}
	return cfg, nil
}

func (s *Store) Sheets(ctx context.Context) (*SheetsConfig, error) {
	cfg := &SheetsConfig{}
	err := s.get(ctx, KeySheets, cfg)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, nil
	}
	return cfg, nil
}

func (s *Store) Email(ctx context.Context) (*EmailConfig, error) {
	cfg := &EmailConfig{}
	err := s.get(ctx, KeyEmail, cfg)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, nil
	}
	return cfg, nil
}

func (s *Store) Schedule(ctx context.Context) (*ScheduleConfig, error) {
	cfg := &ScheduleConfig{}
	err := s.get(ctx, KeySchedule, cfg)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, nil
	}
	return cfg, nil
}
