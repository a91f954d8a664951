package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	values map[string][]byte
}

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// reverseCipher "decrypts" by reversing the blob, enough to prove the
// decrypt-then-parse order.
type reverseCipher struct{}

func (reverseCipher) Decrypt(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out, nil
}

func reverse(s string) []byte {
	b := []byte(s)
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func TestStore_DecryptThenParse(t *testing.T) {
	repo := &memRepo{values: map[string][]byte{
		KeyChannel: reverse(`{"enabled":true,"chat_id":-100500}`),
	}}
	store := NewStore(repo, reverseCipher{})

	cfg, err := store.Channel(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int64(-100500), cfg.ChatID)
}

func TestStore_AbsentConfigIsNoOp(t *testing.T) {
	store := NewStore(&memRepo{values: map[string][]byte{}}, PlainCipher{})

	cfg, err := store.Sheets(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestStore_DisabledConfigIsNoOp(t *testing.T) {
	repo := &memRepo{values: map[string][]byte{
		KeySheets: []byte(`{"enabled":false,"sheet_id":"abc"}`),
	}}
	store := NewStore(repo, PlainCipher{})

	cfg, err := store.Sheets(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestStore_BadCipherSurfacesError(t *testing.T) {
	repo := &memRepo{values: map[string][]byte{
		KeyEmail: []byte(`{"enabled":true}`),
	}}
	store := NewStore(repo, failingCipher{})

	_, err := store.Email(context.Background())
	assert.Error(t, err)
}

type failingCipher struct{}

func (failingCipher) Decrypt([]byte) ([]byte, error) {
	return nil, errors.New("bad key")
}
