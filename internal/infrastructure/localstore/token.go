package localstore

import (
	"context"
	"errors"

	"github.com/erp/quotedesk/internal/domain/shared"
)

// TokenKey is the key holding the bearer token written by `quotedesk login`
const TokenKey = "token"

// TokenStore persists the bearer token. It satisfies httpclient.TokenSource.
type TokenStore struct {
	store Store
}

// NewTokenStore creates a token store over store
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store}
}

// Token returns the stored token, or "" when none is stored
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	data, err := t.store.Get(ctx, TokenKey)
	if errors.Is(err, shared.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Save stores token
func (t *TokenStore) Save(ctx context.Context, token string) error {
	return t.store.Put(ctx, TokenKey, []byte(token))
}

// Clear removes the stored token
func (t *TokenStore) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, TokenKey)
}
