package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
)

const handshakePrefix = "crystul:handshake:"

var _ scs.CtxStore = (*HandshakeStore)(nil)

// HandshakeStore is an scs session store for short-lived OAuth handshake
// state (CSRF state and callback URL) kept in Redis.
type HandshakeStore struct {
	client Client
	now    func() time.Time
}

// NewHandshakeStore creates a HandshakeStore on top of client.
func NewHandshakeStore(client Client) *HandshakeStore {
	return &HandshakeStore{client: client, now: time.Now}
}

// FindCtx returns the data for token.
func (s *HandshakeStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, handshakePrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find handshake: %w", err)
	}
	return b, true, nil
}

// CommitCtx stores b for token until expiry.
func (s *HandshakeStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := expiry.Sub(s.now())
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	if err := s.client.Set(ctx, handshakePrefix+token, b, ttl).Err(); err != nil {
		return fmt.Errorf("failed to commit handshake: %w", err)
	}
	return nil
}

// DeleteCtx removes token.
func (s *HandshakeStore) DeleteCtx(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, handshakePrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete handshake: %w", err)
	}
	return nil
}

// Find implements scs.Store.
func (s *HandshakeStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

// Commit implements scs.Store.
func (s *HandshakeStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

// Delete implements scs.Store.
func (s *HandshakeStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}
