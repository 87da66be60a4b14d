package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/crystul/auth-server/internal/model"
)

const revokedPrefix = "crystul:revoked:"

var _ model.Denylist = (*Denylist)(nil)

// Denylist keeps revoked session token ids in Redis with a TTL matching
// the token's remaining lifetime.
type Denylist struct {
	client Client
	now    func() time.Time
}

// NewDenylist creates a Denylist on top of client.
func NewDenylist(client Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

// Revoke marks id as revoked until the given time. Already expired tokens are skipped.
func (d *Denylist) Revoke(ctx context.Context, id string, until time.Time) error {
	if id == "" {
		return nil
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, revokedPrefix+id, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether id was revoked.
func (d *Denylist) IsRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	n, err := d.client.Exists(ctx, revokedPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}
