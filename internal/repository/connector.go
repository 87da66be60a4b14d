package repository

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/repository/mongodb"
	"github.com/crystul/auth-server/internal/repository/postgres"
)

// DialFunc opens a user store for uri. The closer releases it on shutdown.
type DialFunc func(ctx context.Context, uri string) (model.UserStore, io.Closer, error)

// Connector lazily establishes the process-wide user store connection.
// Concurrent callers share one in-flight attempt. A successful connection
// is kept for the process lifetime, a failed one is retried by the next caller.
type Connector struct {
	uri      string
	disabled bool
	timeout  time.Duration
	dial     DialFunc
	logger   *logger.Logger

	group singleflight.Group

	mu     sync.RWMutex
	store  model.UserStore
	closer io.Closer
}

// NewConnector creates a Connector. When disabled is true every Acquire
// returns an unavailable handle and no connection is ever attempted.
func NewConnector(uri string, disabled bool, timeout time.Duration, logger *logger.Logger) *Connector {
	return &Connector{
		uri:      uri,
		disabled: disabled,
		timeout:  timeout,
		dial:     Dial,
		logger:   logger,
	}
}

// Acquire returns a handle to the user store, connecting on first use.
func (c *Connector) Acquire(ctx context.Context) model.StoreHandle {
	if c.disabled {
		return model.Unavailable(model.ReasonDisabled, nil)
	}

	if store := c.cached(); store != nil {
		return model.Connected(store)
	}

	ch := c.group.DoChan("store", func() (any, error) {
		if store := c.cached(); store != nil {
			return store, nil
		}

		// The attempt outlives the caller that started it so that waiters
		// are not failed by one aborted request.
		dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		c.logger.Info("Store connector: connecting to user store")
		store, closer, err := c.dial(dialCtx, c.uri)
		if err != nil {
			c.logger.Warn("Store connector: failed to connect to user store",
				"error", err.Error())
			return nil, err
		}

		c.mu.Lock()
		c.store = store
		c.closer = closer
		c.mu.Unlock()

		c.logger.Info("Store connector: connected to user store")
		return store, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return model.Unavailable(model.ReasonUnreachable, res.Err)
		}
		return model.Connected(res.Val.(model.UserStore))
	case <-ctx.Done():
		return model.Unavailable(model.ReasonCanceled, ctx.Err())
	}
}

// Close releases the connection if one was established.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.store = nil
	c.closer = nil
	if err != nil {
		return fmt.Errorf("failed to close user store: %w", err)
	}
	return nil
}

func (c *Connector) cached() model.UserStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// Dial picks the backend from the URI scheme.
func Dial(ctx context.Context, uri string) (model.UserStore, io.Closer, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse store uri: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		conn, err := postgres.NewConnection(ctx, uri)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(conn.DB), conn, nil
	case "mongodb", "mongodb+srv":
		conn, err := mongodb.NewConnection(ctx, uri)
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewUserRepository(conn.Users()), conn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
