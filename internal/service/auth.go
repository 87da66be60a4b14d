package service

import (
	"time"

	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
)

// Auth holds the sign-in decisions: credential authorization, external
// sign-in provisioning and registration. Every operation receives the
// store handle explicitly, so degraded mode is visible at the call site.
type Auth struct {
	hasher model.PasswordHasher
	logger *logger.Logger
	now    func() time.Time
}

// NewAuth creates the auth service.
func NewAuth(hasher model.PasswordHasher, logger *logger.Logger) *Auth {
	return &Auth{
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}
