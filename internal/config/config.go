package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel int     `env:"LOG_LEVEL" envDefault:"0"`
	HTTP     HTTP    `envPrefix:"HTTP_"`
	GRPC     GRPC    `envPrefix:"GRPC_"`
	Auth     Auth    `envPrefix:"AUTH_"`
	Store    Store   `envPrefix:"STORE_"`
	Google   Google  `envPrefix:"GOOGLE_"`
	Redis    Redis   `envPrefix:"REDIS_"`
	Bcrypt   Bcrypt  `envPrefix:"BCRYPT_"`
	TLS      TLS     `envPrefix:"TLS_"`
	Session  Session `envPrefix:"SESSION_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port string `env:"PORT" envDefault:"3000"`
}

// GRPC contains gRPC server parameters.
type GRPC struct {
	Port string `env:"PORT" envDefault:"50051"`
}

// TLS contains certificate files shared by both listeners.
type TLS struct {
	Enable             bool   `env:"ENABLE" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// Auth contains mandatory session signing parameters.
type Auth struct {
	URL    string `env:"URL,required,notEmpty"`
	Secret string `env:"SECRET,required,notEmpty"`
}

// Session contains session lifetime parameters.
type Session struct {
	MaxAge    time.Duration `env:"MAX_AGE" envDefault:"720h"`
	UpdateAge time.Duration `env:"UPDATE_AGE" envDefault:"24h"`
}

// Store contains user store connection parameters.
type Store struct {
	URI            string        `env:"URI,required,notEmpty"`
	Disabled       bool          `env:"DISABLED" envDefault:"false"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// Google contains optional Google OAuth client credentials.
type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Redis contains optional Redis parameters for sign-out revocation and
// OAuth handshake state.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Bcrypt contains the password hashing work factor.
type Bcrypt struct {
	Cost int `env:"COST" envDefault:"12"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// GoogleEnabled reports whether both Google client credentials are set.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// StoreDisabled reports whether the user store is switched off, either
// explicitly or because the URI is still a template placeholder.
func (c *Config) StoreDisabled() bool {
	return c.Store.Disabled || IsPlaceholder(c.Store.URI)
}

// IsPlaceholder reports whether value looks like an unfilled template value.
func IsPlaceholder(value string) bool {
	return strings.Contains(value, "your-") || strings.Contains(value, "placeholder")
}
