package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"google.golang.org/grpc/reflection"

	grpcctx "github.com/crystul/auth-server/internal/api/grpc/context"
	grpcRouter "github.com/crystul/auth-server/internal/api/grpc/router"
	grpcServer "github.com/crystul/auth-server/internal/api/grpc/server"
	"github.com/crystul/auth-server/internal/api/http/handler"
	httpRouter "github.com/crystul/auth-server/internal/api/http/router"
	httpServer "github.com/crystul/auth-server/internal/api/http/server"
	"github.com/crystul/auth-server/internal/config"
	"github.com/crystul/auth-server/internal/logger"
	"github.com/crystul/auth-server/internal/model"
	"github.com/crystul/auth-server/internal/provider"
	"github.com/crystul/auth-server/internal/repository"
	"github.com/crystul/auth-server/internal/repository/redisstore"
	"github.com/crystul/auth-server/internal/server"
	"github.com/crystul/auth-server/internal/service"
	"github.com/crystul/auth-server/internal/session"
	"github.com/crystul/auth-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const handshakeLifetime = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if config.IsPlaceholder(cfg.Store.URI) {
		logger.Warn("store URI looks like a placeholder, running without a user store")
	}

	connector := repository.NewConnector(cfg.Store.URI, cfg.StoreDisabled(), cfg.Store.ConnectTimeout, logger)
	defer connector.Close()

	var denylist model.Denylist = session.NopDenylist{}
	var handshakeStore scs.Store = memstore.New()
	if cfg.RedisEnabled() {
		client, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		defer client.Close()
		denylist = redisstore.NewDenylist(client)
		handshakeStore = redisstore.NewHandshakeStore(client)
	} else {
		logger.Info("redis is not configured, sign-out revocation disabled")
	}

	authService := service.NewAuth(service.NewBcrypt(cfg.Bcrypt.Cost), logger)
	issuer := session.NewIssuer(token.NewJWT(cfg.Auth.Secret, cfg.Auth.URL), denylist, cfg.Session.MaxAge, cfg.Session.UpdateAge, logger)
	providers := registerProviders(cfg, logger)

	handshakes := scs.New()
	handshakes.Store = handshakeStore
	handshakes.Lifetime = handshakeLifetime
	handshakes.Cookie.Name = "crystul.handshake"
	handshakes.Cookie.HttpOnly = true
	handshakes.Cookie.SameSite = http.SameSiteLaxMode
	handshakes.Cookie.Secure = strings.HasPrefix(strings.ToLower(cfg.Auth.URL), "https://")

	authHandler := handler.NewAuth(authService, connector, issuer, providers, handshakes, cfg.Auth.URL, logger)
	servers := []model.Server{
		httpServer.NewHTTPServer(
			httpRouter.New(authHandler, handshakes, logger).Register(),
			fmt.Sprintf(":%s", cfg.HTTP.Port),
		),
		registerGRPCServer(issuer, cfg.Auth.URL, logger, fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}

	sl := server.NewSecurityLayer(cfg.TLS.Enable, cfg.TLS.CertFileName, cfg.TLS.PrivateKeyFileName)

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerProviders(cfg *config.Config, logger *logger.Logger) *provider.Registry {
	var list []provider.Provider
	if cfg.GoogleEnabled() {
		redirect := strings.TrimSuffix(cfg.Auth.URL, "/") + "/api/auth/callback/" + model.ProviderGoogle
		list = append(list, provider.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, redirect))
	} else {
		logger.Info("google credentials are not set, google sign-in disabled")
	}
	return provider.NewRegistry(list...)
}

func registerGRPCServer(issuer *session.Issuer, baseURL string, logger *logger.Logger, addr string) *grpcServer.GRPCServer {
	s := grpcRouter.New(issuer, grpcctx.NewManager(), baseURL, logger).Register()

	reflection.Register(s)

	return grpcServer.NewGRPCServer(s, addr)
}
