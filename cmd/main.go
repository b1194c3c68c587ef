package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/marufkhan20/pizza-auth-service/internal/config"
	"github.com/marufkhan20/pizza-auth-service/internal/handler"
	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
	"github.com/marufkhan20/pizza-auth-service/internal/logging"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
	"github.com/marufkhan20/pizza-auth-service/internal/repository/memory"
	"github.com/marufkhan20/pizza-auth-service/internal/repository/postgres"
	"github.com/marufkhan20/pizza-auth-service/internal/service"
	"github.com/marufkhan20/pizza-auth-service/pkg/blacklist"
	"github.com/marufkhan20/pizza-auth-service/pkg/hash"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

type repositories struct {
	users         repository.UserRepository
	tenants       repository.TenantRepository
	refreshTokens repository.RefreshTokenRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log.Level, cfg.IsProduction())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}

	var repos repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		repos = repositories{store.Users(), store.Tenants(), store.RefreshTokens()}
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		db, err := initDB(ctx, &cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("error closing database connection", "error", err)
			}
		}()
		logger.Info("database connection established", "host", cfg.Database.Host, "name", cfg.Database.DBName)

		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, db.DB); err != nil {
				return err
			}
			logger.Info("database migrations applied")
		}

		repos = repositories{
			users:         postgres.NewUserRepository(db),
			tenants:       postgres.NewTenantRepository(db),
			refreshTokens: postgres.NewRefreshTokenRepository(db),
		}
		checks["database"] = db.PingContext
	}

	// Interfaces stay nil when Redis is off; a typed nil would not compare
	// equal to nil inside the services.
	var (
		revoker    service.Denylist
		revocation middleware.Denylist
	)
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("error closing redis connection", "error", err)
			}
		}()
		logger.Info("redis connection established", "addr", cfg.Redis.Addr())

		tokenBlacklist := blacklist.NewTokenBlacklist(redisClient)
		revoker = tokenBlacklist
		revocation = tokenBlacklist
		checks["cache"] = tokenBlacklist.Ping
	} else {
		logger.Warn("redis disabled, access tokens stay valid until they expire")
	}

	tokenService, err := initTokenService(&cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("signing keys loaded", "kid", tokenService.KeyID())

	hasher := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	logger.Info("password hasher ready", "bcrypt_cost", hasher.Cost())
	validate := validator.NewValidator()

	refreshStore := service.NewRefreshTokenStore(repos.refreshTokens, tokenService.RefreshTTL(), logger)
	userService := service.NewUserService(repos.users, repos.tenants, hasher, logger)
	tenantService := service.NewTenantService(repos.tenants, logger)
	authService := service.NewAuthService(userService, repos.users, hasher, tokenService, refreshStore, revoker, logger)

	cookies := handler.CookieConfig{
		Domain:     cfg.Cookie.Domain,
		Secure:     cfg.Cookie.Secure,
		AccessTTL:  tokenService.AccessTTL(),
		RefreshTTL: tokenService.RefreshTTL(),
	}

	handlers := handler.Handlers{
		Auth:    handler.NewAuthHandler(authService, validate, cookies),
		Users:   handler.NewUserHandler(userService, validate),
		Tenants: handler.NewTenantHandler(tenantService, validate),
		Health:  handler.NewHealthHandler(checks),
		JWKS:    handler.NewJWKSHandler(tokenService.PublicKey(), tokenService.KeyID()),
	}
	authn := middleware.NewAuthenticator(tokenService, revocation, refreshStore)

	app := handler.NewApp(handler.AppOptions{
		Logger:         logger,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	}, handlers, authn)

	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("server starting", "addr", addr, "environment", cfg.Environment, "storage", cfg.Storage.Driver)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// initDB connects to PostgreSQL, retrying while the database starts up.
func initDB(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	const (
		maxRetries    = 5
		retryInterval = 2 * time.Second
	)

	var (
		db  *sqlx.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err == nil {
			break
		}

		logger.Warn("failed to connect to database", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// initRedis creates the client and verifies the connection
func initRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping redis: %w", err), client.Close())
	}

	return client, nil
}

func initTokenService(cfg *config.JWTConfig) (*jwt.TokenService, error) {
	privateKey, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKey, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	keys, err := jwt.LoadKeys(privateKey, publicKey, []byte(cfg.RefreshSecret))
	if err != nil {
		return nil, err
	}

	return jwt.NewTokenService(keys, jwt.Options{
		AccessTTL:  cfg.AccessTokenExpiry,
		RefreshTTL: cfg.RefreshTokenExpiry,
		Issuer:     cfg.Issuer,
		KeyID:      cfg.KeyID,
	})
}
