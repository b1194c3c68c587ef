package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	minRefreshSecretLen = 32
)

type Config struct {
	Environment string         `env:"ENVIRONMENT" envDefault:"development"`
	Server      ServerConfig   `envPrefix:"SERVER_"`
	Storage     StorageConfig  `envPrefix:"STORAGE_"`
	Database    DatabaseConfig `envPrefix:"DB_"`
	Redis       RedisConfig    `envPrefix:"REDIS_"`
	JWT         JWTConfig      `envPrefix:"JWT_"`
	Auth        AuthConfig     `envPrefix:"AUTH_"`
	Cookie      CookieConfig   `envPrefix:"COOKIE_"`
	Log         LogConfig      `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"5501"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	CORSOrigins    string        `env:"CORS_ORIGINS" envDefault:"http://localhost:5173"`
}

type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"root"`
	Password        string        `env:"PASSWORD" envDefault:"root"`
	DBName          string        `env:"NAME" envDefault:"auth_service"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `env:"PRIVATE_KEY_PATH" envDefault:"./certs/private.pem"`
	PublicKeyPath      string        `env:"PUBLIC_KEY_PATH" envDefault:"./certs/public.pem"`
	RefreshSecret      string        `env:"REFRESH_SECRET"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"1h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"8760h"`
	Issuer             string        `env:"ISSUER" envDefault:"auth-service"`
	KeyID              string        `env:"KEY_ID" envDefault:"auth-service-1"`
}

type AuthConfig struct {
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

type CookieConfig struct {
	Domain string `env:"DOMAIN" envDefault:"localhost"`
	Secure bool   `env:"SECURE" envDefault:"false"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q",
			StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver))
	}

	if c.JWT.PrivateKeyPath == "" || c.JWT.PublicKeyPath == "" {
		errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required"))
	}
	if len(c.JWT.RefreshSecret) < minRefreshSecretLen {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters", minRefreshSecretLen))
	}
	if c.JWT.AccessTokenExpiry <= 0 || c.JWT.RefreshTokenExpiry <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRY and JWT_REFRESH_EXPIRY must be positive"))
	}
	if strings.Contains(c.Server.CORSOrigins, "*") {
		errs = append(errs, errors.New("SERVER_CORS_ORIGINS must list explicit origins when cookies are used"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
