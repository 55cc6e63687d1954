// Package config loads each service's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"FashionHub/pkg/kit"
	"FashionHub/pkg/validate"
)

const minSecretLen = 32

// Observability is shared by every service.
type Observability struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info" json:"log_level" validate:"oneof=debug info warn error"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true" json:"metrics_enabled"`
	MetricsToken   string `env:"METRICS_TOKEN" json:"metrics_token"`
}

type Auth struct {
	Observability

	Port         int           `env:"PORT" envDefault:"8081" json:"port" validate:"min=1,max=65535"`
	DatabaseURL  string        `env:"DATABASE_URL" json:"database_url"`
	JWTSecret    string        `env:"JWT_SECRET" json:"jwt_secret" validate:"required"`
	ServiceToken string        `env:"SERVICE_TOKEN" json:"service_token" validate:"required"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"24h" json:"token_ttl"`
}

type Catalog struct {
	Observability

	Port        int           `env:"PORT" envDefault:"8082" json:"port" validate:"min=1,max=65535"`
	DatabaseURL string        `env:"DATABASE_URL" json:"database_url"`
	CacheMaxAge time.Duration `env:"CACHE_MAX_AGE" envDefault:"60s" json:"cache_max_age"`
}

// List storage backends.
const (
	ListStorageFile   = "file"
	ListStorageRedis  = "redis"
	ListStorageMemory = "memory"
)

type Storefront struct {
	Observability

	Port         int    `env:"PORT" envDefault:"8080" json:"port" validate:"min=1,max=65535"`
	AuthURL      string `env:"AUTH_URL" envDefault:"http://auth:8081" json:"auth_url" validate:"required,url"`
	CatalogURL   string `env:"CATALOG_URL" envDefault:"http://catalog:8082" json:"catalog_url" validate:"required,url"`
	ServiceToken string `env:"SERVICE_TOKEN" json:"service_token" validate:"required"`

	ListStorage   string `env:"LIST_STORAGE" envDefault:"file" json:"list_storage" validate:"oneof=file redis memory"`
	ListDir       string `env:"LIST_DIR" envDefault:"data/lists" json:"list_dir"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379" json:"redis_addr"`
	RedisPassword string `env:"REDIS_PASSWORD" json:"redis_password"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0" json:"redis_db" validate:"min=0"`

	PageSize        int           `env:"PAGE_SIZE" envDefault:"12" json:"page_size" validate:"min=1,max=100"`
	SearchDebounce  time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"300ms" json:"search_debounce"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"5m" json:"profile_cache_ttl"`
	DeviceIdle      time.Duration `env:"DEVICE_IDLE" envDefault:"30m" json:"device_idle"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false" json:"cookie_secure"`
	TrustProxy      bool          `env:"TRUST_PROXY" envDefault:"false" json:"trust_proxy"`
}

func addr(port int) string { return ":" + strconv.Itoa(port) }

func (c Auth) Addr() string       { return addr(c.Port) }
func (c Catalog) Addr() string    { return addr(c.Port) }
func (c Storefront) Addr() string { return addr(c.Port) }

func LoadAuth(dotenvFiles ...string) (Auth, error) {
	var c Auth
	if err := kit.LoadConfig(&c, dotenvFiles...); err != nil {
		return Auth{}, err
	}
	return c, c.Validate()
}

func LoadCatalog(dotenvFiles ...string) (Catalog, error) {
	var c Catalog
	if err := kit.LoadConfig(&c, dotenvFiles...); err != nil {
		return Catalog{}, err
	}
	return c, c.Validate()
}

func LoadStorefront(dotenvFiles ...string) (Storefront, error) {
	var c Storefront
	if err := kit.LoadConfig(&c, dotenvFiles...); err != nil {
		return Storefront{}, err
	}
	return c, c.Validate()
}

func (c Auth) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("auth config: JWT_SECRET must be at least %d chars", minSecretLen)
	}
	if c.TokenTTL <= 0 {
		return errors.New("auth config: TOKEN_TTL must be positive")
	}
	return nil
}

func (c Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("catalog config: %w", err)
	}
	return nil
}

func (c Storefront) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("storefront config: %w", err)
	}

	switch {
	case c.ListStorage == ListStorageFile && c.ListDir == "":
		return errors.New("storefront config: LIST_DIR is required for file storage")
	case c.ListStorage == ListStorageRedis && c.RedisAddr == "":
		return errors.New("storefront config: REDIS_ADDR is required for redis storage")
	case c.SearchDebounce < 0:
		return errors.New("storefront config: SEARCH_DEBOUNCE must not be negative")
	case c.ProfileCacheTTL <= 0:
		return errors.New("storefront config: PROFILE_CACHE_TTL must be positive")
	case c.DeviceIdle <= 0:
		return errors.New("storefront config: DEVICE_IDLE must be positive")
	}
	return nil
}
