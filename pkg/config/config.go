package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "duka"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DUKA_DB_DSN"
	EnvDBHost = "DUKA_DB_HOST"
	EnvDBUser = "DUKA_DB_USER"
	EnvDBName = "DUKA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Session      SessionConfig
	CartStore     CartStoreConfig
	Firebase      FirebaseConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.CartStore.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DUKA_APP_ENV" required:"true"`
	Port         string `envconfig:"DUKA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DUKA_DB_DSN"`
	Driver string `envconfig:"DUKA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DUKA_DB_HOST"`
	LegacyPort     int    `envconfig:"DUKA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DUKA_DB_USER"`
	LegacyPassword string `envconfig:"DUKA_DB_PASSWORD"`
	LegacyName     string `envconfig:"DUKA_DB_NAME"`
	LegacySSLMode  string `envconfig:"DUKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DUKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DUKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DUKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DUKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DUKA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DUKA_REDIS_ADDR"`
	Password     string        `envconfig:"DUKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DUKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DUKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DUKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DUKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DUKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DUKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DUKA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DUKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DUKA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"DUKA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DUKA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DUKA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DUKA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DUKA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DUKA_ARGON_KEY_LEN" default:"32"`
}

// SessionConfig tunes the browsing-session registry that owns per-visitor carts.
type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"DUKA_SESSION_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"DUKA_SESSION_SWEEP_INTERVAL" default:"5m"`
}

// Cart store drivers.
const (
	CartStoreFirestore = "firestore"
	CartStoreRedis     = "redis"
	CartStorePostgres  = "postgres"
)

// CartStoreConfig selects and tunes the remote cart store adapter.
type CartStoreConfig struct {
	Driver       string        `envconfig:"DUKA_CART_STORE_DRIVER" default:"firestore"`
	Collection   string        `envconfig:"DUKA_CART_STORE_COLLECTION" default:"carts"`
	RedisTTL     time.Duration `envconfig:"DUKA_CART_STORE_REDIS_TTL" default:"720h"`
	WriteTimeout time.Duration `envconfig:"DUKA_CART_STORE_WRITE_TIMEOUT" default:"10s"`
	ReadTimeout  time.Duration `envconfig:"DUKA_CART_STORE_READ_TIMEOUT" default:"10s"`
}

func (c CartStoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case CartStoreFirestore, CartStoreRedis, CartStorePostgres:
		return nil
	}
	return fmt.Errorf("unknown cart store driver %q", c.Driver)
}

// Auth modes.
const (
	AuthModeLocal    = "local"
	AuthModeFirebase = "firebase"
)

type FirebaseConfig struct {
	ProjectID       string `envconfig:"DUKA_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"DUKA_GCP_CREDENTIALS_JSON"`
	AuthMode        string `envconfig:"DUKA_AUTH_MODE" default:"local"`
}

func (f FirebaseConfig) UseFirebaseAuth() bool {
	return strings.EqualFold(f.AuthMode, AuthModeFirebase)
}

// AuthRateLimitConfig throttles the credential-bearing auth endpoints.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DUKA_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"DUKA_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"DUKA_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"DUKA_AUTH_RL_REGISTER_WINDOW" default:"15m"`
	RegisterIPLimit    int           `envconfig:"DUKA_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"DUKA_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DUKA_AUTO_MIGRATE" default:"false"`
	SeedCatalog bool `envconfig:"DUKA_SEED_CATALOG" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
