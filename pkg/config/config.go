package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SWIFTCHOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SWIFTCHOW_DB_DSN"
	EnvDBHost = "SWIFTCHOW_DB_HOST"
	EnvDBUser = "SWIFTCHOW_DB_USER"
	EnvDBName = "SWIFTCHOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Paystack   PaystackConfig
	Commission CommissionConfig
	Withdrawal WithdrawalConfig
	Reconciler ReconcilerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWIFTCHOW_APP_ENV" required:"true"`
	Port         string `envconfig:"SWIFTCHOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWIFTCHOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWIFTCHOW_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"SWIFTCHOW_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWIFTCHOW_DB_DSN"`
	Driver string `envconfig:"SWIFTCHOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SWIFTCHOW_DB_HOST"`
	LegacyPort     int    `envconfig:"SWIFTCHOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SWIFTCHOW_DB_USER"`
	LegacyPassword string `envconfig:"SWIFTCHOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"SWIFTCHOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"SWIFTCHOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWIFTCHOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWIFTCHOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWIFTCHOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWIFTCHOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWIFTCHOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWIFTCHOW_REDIS_ADDR"`
	Password     string        `envconfig:"SWIFTCHOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWIFTCHOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWIFTCHOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWIFTCHOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWIFTCHOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWIFTCHOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWIFTCHOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SWIFTCHOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SWIFTCHOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SWIFTCHOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PaystackConfig carries gateway credentials. The secret key signs outbound
// API calls and verifies inbound webhook signatures.
type PaystackConfig struct {
	SecretKey string        `envconfig:"SWIFTCHOW_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL   string        `envconfig:"SWIFTCHOW_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"SWIFTCHOW_PAYSTACK_TIMEOUT" default:"30s"`
}

// CommissionConfig is the single source of truth for role commission rates.
// Values are decimal fractions, e.g. "0.15" for 15%.
type CommissionConfig struct {
	Chef      string `envconfig:"SWIFTCHOW_COMMISSION_CHEF" default:"0.15"`
	Pharmacy  string `envconfig:"SWIFTCHOW_COMMISSION_PHARMACY" default:"0.12"`
	Vendor    string `envconfig:"SWIFTCHOW_COMMISSION_VENDOR" default:"0.10"`
	TopVendor string `envconfig:"SWIFTCHOW_COMMISSION_TOPVENDOR" default:"0.08"`
	Default   string `envconfig:"SWIFTCHOW_COMMISSION_DEFAULT" default:"0.10"`
}

// WithdrawalConfig holds payout limits. Amounts are integer kobo.
type WithdrawalConfig struct {
	MinimumAmountKobo int64 `envconfig:"SWIFTCHOW_WITHDRAWAL_MINIMUM_KOBO" default:"100000"`
	FlatFeeKobo       int64 `envconfig:"SWIFTCHOW_WITHDRAWAL_FEE_KOBO" default:"5000"`
}

// ReconcilerConfig controls the stuck-distribution sweep.
type ReconcilerConfig struct {
	Interval time.Duration `envconfig:"SWIFTCHOW_RECONCILER_INTERVAL" default:"10m"`
	Cutoff   time.Duration `envconfig:"SWIFTCHOW_RECONCILER_CUTOFF" default:"15m"`
	LockTTL  time.Duration `envconfig:"SWIFTCHOW_RECONCILER_LOCK_TTL" default:"9m"`
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
