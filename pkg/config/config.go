package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Bot      BotConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"CODEDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"CODEDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CODEDESK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CODEDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CODEDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CODEDESK_DB_DSN"`
	Driver string `envconfig:"CODEDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CODEDESK_DB_HOST"`
	Port     int    `envconfig:"CODEDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"CODEDESK_DB_USER"`
	Password string `envconfig:"CODEDESK_DB_PASSWORD"`
	Name     string `envconfig:"CODEDESK_DB_NAME"`
	SSLMode  string `envconfig:"CODEDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CODEDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CODEDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CODEDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CODEDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// QueryTimeout bounds every repository call. Expiry surfaces as a
	// storage-unavailable error to the caller.
	QueryTimeout time.Duration `envconfig:"CODEDESK_DB_QUERY_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CODEDESK_REDIS_URL"`
	Address      string        `envconfig:"CODEDESK_REDIS_ADDR"`
	Password     string        `envconfig:"CODEDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CODEDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CODEDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CODEDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CODEDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CODEDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CODEDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TelegramConfig struct {
	Token         string `envconfig:"CODEDESK_TELEGRAM_TOKEN" required:"true"`
	Mode          string `envconfig:"CODEDESK_TELEGRAM_MODE" default:"poll"`
	WebhookPath   string `envconfig:"CODEDESK_TELEGRAM_WEBHOOK_PATH" default:"/webhook"`
	WebhookSecret string `envconfig:"CODEDESK_TELEGRAM_WEBHOOK_SECRET"`
	PollTimeout   int    `envconfig:"CODEDESK_TELEGRAM_POLL_TIMEOUT" default:"60"`
}

// UseWebhook reports whether updates arrive over HTTP instead of polling.
func (t TelegramConfig) UseWebhook() bool {
	return strings.EqualFold(t.Mode, "webhook")
}

type BotConfig struct {
	AdminHandle    string   `envconfig:"CODEDESK_ADMIN_HANDLE" required:"true"`
	SpecialHandles []string `envconfig:"CODEDESK_SPECIAL_HANDLES"`

	CodeTypes        []string `envconfig:"CODEDESK_CODE_TYPES" default:"1000 Roblox,800 Roblox,400 Roblox,lol 575,ow 1k"`
	SpecialCodeTypes []string `envconfig:"CODEDESK_SPECIAL_CODE_TYPES" default:"minecoin 330,lol 575,pc game pass,lol 100,ow 200"`

	CodePattern    string  `envconfig:"CODEDESK_CODE_PATTERN" default:"^[a-zA-Z0-9-]{5,}$"`
	MinimumPayout  float64 `envconfig:"CODEDESK_MINIMUM_PAYOUT" default:"50"`
	MaxBatchesView int     `envconfig:"CODEDESK_MAX_BATCHES_VIEW" default:"15"`

	SessionTTL     time.Duration `envconfig:"CODEDESK_SESSION_TTL" default:"30m"`
	BroadcastPause time.Duration `envconfig:"CODEDESK_BROADCAST_PAUSE" default:"100ms"`
	SearchIndexTTL time.Duration `envconfig:"CODEDESK_SEARCH_INDEX_TTL" default:"15m"`
}

// MinimumPayoutAmount is the payout floor as an exact decimal.
func (b BotConfig) MinimumPayoutAmount() decimal.Decimal {
	return decimal.NewFromFloat(b.MinimumPayout)
}

// IsAdmin matches the configured admin handle, case-insensitively.
func (b BotConfig) IsAdmin(handle string) bool {
	return handle != "" && strings.EqualFold(handle, b.AdminHandle)
}

func (b BotConfig) IsSpecial(handle string) bool {
	for _, h := range b.SpecialHandles {
		if strings.EqualFold(h, handle) {
			return true
		}
	}
	return false
}

// AllowedCodeTypes returns the type set a user may submit. Admin and special
// users get the extended set appended, without duplicates.
func (b BotConfig) AllowedCodeTypes(handle string) []string {
	types := make([]string, 0, len(b.CodeTypes)+len(b.SpecialCodeTypes))
	types = append(types, b.CodeTypes...)
	if !b.IsAdmin(handle) && !b.IsSpecial(handle) {
		return types
	}
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		seen[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range b.SpecialCodeTypes {
		if _, ok := seen[strings.ToLower(t)]; !ok {
			types = append(types, t)
			seen[strings.ToLower(t)] = struct{}{}
		}
	}
	return types
}

// AllCodeTypes is the union of the base and special sets.
func (b BotConfig) AllCodeTypes() []string {
	return b.AllowedCodeTypes(b.AdminHandle)
}

// IsValidCodeType reports whether codeType belongs to the union set.
func (b BotConfig) IsValidCodeType(codeType string) bool {
	for _, t := range b.AllCodeTypes() {
		if strings.EqualFold(t, codeType) {
			return true
		}
	}
	return false
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CODEDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CODEDESK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
