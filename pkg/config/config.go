package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	LLM           LLMConfig
	Chat          ChatConfig
	Stats         StatsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string `envconfig:"TAXCHAT_APP_ENV" required:"true"`
	Port           string `envconfig:"TAXCHAT_APP_PORT" default:"8000"`
	LogLevel       string `envconfig:"TAXCHAT_LOG_LEVEL" default:"info"`
	LogWarnStack   bool   `envconfig:"TAXCHAT_LOG_WARN_STACK" default:"false"`
	AllowedOrigins string `envconfig:"TAXCHAT_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Origins splits the comma separated CORS allow-list.
func (a AppConfig) Origins() []string {
	parts := strings.Split(a.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"TAXCHAT_DB_DSN"`
	Driver string `envconfig:"TAXCHAT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TAXCHAT_DB_HOST"`
	LegacyPort     int    `envconfig:"TAXCHAT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TAXCHAT_DB_USER"`
	LegacyPassword string `envconfig:"TAXCHAT_DB_PASSWORD"`
	LegacyName     string `envconfig:"TAXCHAT_DB_NAME"`
	LegacySSLMode  string `envconfig:"TAXCHAT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TAXCHAT_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"TAXCHAT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TAXCHAT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TAXCHAT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// RedisConfig is optional. An empty URL and address disables Redis backed
// rate limiting and the stats cache.
type RedisConfig struct {
	URL          string        `envconfig:"TAXCHAT_REDIS_URL"`
	Address      string        `envconfig:"TAXCHAT_REDIS_ADDR"`
	Password     string        `envconfig:"TAXCHAT_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAXCHAT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAXCHAT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAXCHAT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAXCHAT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAXCHAT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TAXCHAT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"TAXCHAT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TAXCHAT_JWT_ISSUER" default:"taxchat"`
	ExpirationMinutes int    `envconfig:"TAXCHAT_JWT_EXPIRATION_MINUTES" default:"1440"`
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TAXCHAT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TAXCHAT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TAXCHAT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TAXCHAT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TAXCHAT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit   int           `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	ProfileWindow     time.Duration `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_PROFILE_WINDOW" default:"5m"`
	ProfileEmailLimit int           `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_PROFILE_EMAIL_LIMIT" default:"5"`
	ProfileIPLimit    int           `envconfig:"TAXCHAT_AUTH_RATE_LIMIT_PROFILE_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TAXCHAT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TAXCHAT_AUTO_MIGRATE" default:"false"`
}

type LLMConfig struct {
	Provider     string        `envconfig:"TAXCHAT_LLM_PROVIDER" default:"openrouter"`
	APIKey       string        `envconfig:"TAXCHAT_LLM_API_KEY"`
	BaseURL      string        `envconfig:"TAXCHAT_LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Model        string        `envconfig:"TAXCHAT_LLM_MODEL"`
	Temperature  float32       `envconfig:"TAXCHAT_LLM_TEMPERATURE" default:"0.7"`
	MaxTokens    int           `envconfig:"TAXCHAT_LLM_MAX_TOKENS" default:"2000"`
	Timeout      time.Duration `envconfig:"TAXCHAT_LLM_TIMEOUT" default:"15s"`
	HTTPTimeout  time.Duration `envconfig:"TAXCHAT_LLM_HTTP_TIMEOUT" default:"60s"`
	Workers      int           `envconfig:"TAXCHAT_LLM_WORKERS" default:"2"`
	SystemPrompt string        `envconfig:"TAXCHAT_LLM_SYSTEM_PROMPT"`
	Referer      string        `envconfig:"TAXCHAT_LLM_REFERER" default:"http://localhost:3000"`
	Title        string        `envconfig:"TAXCHAT_LLM_TITLE" default:"Tax Assistant Chatbot"`
}

func (l LLMConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(l.Provider)) {
	case LLMProviderOpenRouter, LLMProviderGemini:
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvLLMProvider, LLMProviderOpenRouter, LLMProviderGemini)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvLLMTimeout)
	}
	if l.Workers <= 0 {
		return fmt.Errorf("%s must be positive", EnvLLMWorkers)
	}
	return nil
}

type ChatConfig struct {
	DefaultTopic     string `envconfig:"TAXCHAT_CHAT_DEFAULT_TOPIC" default:"Tax Consultation"`
	MaxMessageLength int    `envconfig:"TAXCHAT_CHAT_MAX_MESSAGE_LENGTH" default:"4000"`
}

type StatsConfig struct {
	CacheTTL time.Duration `envconfig:"TAXCHAT_STATS_CACHE_TTL" default:"30s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:taxchat.db?_foreign_keys=on"
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
