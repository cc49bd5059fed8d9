package config

// EnvPrefix is handed to envconfig; every field tag carries the full name.
const EnvPrefix = "TAXCHAT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LLMProviderOpenRouter = "openrouter"
	LLMProviderGemini     = "gemini"
)

const (
	EnvAppEnv   = "TAXCHAT_APP_ENV"
	EnvPort     = "TAXCHAT_APP_PORT"
	EnvLogLevel = "TAXCHAT_LOG_LEVEL"

	EnvDBDSN     = "TAXCHAT_DB_DSN"
	EnvDBDriver  = "TAXCHAT_DB_DRIVER"
	EnvDBHost    = "TAXCHAT_DB_HOST"
	EnvDBPort    = "TAXCHAT_DB_PORT"
	EnvDBUser    = "TAXCHAT_DB_USER"
	EnvDBPass    = "TAXCHAT_DB_PASSWORD"
	EnvDBName    = "TAXCHAT_DB_NAME"
	EnvDBMaxOpen = "TAXCHAT_DB_MAX_OPEN_CONNS"

	EnvRedisURL = "TAXCHAT_REDIS_URL"

	EnvJWTSecret  = "TAXCHAT_JWT_SECRET"
	EnvJWTIssuer  = "TAXCHAT_JWT_ISSUER"
	EnvJWTExpMins = "TAXCHAT_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "TAXCHAT_USE_SQLITE"
	EnvAutoMigrate = "TAXCHAT_AUTO_MIGRATE"

	EnvLLMProvider = "TAXCHAT_LLM_PROVIDER"
	EnvLLMAPIKey   = "TAXCHAT_LLM_API_KEY"
	EnvLLMTimeout  = "TAXCHAT_LLM_TIMEOUT"
	EnvLLMWorkers  = "TAXCHAT_LLM_WORKERS"

	EnvChatDefaultTopic = "TAXCHAT_CHAT_DEFAULT_TOPIC"
	EnvStatsCacheTTL    = "TAXCHAT_STATS_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
