package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix mainly matters for error messages.
const EnvPrefix = "codedesk"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "CODEDESK_APP_ENV"
	EnvPort   = "CODEDESK_APP_PORT"

	EnvDBDSN  = "CODEDESK_DB_DSN"
	EnvDBHost = "CODEDESK_DB_HOST"
	EnvDBUser = "CODEDESK_DB_USER"
	EnvDBName = "CODEDESK_DB_NAME"

	EnvTelegramToken = "CODEDESK_TELEGRAM_TOKEN"
	EnvAdminHandle   = "CODEDESK_ADMIN_HANDLE"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
