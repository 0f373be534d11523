package config

const (
	EnvPrefix = "SERVLINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN     = "SERVLINE_DB_DSN"
	EnvDBHost    = "SERVLINE_DB_HOST"
	EnvDBUser    = "SERVLINE_DB_USER"
	EnvDBName    = "SERVLINE_DB_NAME"
	EnvUseSQLite = "SERVLINE_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
