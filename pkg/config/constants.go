package config

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "STORELINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STORELINK_DB_DSN"
	EnvDBHost = "STORELINK_DB_HOST"
	EnvDBUser = "STORELINK_DB_USER"
	EnvDBName = "STORELINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
