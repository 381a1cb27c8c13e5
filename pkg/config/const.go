package config

const (
	// EnvPrefix is empty because every variable carries the explicit BLOX_ prefix.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BLOX_DB_DSN"
	EnvDBHost = "BLOX_DB_HOST"
	EnvDBUser = "BLOX_DB_USER"
	EnvDBName = "BLOX_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
