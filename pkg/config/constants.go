package config

// EnvPrefix is intentionally empty: every variable is declared with its full
// ECOMMERCE_* name in the struct tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ECOMMERCE_DB_DSN"
	EnvDBHost = "ECOMMERCE_DB_HOST"
	EnvDBUser = "ECOMMERCE_DB_USER"
	EnvDBName = "ECOMMERCE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
