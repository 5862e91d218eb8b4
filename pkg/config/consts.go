package config

// EnvPrefix is the envconfig prefix; variables already carry the explicit
// MERCHANTFLOW_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
