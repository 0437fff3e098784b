package config

type Config interface {
	EnvConfig
	EndpointConfig
	SecurityConfig
}

type EnvConfig interface {
	GetAppName() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Endpoints
	Security
}

func New() Config {
	return mainConfig{}
}
