package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	SessionConfig
	RoleStoreConfig
	OIDCConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Session
	RoleStore
	OIDC
}

var _ Config = mainConfig{}

// New loads the configuration from the environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c mainConfig) validate() error {
	switch c.GetRoleStoreKind() {
	case RoleStoreMemory, RoleStoreRedis:
	default:
		return fmt.Errorf("[config New] unknown ROLE_STORE %q", c.RoleStore.Kind)
	}
	if c.Session.StartupTimeout <= 0 {
		return fmt.Errorf("[config New] STARTUP_TIMEOUT must be positive")
	}
	if c.Session.RoleLookupTimeout < 0 {
		return fmt.Errorf("[config New] ROLE_LOOKUP_TIMEOUT must not be negative")
	}
	if c.OIDC.Issuer != "" && c.OIDC.ClientID == "" {
		return fmt.Errorf("[config New] OIDC_CLIENT_ID is required when OIDC_ISSUER is set")
	}
	return nil
}

type EnvVars struct {
	AppName  string `env:"APP_NAME" envDefault:"Role Gate"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}
