package config

import "time"

type SessionConfig interface {
	GetStartupTimeout() time.Duration
	GetRoleLookupTimeout() time.Duration
}

type Session struct {
	StartupTimeout    time.Duration `env:"STARTUP_TIMEOUT" envDefault:"10s"`
	RoleLookupTimeout time.Duration `env:"ROLE_LOOKUP_TIMEOUT" envDefault:"5s"` // 0 disables the timeout
}

var _ SessionConfig = Session{}

// GetStartupTimeout bounds how long the controller waits for the first identity event.
func (s Session) GetStartupTimeout() time.Duration {
	return s.StartupTimeout
}

func (s Session) GetRoleLookupTimeout() time.Duration {
	return s.RoleLookupTimeout
}
