package config

type OIDCConfig interface {
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCScopes() []string
	// UseOIDC reports whether an external issuer replaces the built-in provider
	UseOIDC() bool
}

type OIDC struct {
	Issuer       string   `env:"OIDC_ISSUER"`
	ClientID     string   `env:"OIDC_CLIENT_ID"`
	ClientSecret string   `env:"OIDC_CLIENT_SECRET"`
	Scopes       []string `env:"OIDC_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
}

var _ OIDCConfig = OIDC{}

func (o OIDC) GetOIDCIssuer() string {
	return o.Issuer
}

func (o OIDC) GetOIDCClientID() string {
	return o.ClientID
}

func (o OIDC) GetOIDCClientSecret() string {
	return o.ClientSecret
}

func (o OIDC) GetOIDCScopes() []string {
	return o.Scopes
}

func (o OIDC) UseOIDC() bool {
	return o.Issuer != ""
}
