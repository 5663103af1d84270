package oidcprovider

import (
	"context"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-rolegate/identity"
	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ identity.Provider = (*Provider)(nil)

// ErrNoIDToken is returned when the token endpoint response carries no id_token.
var ErrNoIDToken = ierrors.ErrNoIDToken

// Provider signs users in against an OpenID Connect issuer with the resource
// owner password grant and verifies the returned ID token.
type Provider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	logger       zerolog.Logger

	events identity.Broadcaster
	lock   sync.RWMutex
	token  *oauth2.Token
}

type Option func(*Provider)

// WithLogger overrides the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New discovers the issuer's endpoints and keys.
func New(ctx context.Context, issuer, clientID, clientSecret string, scopes []string, options ...Option) (*Provider, error) {
	discovered, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[oidcprovider.New] failed to create OIDC provider")
	}
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     discovered.Endpoint(),
		Scopes:       scopes,
	}
	verifier := discovered.Verifier(&oidc.Config{ClientID: clientID})
	return NewWithConfig(cfg, verifier, options...), nil
}

// NewWithConfig builds a Provider from an explicit OAuth2 client and token verifier.
func NewWithConfig(cfg *oauth2.Config, verifier *oidc.IDTokenVerifier, options ...Option) *Provider {
	p := &Provider{
		oauth2Config: cfg,
		verifier:     verifier,
		logger:       log.Logger,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *Provider) OnIdentityChange(fn identity.ChangeFunc) (func(), error) {
	if fn == nil {
		return nil, errors.New("[Provider.OnIdentityChange] nil listener")
	}
	return p.events.Subscribe(fn, true), nil
}

func (p *Provider) SignIn(ctx context.Context, creds identity.Credentials) (identity.Identity, error) {
	tok, err := p.oauth2Config.PasswordCredentialsToken(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return identity.Identity{}, identity.ErrInvalidCredentials
		}
		return identity.Identity{}, errors.Wrap(err, "[Provider.SignIn] token exchange failed")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return identity.Identity{}, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "[Provider.SignIn] ID token verification failed")
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return identity.Identity{}, errors.Wrap(err, "[Provider.SignIn] failed to extract claims")
	}

	id := identity.Identity{ID: claims.Sub, Email: claims.Email, DisplayName: claims.Name}
	if id.IsZero() {
		return identity.Identity{}, errors.New("[Provider.SignIn] ID token has no subject")
	}

	p.lock.Lock()
	p.token = tok
	p.lock.Unlock()

	p.logger.Debug().Str("sub", id.ID).Msg("OIDC sign-in verified")
	p.emit(id)
	return id, nil
}

// SignUp is not offered by OpenID Connect issuers; accounts are created at the issuer.
func (p *Provider) SignUp(context.Context, identity.Credentials) (identity.Identity, error) {
	return identity.Identity{}, ierrors.Wrapf(identity.ErrUnsupported, "[Provider.SignUp] registration happens at the issuer")
}

func (p *Provider) SignOut(context.Context) error {
	p.lock.Lock()
	p.token = nil
	p.lock.Unlock()
	if !p.events.Current().IsZero() {
		p.emit(identity.Identity{})
	}
	return nil
}

// Token returns the tokens from the last successful sign-in, or nil when signed out.
func (p *Provider) Token() *oauth2.Token {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.token
}

func (p *Provider) emit(id identity.Identity) {
	p.events.Publish(id)
}
