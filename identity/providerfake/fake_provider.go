package providerfake

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-rolegate/identity"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var _ identity.Provider = (*FakeProvider)(nil)

type account struct {
	identity     identity.Identity
	passwordHash string
}

// FakeProvider is an in-memory identity backend. Identity changes are delivered
// synchronously on the goroutine that caused them.
type FakeProvider struct {
	accounts map[string]*account // email to account
	events   identity.Broadcaster
	lock     sync.RWMutex

	// SubscribeErr, when set, is returned by OnIdentityChange.
	SubscribeErr error
	// DeferInitial suppresses the initial delivery made by OnIdentityChange.
	DeferInitial bool
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts: make(map[string]*account),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddAccount seeds an account without signing it in.
func (p *FakeProvider) AddAccount(creds identity.Credentials, displayName string) (identity.Identity, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.addAccountLocked(creds, displayName)
}

func (p *FakeProvider) addAccountLocked(creds identity.Credentials, displayName string) (identity.Identity, error) {
	email := normaliseEmail(creds.Email)
	if _, ok := p.accounts[email]; ok {
		return identity.Identity{}, errors.Wrap(identity.ErrAccountExists, "[FakeProvider.AddAccount] "+email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.MinCost)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "[FakeProvider.AddAccount] bcrypt.GenerateFromPassword")
	}
	id := identity.Identity{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
	}
	p.accounts[email] = &account{identity: id, passwordHash: string(hash)}
	return id, nil
}

func (p *FakeProvider) OnIdentityChange(fn identity.ChangeFunc) (func(), error) {
	if fn == nil {
		return nil, errors.New("[FakeProvider.OnIdentityChange] nil listener")
	}

	p.lock.RLock()
	subscribeErr, deferInitial := p.SubscribeErr, p.DeferInitial
	p.lock.RUnlock()
	if subscribeErr != nil {
		return nil, subscribeErr
	}
	return p.events.Subscribe(fn, !deferInitial), nil
}

func (p *FakeProvider) SignIn(_ context.Context, creds identity.Credentials) (identity.Identity, error) {
	p.lock.RLock()
	acc, ok := p.accounts[normaliseEmail(creds.Email)]
	p.lock.RUnlock()
	if !ok {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(creds.Password)); err != nil {
		return identity.Identity{}, identity.ErrInvalidCredentials
	}
	p.Emit(acc.identity)
	return acc.identity, nil
}

func (p *FakeProvider) SignUp(_ context.Context, creds identity.Credentials) (identity.Identity, error) {
	p.lock.Lock()
	id, err := p.addAccountLocked(creds, "")
	p.lock.Unlock()
	if err != nil {
		return identity.Identity{}, err
	}
	p.Emit(id)
	return id, nil
}

func (p *FakeProvider) SignOut(context.Context) error {
	if !p.events.Current().IsZero() {
		p.Emit(identity.Identity{})
	}
	return nil
}

// Current returns the identity the provider considers signed in.
func (p *FakeProvider) Current() identity.Identity {
	return p.events.Current()
}

// Emit sets the current identity and delivers it to every listener in registration order.
// Tests use it to inject raw backend transitions.
func (p *FakeProvider) Emit(id identity.Identity) {
	p.events.Publish(id)
}

// ListenerCount returns the number of registered listeners.
func (p *FakeProvider) ListenerCount() int {
	return p.events.Count()
}
