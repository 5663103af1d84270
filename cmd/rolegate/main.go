package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-rolegate/identity"
	"github.com/jrsteele09/go-rolegate/identity/oidcprovider"
	"github.com/jrsteele09/go-rolegate/identity/providerfake"
	"github.com/jrsteele09/go-rolegate/internal/config"
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore"
	"github.com/jrsteele09/go-rolegate/rolestore/redisstore"
	fakerolerepo "github.com/jrsteele09/go-rolegate/rolestore/repofake"
	"github.com/jrsteele09/go-rolegate/session"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const demoPassword = "password"

var demoAccounts = []struct {
	email string
	name  string
	role  roles.Role
}{
	{email: "student@example.com", name: "Sam Student", role: roles.Student},
	{email: "teacher@example.com", name: "Tara Teacher", role: roles.Teacher},
	{email: "admin@example.com", name: "Ada Admin", role: roles.Admin},
	{email: "norole@example.com", name: "Nora Norole", role: roles.None},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running rolegate: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())
	logger := newLogger(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, c.GetStartupTimeout())
	defer cancel()

	repo, closeRepo, err := newRoleRepo(startupCtx, c, logger)
	if err != nil {
		return err
	}
	defer closeRepo()
	provider, err := newProvider(startupCtx, c, repo, logger)
	if err != nil {
		return err
	}

	ctrl, err := session.NewController(provider, rolestore.WithTimeout(repo, c.GetRoleLookupTimeout()), session.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Start(startupCtx); err != nil {
		return errors.Wrap(err, "[run] session start")
	}

	cons := newConsole(ctrl, provider, repo, os.Stdout, c.GetStartupTimeout())
	unsubscribe := ctrl.Subscribe(cons.onSnapshot)
	defer unsubscribe()

	logger.Info().Str("env", c.GetEnv()).Str("role_store", string(c.GetRoleStoreKind())).Bool("oidc", c.UseOIDC()).Msg("session ready, type help for commands")
	returnError = cons.run(ctx, os.Stdin)
	logger.Info().Msg("rolegate stopped")
	return returnError
}

func newLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("app", c.GetAppName()).
		Logger()
}

// newRoleRepo returns the configured role store and a func releasing its
// connections. The in-memory store adds a little latency so the resolving
// state is visible.
func newRoleRepo(ctx context.Context, c config.Config, logger zerolog.Logger) (rolestore.Repo, func(), error) {
	switch c.GetRoleStoreKind() {
	case config.RoleStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		store := redisstore.NewStore(client, c.GetRedisKeyPrefix())
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing redis client")
			}
		}
		if err := store.Ping(ctx); err != nil {
			closeClient()
			return nil, nil, errors.Wrap(err, "[newRoleRepo] redis ping")
		}
		logger.Info().Str("addr", c.GetRedisAddr()).Msg("using redis role store")
		return store, closeClient, nil
	default:
		return fakerolerepo.NewFakeRoleRepo().WithLatency(250 * time.Millisecond), func() {}, nil
	}
}

// newProvider returns the OIDC provider when an issuer is configured, otherwise
// an in-memory provider seeded with the demo accounts.
func newProvider(ctx context.Context, c config.Config, repo rolestore.Writer, logger zerolog.Logger) (identity.Provider, error) {
	if c.UseOIDC() {
		p, err := oidcprovider.New(ctx, c.GetOIDCIssuer(), c.GetOIDCClientID(), c.GetOIDCClientSecret(), c.GetOIDCScopes(), oidcprovider.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Info().Str("issuer", c.GetOIDCIssuer()).Msg("using OIDC identity provider")
		return p, nil
	}

	p := providerfake.NewFakeProvider()
	for _, acc := range demoAccounts {
		id, err := p.AddAccount(identity.Credentials{Email: acc.email, Password: demoPassword}, acc.name)
		if err != nil {
			return nil, err
		}
		if err := repo.SetRole(ctx, id.ID, acc.role); err != nil {
			return nil, errors.Wrapf(err, "[newProvider] seed role for %s", acc.email)
		}
		logger.Debug().Str("email", acc.email).Stringer("role", acc.role).Msg("demo account")
	}
	logger.Info().Str("password", demoPassword).Int("accounts", len(demoAccounts)).Msg("using in-memory identity provider")
	return p, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
