package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-rolegate/internal/config"
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore/redisstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewRoleRepo_Redis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Setenv("ROLE_STORE", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())
	c, err := config.New()
	require.NoError(t, err)

	repo, closeRepo, err := newRoleRepo(ctx, c, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &redisstore.Store{}, repo)

	require.NoError(t, repo.SetRole(ctx, "u1", roles.Admin))
	role, err := repo.LookupRole(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, roles.Admin, role)

	closeRepo()
	_, err = repo.LookupRole(ctx, "u1")
	require.ErrorIs(t, err, redisstore.ErrRedisUnavailable)
	require.Contains(t, err.Error(), "client is closed")
}

func TestNewRoleRepo_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	t.Setenv("ROLE_STORE", "redis")
	t.Setenv("REDIS_ADDR", addr)
	c, err := config.New()
	require.NoError(t, err)

	_, closeRepo, err := newRoleRepo(context.Background(), c, zerolog.Nop())
	require.ErrorIs(t, err, redisstore.ErrRedisUnavailable)
	require.Nil(t, closeRepo)
}

func TestNewRoleRepo_Memory(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)

	repo, closeRepo, err := newRoleRepo(context.Background(), c, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, repo)
	closeRepo()
}
