package redisstore

import (
	"context"

	ierrors "github.com/jrsteele09/go-rolegate/internal/errors"
	"github.com/jrsteele09/go-rolegate/roles"
	"github.com/jrsteele09/go-rolegate/rolestore"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures talking to Redis.
var ErrRedisUnavailable = ierrors.ErrStoreUnavailable

var _ rolestore.Repo = (*Store)(nil)

// Store keeps one string key per user: <prefix>:role:<userID>.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "rolegate"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":role:" + userID
}

func (s *Store) LookupRole(ctx context.Context, userID string) (roles.Role, error) {
	raw, err := s.redis.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return roles.None, nil
		}
		return roles.None, ierrors.Join(ErrRedisUnavailable, errors.Wrap(err, "[Store.LookupRole] GET"))
	}
	role, err := roles.Parse(raw)
	if err != nil {
		return roles.None, ierrors.Wrapf(err, "[Store.LookupRole] user %s", userID)
	}
	return role, nil
}

// SetRole assigns role. Assigning roles.None removes the key.
func (s *Store) SetRole(ctx context.Context, userID string, role roles.Role) error {
	if role == roles.None {
		return s.DeleteRole(ctx, userID)
	}
	if !role.Valid() {
		return ierrors.Wrapf(rolestore.ErrUnknownRole, "[Store.SetRole] %q", string(role))
	}
	if err := s.redis.Set(ctx, s.key(userID), string(role), 0).Err(); err != nil {
		return ierrors.Join(ErrRedisUnavailable, errors.Wrap(err, "[Store.SetRole] SET"))
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return ierrors.Join(ErrRedisUnavailable, errors.Wrap(err, "[Store.DeleteRole] DEL"))
	}
	return nil
}

// Ping checks connectivity, used at startup before the controller is started.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return ierrors.Join(ErrRedisUnavailable, errors.Wrap(err, "[Store.Ping] PING"))
	}
	return nil
}
