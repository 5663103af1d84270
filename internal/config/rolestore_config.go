package config

import "strings"

type RoleStoreKind string

const (
	RoleStoreMemory RoleStoreKind = "memory"
	RoleStoreRedis  RoleStoreKind = "redis"
)

type RoleStoreConfig interface {
	GetRoleStoreKind() RoleStoreKind
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type RoleStore struct {
	Kind          string `env:"ROLE_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix     string `env:"REDIS_KEY_PREFIX" envDefault:"rolegate"`
}

var _ RoleStoreConfig = RoleStore{}

func (r RoleStore) GetRoleStoreKind() RoleStoreKind {
	return RoleStoreKind(strings.ToLower(strings.TrimSpace(r.Kind)))
}

func (r RoleStore) GetRedisAddr() string {
	return r.RedisAddr
}

func (r RoleStore) GetRedisPassword() string {
	return r.RedisPassword
}

func (r RoleStore) GetRedisDB() int {
	return r.RedisDB
}

func (r RoleStore) GetRedisKeyPrefix() string {
	return r.KeyPrefix
}
