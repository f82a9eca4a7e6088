// Package directory exposes the identity and taxonomy lookups the core
// consumes: resolving an opaque caller identifier to a user record and
// checking category existence.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// UserDirectory resolves caller identifiers to user records. FindUser
// returns (nil, nil) when the identifier is unknown.
type UserDirectory interface {
	FindUser(ctx context.Context, id string) (*domain.User, error)
	Invalidate(ctx context.Context, id string)
}

type userDirectory struct {
	users  repository.UserRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewUserDirectory builds a directory backed by the user repository with
// a Redis read-through cache. A nil cache client disables caching.
func NewUserDirectory(users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) UserDirectory {
	return &userDirectory{users: users, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "directory:user:" + id
}

func (d *userDirectory) FindUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, nil
	}
	if cached := d.fromCache(ctx, id); cached != nil {
		return cached, nil
	}

	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.store(ctx, user)
	return user, nil
}

// Invalidate drops a cached record after a user mutation.
func (d *userDirectory) Invalidate(ctx context.Context, id string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, cacheKey(id)).Err(); err != nil {
		d.logger.Warn("directory cache invalidate failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (d *userDirectory) fromCache(ctx context.Context, id string) *domain.User {
	if d.cache == nil || d.ttl <= 0 {
		return nil
	}
	raw, err := d.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			d.logger.Warn("directory cache read failed", zap.Error(err))
		}
		return nil
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil
	}
	return &user
}

func (d *userDirectory) store(ctx context.Context, user *domain.User) {
	if d.cache == nil || d.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, cacheKey(user.ID), raw, d.ttl).Err(); err != nil {
		d.logger.Warn("directory cache write failed", zap.Error(err))
	}
}
