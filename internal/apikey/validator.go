package apikey

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 5 * time.Minute

// Validator resolves presented API key secrets to organizations, keeping a
// short-lived Redis cache in front of the database so the middleware does
// not hit postgres on every request. Only successful lookups are cached;
// a revoked key lingers at most cacheTTL.
type Validator struct {
	store *Store
	redis *redis.Client
}

func NewValidator(store *Store, redisClient *redis.Client) *Validator {
	return &Validator{store: store, redis: redisClient}
}

func (v *Validator) ResolveOrganization(ctx context.Context, secret string) (string, error) {
	cacheKey := "apikey:" + hashSecret(secret)

	if v.redis != nil {
		orgID, err := v.redis.Get(ctx, cacheKey).Result()
		if err == nil && orgID != "" {
			return orgID, nil
		}
	}

	key, err := v.store.Validate(ctx, secret)
	if err != nil {
		return "", err
	}

	if v.redis != nil {
		v.redis.Set(ctx, cacheKey, key.OrganizationID, cacheTTL)
	}

	return key.OrganizationID, nil
}
