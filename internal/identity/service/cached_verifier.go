package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/scribelabs/scribe/internal/identity/client"
	identitydomain "github.com/scribelabs/scribe/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const cacheTTL = 60 * time.Second

type VerifierParam struct {
	fx.In

	Log      *zap.Logger
	Redis    *redis.Client `optional:"true"`
	Upstream *client.Client
}

// cachedVerifier fronts the identity provider with a short-lived token cache.
// Cache failures are logged and fall through to the provider; a broken cache
// must never lock users out.
type cachedVerifier struct {
	log      *zap.Logger
	redis    *redis.Client
	upstream identitydomain.Verifier
}

func NewVerifier(p VerifierParam) identitydomain.Verifier {
	return &cachedVerifier{
		log:      p.Log.Named("identity.verifier"),
		redis:    p.Redis,
		upstream: p.Upstream,
	}
}

func (v *cachedVerifier) Verify(ctx context.Context, token string) (*identitydomain.Identity, error) {
	if v.redis == nil {
		return v.upstream.Verify(ctx, token)
	}

	key := cacheKey(token)
	if cached, err := v.redis.Get(ctx, key).Bytes(); err == nil {
		var id identitydomain.Identity
		if err := json.Unmarshal(cached, &id); err == nil {
			return &id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		v.log.Warn("identity cache read failed", zap.Error(err))
	}

	id, err := v.upstream.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(id); err == nil {
		if err := v.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
			v.log.Warn("identity cache write failed", zap.Error(err))
		}
	}
	return id, nil
}

// cacheKey hashes the token so raw credentials never land in the cache keyspace.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:token:" + hex.EncodeToString(sum[:])
}
