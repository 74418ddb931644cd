package registry

import (
	"context"
	"time"

	"github.com/giantswarm/microerror"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// tokenCache keeps bearer tokens per (service, scope) for a short while so a
// burst of requests for the same repository shares one exchange. A zero TTL
// disables caching, and every 401 then triggers a fresh exchange.
type tokenCache struct {
	cache *gocache.Cache
	group singleflight.Group
}

func newTokenCache(ttl time.Duration) *tokenCache {
	t := &tokenCache{}
	if ttl > 0 {
		t.cache = gocache.New(ttl, 2*ttl)
	}

	return t
}

// get returns a cached token or calls fetch to obtain one. Concurrent callers
// for the same challenge share a single fetch, which runs detached from any
// one caller's context. The client timeout still bounds it. Each caller stops
// waiting when its own ctx is done.
func (t *tokenCache) get(ctx context.Context, c Challenge, fetch func(context.Context, Challenge) (string, error)) (string, error) {
	k := c.key()

	if t.cache != nil {
		if v, ok := t.cache.Get(k); ok {
			if token, ok := v.(string); ok {
				log.Debugf("Using cached token for %s", c.Scope)
				return token, nil
			}
		}
	}

	ch := t.group.DoChan(k, func() (interface{}, error) {
		token, err := fetch(context.Background(), c)
		if err != nil {
			return "", err
		}

		if t.cache != nil {
			t.cache.SetDefault(k, token)
		}

		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", microerror.Maskf(transportError, "gave up waiting for token for %s: %v", c.Scope, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", microerror.Mask(res.Err)
		}

		return res.Val.(string), nil
	}
}

// forget drops a token the registry has just rejected.
func (t *tokenCache) forget(c Challenge) {
	if t.cache != nil {
		t.cache.Delete(c.key())
	}
}
