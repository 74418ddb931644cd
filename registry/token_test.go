package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	var fetches int32

	tc := newTokenCache(0)
	c := Challenge{Service: "fakereg", Scope: "repository:org/image:pull"}

	entered := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, c Challenge) (string, error) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			close(entered)
		}

		select {
		case <-release:
			return "abctokenabc", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	type result struct {
		token string
		err   error
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	resultA := make(chan result, 1)
	go func() {
		token, err := tc.get(ctxA, c, fetch)
		resultA <- result{token, err}
	}()

	<-entered

	resultB := make(chan result, 1)
	go func() {
		token, err := tc.get(context.Background(), c, fetch)
		resultB <- result{token, err}
	}()

	// Give B time to join the exchange A started
	time.Sleep(50 * time.Millisecond)
	cancelA()

	select {
	case a := <-resultA:
		if !IsTransport(a.err) {
			t.Errorf("Expected the cancelled caller to get a transport error, got %v", a.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Cancelled caller is still waiting for the token")
	}

	close(release)

	select {
	case b := <-resultB:
		if b.err != nil {
			t.Errorf("Unexpected error for the caller that was not cancelled: %v", b.err)
		}
		if b.token != "abctokenabc" {
			t.Errorf("Unexpected token %q", b.token)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Caller never got the token")
	}
}

func TestTokenCacheFetchError(t *testing.T) {
	tc := newTokenCache(time.Minute)
	c := Challenge{Service: "fakereg", Scope: "repository:org/image:pull"}

	_, err := tc.get(context.Background(), c, func(ctx context.Context, c Challenge) (string, error) {
		return "", errors.New("no token for you")
	})
	if err == nil {
		t.Errorf("Expected an error")
	}

	if _, ok := tc.cache.Get(c.key()); ok {
		t.Errorf("Failed exchange should not be cached")
	}
}
