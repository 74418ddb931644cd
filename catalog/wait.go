package catalog

import (
	"time"

	"github.com/giantswarm/backoff"
	"github.com/giantswarm/microerror"
)

const constWaitInterval = 2 * time.Second

// WaitForSnapshot polls the cache until the first fetched catalog has been
// installed, or fails once timeout has passed.
func WaitForSnapshot(cache *Cache, timeout time.Duration) error {
	return waitForSnapshot(cache, timeout, constWaitInterval)
}

func waitForSnapshot(cache *Cache, timeout time.Duration, interval time.Duration) error {
	o := func() error {
		if !cache.Ready() {
			return microerror.Maskf(startupTimeoutError, "catalog not fetched yet")
		}

		return nil
	}
	n := func(err error, d time.Duration) {
		log.Debugf("Waiting for the first catalog, retrying in %s", d)
	}

	b := backoff.NewConstant(timeout, interval)
	err := backoff.RetryNotify(o, b, n)
	if err != nil {
		return microerror.Maskf(startupTimeoutError, "no catalog fetched within %s", timeout)
	}

	log.Infof("Catalog ready with %d repositories", cache.Current().Len())
	return nil
}
