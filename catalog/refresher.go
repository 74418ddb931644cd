package catalog

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/giantswarm/microerror"
	logging "github.com/op/go-logging"
)

const constRefreshInterval = 10 * time.Minute

var log = logging.MustGetLogger("rscatalog")

// Fetcher gets the full list of repositories from the registry.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]string, error)
}

type RefresherConfig struct {
	Cache   *Cache
	Fetcher Fetcher

	// Interval between refreshes. Defaults to 10 minutes.
	Interval time.Duration
}

// Refresher periodically fetches the catalog and installs a new Snapshot. At
// most one fetch is ever in flight.
type Refresher struct {
	cache    *Cache
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time

	inFlight int32
}

func NewRefresher(config RefresherConfig) (*Refresher, error) {
	if config.Cache == nil {
		return nil, microerror.Maskf(invalidConfigError, "%T.Cache must not be empty", config)
	}
	if config.Fetcher == nil {
		return nil, microerror.Maskf(invalidConfigError, "%T.Fetcher must not be empty", config)
	}
	if config.Interval < 0 {
		return nil, microerror.Maskf(invalidConfigError, "%T.Interval must not be negative", config)
	}
	if config.Interval == 0 {
		config.Interval = constRefreshInterval
	}

	r := &Refresher{
		cache:    config.Cache,
		fetcher:  config.Fetcher,
		interval: config.Interval,
		now:      time.Now,
	}

	return r, nil
}

// Refresh fetches the catalog once and installs it. If the fetch fails the
// previous snapshot stays installed. If another refresh is already running
// this one is skipped and returns nil.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.inFlight, 0, 1) {
		log.Debug("Catalog refresh already in progress, skipping")
		refreshTotal.WithLabelValues(resultSkipped).Inc()
		return nil
	}
	defer atomic.StoreInt32(&r.inFlight, 0)

	log.Info("Updating catalog...")
	start := r.now()

	repositories, err := r.fetcher.FetchCatalog(ctx)
	refreshDuration.Observe(r.now().Sub(start).Seconds())
	if err != nil {
		refreshTotal.WithLabelValues(resultFailure).Inc()
		return microerror.Maskf(refreshFailedError, "%v", err)
	}

	s := NewSnapshot(repositories, r.now())
	r.cache.Replace(s)

	refreshTotal.WithLabelValues(resultSuccess).Inc()
	repositoriesGauge.Set(float64(s.Len()))
	lastSuccessGauge.Set(float64(s.FetchedAt().Unix()))
	log.Infof("Catalog fetched, %d repositories", s.Len())

	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
// Errors are logged and never stop the loop.
func (r *Refresher) Run(ctx context.Context) {
	for {
		err := r.Refresh(ctx)
		if err != nil {
			log.Errorf("Failed to update catalog, keeping %d repositories from the last refresh: %v", r.cache.Current().Len(), err)
		}

		// The wait starts once the fetch has finished, so the intervals a slow
		// fetch runs over are skipped rather than queued.
		timer := time.NewTimer(r.interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Stopping catalog refresher")
			return
		case <-timer.C:
		}
	}
}
