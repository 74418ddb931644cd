// regskin serves a browsable view of a private container registry's catalog.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/op/go-logging"

	"github.com/microscaling/regskin/api"
	"github.com/microscaling/regskin/catalog"
	"github.com/microscaling/regskin/config"
	"github.com/microscaling/regskin/registry"
	"github.com/microscaling/regskin/utils"
)

const constShutdownTimeout = 10 * time.Second

// Set with -ldflags "-X main.version=..."
var version = "dev"

var log = logging.MustGetLogger("regskin")

func main() {
	utils.InitLogging()

	c, err := config.Load()
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = run(ctx, c)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c config.Config) error {
	log.Infof("regskin %s starting for registry %s", version, c.RegistryURL)

	rs := registry.NewService(registry.Config{
		RegistryURL:       c.RegistryURL,
		CatalogLimit:      c.CatalogLimit,
		IgnoreInvalidCert: c.IgnoreInvalidCert,
		Timeout:           c.HTTPTimeout,
		TokenTTL:          c.TokenTTL,
	})

	cache := catalog.NewCache()
	refresher, err := catalog.NewRefresher(catalog.RefresherConfig{
		Cache:    cache,
		Fetcher:  rs,
		Interval: c.RefreshInterval,
	})
	if err != nil {
		return err
	}

	go refresher.Run(ctx)

	err = catalog.WaitForSnapshot(cache, c.StartupTimeout)
	if err != nil {
		return err
	}

	srv := api.NewServer(api.Config{
		Browser:         catalog.NewBrowser(cache, rs),
		DisplayRegistry: c.DisplayRegistry,
		Note:            c.Note,
		Address:         c.Address(),
		Version:         version,
	})

	errs := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err = <-errs:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
