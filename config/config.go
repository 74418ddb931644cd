// Package config reads the REGSKIN_* environment into a Config.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/giantswarm/microerror"
	logging "github.com/op/go-logging"
	"github.com/spf13/viper"
)

const (
	envPrefix = "REGSKIN"

	keyRegistryURL       = "registry_url"
	keyDisplayRegistry   = "display_registry"
	keyRegistryNote      = "registry_note"
	keyCatalogLimit      = "catalog_limit"
	keyListen            = "listen"
	keyPort              = "port"
	keyIgnoreInvalidCert = "ignore_invalid_cert"
	keyRefreshInterval   = "refresh_interval"
	keyStartupTimeout    = "startup_timeout"
	keyHTTPTimeout       = "http_timeout"
	keyTokenTTL          = "token_ttl"
)

var log = logging.MustGetLogger("rsconfig")

// Config holds everything the process needs to start.
type Config struct {
	// RegistryURL is the base URL of the Registry HTTP API, without the /v2 suffix.
	RegistryURL string
	// RegistryHost is the host part of RegistryURL.
	RegistryHost string
	// DisplayRegistry is the registry name shown in pull commands.
	DisplayRegistry string
	Note            string

	CatalogLimit      int
	IgnoreInvalidCert bool
	HTTPTimeout       time.Duration
	TokenTTL          time.Duration

	RefreshInterval time.Duration
	StartupTimeout  time.Duration

	Listen string
	Port   int
}

// Address is the listen address for the HTTP server.
func (c Config) Address() string {
	return net.JoinHostPort(c.Listen, fmt.Sprintf("%d", c.Port))
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance. Defaults
// are applied for every optional key.
func FromViper(v *viper.Viper) (Config, error) {
	v.SetDefault(keyRegistryNote, "")
	v.SetDefault(keyCatalogLimit, 10000)
	v.SetDefault(keyListen, "127.0.0.1")
	v.SetDefault(keyPort, 3000)
	v.SetDefault(keyIgnoreInvalidCert, false)
	v.SetDefault(keyRefreshInterval, 10*time.Minute)
	v.SetDefault(keyStartupTimeout, 5*time.Minute)
	v.SetDefault(keyHTTPTimeout, 300*time.Second)
	v.SetDefault(keyTokenTTL, time.Minute)

	c := Config{
		RegistryURL:       strings.TrimSuffix(v.GetString(keyRegistryURL), "/"),
		Note:              v.GetString(keyRegistryNote),
		CatalogLimit:      v.GetInt(keyCatalogLimit),
		IgnoreInvalidCert: v.GetBool(keyIgnoreInvalidCert),
		HTTPTimeout:       v.GetDuration(keyHTTPTimeout),
		TokenTTL:          v.GetDuration(keyTokenTTL),
		RefreshInterval:   v.GetDuration(keyRefreshInterval),
		StartupTimeout:    v.GetDuration(keyStartupTimeout),
		Listen:            v.GetString(keyListen),
		Port:              v.GetInt(keyPort),
	}

	if c.RegistryURL == "" {
		return c, microerror.Maskf(invalidConfigError, "%s_REGISTRY_URL must not be empty", envPrefix)
	}
	if !govalidator.IsURL(c.RegistryURL) {
		return c, microerror.Maskf(invalidConfigError, "%s_REGISTRY_URL %#q is not a valid URL", envPrefix, c.RegistryURL)
	}

	u, err := url.Parse(c.RegistryURL)
	if err != nil || u.Host == "" {
		return c, microerror.Maskf(invalidConfigError, "%s_REGISTRY_URL %#q has no host", envPrefix, c.RegistryURL)
	}
	c.RegistryHost = u.Hostname()

	c.DisplayRegistry = v.GetString(keyDisplayRegistry)
	if c.DisplayRegistry == "" {
		c.DisplayRegistry = c.RegistryHost
	}

	if c.CatalogLimit <= 0 {
		return c, microerror.Maskf(invalidConfigError, "%s_CATALOG_LIMIT must be positive, got %d", envPrefix, c.CatalogLimit)
	}
	if c.RefreshInterval <= 0 {
		return c, microerror.Maskf(invalidConfigError, "%s_REFRESH_INTERVAL must be positive", envPrefix)
	}
	if c.HTTPTimeout <= 0 {
		return c, microerror.Maskf(invalidConfigError, "%s_HTTP_TIMEOUT must be positive", envPrefix)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return c, microerror.Maskf(invalidConfigError, "%s_PORT %d is out of range", envPrefix, c.Port)
	}
	if net.ParseIP(c.Listen) == nil {
		return c, microerror.Maskf(invalidConfigError, "%s_LISTEN %#q is not an IP address", envPrefix, c.Listen)
	}

	log.Debugf("Registry %s, catalog limit %d, refresh every %s", c.RegistryURL, c.CatalogLimit, c.RefreshInterval)

	return c, nil
}
