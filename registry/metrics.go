package registry

import "github.com/prometheus/client_golang/prometheus"

const (
	endpointCatalog  = "catalog"
	endpointManifest = "manifest"
	endpointTags     = "tags"
	endpointToken    = "token"
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "regskin",
		Subsystem: "registry",
		Name:      "requests_total",
		Help:      "Requests sent to the registry, by endpoint and response code.",
	},
	[]string{"endpoint", "code"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}
