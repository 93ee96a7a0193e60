package tutasdk

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL       = "https://app.tuta.com"
	defaultClientVersion = "244.0.0"
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL       string
	httpClient    *http.Client
	transport     Transport
	catalog       Catalog
	keys          KeyResolver
	accessToken   string
	clientVersion string
	logger        zerolog.Logger
	registerer    prometheus.Registerer
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the backend base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the default transport.
// Timeouts are whatever the client carries; none are added.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTransport replaces the HTTP transport entirely. WithHTTPClient is
// ignored when a transport is set.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithTypeCatalog sets the schemas entities are parsed with.
// Default: the catalog compiled into the SDK.
func WithTypeCatalog(catalog Catalog) Option {
	return func(c *clientConfig) {
		c.catalog = catalog
	}
}

// WithKeyResolver sets where group keys come from. Without one, loading
// any entity with encrypted fields fails with ErrKeyNotFound.
func WithKeyResolver(keys KeyResolver) Option {
	return func(c *clientConfig) {
		c.keys = keys
	}
}

// WithAccessToken sets the access token sent with every request.
func WithAccessToken(token string) Option {
	return func(c *clientConfig) {
		c.accessToken = token
	}
}

// WithClientVersion sets the client version sent with every request.
func WithClientVersion(version string) Option {
	return func(c *clientConfig) {
		c.clientVersion = version
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics registers the SDK's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}
