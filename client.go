package tutasdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/tutasdk/client-go/internal/cryptoentity"
	"github.com/tutasdk/client-go/internal/entity"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/metrics"
	"github.com/tutasdk/client-go/internal/rest"
)

// Client is the entry point of the SDK. It owns the generic entity client
// and the crypto entity client layered on top of it. A Client is safe for
// concurrent use and holds no per-request state.
type Client struct {
	entities *entity.Client
	crypto   *cryptoentity.Client
	cfg      *clientConfig
}

// New creates a client. Without options it talks to the public backend
// anonymously and cannot decrypt anything.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL:       defaultBaseURL,
		clientVersion: defaultClientVersion,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validateBaseURL(cfg.baseURL); err != nil {
		return nil, err
	}
	if cfg.catalog == nil {
		cfg.catalog = metamodel.Default()
	}
	if cfg.keys == nil {
		cfg.keys = cryptoentity.NewStaticKeyResolver()
	}

	var m *metrics.Metrics
	if cfg.registerer != nil {
		m = metrics.New(cfg.registerer)
	}

	transport := cfg.transport
	if transport == nil {
		httpClient := cfg.httpClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		transport = rest.NewHTTPTransport(httpClient)
	}
	transport = rest.Instrument(transport, m)

	entities, err := entity.New(entity.Config{
		Transport: transport,
		Catalog:   cfg.catalog,
		BaseURL:   cfg.baseURL,
		Headers: rest.AccessTokenHeaders{
			AccessToken:   cfg.accessToken,
			ClientVersion: cfg.clientVersion,
		},
		Logger: cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create entity client: %w", err) //coverage:ignore
	}

	crypto, err := cryptoentity.New(cryptoentity.Config{
		Entities: entities,
		Keys:     cfg.keys,
		Logger:   cfg.logger,
		Metrics:  m,
	})
	if err != nil {
		return nil, fmt.Errorf("create crypto entity client: %w", err) //coverage:ignore
	}

	return &Client{entities: entities, crypto: crypto, cfg: cfg}, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return nil
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string {
	return c.cfg.baseURL
}

// EntityClient returns the generic entity client. It never decrypts:
// encrypted values come back as ciphertext bytes.
func (c *Client) EntityClient() *entity.Client {
	return c.entities
}

// CryptoEntityClient returns the client that decrypts and encrypts
// entities transparently.
func (c *Client) CryptoEntityClient() *cryptoentity.Client {
	return c.crypto
}

// TypeModel returns the schema the client uses for ref.
func (c *Client) TypeModel(ref TypeRef) (*TypeModel, error) {
	return c.entities.TypeModel(ref)
}

// MailFacade returns the mail operations for the given user.
func (c *Client) MailFacade(user UserContext) *MailFacade {
	return &MailFacade{client: c, user: user}
}

// Load fetches the entity of type T with the given id and decrypts it.
func Load[T Entity](ctx context.Context, c *Client, id ID) (T, error) {
	return cryptoentity.Load[T](ctx, c.crypto, id)
}

// LoadRange reads up to count elements of type T from a list, starting
// after startID in the given direction. Use MinID with Ascending and MaxID
// with Descending to read from either end.
func LoadRange[T Entity](ctx context.Context, c *Client, listID, startID GeneratedID, count int, direction Direction) ([]T, error) {
	return cryptoentity.LoadRange[T](ctx, c.crypto, listID, startID, count, direction)
}

// Update encrypts e and writes it back.
func Update[T Entity](ctx context.Context, c *Client, e T) error {
	return cryptoentity.Update(ctx, c.crypto, e)
}
