// Package entity implements the generic entity client: it loads, lists,
// creates, updates and deletes entities of any catalogued type over a
// rest.Transport, converting between wire JSON and values.ParsedEntity.
//
// The client never decrypts; encrypted fields are returned as the raw
// ciphertext bytes the server delivered.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/codec"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/rest"
	"github.com/tutasdk/client-go/internal/values"
)

// LoadAllPageSize is the number of elements LoadAll requests per page.
const LoadAllPageSize = 1000

// Direction is the order in which a list range is read.
type Direction int

const (
	// Ascending reads elements with ids greater than the start id.
	Ascending Direction = iota
	// Descending reads elements with ids smaller than the start id.
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Config holds the collaborators of a Client.
type Config struct {
	Transport rest.Transport
	// Serializer defaults to a codec.Serializer over Catalog.
	Serializer *codec.Serializer
	Catalog    metamodel.Catalog
	BaseURL    string
	// Headers defaults to anonymous AccessTokenHeaders.
	Headers rest.HeadersProvider
	Logger  zerolog.Logger
}

// Client is the generic entity client. It is safe for concurrent use.
type Client struct {
	transport  rest.Transport
	serializer *codec.Serializer
	catalog    metamodel.Catalog
	baseURL    string
	headers    rest.HeadersProvider
	logger     zerolog.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("type catalog is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		transport:  cfg.Transport,
		serializer: cfg.Serializer,
		catalog:    cfg.Catalog,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		logger:     cfg.Logger.With().Str("component", "entity").Logger(),
	}
	if c.serializer == nil {
		c.serializer = codec.NewSerializer(cfg.Catalog)
	}
	if c.headers == nil {
		c.headers = rest.AccessTokenHeaders{}
	}
	return c, nil
}

// TypeModel returns the schema of ref.
func (c *Client) TypeModel(ref metamodel.TypeRef) (*metamodel.TypeModel, error) {
	model, ok := c.catalog.TypeModel(ref.App, ref.Type)
	if !ok {
		return nil, apierrors.Internalf("model %s not found in app %s", ref.Type, ref.App)
	}
	return model, nil
}

// Load fetches a single entity by id.
func (c *Client) Load(ctx context.Context, ref metamodel.TypeRef, id values.ID) (values.ParsedEntity, error) {
	model, err := c.TypeModel(ref)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, rest.MethodGet, c.entityURL(ref, id.PathSegments()...), model.Version, nil)
	if err != nil {
		return nil, err
	}
	if !resp.HasBody() {
		return nil, apierrors.Internalf("no body in response to load %s %s", ref, id)
	}

	raw, err := codec.DecodeRaw(resp.Body)
	if err != nil {
		return nil, &apierrors.InternalSdkError{Message: fmt.Sprintf("invalid response to load %s %s", ref, id), Err: err}
	}
	return c.serializer.Parse(ref, raw)
}

// LoadRange reads up to count elements of listID, starting after startID
// in the given direction. Elements are returned in server order; an empty
// slice means the end of the list was reached.
func (c *Client) LoadRange(ctx context.Context, ref metamodel.TypeRef, listID, startID values.GeneratedID, count int, direction Direction) ([]values.ParsedEntity, error) {
	model, err := c.TypeModel(ref)
	if err != nil {
		return nil, err
	}
	if model.ElementType != metamodel.ListElement {
		return nil, apierrors.Internalf("cannot load range for non-list element type %s", ref)
	}
	if count < 0 {
		return nil, apierrors.Internalf("negative range count %d", count)
	}

	query := url.Values{}
	query.Set("start", string(startID))
	query.Set("count", strconv.Itoa(count))
	query.Set("reverse", strconv.FormatBool(direction == Descending))
	target := c.entityURL(ref, string(listID)) + "?" + query.Encode()

	resp, err := c.do(ctx, rest.MethodGet, target, model.Version, nil)
	if err != nil {
		return nil, err
	}
	if !resp.HasBody() {
		return nil, apierrors.Internalf("no body in response to load range of %s in list %s", ref, listID)
	}

	raws, err := codec.DecodeRawList(resp.Body)
	if err != nil {
		return nil, &apierrors.InternalSdkError{Message: fmt.Sprintf("invalid response to load range of %s", ref), Err: err}
	}

	entities := make([]values.ParsedEntity, 0, len(raws))
	for i, raw := range raws {
		parsed, err := c.serializer.Parse(ref, raw)
		if err != nil {
			return nil, fmt.Errorf("element %d of %s range: %w", i, ref, err)
		}
		entities = append(entities, parsed)
	}
	return entities, nil
}

// LoadAll reads every element of listID after start in ascending order,
// one page of LoadAllPageSize elements at a time. An empty start means
// the beginning of the list.
func (c *Client) LoadAll(ctx context.Context, ref metamodel.TypeRef, listID, start values.GeneratedID) ([]values.ParsedEntity, error) {
	if start == "" {
		start = values.MinID
	}

	var all []values.ParsedEntity
	for {
		page, err := c.LoadRange(ctx, ref, listID, start, LoadAllPageSize, Ascending)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < LoadAllPageSize {
			return all, nil
		}

		last, ok := page[len(page)-1][codec.IDField].(values.IDTuple)
		if !ok {
			return nil, apierrors.Internalf("list element of %s without id tuple", ref)
		}
		start = last.ElementID
	}
}

// Update writes entity back to the server. The request carries
// modelVersion as the model version header.
func (c *Client) Update(ctx context.Context, ref metamodel.TypeRef, entity values.ParsedEntity, modelVersion int) error {
	model, err := c.TypeModel(ref)
	if err != nil {
		return err
	}

	id, err := entityID(model, entity)
	if err != nil {
		return err
	}

	raw, err := c.serializer.Serialize(ref, entity)
	if err != nil {
		return err
	}
	body, err := codec.EncodeRaw(raw)
	if err != nil {
		return &apierrors.InternalSdkError{Message: fmt.Sprintf("failed to encode %s %s", ref, id), Err: err}
	}

	_, err = c.do(ctx, rest.MethodPut, c.entityURL(ref, id.PathSegments()...), modelVersion, body)
	return err
}

// SetupElement creates a new element from its wire form and returns the
// id the server assigned.
func (c *Client) SetupElement(ctx context.Context, ref metamodel.TypeRef, raw codec.RawEntity) (values.GeneratedID, error) {
	model, err := c.TypeModel(ref)
	if err != nil {
		return "", err
	}
	if model.ElementType != metamodel.Element {
		return "", apierrors.Internalf("cannot set up non-element type %s", ref)
	}
	return c.create(ctx, ref, model.Version, c.entityURL(ref), raw)
}

// SetupListElement creates a new element in listID and returns its id.
func (c *Client) SetupListElement(ctx context.Context, ref metamodel.TypeRef, listID values.GeneratedID, raw codec.RawEntity) (values.IDTuple, error) {
	model, err := c.TypeModel(ref)
	if err != nil {
		return values.IDTuple{}, err
	}
	if model.ElementType != metamodel.ListElement {
		return values.IDTuple{}, apierrors.Internalf("cannot set up non-list element type %s", ref)
	}
	elementID, err := c.create(ctx, ref, model.Version, c.entityURL(ref, string(listID)), raw)
	if err != nil {
		return values.IDTuple{}, err
	}
	return values.NewIDTuple(listID, elementID), nil
}

// EraseElement deletes an element.
func (c *Client) EraseElement(ctx context.Context, ref metamodel.TypeRef, id values.GeneratedID) error {
	return c.erase(ctx, ref, id)
}

// EraseListElement deletes a list element.
func (c *Client) EraseListElement(ctx context.Context, ref metamodel.TypeRef, id values.IDTuple) error {
	return c.erase(ctx, ref, id)
}

func (c *Client) erase(ctx context.Context, ref metamodel.TypeRef, id values.ID) error {
	model, err := c.TypeModel(ref)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, rest.MethodDelete, c.entityURL(ref, id.PathSegments()...), model.Version, nil)
	return err
}

func (c *Client) create(ctx context.Context, ref metamodel.TypeRef, version int, target string, raw codec.RawEntity) (values.GeneratedID, error) {
	body, err := codec.EncodeRaw(raw)
	if err != nil {
		return "", &apierrors.InternalSdkError{Message: fmt.Sprintf("failed to encode new %s", ref), Err: err}
	}

	resp, err := c.do(ctx, rest.MethodPost, target, version, body)
	if err != nil {
		return "", err
	}

	var created struct {
		GeneratedID string `json:"generatedId"`
	}
	if err := json.Unmarshal(resp.Body, &created); err != nil || created.GeneratedID == "" {
		return "", apierrors.Internalf("no generated id in response to set up %s", ref)
	}
	return values.GeneratedID(created.GeneratedID), nil
}

// do sends a request and maps every non-2xx response to a
// ServerResponseError.
func (c *Client) do(ctx context.Context, method rest.Method, target string, modelVersion int, body []byte) (*rest.Response, error) {
	opts := rest.Options{
		Body:    body,
		Headers: c.headers.ProvideHeaders(modelVersion),
	}

	start := time.Now()
	resp, err := c.transport.Request(ctx, target, method, opts)
	duration := time.Since(start)

	if err != nil {
		c.logger.Debug().
			Str("method", string(method)).
			Str("path", pathOf(target)).
			Dur("duration", duration).
			Err(err).
			Msg("entity request failed")

		var sdkErr apierrors.SdkError
		if errors.As(err, &sdkErr) {
			return nil, err
		}
		return nil, &apierrors.NetworkError{Err: err, URL: target}
	}

	c.logger.Debug().
		Str("method", string(method)).
		Str("path", pathOf(target)).
		Int("status", resp.Status).
		Dur("duration", duration).
		Msg("entity request")

	if resp.Status < 200 || resp.Status > 299 {
		precondition, _ := resp.Header(rest.HeaderPrecondition)
		return nil, &apierrors.ServerResponseError{
			Status:       resp.Status,
			Precondition: precondition,
			Message:      string(resp.Body),
		}
	}
	return resp, nil
}

func (c *Client) entityURL(ref metamodel.TypeRef, segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/rest/")
	b.WriteString(strings.ToLower(ref.App))
	b.WriteString("/")
	b.WriteString(strings.ToLower(ref.Type))
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// entityID extracts the id an entity is addressed by.
func entityID(model *metamodel.TypeModel, entity values.ParsedEntity) (values.ID, error) {
	value, ok := entity[codec.IDField]
	if !ok || values.IsNull(value) {
		return nil, apierrors.Internalf("%s has no %s", model.Ref(), codec.IDField)
	}

	switch model.ElementType {
	case metamodel.ListElement, metamodel.BlobElement:
		if id, ok := value.(values.IDTuple); ok {
			return id, nil
		}
	case metamodel.Element:
		switch id := value.(type) {
		case values.GeneratedID:
			return id, nil
		case values.CustomID:
			return id, nil
		}
	default:
		return nil, apierrors.Internalf("%s is an aggregated type and cannot be addressed", model.Ref())
	}
	return nil, apierrors.Internalf("%s has an id of the wrong kind: %T", model.Ref(), value)
}

func pathOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	return u.Path
}
