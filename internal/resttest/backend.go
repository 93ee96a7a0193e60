// Package resttest provides an in-memory backend that speaks the entity REST
// protocol. It implements rest.Transport directly and can also be served over
// HTTP through its gin front (see Handler).
package resttest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/codec"
	"github.com/tutasdk/client-go/internal/rest"
)

// RecordedRequest is a request as seen by the Backend.
type RecordedRequest struct {
	Method  rest.Method
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// Header returns the named request header, matching case-insensitively.
func (r RecordedRequest) Header(name string) string {
	return lookupHeader(r.Headers, name)
}

// Fault replaces the next matching request's outcome. An empty Method
// matches any request. A non-nil Err simulates a transport failure.
type Fault struct {
	Method       rest.Method
	Status       int
	Precondition string
	Body         string
	Err          error
}

// Backend is an in-memory entity store. Elements are keyed by id, list
// elements by list id and element id. It is safe for concurrent use.
type Backend struct {
	mu       sync.Mutex
	token    string
	elements map[string]map[string][]byte
	lists    map[string]map[string]map[string][]byte
	faults   []Fault
	requests []RecordedRequest
}

// NewBackend creates an empty Backend.
func NewBackend() *Backend {
	return &Backend{
		elements: make(map[string]map[string][]byte),
		lists:    make(map[string]map[string]map[string][]byte),
	}
}

// RequireAccessToken makes every request without the given accessToken
// header fail with 401.
func (b *Backend) RequireAccessToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

// Inject queues a fault for the next request matching f.Method.
func (b *Backend) Inject(f Fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, f)
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Put stores raw under its "_id": a string for elements, a two-item
// [listId, elementId] array for list elements.
func (b *Backend) Put(app, typeName string, raw codec.RawEntity) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}
	key := typeKey(app, typeName)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch id := raw[codec.IDField].(type) {
	case string:
		b.elementBucket(key)[id] = data
		return nil
	case []any:
		listID, elementID, ok := tupleStrings(id)
		if !ok {
			return fmt.Errorf("invalid list element id %v", id)
		}
		b.listBucket(key, listID)[elementID] = data
		return nil
	case []string:
		if len(id) != 2 {
			return fmt.Errorf("invalid list element id %v", id)
		}
		b.listBucket(key, id[0])[id[1]] = data
		return nil
	default:
		return fmt.Errorf("entity has no usable _id: %v", raw[codec.IDField])
	}
}

// Get returns a stored entity. Pass one id for elements and two for list
// elements.
func (b *Backend) Get(app, typeName string, ids ...string) (codec.RawEntity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.lookup(typeKey(app, typeName), ids)
	if !ok {
		return nil, false
	}
	raw, err := codec.DecodeRaw(data)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Request implements rest.Transport.
func (b *Backend) Request(ctx context.Context, rawURL string, method rest.Method, opts rest.Options) (*rest.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &apierrors.NetworkError{Err: err, URL: rawURL}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &apierrors.InternalSdkError{Message: "failed to parse url", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, RecordedRequest{
		Method:  method,
		Path:    u.Path,
		Query:   u.Query(),
		Headers: copyHeaders(opts.Headers),
		Body:    append([]byte(nil), opts.Body...),
	})

	if f, ok := b.takeFault(method); ok {
		if f.Err != nil {
			return nil, &apierrors.NetworkError{Err: f.Err, URL: rawURL}
		}
		resp := respond(f.Status, []byte(f.Body))
		if f.Precondition != "" {
			resp.Headers[rest.HeaderPrecondition] = f.Precondition
		}
		return resp, nil
	}

	if b.token != "" && lookupHeader(opts.Headers, rest.HeaderAccessToken) != b.token {
		return respond(http.StatusUnauthorized, nil), nil
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 || segments[0] != "rest" {
		return respond(http.StatusNotFound, nil), nil
	}
	key := typeKey(segments[1], segments[2])
	ids := segments[3:]

	switch method {
	case rest.MethodGet:
		if len(ids) == 1 && u.Query().Has("start") {
			return b.loadRange(key, ids[0], u.Query()), nil
		}
		data, ok := b.lookup(key, ids)
		if !ok {
			return respond(http.StatusNotFound, nil), nil
		}
		return respond(http.StatusOK, data), nil
	case rest.MethodPost:
		return b.create(key, ids, opts.Body), nil
	case rest.MethodPut:
		if _, ok := b.lookup(key, ids); !ok {
			return respond(http.StatusNotFound, nil), nil
		}
		if _, err := codec.DecodeRaw(opts.Body); err != nil {
			return respond(http.StatusBadRequest, []byte(err.Error())), nil
		}
		b.store(key, ids, append([]byte(nil), opts.Body...))
		return respond(http.StatusOK, nil), nil
	case rest.MethodDelete:
		if !b.remove(key, ids) {
			return respond(http.StatusNotFound, nil), nil
		}
		return respond(http.StatusOK, nil), nil
	default:
		return respond(http.StatusMethodNotAllowed, nil), nil
	}
}

func (b *Backend) loadRange(key, listID string, query url.Values) *rest.Response {
	start := query.Get("start")
	count, err := strconv.Atoi(query.Get("count"))
	if err != nil || count < 0 {
		return respond(http.StatusBadRequest, []byte("invalid count"))
	}
	reverse := query.Get("reverse") == "true"

	bucket := b.lists[key][listID]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		if (!reverse && id > start) || (reverse && id < start) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	}
	if len(ids) > count {
		ids = ids[:count]
	}

	items := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		items = append(items, bucket[id])
	}
	body, _ := json.Marshal(items)
	return respond(http.StatusOK, body)
}

func (b *Backend) create(key string, ids []string, body []byte) *rest.Response {
	raw, err := codec.DecodeRaw(body)
	if err != nil {
		return respond(http.StatusBadRequest, []byte(err.Error()))
	}

	id := uuid.Must(uuid.NewV7()).String()
	switch len(ids) {
	case 0:
		raw[codec.IDField] = id
	case 1:
		raw[codec.IDField] = []any{ids[0], id}
	default:
		return respond(http.StatusBadRequest, []byte("unexpected id in path"))
	}

	data, _ := json.Marshal(raw)
	b.store(key, append(ids, id), data)

	resp, _ := json.Marshal(map[string]string{"generatedId": id})
	return respond(http.StatusOK, resp)
}

func (b *Backend) lookup(key string, ids []string) ([]byte, bool) {
	switch len(ids) {
	case 1:
		data, ok := b.elements[key][ids[0]]
		return data, ok
	case 2:
		data, ok := b.lists[key][ids[0]][ids[1]]
		return data, ok
	default:
		return nil, false
	}
}

func (b *Backend) store(key string, ids []string, data []byte) {
	switch len(ids) {
	case 1:
		b.elementBucket(key)[ids[0]] = data
	case 2:
		b.listBucket(key, ids[0])[ids[1]] = data
	}
}

func (b *Backend) remove(key string, ids []string) bool {
	if _, ok := b.lookup(key, ids); !ok {
		return false
	}
	if len(ids) == 1 {
		delete(b.elements[key], ids[0])
	} else {
		delete(b.lists[key][ids[0]], ids[1])
	}
	return true
}

func (b *Backend) elementBucket(key string) map[string][]byte {
	bucket, ok := b.elements[key]
	if !ok {
		bucket = make(map[string][]byte)
		b.elements[key] = bucket
	}
	return bucket
}

func (b *Backend) listBucket(key, listID string) map[string][]byte {
	lists, ok := b.lists[key]
	if !ok {
		lists = make(map[string]map[string][]byte)
		b.lists[key] = lists
	}
	bucket, ok := lists[listID]
	if !ok {
		bucket = make(map[string][]byte)
		lists[listID] = bucket
	}
	return bucket
}

func (b *Backend) takeFault(method rest.Method) (Fault, bool) {
	for i, f := range b.faults {
		if f.Method == "" || f.Method == method {
			b.faults = append(b.faults[:i], b.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

func respond(status int, body []byte) *rest.Response {
	return &rest.Response{Status: status, Headers: map[string]string{}, Body: body}
}

func typeKey(app, typeName string) string {
	return strings.ToLower(app) + "/" + strings.ToLower(typeName)
}

func tupleStrings(id []any) (string, string, bool) {
	if len(id) != 2 {
		return "", "", false
	}
	listID, ok1 := id[0].(string)
	elementID, ok2 := id[1].(string)
	return listID, elementID, ok1 && ok2
}

func lookupHeader(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func copyHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}
