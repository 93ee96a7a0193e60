// Package rest defines the transport capability the entity clients send
// requests through, together with its net/http adapter, a metrics decorator
// and the authentication header provider.
package rest

import (
	"context"
	"strings"
)

// Method is an HTTP method supported by the backend.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Options carries the optional parts of a request.
type Options struct {
	Body    []byte
	Headers map[string]string
}

// Response is a completed HTTP exchange. Header names are lower-case.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Header returns the named response header, matching case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	v, ok := r.Headers[strings.ToLower(name)]
	return v, ok
}

// HasBody reports whether the response carried a non-empty body.
func (r *Response) HasBody() bool {
	return len(r.Body) > 0
}

// Transport performs a single HTTP request. Implementations return an error
// only when no response was received at all; every received response,
// whatever its status, is returned as a Response.
type Transport interface {
	Request(ctx context.Context, url string, method Method, opts Options) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, method Method, opts Options) (*Response, error)

// Request implements Transport.
func (f TransportFunc) Request(ctx context.Context, url string, method Method, opts Options) (*Response, error) {
	return f(ctx, url, method, opts)
}
