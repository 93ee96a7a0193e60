package rest

import "strconv"

// Header names understood by the backend.
const (
	HeaderAccessToken   = "accessToken"
	HeaderModelVersion  = "v"
	HeaderClientVersion = "cv"
	HeaderPrecondition  = "precondition"
)

// HeadersProvider supplies the authentication and versioning headers for a
// request against a type of the given model version.
type HeadersProvider interface {
	ProvideHeaders(modelVersion int) map[string]string
}

// AccessTokenHeaders authenticates with a session access token.
type AccessTokenHeaders struct {
	AccessToken   string
	ClientVersion string
}

// ProvideHeaders implements HeadersProvider.
func (h AccessTokenHeaders) ProvideHeaders(modelVersion int) map[string]string {
	headers := map[string]string{
		HeaderModelVersion: strconv.Itoa(modelVersion),
	}
	if h.AccessToken != "" {
		headers[HeaderAccessToken] = h.AccessToken
	}
	if h.ClientVersion != "" {
		headers[HeaderClientVersion] = h.ClientVersion
	}
	return headers
}
