// Package apierrors provides the error taxonomy shared by every layer of the
// client: codec, generic entity client and crypto entity client.
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrCodec matches MissingFieldError and MalformedFieldError.
	ErrCodec = errors.New("entity does not match its schema")

	// ErrInternalSdk matches InternalSdkError.
	ErrInternalSdk = errors.New("internal sdk error")

	// ErrNoConnectivity matches NetworkError.
	ErrNoConnectivity = errors.New("no connectivity")

	// ErrKeyNotFound matches KeyNotFoundError.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDecryptionFailed matches DecryptionError.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUnauthorized matches every ServerResponseError caused by missing,
	// expired or revoked credentials (401, 403, 440, 470, 471, 472).
	ErrUnauthorized = errors.New("unauthorized")
)

// Sentinels matched by ServerResponseError according to its status code.
var (
	ErrBadRequest             = errors.New("bad request")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrNotAuthorized          = errors.New("not authorized")
	ErrNotFound               = errors.New("not found")
	ErrMethodNotAllowed       = errors.New("method not allowed")
	ErrRequestTimeout         = errors.New("request timeout")
	ErrConflict               = errors.New("conflict")
	ErrGone                   = errors.New("gone")
	ErrPreconditionFailed     = errors.New("precondition failed")
	ErrPayloadTooLarge        = errors.New("payload too large")
	ErrLocked                 = errors.New("locked")
	ErrTooManyRequests        = errors.New("too many requests")
	ErrSessionExpired         = errors.New("session expired")
	ErrAccessDeactivated      = errors.New("access deactivated")
	ErrAccessExpired          = errors.New("access expired")
	ErrAccessBlocked          = errors.New("access blocked")
	ErrInvalidData            = errors.New("invalid data")
	ErrInvalidSoftwareVersion = errors.New("invalid software version")
	ErrLimitReached           = errors.New("limit reached")
	ErrInternalServer         = errors.New("internal server error")
	ErrBadGateway             = errors.New("bad gateway")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrInsufficientStorage    = errors.New("insufficient storage")
)

var statusSentinels = map[int]error{
	400: ErrBadRequest,
	401: ErrNotAuthenticated,
	403: ErrNotAuthorized,
	404: ErrNotFound,
	405: ErrMethodNotAllowed,
	408: ErrRequestTimeout,
	409: ErrConflict,
	410: ErrGone,
	412: ErrPreconditionFailed,
	413: ErrPayloadTooLarge,
	423: ErrLocked,
	429: ErrTooManyRequests,
	440: ErrSessionExpired,
	470: ErrAccessDeactivated,
	471: ErrAccessExpired,
	472: ErrAccessBlocked,
	473: ErrInvalidData,
	474: ErrInvalidSoftwareVersion,
	475: ErrLimitReached,
	500: ErrInternalServer,
	502: ErrBadGateway,
	503: ErrServiceUnavailable,
	507: ErrInsufficientStorage,
}

// SdkError is implemented by every error type of this package.
type SdkError interface {
	error
	SdkError() // marker method
}

// MissingFieldError reports a mandatory field absent from a payload.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing mandatory field %q", e.Type, e.Field)
}

// Is implements errors.Is for sentinel error matching.
func (e *MissingFieldError) Is(target error) bool { return target == ErrCodec }

// SdkError implements the SdkError interface.
func (e *MissingFieldError) SdkError() {}

// MalformedFieldError reports a field whose wire value cannot be coerced to
// its declared kind.
type MalformedFieldError struct {
	Type   string
	Field  string
	Reason string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("%s: malformed field %q: %s", e.Type, e.Field, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *MalformedFieldError) Is(target error) bool { return target == ErrCodec }

// SdkError implements the SdkError interface.
func (e *MalformedFieldError) SdkError() {}

// InternalSdkError reports a broken contract: catalog miss, violated
// invariant or a request that could not be constructed.
type InternalSdkError struct {
	Message string
	Err     error
}

// Internalf builds an InternalSdkError with a formatted message.
func Internalf(format string, args ...any) *InternalSdkError {
	return &InternalSdkError{Message: fmt.Sprintf(format, args...)}
}

func (e *InternalSdkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal sdk error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("internal sdk error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *InternalSdkError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *InternalSdkError) Is(target error) bool { return target == ErrInternalSdk }

// SdkError implements the SdkError interface.
func (e *InternalSdkError) SdkError() {}

// NetworkError represents a transport failure before any response arrived.
type NetworkError struct {
	Err error
	URL string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *NetworkError) Is(target error) bool { return target == ErrNoConnectivity }

// SdkError implements the SdkError interface.
func (e *NetworkError) SdkError() {}

// ServerResponseError represents a non-2xx response from the backend.
type ServerResponseError struct {
	Status int
	// Precondition is the value of the "precondition" response header, if any.
	Precondition string
	// Message is the response body, if any.
	Message string
}

func (e *ServerResponseError) Error() string {
	msg := fmt.Sprintf("server error %d", e.Status)
	if sentinel, ok := statusSentinels[e.Status]; ok {
		msg += " (" + sentinel.Error() + ")"
	}
	if e.Precondition != "" {
		msg += fmt.Sprintf(" precondition=%s", e.Precondition)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// HasPrecondition reports whether the response carried a precondition header.
func (e *ServerResponseError) HasPrecondition() bool {
	return e.Precondition != ""
}

// Is implements errors.Is for sentinel error matching.
func (e *ServerResponseError) Is(target error) bool {
	if target == ErrUnauthorized {
		switch e.Status {
		case 401, 403, 440, 470, 471, 472:
			return true
		}
		return false
	}
	sentinel, ok := statusSentinels[e.Status]
	return ok && target == sentinel
}

// SdkError implements the SdkError interface.
func (e *ServerResponseError) SdkError() {}

// KeyNotFoundError reports that no key could be established for an owner.
type KeyNotFoundError struct {
	// Owner describes the owner reference the key was looked up for.
	Owner   string
	Message string
}

func (e *KeyNotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("key not found for %s: %s", e.Owner, e.Message)
	}
	return fmt.Sprintf("key not found for %s", e.Owner)
}

// Is implements errors.Is for sentinel error matching.
func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// SdkError implements the SdkError interface.
func (e *KeyNotFoundError) SdkError() {}

// DecryptionError reports a failure to apply a key to an entity.
type DecryptionError struct {
	Type  string
	Field string
	Err   error
}

func (e *DecryptionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decryption failed for %s.%s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("decryption failed for %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error { return e.Err }

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool { return target == ErrDecryptionFailed }

// SdkError implements the SdkError interface.
func (e *DecryptionError) SdkError() {}
