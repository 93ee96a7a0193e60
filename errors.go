package tutasdk

import (
	"errors"

	"github.com/tutasdk/client-go/internal/apierrors"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrInvalidBaseURL is returned by New when the base URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrMissingMailGroup is returned by the mail facade when the user
	// context names no mail group.
	ErrMissingMailGroup = errors.New("user context has no mail group")

	// ErrNoFolders is returned when a mailbox carries no folder list.
	ErrNoFolders = errors.New("mailbox has no folders")

	ErrCodec            = apierrors.ErrCodec
	ErrInternalSdk      = apierrors.ErrInternalSdk
	ErrNoConnectivity   = apierrors.ErrNoConnectivity
	ErrKeyNotFound      = apierrors.ErrKeyNotFound
	ErrDecryptionFailed = apierrors.ErrDecryptionFailed

	// ErrUnauthorized matches every response caused by missing, expired or
	// revoked credentials.
	ErrUnauthorized = apierrors.ErrUnauthorized
)

// Sentinels matched by ServerResponseError according to its status code.
var (
	ErrBadRequest             = apierrors.ErrBadRequest
	ErrNotAuthenticated       = apierrors.ErrNotAuthenticated
	ErrNotAuthorized          = apierrors.ErrNotAuthorized
	ErrNotFound               = apierrors.ErrNotFound
	ErrMethodNotAllowed       = apierrors.ErrMethodNotAllowed
	ErrRequestTimeout         = apierrors.ErrRequestTimeout
	ErrConflict               = apierrors.ErrConflict
	ErrGone                   = apierrors.ErrGone
	ErrPreconditionFailed     = apierrors.ErrPreconditionFailed
	ErrPayloadTooLarge        = apierrors.ErrPayloadTooLarge
	ErrLocked                 = apierrors.ErrLocked
	ErrTooManyRequests        = apierrors.ErrTooManyRequests
	ErrSessionExpired         = apierrors.ErrSessionExpired
	ErrAccessDeactivated      = apierrors.ErrAccessDeactivated
	ErrAccessExpired          = apierrors.ErrAccessExpired
	ErrAccessBlocked          = apierrors.ErrAccessBlocked
	ErrInvalidData            = apierrors.ErrInvalidData
	ErrInvalidSoftwareVersion = apierrors.ErrInvalidSoftwareVersion
	ErrLimitReached           = apierrors.ErrLimitReached
	ErrInternalServer         = apierrors.ErrInternalServer
	ErrBadGateway             = apierrors.ErrBadGateway
	ErrServiceUnavailable     = apierrors.ErrServiceUnavailable
	ErrInsufficientStorage    = apierrors.ErrInsufficientStorage
)

// Error types. All of them implement SdkError.
type (
	// SdkError is implemented by all SDK errors.
	SdkError = apierrors.SdkError

	MissingFieldError   = apierrors.MissingFieldError
	MalformedFieldError = apierrors.MalformedFieldError
	InternalSdkError    = apierrors.InternalSdkError
	NetworkError        = apierrors.NetworkError
	ServerResponseError = apierrors.ServerResponseError
	KeyNotFoundError    = apierrors.KeyNotFoundError
	DecryptionError     = apierrors.DecryptionError
)
