package tutasdk

import (
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/cryptoentity"
	"github.com/tutasdk/client-go/internal/entity"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/rest"
	"github.com/tutasdk/client-go/internal/values"
)

// Identifiers.
type (
	// ID addresses a single entity: a GeneratedID, a CustomID or an IDTuple.
	ID          = values.ID
	GeneratedID = values.GeneratedID
	CustomID    = values.CustomID
	IDTuple     = values.IDTuple
)

// Range bounds for list reads.
const (
	MinID = values.MinID
	MaxID = values.MaxID
)

// NewIDTuple builds the id of an element in a list.
func NewIDTuple(listID, elementID GeneratedID) IDTuple {
	return values.NewIDTuple(listID, elementID)
}

// Direction is the order in which a list range is read.
type Direction = entity.Direction

// List read directions.
const (
	Ascending  = entity.Ascending
	Descending = entity.Descending
)

// Schema types.
type (
	TypeRef   = metamodel.TypeRef
	TypeModel = metamodel.TypeModel
	// Catalog resolves an (app, type) pair to its schema.
	Catalog = metamodel.Catalog
	// Entity is implemented by every domain struct.
	Entity = cryptoentity.Entity
)

// Transport types.
type (
	// Transport sends one HTTP-like request to the backend.
	Transport        = rest.Transport
	TransportFunc    = rest.TransportFunc
	Method           = rest.Method
	TransportOptions = rest.Options
	Response         = rest.Response
)

// HTTP methods used by the SDK.
const (
	MethodGet    = rest.MethodGet
	MethodPost   = rest.MethodPost
	MethodPut    = rest.MethodPut
	MethodDelete = rest.MethodDelete
)

// Key types.
type (
	SymmetricKey    = crypto.SymmetricKey
	KeyPair         = crypto.KeyPair
	OwnerRef        = cryptoentity.OwnerRef
	KeyResolver     = cryptoentity.KeyResolver
	KeyPairResolver = cryptoentity.KeyPairResolver
	// StaticKeyResolver serves keys pinned in memory.
	StaticKeyResolver = cryptoentity.StaticKeyResolver
)

// NewStaticKeyResolver creates an empty StaticKeyResolver.
func NewStaticKeyResolver() *StaticKeyResolver {
	return cryptoentity.NewStaticKeyResolver()
}

// ParseSymmetricKey decodes a base64 AES-256 group key.
func ParseSymmetricKey(s string) (SymmetricKey, error) {
	return crypto.ParseSymmetricKey(s)
}

// ParseKeyPair decodes a base64 ML-KEM-768 secret key into a key pair.
func ParseKeyPair(s string) (*KeyPair, error) {
	return crypto.ParseKeyPair(s)
}
