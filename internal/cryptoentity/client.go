// Package cryptoentity wraps the generic entity client with transparent
// encryption. Loaded entities have their session key established from the
// owner fields, every encrypted value decrypted (aggregates included) and
// are then materialized into typed domain structs. Updates go the other way.
//
// A failure to decrypt any single value fails the whole call: callers never
// see partially decrypted objects.
package cryptoentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/entity"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/metrics"
	"github.com/tutasdk/client-go/internal/values"
)

// Owner fields every encrypted root entity carries.
const (
	fieldOwnerGroup               = "_ownerGroup"
	fieldOwnerEncSessionKey       = "_ownerEncSessionKey"
	fieldOwnerPublicEncSessionKey = "_ownerPublicEncSessionKey"
	fieldOwnerKeyVersion          = "_ownerKeyVersion"
)

// EntityClient is the subset of *entity.Client the crypto layer needs.
type EntityClient interface {
	TypeModel(ref metamodel.TypeRef) (*metamodel.TypeModel, error)
	Load(ctx context.Context, ref metamodel.TypeRef, id values.ID) (values.ParsedEntity, error)
	LoadRange(ctx context.Context, ref metamodel.TypeRef, listID, startID values.GeneratedID, count int, direction entity.Direction) ([]values.ParsedEntity, error)
	Update(ctx context.Context, ref metamodel.TypeRef, e values.ParsedEntity, modelVersion int) error
}

// Entity is implemented by domain structs. TypeRef must work on the zero
// value.
type Entity interface {
	TypeRef() metamodel.TypeRef
}

// Config holds the collaborators of a Client.
type Config struct {
	Entities EntityClient
	Keys     KeyResolver
	Logger   zerolog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Client decrypts and encrypts entities on their way through an
// EntityClient. It keeps no state between calls and is safe for
// concurrent use.
type Client struct {
	entities EntityClient
	keys     KeyResolver
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Entities == nil {
		return nil, fmt.Errorf("entity client is required")
	}
	if cfg.Keys == nil {
		return nil, fmt.Errorf("key resolver is required")
	}
	return &Client{
		entities: cfg.Entities,
		keys:     cfg.Keys,
		logger:   cfg.Logger.With().Str("component", "cryptoentity").Logger(),
		metrics:  cfg.Metrics,
	}, nil
}

// Entities returns the wrapped entity client.
func (c *Client) Entities() EntityClient {
	return c.entities
}

// Load fetches the entity of type T with the given id and decrypts it.
func Load[T Entity](ctx context.Context, c *Client, id values.ID) (T, error) {
	var out T
	parsed, err := c.LoadParsed(ctx, out.TypeRef(), id)
	if err != nil {
		return out, err
	}
	if err := materialize(parsed, &out); err != nil {
		return out, err
	}
	return out, nil
}

// LoadRange reads a range of list elements of type T and decrypts each of
// them. Server order is preserved; one bad element fails the whole range.
func LoadRange[T Entity](ctx context.Context, c *Client, listID, startID values.GeneratedID, count int, direction entity.Direction) ([]T, error) {
	var zero T
	ref := zero.TypeRef()

	encrypted, err := c.entities.LoadRange(ctx, ref, listID, startID, count, direction)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(encrypted))
	for _, e := range encrypted {
		parsed, err := c.DecryptEntity(ctx, ref, e)
		if err != nil {
			return nil, err
		}
		var item T
		if err := materialize(parsed, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Update encrypts e and writes it back. The entity must still carry the
// owner fields it was loaded with.
func Update[T Entity](ctx context.Context, c *Client, e T) error {
	ref := e.TypeRef()
	parsed, err := values.Dematerialize(e)
	if err != nil {
		return &apierrors.InternalSdkError{Message: fmt.Sprintf("failed to dematerialize %s", ref), Err: err}
	}
	return c.UpdateParsed(ctx, ref, parsed)
}

// LoadParsed is Load without materialization.
func (c *Client) LoadParsed(ctx context.Context, ref metamodel.TypeRef, id values.ID) (values.ParsedEntity, error) {
	encrypted, err := c.entities.Load(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	return c.DecryptEntity(ctx, ref, encrypted)
}

// UpdateParsed encrypts a plaintext entity and writes it back with the
// current model version.
func (c *Client) UpdateParsed(ctx context.Context, ref metamodel.TypeRef, plain values.ParsedEntity) error {
	model, err := c.entities.TypeModel(ref)
	if err != nil {
		return err
	}
	encrypted, err := c.EncryptEntity(ctx, ref, plain)
	if err != nil {
		return err
	}
	return c.entities.Update(ctx, ref, encrypted, model.Version)
}

// DecryptEntity returns e with every encrypted value replaced by its
// plaintext. The input itself is not modified.
func (c *Client) DecryptEntity(ctx context.Context, ref metamodel.TypeRef, e values.ParsedEntity) (values.ParsedEntity, error) {
	model, err := c.entities.TypeModel(ref)
	if err != nil {
		return nil, err
	}
	needed, err := c.needsSessionKey(model, map[metamodel.TypeRef]bool{})
	if err != nil {
		return nil, err
	}
	if !needed {
		return e, nil
	}

	key, err := c.sessionKey(ctx, model, e)
	if err != nil {
		c.recordFailure(model, err)
		return nil, err
	}

	out := e.Clone()
	if err := c.decryptValues(model, out, key, model.Ref().String(), ""); err != nil {
		c.recordFailure(model, err)
		return nil, err
	}
	return out, nil
}

// EncryptEntity returns e with every encrypted value replaced by a fresh
// ciphertext under the entity's session key.
func (c *Client) EncryptEntity(ctx context.Context, ref metamodel.TypeRef, e values.ParsedEntity) (values.ParsedEntity, error) {
	model, err := c.entities.TypeModel(ref)
	if err != nil {
		return nil, err
	}
	needed, err := c.needsSessionKey(model, map[metamodel.TypeRef]bool{})
	if err != nil {
		return nil, err
	}
	if !needed {
		return e, nil
	}

	key, err := c.sessionKey(ctx, model, e)
	if err != nil {
		return nil, err
	}

	out := e.Clone()
	if err := c.encryptValues(model, out, key, model.Ref().String(), ""); err != nil {
		return nil, err
	}
	return out, nil
}

// needsSessionKey reports whether model or any aggregate reachable from it
// declares an encrypted value.
func (c *Client) needsSessionKey(model *metamodel.TypeModel, seen map[metamodel.TypeRef]bool) (bool, error) {
	if model.HasEncryptedValues() {
		return true, nil
	}
	seen[model.Ref()] = true
	for _, name := range model.AssociationNames() {
		assoc := model.Associations[name]
		if assoc.Type != metamodel.Aggregation {
			continue
		}
		ref := model.RefTypeRef(assoc)
		if seen[ref] {
			continue
		}
		nested, err := c.entities.TypeModel(ref)
		if err != nil {
			return false, err
		}
		needed, err := c.needsSessionKey(nested, seen)
		if err != nil || needed {
			return needed, err
		}
	}
	return false, nil
}

// sessionKey establishes the key the values of e are encrypted with.
func (c *Client) sessionKey(ctx context.Context, model *metamodel.TypeModel, e values.ParsedEntity) (crypto.SymmetricKey, error) {
	typeName := model.Ref().String()

	group, ok := e.GeneratedID(fieldOwnerGroup)
	if !ok {
		return nil, &apierrors.KeyNotFoundError{Owner: typeName, Message: "entity has no owner group"}
	}
	owner := OwnerRef{Group: group}
	if v, ok := e.Number(fieldOwnerKeyVersion); ok {
		owner.KeyVersion = int64(v)
	}

	if wrapped, ok := e.Bytes(fieldOwnerEncSessionKey); ok && len(wrapped) > 0 {
		groupKey, err := c.keys.ResolveKey(ctx, owner)
		if err != nil {
			return nil, err
		}
		key, err := crypto.DecryptKey(groupKey, wrapped)
		if err != nil {
			return nil, &apierrors.DecryptionError{Type: typeName, Field: fieldOwnerEncSessionKey, Err: err}
		}
		return key, nil
	}

	if encapsulated, ok := e.Bytes(fieldOwnerPublicEncSessionKey); ok && len(encapsulated) > 0 {
		resolver, ok := c.keys.(KeyPairResolver)
		if !ok {
			return nil, &apierrors.KeyNotFoundError{Owner: owner.String(), Message: "resolver provides no key pairs"}
		}
		kp, err := resolver.ResolveKeyPair(ctx, owner)
		if err != nil {
			return nil, err
		}
		key, err := kp.DecapsulateKey(encapsulated)
		if err != nil {
			return nil, &apierrors.DecryptionError{Type: typeName, Field: fieldOwnerPublicEncSessionKey, Err: err}
		}
		return key, nil
	}

	return nil, &apierrors.KeyNotFoundError{Owner: owner.String(), Message: "entity carries no session key"}
}

// decryptValues decrypts e and its aggregates in place. Errors name the
// root type and the field path from the root.
func (c *Client) decryptValues(model *metamodel.TypeModel, e values.ParsedEntity, key crypto.SymmetricKey, typeName, path string) error {
	for _, name := range model.ValueNames() {
		mv := model.Values[name]
		if !mv.Encrypted || values.IsNull(e[name]) {
			continue
		}
		ciphertext, ok := e[name].(values.Bytes)
		if !ok {
			return &apierrors.DecryptionError{Type: typeName, Field: path + name, Err: fmt.Errorf("expected ciphertext, got %T", e[name])}
		}

		var (
			plain values.ElementValue
			err   error
		)
		if len(ciphertext) == 0 {
			plain, err = zeroValue(mv.Type)
		} else {
			var decrypted []byte
			decrypted, err = crypto.DecryptValue(key, ciphertext)
			if err == nil {
				plain, err = decodePlaintext(mv.Type, decrypted)
			}
		}
		if err != nil {
			return &apierrors.DecryptionError{Type: typeName, Field: path + name, Err: err}
		}
		e[name] = plain
	}

	return c.eachAggregate(model, e, path, func(nested *metamodel.TypeModel, item values.ParsedEntity, itemPath string) error {
		return c.decryptValues(nested, item, key, typeName, itemPath)
	})
}

func (c *Client) encryptValues(model *metamodel.TypeModel, e values.ParsedEntity, key crypto.SymmetricKey, typeName, path string) error {
	for _, name := range model.ValueNames() {
		mv := model.Values[name]
		if !mv.Encrypted || values.IsNull(e[name]) {
			continue
		}
		plain, err := encodePlaintext(mv.Type, e[name])
		if err != nil {
			return &apierrors.MalformedFieldError{Type: typeName, Field: path + name, Reason: err.Error()}
		}
		ciphertext, err := crypto.EncryptValue(key, plain)
		if err != nil {
			return &apierrors.InternalSdkError{Message: fmt.Sprintf("failed to encrypt %s.%s", typeName, path+name), Err: err}
		}
		e[name] = values.Bytes(ciphertext)
	}

	return c.eachAggregate(model, e, path, func(nested *metamodel.TypeModel, item values.ParsedEntity, itemPath string) error {
		return c.encryptValues(nested, item, key, typeName, itemPath)
	})
}

// eachAggregate calls fn for every nested aggregate of e, in place.
func (c *Client) eachAggregate(model *metamodel.TypeModel, e values.ParsedEntity, path string, fn func(*metamodel.TypeModel, values.ParsedEntity, string) error) error {
	for _, name := range model.AssociationNames() {
		assoc := model.Associations[name]
		if assoc.Type != metamodel.Aggregation {
			continue
		}
		nested, err := c.entities.TypeModel(model.RefTypeRef(assoc))
		if err != nil {
			return err
		}

		switch v := e[name].(type) {
		case values.ParsedEntity:
			if err := fn(nested, v, path+name+"."); err != nil {
				return err
			}
		case values.Array:
			for i, item := range v {
				agg, ok := item.(values.ParsedEntity)
				if !ok {
					return apierrors.Internalf("aggregate %s[%d] of %s is %T", name, i, model.Ref(), item)
				}
				if err := fn(nested, agg, fmt.Sprintf("%s%s[%d].", path, name, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (c *Client) recordFailure(model *metamodel.TypeModel, err error) {
	var decErr *apierrors.DecryptionError
	if !errors.As(err, &decErr) {
		return
	}
	typeName := model.Ref().String()
	c.logger.Warn().
		Str("type", typeName).
		Str("field", decErr.Field).
		Msg("entity decryption failed")
	c.metrics.RecordDecryptFailure(typeName)
}

func materialize(parsed values.ParsedEntity, out any) error {
	if err := values.Materialize(parsed, out); err != nil {
		return &apierrors.InternalSdkError{Message: fmt.Sprintf("failed to materialize %T", out), Err: err}
	}
	return nil
}
