package cryptoentity

import (
	"context"
	"fmt"
	"sync"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/values"
)

// OwnerRef names the group whose key protects an entity's session key.
type OwnerRef struct {
	Group values.GeneratedID
	// KeyVersion is the version of the group key, 0 when the entity does
	// not carry one.
	KeyVersion int64
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("group %s (key version %d)", o.Group, o.KeyVersion)
}

// KeyResolver provides group keys. Implementations return a
// *apierrors.KeyNotFoundError when they hold no key for the owner.
type KeyResolver interface {
	ResolveKey(ctx context.Context, owner OwnerRef) (crypto.SymmetricKey, error)
}

// KeyPairResolver is implemented by resolvers that can also provide a
// group's asymmetric key pair, needed for entities whose session key was
// encapsulated against the group's public key.
type KeyPairResolver interface {
	ResolveKeyPair(ctx context.Context, owner OwnerRef) (*crypto.KeyPair, error)
}

// StaticKeyResolver serves pinned keys. The key version of an OwnerRef is
// ignored: each group has exactly one key and one key pair.
type StaticKeyResolver struct {
	mu        sync.RWMutex
	groupKeys map[values.GeneratedID]crypto.SymmetricKey
	keyPairs  map[values.GeneratedID]*crypto.KeyPair
}

// NewStaticKeyResolver creates an empty StaticKeyResolver.
func NewStaticKeyResolver() *StaticKeyResolver {
	return &StaticKeyResolver{
		groupKeys: make(map[values.GeneratedID]crypto.SymmetricKey),
		keyPairs:  make(map[values.GeneratedID]*crypto.KeyPair),
	}
}

// AddGroupKey pins the symmetric key of group.
func (r *StaticKeyResolver) AddGroupKey(group values.GeneratedID, key crypto.SymmetricKey) *StaticKeyResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupKeys[group] = key
	return r
}

// AddKeyPair pins the key pair of group.
func (r *StaticKeyResolver) AddKeyPair(group values.GeneratedID, kp *crypto.KeyPair) *StaticKeyResolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyPairs[group] = kp
	return r
}

// ResolveKey implements KeyResolver.
func (r *StaticKeyResolver) ResolveKey(_ context.Context, owner OwnerRef) (crypto.SymmetricKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.groupKeys[owner.Group]
	if !ok {
		return nil, &apierrors.KeyNotFoundError{Owner: owner.String(), Message: "no group key"}
	}
	return key, nil
}

// ResolveKeyPair implements KeyPairResolver.
func (r *StaticKeyResolver) ResolveKeyPair(_ context.Context, owner OwnerRef) (*crypto.KeyPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kp, ok := r.keyPairs[owner.Group]
	if !ok {
		return nil, &apierrors.KeyNotFoundError{Owner: owner.String(), Message: "no key pair"}
	}
	return kp, nil
}
