package cryptoentity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/entity"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/values"
)

var (
	mailRef   = metamodel.TypeRef{App: "tutanota", Type: "Mail"}
	folderRef = metamodel.TypeRef{App: "tutanota", Type: "MailFolder"}
	rootRef   = metamodel.TypeRef{App: "tutanota", Type: "MailboxGroupRoot"}
)

const ownerGroup values.GeneratedID = "mailGroup"

type testAddress struct {
	ID      values.CustomID `entity:"_id"`
	Name    string          `entity:"name"`
	Address string          `entity:"address"`
}

type testMail struct {
	ID                       values.IDTuple      `entity:"_id"`
	Format                   int64               `entity:"_format"`
	Permissions              values.GeneratedID  `entity:"_permissions"`
	OwnerGroup               *values.GeneratedID `entity:"_ownerGroup"`
	OwnerEncSessionKey       []byte              `entity:"_ownerEncSessionKey"`
	OwnerPublicEncSessionKey []byte              `entity:"_ownerPublicEncSessionKey"`
	OwnerKeyVersion          *int64              `entity:"_ownerKeyVersion"`
	Subject                  string              `entity:"subject"`
	ReceivedDate             time.Time           `entity:"receivedDate"`
	State                    int64               `entity:"state"`
	Unread                   bool                `entity:"unread"`
	Confidential             bool                `entity:"confidential"`
	ReplyType                int64               `entity:"replyType"`
	MovedTime                *time.Time          `entity:"movedTime"`
	Sender                   testAddress         `entity:"sender"`
	ToRecipients             []testAddress       `entity:"toRecipients"`
	Attachments              []values.IDTuple    `entity:"attachments"`
	ConversationEntry        values.IDTuple      `entity:"conversationEntry"`
}

func (testMail) TypeRef() metamodel.TypeRef { return mailRef }

type testFolder struct {
	ID         values.IDTuple `entity:"_id"`
	Name       string         `entity:"name"`
	Color      *string        `entity:"color"`
	FolderType int64          `entity:"folderType"`
}

func (testFolder) TypeRef() metamodel.TypeRef { return folderRef }

type testGroupRoot struct {
	ID      values.GeneratedID `entity:"_id"`
	Mailbox values.GeneratedID `entity:"mailbox"`
}

func (testGroupRoot) TypeRef() metamodel.TypeRef { return rootRef }

func seal(t *testing.T, key crypto.SymmetricKey, plain string) values.Bytes {
	t.Helper()
	ct, err := crypto.EncryptValue(key, []byte(plain))
	require.NoError(t, err)
	return values.Bytes(ct)
}

func wrapKey(t *testing.T, groupKey, sessionKey crypto.SymmetricKey) values.Bytes {
	t.Helper()
	wrapped, err := crypto.EncryptKey(groupKey, sessionKey)
	require.NoError(t, err)
	return values.Bytes(wrapped)
}

func newKey(t *testing.T) crypto.SymmetricKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

// encryptedMail builds a mail as the server stores it: every encrypted
// value sealed under sessionKey, the session key wrapped under groupKey.
func encryptedMail(t *testing.T, id values.IDTuple, groupKey, sessionKey crypto.SymmetricKey, subject string) values.ParsedEntity {
	t.Helper()
	return values.ParsedEntity{
		"_id":                       id,
		"_format":                   values.Number(0),
		"_permissions":              values.GeneratedID("perm"),
		"_ownerGroup":               ownerGroup,
		"_ownerEncSessionKey":       wrapKey(t, groupKey, sessionKey),
		"_ownerPublicEncSessionKey": values.Null{},
		"_ownerKeyVersion":          values.Number(0),
		"subject":                   seal(t, sessionKey, subject),
		"receivedDate":              values.Date(1700000000000),
		"state":                     values.Number(2),
		"unread":                    values.Bool(true),
		"confidential":              seal(t, sessionKey, "1"),
		"replyType":                 seal(t, sessionKey, "3"),
		"movedTime":                 values.Null{},
		"sender": values.ParsedEntity{
			"_id":     values.CustomID("s1"),
			"name":    seal(t, sessionKey, "Alice"),
			"address": values.String("alice@example.com"),
		},
		"toRecipients": values.Array{
			values.ParsedEntity{
				"_id":     values.CustomID("r1"),
				"name":    seal(t, sessionKey, "Bob"),
				"address": values.String("bob@example.com"),
			},
		},
		"attachments":       values.Array{},
		"conversationEntry": values.NewIDTuple("convList", "conv1"),
	}
}

func encryptedFolder(t *testing.T, id values.IDTuple, groupKey, sessionKey crypto.SymmetricKey, name string) values.ParsedEntity {
	t.Helper()
	return values.ParsedEntity{
		"_id":                 id,
		"_format":             values.Number(0),
		"_permissions":        values.GeneratedID("perm"),
		"_ownerGroup":         ownerGroup,
		"_ownerEncSessionKey": wrapKey(t, groupKey, sessionKey),
		"_ownerKeyVersion":    values.Null{},
		"name":                seal(t, sessionKey, name),
		"folderType":          values.Number(1),
		"color":               values.Null{},
		"parentFolder":        values.Null{},
		"mails":               values.GeneratedID("mailList"),
	}
}

type updateCall struct {
	ref     metamodel.TypeRef
	entity  values.ParsedEntity
	version int
}

// fakeEntities is an in-memory EntityClient.
type fakeEntities struct {
	mu       sync.Mutex
	catalog  metamodel.Catalog
	entities map[string]values.ParsedEntity
	ranges   []values.ParsedEntity
	err      error
	updates  []updateCall
}

func newFakeEntities() *fakeEntities {
	return &fakeEntities{
		catalog:  metamodel.Default(),
		entities: make(map[string]values.ParsedEntity),
	}
}

func (f *fakeEntities) put(id values.ID, e values.ParsedEntity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities[id.String()] = e
}

func (f *fakeEntities) TypeModel(ref metamodel.TypeRef) (*metamodel.TypeModel, error) {
	model, ok := f.catalog.TypeModel(ref.App, ref.Type)
	if !ok {
		return nil, apierrors.Internalf("model %s not found", ref)
	}
	return model, nil
}

func (f *fakeEntities) Load(_ context.Context, _ metamodel.TypeRef, id values.ID) (values.ParsedEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entities[id.String()]
	if !ok {
		return nil, &apierrors.ServerResponseError{Status: 404}
	}
	return e.Clone(), nil
}

func (f *fakeEntities) LoadRange(context.Context, metamodel.TypeRef, values.GeneratedID, values.GeneratedID, int, entity.Direction) ([]values.ParsedEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]values.ParsedEntity, len(f.ranges))
	for i, e := range f.ranges {
		out[i] = e.Clone()
	}
	return out, nil
}

func (f *fakeEntities) Update(_ context.Context, ref metamodel.TypeRef, e values.ParsedEntity, modelVersion int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, updateCall{ref: ref, entity: e, version: modelVersion})
	return nil
}

// keyResolverFunc is a KeyResolver that cannot provide key pairs.
type keyResolverFunc func(ctx context.Context, owner OwnerRef) (crypto.SymmetricKey, error)

func (f keyResolverFunc) ResolveKey(ctx context.Context, owner OwnerRef) (crypto.SymmetricKey, error) {
	return f(ctx, owner)
}
