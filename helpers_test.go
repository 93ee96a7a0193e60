package tutasdk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutasdk/client-go/internal/codec"
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/metamodel"
	"github.com/tutasdk/client-go/internal/resttest"
	"github.com/tutasdk/client-go/internal/values"
)

const (
	testMailGroup GeneratedID = "mailGroup"
	testMailbox   GeneratedID = "mailbox1"
	testFolders   GeneratedID = "folderList"
	testMails     GeneratedID = "mailList"
)

// fixture is a backend seeded with one user's encrypted mailbox.
type fixture struct {
	backend  *resttest.Backend
	groupKey SymmetricKey
	keys     *StaticKeyResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	groupKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &fixture{
		backend:  resttest.NewBackend(),
		groupKey: groupKey,
		keys:     NewStaticKeyResolver().AddGroupKey(testMailGroup, groupKey),
	}
}

func (f *fixture) store(t *testing.T, ref TypeRef, e values.ParsedEntity) {
	t.Helper()
	raw, err := codec.NewSerializer(metamodel.Default()).Serialize(ref, e)
	require.NoError(t, err)
	require.NoError(t, f.backend.Put(ref.App, ref.Type, raw))
}

func (f *fixture) seal(t *testing.T, key SymmetricKey, plain string) values.Bytes {
	t.Helper()
	ct, err := crypto.EncryptValue(key, []byte(plain))
	require.NoError(t, err)
	return values.Bytes(ct)
}

// sessionKey returns a fresh session key and its wrapping under the group key.
func (f *fixture) sessionKey(t *testing.T) (SymmetricKey, values.Bytes) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wrapped, err := crypto.EncryptKey(f.groupKey, key)
	require.NoError(t, err)
	return key, values.Bytes(wrapped)
}

func (f *fixture) seedMailbox(t *testing.T) {
	t.Helper()
	f.store(t, MailboxGroupRootType, values.ParsedEntity{
		"_id":          testMailGroup,
		"_format":      values.Number(0),
		"_permissions": values.GeneratedID("perm"),
		"_ownerGroup":  testMailGroup,
		"mailbox":      testMailbox,
	})
	f.store(t, MailBoxType, values.ParsedEntity{
		"_id":                 testMailbox,
		"_format":             values.Number(0),
		"_permissions":        values.GeneratedID("perm"),
		"_ownerGroup":         testMailGroup,
		"_ownerEncSessionKey": values.Null{},
		"_ownerKeyVersion":    values.Null{},
		"lastInfoVersion":     values.Number(7),
		"folders": values.ParsedEntity{
			"_id":     values.CustomID("ref"),
			"folders": testFolders,
		},
	})
}

func (f *fixture) seedFolder(t *testing.T, id GeneratedID, name string, folderType int64) {
	t.Helper()
	key, wrapped := f.sessionKey(t)
	f.store(t, MailFolderType, values.ParsedEntity{
		"_id":                 NewIDTuple(testFolders, id),
		"_format":             values.Number(0),
		"_permissions":        values.GeneratedID("perm"),
		"_ownerGroup":         testMailGroup,
		"_ownerEncSessionKey": wrapped,
		"_ownerKeyVersion":    values.Number(0),
		"name":                f.seal(t, key, name),
		"folderType":          values.Number(folderType),
		"color":               values.Null{},
		"parentFolder":        values.Null{},
		"mails":               testMails,
	})
}

func (f *fixture) seedMail(t *testing.T, id GeneratedID, subject string) {
	t.Helper()
	key, wrapped := f.sessionKey(t)
	f.store(t, MailType, values.ParsedEntity{
		"_id":                       NewIDTuple(testMails, id),
		"_format":                   values.Number(0),
		"_permissions":              values.GeneratedID("perm"),
		"_ownerGroup":               testMailGroup,
		"_ownerEncSessionKey":       wrapped,
		"_ownerPublicEncSessionKey": values.Null{},
		"_ownerKeyVersion":          values.Number(0),
		"subject":                   f.seal(t, key, subject),
		"receivedDate":              values.Date(1700000000000),
		"state":                     values.Number(2),
		"unread":                    values.Bool(true),
		"confidential":              f.seal(t, key, "0"),
		"replyType":                 f.seal(t, key, "0"),
		"movedTime":                 values.Null{},
		"sender": values.ParsedEntity{
			"_id":     values.CustomID("s"),
			"name":    f.seal(t, key, "Alice"),
			"address": values.String("alice@example.com"),
		},
		"toRecipients":      values.Array{},
		"attachments":       values.Array{},
		"conversationEntry": NewIDTuple("convList", id),
	})
}

func (f *fixture) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL("http://backend.test"),
		WithTransport(f.backend),
		WithKeyResolver(f.keys),
		WithAccessToken("tok"),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}
