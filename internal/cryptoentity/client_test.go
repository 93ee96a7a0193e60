package cryptoentity

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutasdk/client-go/internal/apierrors"
	"github.com/tutasdk/client-go/internal/crypto"
	"github.com/tutasdk/client-go/internal/entity"
	"github.com/tutasdk/client-go/internal/metrics"
	"github.com/tutasdk/client-go/internal/values"
)

var mailID = values.NewIDTuple("mailList", "mail1")

type testEnv struct {
	entities   *fakeEntities
	keys       *StaticKeyResolver
	groupKey   crypto.SymmetricKey
	sessionKey crypto.SymmetricKey
	client     *Client
	metrics    *metrics.Metrics
	logs       *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		entities:   newFakeEntities(),
		groupKey:   newKey(t),
		sessionKey: newKey(t),
		metrics:    metrics.New(prometheus.NewRegistry()),
		logs:       &bytes.Buffer{},
	}
	env.keys = NewStaticKeyResolver().AddGroupKey(ownerGroup, env.groupKey)

	c, err := New(Config{
		Entities: env.entities,
		Keys:     env.keys,
		Logger:   zerolog.New(env.logs),
		Metrics:  env.metrics,
	})
	require.NoError(t, err)
	env.client = c
	return env
}

func (env *testEnv) failures() float64 {
	return testutil.ToFloat64(env.metrics.DecryptFailuresTotal.WithLabelValues("tutanota/Mail"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Keys: NewStaticKeyResolver()})
	assert.Error(t, err)

	_, err = New(Config{Entities: newFakeEntities()})
	assert.Error(t, err)
}

func TestLoad_DecryptsAndMaterializes(t *testing.T) {
	env := newTestEnv(t)
	env.entities.put(mailID, encryptedMail(t, mailID, env.groupKey, env.sessionKey, "Quarterly report"))

	mail, err := Load[testMail](context.Background(), env.client, mailID)
	require.NoError(t, err)

	assert.Equal(t, mailID, mail.ID)
	assert.Equal(t, "Quarterly report", mail.Subject)
	assert.True(t, mail.Confidential)
	assert.Equal(t, int64(3), mail.ReplyType)
	assert.True(t, mail.Unread)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), mail.ReceivedDate)
	assert.Nil(t, mail.MovedTime)
	assert.Equal(t, testAddress{ID: "s1", Name: "Alice", Address: "alice@example.com"}, mail.Sender)
	require.Len(t, mail.ToRecipients, 1)
	assert.Equal(t, "Bob", mail.ToRecipients[0].Name)
	assert.Empty(t, mail.Attachments)
	assert.Equal(t, values.NewIDTuple("convList", "conv1"), mail.ConversationEntry)
	assert.Zero(t, env.failures())
}

func TestDecryptEntity_DoesNotModifyInput(t *testing.T) {
	env := newTestEnv(t)
	encrypted := encryptedMail(t, mailID, env.groupKey, env.sessionKey, "subject")
	original := encrypted.Clone()

	plain, err := env.client.DecryptEntity(context.Background(), mailRef, encrypted)
	require.NoError(t, err)

	assert.Equal(t, values.String("subject"), plain["subject"])
	assert.Equal(t, original, encrypted)
}

func TestLoad_EmptyCiphertextIsZeroValue(t *testing.T) {
	env := newTestEnv(t)
	e := encryptedMail(t, mailID, env.groupKey, env.sessionKey, "ignored")
	e["subject"] = values.Bytes{}
	e["confidential"] = values.Bytes{}
	e["replyType"] = values.Bytes{}
	e["sender"].(values.ParsedEntity)["name"] = values.Bytes{}
	env.entities.put(mailID, e)

	mail, err := Load[testMail](context.Background(), env.client, mailID)
	require.NoError(t, err)

	assert.Equal(t, "", mail.Subject)
	assert.False(t, mail.Confidential)
	assert.Zero(t, mail.ReplyType)
	assert.Equal(t, "", mail.Sender.Name)
}

func TestLoad_NoEncryptedValuesNeedsNoKey(t *testing.T) {
	env := newTestEnv(t)
	env.entities.put(values.GeneratedID("mailGroup"), values.ParsedEntity{
		"_id":          values.GeneratedID("mailGroup"),
		"_format":      values.Number(0),
		"_permissions": values.GeneratedID("perm"),
		"_ownerGroup":  values.Null{},
		"mailbox":      values.GeneratedID("box1"),
	})

	root, err := Load[testGroupRoot](context.Background(), env.client, values.GeneratedID("mailGroup"))
	require.NoError(t, err)
	assert.Equal(t, values.GeneratedID("box1"), root.Mailbox)
}

func TestLoad_DecryptionFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, env *testEnv, e values.ParsedEntity)
		field  string
	}{
		{
			name: "wrong group key",
			mutate: func(t *testing.T, env *testEnv, e values.ParsedEntity) {
				e["_ownerEncSessionKey"] = wrapKey(t, newKey(t), env.sessionKey)
			},
			field: "_ownerEncSessionKey",
		},
		{
			name: "value sealed under another session key",
			mutate: func(t *testing.T, env *testEnv, e values.ParsedEntity) {
				e["subject"] = seal(t, newKey(t), "Quarterly report")
			},
			field: "subject",
		},
		{
			name: "tampered aggregate value",
			mutate: func(t *testing.T, env *testEnv, e values.ParsedEntity) {
				name := e["toRecipients"].(values.Array)[0].(values.ParsedEntity)["name"].(values.Bytes)
				name[len(name)-1] ^= 0x01
			},
			field: "toRecipients[0].name",
		},
		{
			name: "plaintext of the wrong kind",
			mutate: func(t *testing.T, env *testEnv, e values.ParsedEntity) {
				e["replyType"] = seal(t, env.sessionKey, "three")
			},
			field: "replyType",
		},
		{
			name: "truncated ciphertext",
			mutate: func(t *testing.T, env *testEnv, e values.ParsedEntity) {
				e["subject"] = values.Bytes{1, 2, 3}
			},
			field: "subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			e := encryptedMail(t, mailID, env.groupKey, env.sessionKey, "Quarterly report")
			tt.mutate(t, env, e)
			env.entities.put(mailID, e)

			_, err := Load[testMail](context.Background(), env.client, mailID)
			require.Error(t, err)
			assert.ErrorIs(t, err, apierrors.ErrDecryptionFailed)

			var decErr *apierrors.DecryptionError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, "tutanota/Mail", decErr.Type)
			assert.Equal(t, tt.field, decErr.Field)

			assert.Equal(t, 1.0, env.failures())
			logged := env.logs.String()
			assert.Contains(t, logged, `"level":"warn"`)
			assert.Contains(t, logged, tt.field)
			assert.NotContains(t, logged, "Quarterly report")
		})
	}
}

func TestLoad_KeyNotFound(t *testing.T) {
	tests := []struct {
		name   string
		keys   KeyResolver
		mutate func(e values.ParsedEntity)
	}{
		{
			name:   "unknown group",
			keys:   NewStaticKeyResolver(),
			mutate: func(values.ParsedEntity) {},
		},
		{
			name:   "no owner group",
			keys:   nil,
			mutate: func(e values.ParsedEntity) { e["_ownerGroup"] = values.Null{} },
		},
		{
			name:   "no session key",
			keys:   nil,
			mutate: func(e values.ParsedEntity) { e["_ownerEncSessionKey"] = values.Null{} },
		},
		{
			name: "encapsulated key but resolver without key pairs",
			keys: keyResolverFunc(func(context.Context, OwnerRef) (crypto.SymmetricKey, error) {
				return nil, errors.New("unexpected call")
			}),
			mutate: func(e values.ParsedEntity) {
				e["_ownerEncSessionKey"] = values.Null{}
				e["_ownerPublicEncSessionKey"] = values.Bytes{1, 2, 3}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			keys := tt.keys
			if keys == nil {
				keys = env.keys
			}
			c, err := New(Config{Entities: env.entities, Keys: keys})
			require.NoError(t, err)

			e := encryptedMail(t, mailID, env.groupKey, env.sessionKey, "subject")
			tt.mutate(e)
			env.entities.put(mailID, e)

			_, err = Load[testMail](context.Background(), c, mailID)
			assert.ErrorIs(t, err, apierrors.ErrKeyNotFound)
			var keyErr *apierrors.KeyNotFoundError
			assert.ErrorAs(t, err, &keyErr)
		})
	}
}

func TestLoad_PublicEncSessionKey(t *testing.T) {
	env := newTestEnv(t)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	env.keys.AddKeyPair(ownerGroup, kp)

	encapsulated, err := crypto.EncapsulateKey(kp.PublicKey, env.sessionKey)
	require.NoError(t, err)

	e := encryptedMail(t, mailID, env.groupKey, env.sessionKey, "Sent to your public key")
	e["_ownerEncSessionKey"] = values.Null{}
	e["_ownerPublicEncSessionKey"] = values.Bytes(encapsulated)
	env.entities.put(mailID, e)

	mail, err := Load[testMail](context.Background(), env.client, mailID)
	require.NoError(t, err)
	assert.Equal(t, "Sent to your public key", mail.Subject)

	t.Run("wrong key pair", func(t *testing.T) {
		other, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		env.keys.AddKeyPair(ownerGroup, other)

		_, err = Load[testMail](context.Background(), env.client, mailID)
		var decErr *apierrors.DecryptionError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, "_ownerPublicEncSessionKey", decErr.Field)
	})
}

func TestLoad_EntityClientErrorPassesThrough(t *testing.T) {
	env := newTestEnv(t)

	_, err := Load[testMail](context.Background(), env.client, mailID)
	assert.ErrorIs(t, err, apierrors.ErrNotFound)

	env.entities.err = &apierrors.NetworkError{Err: errors.New("connection refused")}
	_, err = Load[testMail](context.Background(), env.client, mailID)
	assert.ErrorIs(t, err, apierrors.ErrNoConnectivity)
	assert.Zero(t, env.failures())
}

func TestLoadRange(t *testing.T) {
	env := newTestEnv(t)
	names := []string{"Inbox", "Sent", "Archive"}
	for i, name := range names {
		id := values.NewIDTuple("folders", values.GeneratedID(string(rune('a'+i))))
		env.entities.ranges = append(env.entities.ranges, encryptedFolder(t, id, env.groupKey, newKey(t), name))
	}

	folders, err := LoadRange[testFolder](context.Background(), env.client, "folders", values.MinID, 100, entity.Ascending)
	require.NoError(t, err)
	require.Len(t, folders, 3)
	for i, f := range folders {
		assert.Equal(t, names[i], f.Name)
		assert.Nil(t, f.Color)
	}

	t.Run("empty range", func(t *testing.T) {
		env := newTestEnv(t)
		folders, err := LoadRange[testFolder](context.Background(), env.client, "folders", values.MinID, 100, entity.Ascending)
		require.NoError(t, err)
		assert.Empty(t, folders)
	})

	t.Run("one undecryptable element fails the range", func(t *testing.T) {
		env.entities.ranges[1]["name"] = seal(t, newKey(t), "Sent")
		folders, err := LoadRange[testFolder](context.Background(), env.client, "folders", values.MinID, 100, entity.Ascending)
		assert.ErrorIs(t, err, apierrors.ErrDecryptionFailed)
		assert.Nil(t, folders)
	})
}

func TestUpdate_EncryptsBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	env.entities.put(mailID, encryptedMail(t, mailID, env.groupKey, env.sessionKey, "Draft"))

	mail, err := Load[testMail](context.Background(), env.client, mailID)
	require.NoError(t, err)

	mail.Unread = false
	mail.ReplyType = 1
	mail.Sender.Name = "Alice Liddell"
	require.NoError(t, Update(context.Background(), env.client, mail))

	require.Len(t, env.entities.updates, 1)
	call := env.entities.updates[0]
	assert.Equal(t, mailRef, call.ref)
	assert.Equal(t, 74, call.version)

	written := call.entity
	assert.Equal(t, values.Bool(false), written["unread"])
	_, isCiphertext := written["subject"].(values.Bytes)
	assert.True(t, isCiphertext, "subject must be written encrypted")

	plain, err := env.client.DecryptEntity(context.Background(), mailRef, written)
	require.NoError(t, err)
	assert.Equal(t, values.String("Draft"), plain["subject"])
	assert.Equal(t, values.Number(1), plain["replyType"])
	assert.Equal(t, values.String("Alice Liddell"), plain["sender"].(values.ParsedEntity)["name"])
}

func TestUpdate_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no session key", func(t *testing.T) {
		err := Update(context.Background(), env.client, testMail{ID: mailID})
		assert.ErrorIs(t, err, apierrors.ErrKeyNotFound)
		assert.Empty(t, env.entities.updates)
	})

	t.Run("backend failure", func(t *testing.T) {
		env.entities.put(mailID, encryptedMail(t, mailID, env.groupKey, env.sessionKey, "Draft"))
		mail, err := Load[testMail](context.Background(), env.client, mailID)
		require.NoError(t, err)

		env.entities.err = &apierrors.ServerResponseError{Status: 412, Precondition: "0"}
		err = Update(context.Background(), env.client, mail)
		assert.ErrorIs(t, err, apierrors.ErrPreconditionFailed)
	})
}

func TestEncryptEntity_MalformedValue(t *testing.T) {
	env := newTestEnv(t)
	plain, err := env.client.DecryptEntity(context.Background(), mailRef,
		encryptedMail(t, mailID, env.groupKey, env.sessionKey, "subject"))
	require.NoError(t, err)

	plain["replyType"] = values.String("three")
	_, err = env.client.EncryptEntity(context.Background(), mailRef, plain)
	var malformed *apierrors.MalformedFieldError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "tutanota/Mail", malformed.Type)
	assert.Equal(t, "replyType", malformed.Field)
}

func TestEncryptEntity_MalformedAggregateValue(t *testing.T) {
	env := newTestEnv(t)
	plain, err := env.client.DecryptEntity(context.Background(), mailRef,
		encryptedMail(t, mailID, env.groupKey, env.sessionKey, "subject"))
	require.NoError(t, err)

	plain["toRecipients"].(values.Array)[0].(values.ParsedEntity)["name"] = values.Number(5)
	_, err = env.client.EncryptEntity(context.Background(), mailRef, plain)
	var malformed *apierrors.MalformedFieldError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "tutanota/Mail", malformed.Type)
	assert.Equal(t, "toRecipients[0].name", malformed.Field)
}
