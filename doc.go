// Package tutasdk provides a Go client for an end-to-end encrypted mail
// backend. It loads entities over the backend's REST API, decrypts them
// with the owner group's keys and returns typed domain objects.
//
// Requests pass through three layers: a schema-driven JSON codec, a generic
// entity client (CRUD, list ranges and the backend's error taxonomy) and a
// crypto layer that establishes each entity's session key and decrypts
// every encrypted field, nested aggregates included.
//
// Basic usage:
//
//	keys := tutasdk.NewStaticKeyResolver().AddGroupKey(mailGroup, groupKey)
//	client, err := tutasdk.New(
//	    tutasdk.WithBaseURL("https://mail.example.com"),
//	    tutasdk.WithAccessToken(accessToken),
//	    tutasdk.WithKeyResolver(keys),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mail := client.MailFacade(tutasdk.UserContext{MailGroup: mailGroup})
//	mailbox, err := mail.LoadUserMailbox(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	folders, err := mail.LoadFoldersForMailbox(ctx, mailbox)
//
// Errors returned by the client match the sentinels of this package with
// errors.Is, for example ErrNotFound for a 404 response or
// ErrDecryptionFailed when a value cannot be decrypted.
package tutasdk
