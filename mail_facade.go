package tutasdk

import (
	"context"
	"fmt"
)

// folderPageSize is the number of folders LoadFoldersForMailbox reads.
const folderPageSize = 100

// UserContext identifies the logged-in user. Login itself happens outside
// the SDK; the caller supplies the ids it obtained.
type UserContext struct {
	UserID GeneratedID
	// MailGroup is the id of the user's mail membership group.
	MailGroup GeneratedID
}

// MailFacade groups the mail operations of one user.
type MailFacade struct {
	client *Client
	user   UserContext
}

// LoadUserMailbox loads the mailbox of the user's mail group.
func (f *MailFacade) LoadUserMailbox(ctx context.Context) (MailBox, error) {
	if f.user.MailGroup == "" {
		return MailBox{}, ErrMissingMailGroup
	}
	root, err := Load[MailboxGroupRoot](ctx, f.client, f.user.MailGroup)
	if err != nil {
		return MailBox{}, fmt.Errorf("load mailbox group root: %w", err)
	}
	mailbox, err := Load[MailBox](ctx, f.client, root.Mailbox)
	if err != nil {
		return MailBox{}, fmt.Errorf("load mailbox: %w", err)
	}
	return mailbox, nil
}

// LoadFoldersForMailbox returns the first folders of mailbox in ascending
// id order.
func (f *MailFacade) LoadFoldersForMailbox(ctx context.Context, mailbox MailBox) ([]MailFolder, error) {
	if mailbox.Folders == nil {
		return nil, &InternalSdkError{Message: fmt.Sprintf("mailbox %s", mailbox.ID), Err: ErrNoFolders}
	}
	return LoadRange[MailFolder](ctx, f.client, mailbox.Folders.Folders, MinID, folderPageSize, Ascending)
}

// LoadEmailByIDEncrypted loads a single mail and decrypts it.
func (f *MailFacade) LoadEmailByIDEncrypted(ctx context.Context, id IDTuple) (Mail, error) {
	return Load[Mail](ctx, f.client, id)
}

// LoadMailsInFolder reads up to count mails of folder, starting after
// start in the given direction.
func (f *MailFacade) LoadMailsInFolder(ctx context.Context, folder MailFolder, start GeneratedID, count int, direction Direction) ([]Mail, error) {
	return LoadRange[Mail](ctx, f.client, folder.Mails, start, count, direction)
}

// SetUnread marks mail as read or unread on the server and returns the
// updated copy.
func (f *MailFacade) SetUnread(ctx context.Context, mail Mail, unread bool) (Mail, error) {
	mail.Unread = unread
	if err := Update(ctx, f.client, mail); err != nil {
		return Mail{}, err
	}
	return mail, nil
}
