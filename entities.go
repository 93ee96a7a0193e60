package tutasdk

import (
	"time"

	"github.com/tutasdk/client-go/internal/metamodel"
)

const mailApp = "tutanota"

// Type references of the mail entities.
var (
	MailboxGroupRootType = TypeRef{App: mailApp, Type: "MailboxGroupRoot"}
	MailBoxType          = TypeRef{App: mailApp, Type: "MailBox"}
	MailFolderRefType    = TypeRef{App: mailApp, Type: "MailFolderRef"}
	MailFolderType       = TypeRef{App: mailApp, Type: "MailFolder"}
	MailType             = TypeRef{App: mailApp, Type: "Mail"}
	MailAddressType      = TypeRef{App: mailApp, Type: "MailAddress"}
)

// MailboxGroupRoot is the entry point of a mail group. Its id is the id of
// the group.
type MailboxGroupRoot struct {
	ID          GeneratedID  `entity:"_id"`
	Format      int64        `entity:"_format"`
	Permissions GeneratedID  `entity:"_permissions"`
	OwnerGroup  *GeneratedID `entity:"_ownerGroup"`
	Mailbox     GeneratedID  `entity:"mailbox"`
}

func (MailboxGroupRoot) TypeRef() metamodel.TypeRef { return MailboxGroupRootType }

// MailBox holds the reference to the user's folder list.
type MailBox struct {
	ID                 GeneratedID    `entity:"_id"`
	Format             int64          `entity:"_format"`
	Permissions        GeneratedID    `entity:"_permissions"`
	OwnerGroup         *GeneratedID   `entity:"_ownerGroup"`
	OwnerEncSessionKey []byte         `entity:"_ownerEncSessionKey"`
	OwnerKeyVersion    *int64         `entity:"_ownerKeyVersion"`
	LastInfoVersion    int64          `entity:"lastInfoVersion"`
	Folders            *MailFolderRef `entity:"folders"`
}

func (MailBox) TypeRef() metamodel.TypeRef { return MailBoxType }

// MailFolderRef is the aggregate pointing at the list of a mailbox's
// folders.
type MailFolderRef struct {
	ID      CustomID    `entity:"_id"`
	Folders GeneratedID `entity:"folders"`
}

// MailFolder is a folder in a mailbox. Name and Color are encrypted.
type MailFolder struct {
	ID                 IDTuple      `entity:"_id"`
	Format             int64        `entity:"_format"`
	Permissions        GeneratedID  `entity:"_permissions"`
	OwnerGroup         *GeneratedID `entity:"_ownerGroup"`
	OwnerEncSessionKey []byte       `entity:"_ownerEncSessionKey"`
	OwnerKeyVersion    *int64       `entity:"_ownerKeyVersion"`
	Name               string       `entity:"name"`
	FolderType         int64        `entity:"folderType"`
	Color              *string      `entity:"color"`
	ParentFolder       *IDTuple     `entity:"parentFolder"`
	// Mails is the id of the list holding the folder's mails.
	Mails GeneratedID `entity:"mails"`
}

func (MailFolder) TypeRef() metamodel.TypeRef { return MailFolderType }

// Mail is a single mail. Subject, Confidential, ReplyType and the names of
// sender and recipients are encrypted.
type Mail struct {
	ID                       IDTuple       `entity:"_id"`
	Format                   int64         `entity:"_format"`
	Permissions              GeneratedID   `entity:"_permissions"`
	OwnerGroup               *GeneratedID  `entity:"_ownerGroup"`
	OwnerEncSessionKey       []byte        `entity:"_ownerEncSessionKey"`
	OwnerPublicEncSessionKey []byte        `entity:"_ownerPublicEncSessionKey"`
	OwnerKeyVersion          *int64        `entity:"_ownerKeyVersion"`
	Subject                  string        `entity:"subject"`
	ReceivedDate             time.Time     `entity:"receivedDate"`
	State                    int64         `entity:"state"`
	Unread                   bool          `entity:"unread"`
	Confidential             bool          `entity:"confidential"`
	ReplyType                int64         `entity:"replyType"`
	MovedTime                *time.Time    `entity:"movedTime"`
	Sender                   MailAddress   `entity:"sender"`
	ToRecipients             []MailAddress `entity:"toRecipients"`
	Attachments              []IDTuple     `entity:"attachments"`
	ConversationEntry        IDTuple       `entity:"conversationEntry"`
}

func (Mail) TypeRef() metamodel.TypeRef { return MailType }

// MailAddress is a display name and address pair inside a Mail.
type MailAddress struct {
	ID      CustomID `entity:"_id"`
	Name    string   `entity:"name"`
	Address string   `entity:"address"`
}
