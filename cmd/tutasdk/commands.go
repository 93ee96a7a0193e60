package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	tutasdk "github.com/tutasdk/client-go"
)

// FolderOutput is the JSON form of a folder.
type FolderOutput struct {
	ID         []string `json:"id"`
	Name       string   `json:"name"`
	FolderType int64    `json:"folderType"`
	Color      string   `json:"color,omitempty"`
	Mails      string   `json:"mails"`
}

// AddressOutput is the JSON form of a mail address.
type AddressOutput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// MailOutput is the JSON form of a mail.
type MailOutput struct {
	ID           []string        `json:"id"`
	Subject      string          `json:"subject"`
	From         AddressOutput   `json:"from"`
	To           []AddressOutput `json:"to"`
	ReceivedAt   time.Time       `json:"receivedAt"`
	Unread       bool            `json:"unread"`
	Confidential bool            `json:"confidential"`
}

func newFoldersCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List the folders of the user's mailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, newClient)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			mail := s.client.MailFacade(s.user)
			mailbox, err := tutasdk.Retry(ctx, nil, mail.LoadUserMailbox)
			if err != nil {
				return err
			}
			folders, err := tutasdk.Retry(ctx, nil, func(ctx context.Context) ([]tutasdk.MailFolder, error) {
				return mail.LoadFoldersForMailbox(ctx, mailbox)
			})
			if err != nil {
				return err
			}
			s.logger.Debug().Int("count", len(folders)).Msg("loaded folders")

			out := make([]FolderOutput, 0, len(folders))
			for _, f := range folders {
				item := FolderOutput{
					ID:         f.ID.PathSegments(),
					Name:       f.Name,
					FolderType: f.FolderType,
					Mails:      string(f.Mails),
				}
				if f.Color != nil {
					item.Color = *f.Color
				}
				out = append(out, item)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newMailCmd(newClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "mail <listId> <elementId>",
		Short: "Load and decrypt a single mail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, newClient)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			id := tutasdk.NewIDTuple(tutasdk.GeneratedID(args[0]), tutasdk.GeneratedID(args[1]))
			mail := s.client.MailFacade(s.user)
			m, err := tutasdk.Retry(ctx, nil, func(ctx context.Context) (tutasdk.Mail, error) {
				return mail.LoadEmailByIDEncrypted(ctx, id)
			})
			if err != nil {
				return err
			}

			out := MailOutput{
				ID:           m.ID.PathSegments(),
				Subject:      m.Subject,
				From:         AddressOutput{Name: m.Sender.Name, Address: m.Sender.Address},
				To:           make([]AddressOutput, 0, len(m.ToRecipients)),
				ReceivedAt:   m.ReceivedDate.UTC(),
				Unread:       m.Unread,
				Confidential: m.Confidential,
			}
			for _, r := range m.ToRecipients {
				out.To = append(out.To, AddressOutput{Name: r.Name, Address: r.Address})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
