// Package imapgw implements the mail store over IMAP for reading and
// SMTP for submission, for servers that expose no webmail REST API.
package imapgw

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

// Gateway adapts an IMAP/SMTP account to the mail.Store contract.
// Message ids are "mailbox:uid" pairs; ids minted by the compose layer
// are carried in the Message-ID header so draft re-saves can find and
// replace their previous version.
type Gateway struct {
	imapHost string
	imapPort string
	smtpHost string
	smtpPort string
	username string
	password string
	tls      bool

	// mailboxes maps client folders to server mailbox names. The
	// starred folder is a flag view over INBOX, not a mailbox.
	mailboxes map[model.Folder]string
}

var _ mail.Store = (*Gateway)(nil)

// New creates a gateway for one account. Mailbox overrides may be nil;
// conventional names are used for missing entries.
func New(cfg model.IMAPConfig, smtpCfg model.SMTPConfig, password string) *Gateway {
	mailboxes := map[model.Folder]string{
		model.FolderInbox:  "INBOX",
		model.FolderSent:   "Sent",
		model.FolderDrafts: "Drafts",
		model.FolderTrash:  "Trash",
	}
	for folder, name := range cfg.Mailboxes {
		mailboxes[model.Folder(folder)] = name
	}

	return &Gateway{
		imapHost:  cfg.Host,
		imapPort:  cfg.Port,
		smtpHost:  smtpCfg.Host,
		smtpPort:  smtpCfg.Port,
		username:  cfg.Username,
		password:  password,
		tls:       cfg.TLS,
		mailboxes: mailboxes,
	}
}

// connect establishes a connection to the IMAP server and
// authenticates. The caller is responsible for Logout on the returned
// client.
func (g *Gateway) connect(_ context.Context) (*imapclient.Client, error) {
	addr := g.imapHost + ":" + g.imapPort

	var client *imapclient.Client
	var err error

	if g.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, &mail.RemoteError{
			Op:  "imap dial " + addr,
			Err: err,
		}
	}

	if err := client.Login(g.username, g.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &mail.AuthError{
			Message: fmt.Sprintf(
				"IMAP authentication failed for %s: %v", g.username, err,
			),
		}
	}

	return client, nil
}

// FetchPage retrieves one page of a folder, newest first. The starred
// folder is served as the \Flagged subset of INBOX.
func (g *Gateway) FetchPage(
	ctx context.Context,
	folder model.Folder,
	page, pageSize int,
) (mail.Page, error) {
	client, err := g.connect(ctx)
	if err != nil {
		return mail.Page{}, err
	}
	defer func() { _ = client.Logout().Wait() }()

	mailbox := g.mailbox(folder)
	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return mail.Page{}, &mail.RemoteError{
			Op:  "imap select " + mailbox,
			Err: err,
		}
	}

	criteria := &imap.SearchCriteria{}
	if folder == model.FolderStarred {
		criteria.Flag = []imap.Flag{imap.FlagFlagged}
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return mail.Page{}, &mail.RemoteError{
			Op:  "imap search " + mailbox,
			Err: err,
		}
	}

	uids := searchData.AllUIDs()
	total := len(uids)

	pageUIDs := pageSlice(uids, page, pageSize)
	if len(pageUIDs) == 0 {
		return mail.Page{TotalCount: total}, nil
	}

	emails, err := g.fetchEmails(client, mailbox, pageUIDs)
	if err != nil {
		return mail.Page{}, err
	}

	return mail.Page{Emails: emails, TotalCount: total}, nil
}

// pageSlice picks the 1-based page from uids, newest (highest uid)
// first, matching the webmail API's ordering.
func pageSlice(uids []imap.UID, page, pageSize int) []imap.UID {
	if page < 1 || pageSize < 1 {
		return nil
	}

	// Reverse so the newest message leads.
	reversed := make([]imap.UID, len(uids))
	for i, uid := range uids {
		reversed[len(uids)-1-i] = uid
	}

	start := (page - 1) * pageSize
	if start >= len(reversed) {
		return nil
	}
	end := start + pageSize
	if end > len(reversed) {
		end = len(reversed)
	}
	return reversed[start:end]
}

// fetchEmails fetches envelope, flags, and body for the given uids of
// the currently selected mailbox.
func (g *Gateway) fetchEmails(
	client *imapclient.Client,
	mailbox string,
	uids []imap.UID,
) ([]model.Email, error) {
	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var emails []model.Email
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		emails = append(emails, emailFromBuffer(mailbox, buf, bodySection))
	}

	if err := fetchCmd.Close(); err != nil {
		return emails, &mail.RemoteError{
			Op:  "imap fetch " + mailbox,
			Err: err,
		}
	}

	return emails, nil
}

// ToggleStar reads the message's current flags and flips \Flagged.
func (g *Gateway) ToggleStar(ctx context.Context, id string) error {
	mailbox, uid, err := parseID(id)
	if err != nil {
		return err
	}

	client, err := g.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return &mail.RemoteError{Op: "imap select " + mailbox, Err: err}
	}

	uidSet := imap.UIDSetNum(uid)

	fetchCmd := client.Fetch(uidSet, &imap.FetchOptions{Flags: true, UID: true})
	msgs, err := fetchCmd.Collect()
	if err != nil {
		return &mail.RemoteError{Op: "imap fetch flags", Err: err}
	}
	if len(msgs) == 0 {
		return fmt.Errorf("imap message %s: %w", id, mail.ErrNotFound)
	}

	op := imap.StoreFlagsAdd
	if hasFlag(msgs[0].Flags, imap.FlagFlagged) {
		op = imap.StoreFlagsDel
	}

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagFlagged},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return &mail.RemoteError{Op: "imap store flags", Err: err}
	}

	return nil
}

// SaveDraft appends the draft to the drafts mailbox, replacing any
// previous save carrying the same compose id in its Message-ID.
func (g *Gateway) SaveDraft(ctx context.Context, email model.Email) error {
	client, err := g.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	drafts := g.mailbox(model.FolderDrafts)
	if _, err := client.Select(drafts, nil).Wait(); err != nil {
		return &mail.RemoteError{Op: "imap select " + drafts, Err: err}
	}

	// Delete the previous version of this draft, if one exists.
	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Message-ID", Value: messageIDHeader(email.ID)},
		},
	}
	if searchData, err := client.UIDSearch(criteria, nil).Wait(); err == nil {
		if old := searchData.AllUIDs(); len(old) > 0 {
			oldSet := imap.UIDSetNum(old...)
			_ = client.Store(oldSet, &imap.StoreFlags{
				Op:     imap.StoreFlagsAdd,
				Silent: true,
				Flags:  []imap.Flag{imap.FlagDeleted},
			}, nil).Close()
			_ = client.Expunge().Close()
		}
	}

	raw, err := buildMessage(email)
	if err != nil {
		return err
	}

	appendCmd := client.Append(drafts, int64(len(raw)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagDraft},
	})
	if _, err := appendCmd.Write(raw); err != nil {
		return &mail.RemoteError{Op: "imap append " + drafts, Err: err}
	}
	if err := appendCmd.Close(); err != nil {
		return &mail.RemoteError{Op: "imap append " + drafts, Err: err}
	}
	if _, err := appendCmd.Wait(); err != nil {
		return &mail.RemoteError{Op: "imap append " + drafts, Err: err}
	}

	return nil
}

// Send submits the message over SMTP and files a copy into the sent
// mailbox. The submitted email is returned as the saved copy.
func (g *Gateway) Send(ctx context.Context, email model.Email) (model.Email, error) {
	raw, err := buildMessage(email)
	if err != nil {
		return model.Email{}, err
	}

	if err := g.submit(email, raw); err != nil {
		return model.Email{}, err
	}

	// File the sent copy; submission already succeeded, so a failure
	// here is reported but does not fail the send.
	if client, err := g.connect(ctx); err == nil {
		sent := g.mailbox(model.FolderSent)
		appendCmd := client.Append(sent, int64(len(raw)), &imap.AppendOptions{
			Flags: []imap.Flag{imap.FlagSeen},
		})
		if _, werr := appendCmd.Write(raw); werr == nil {
			_ = appendCmd.Close()
			_, _ = appendCmd.Wait()
		}
		_ = client.Logout().Wait()
	}

	return email, nil
}

func (g *Gateway) mailbox(folder model.Folder) string {
	if folder == model.FolderStarred {
		return g.mailboxes[model.FolderInbox]
	}
	if name, ok := g.mailboxes[folder]; ok {
		return name
	}
	return "INBOX"
}

// parseID splits a "mailbox:uid" id.
func parseID(id string) (string, imap.UID, error) {
	idx := strings.LastIndex(id, ":")
	if idx < 1 {
		return "", 0, fmt.Errorf("imap id %q: %w", id, mail.ErrNotFound)
	}
	uid, err := strconv.ParseUint(id[idx+1:], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("imap id %q: %w", id, mail.ErrNotFound)
	}
	return id[:idx], imap.UID(uid), nil
}

func hasFlag(flags []imap.Flag, want imap.Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
