// Package sync orchestrates the asynchronous traffic between the
// folder state and the remote mail store: sequenced page fetches,
// the confirm-then-apply star toggle, sends, and draft saves.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

// callTimeout bounds a single remote mail-store call.
const callTimeout = 30 * time.Second

// PageFetchedMsg carries a fetched folder page. Seq identifies the
// fetch; the application must discard the message when a newer fetch
// for the same folder has been dispatched since (IsCurrent).
type PageFetchedMsg struct {
	Folder model.Folder
	Page   int
	Result mail.Page
	Seq    uint64
}

// FetchFailedMsg reports a failed page fetch.
type FetchFailedMsg struct {
	Folder model.Folder
	Err    error
}

// StarToggledMsg reports that the server confirmed a star toggle; only
// now may the local flag be flipped.
type StarToggledMsg struct {
	Folder model.Folder
	ID     string
}

// StarFailedMsg reports a rejected star toggle. Local state is left
// untouched and no retry is scheduled.
type StarFailedMsg struct {
	Folder model.Folder
	ID     string
	Err    error
}

// SendDoneMsg carries the server's saved copy of a sent email.
type SendDoneMsg struct {
	Email model.Email
}

// SendFailedMsg reports a failed send; the compose session stays open
// with its fields intact.
type SendFailedMsg struct {
	Err error
}

// DraftSavedMsg reports a completed draft save.
type DraftSavedMsg struct {
	ID string
}

// DraftFailedMsg reports a failed draft save. Draft saves are
// fire-and-forget; the failure is surfaced as a transient message.
type DraftFailedMsg struct {
	ID  string
	Err error
}

// Coordinator issues remote calls as Bubble Tea commands and tags page
// fetches with per-folder sequence tokens so that, for any folder, the
// last dispatched fetch wins over stale in-flight responses.
type Coordinator struct {
	store  mail.Store
	logger *zap.Logger

	mu  gosync.Mutex
	seq map[model.Folder]uint64
}

// New creates a coordinator over the given mail store.
func New(store mail.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:  store,
		logger: logger,
		seq:    make(map[model.Folder]uint64),
	}
}

// FetchPage returns a command that fetches one page of a folder. The
// command captures a fresh sequence token; responses that lose the
// race are dropped by the caller via IsCurrent.
func (c *Coordinator) FetchPage(folder model.Folder, page, pageSize int) tea.Cmd {
	c.mu.Lock()
	c.seq[folder]++
	seq := c.seq[folder]
	c.mu.Unlock()

	store := c.store
	logger := c.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		result, err := store.FetchPage(ctx, folder, page, pageSize)
		if err != nil {
			logger.Warn("page fetch failed",
				zap.String("folder", string(folder)),
				zap.Int("page", page),
				zap.Error(err),
			)
			return FetchFailedMsg{Folder: folder, Err: err}
		}

		return PageFetchedMsg{
			Folder: folder,
			Page:   page,
			Result: result,
			Seq:    seq,
		}
	}
}

// IsCurrent reports whether seq is still the latest dispatched fetch
// for the folder. Superseded responses must not be applied.
func (c *Coordinator) IsCurrent(folder model.Folder, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq[folder] == seq
}

// ToggleStar returns a command implementing the confirm-then-apply
// star protocol: the remote call is issued first, and only a confirmed
// toggle produces a message that flips local state. On failure the
// folder state is left byte-for-byte unchanged.
func (c *Coordinator) ToggleStar(folder model.Folder, id string) tea.Cmd {
	store := c.store
	logger := c.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := store.ToggleStar(ctx, id); err != nil {
			logger.Warn("star toggle rejected",
				zap.String("folder", string(folder)),
				zap.String("id", id),
				zap.Error(err),
			)
			return StarFailedMsg{Folder: folder, ID: id, Err: err}
		}

		return StarToggledMsg{Folder: folder, ID: id}
	}
}

// Send returns a command that submits an outgoing email.
func (c *Coordinator) Send(email model.Email) tea.Cmd {
	store := c.store
	logger := c.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		saved, err := store.Send(ctx, email)
		if err != nil {
			logger.Error("send failed",
				zap.String("id", email.ID),
				zap.Error(err),
			)
			return SendFailedMsg{Err: err}
		}

		return SendDoneMsg{Email: saved}
	}
}

// SaveDraft returns a command that persists a draft. The compose
// surface does not wait for it; failures come back as a transient
// message.
func (c *Coordinator) SaveDraft(email model.Email) tea.Cmd {
	store := c.store
	logger := c.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := store.SaveDraft(ctx, email); err != nil {
			logger.Error("draft save failed",
				zap.String("id", email.ID),
				zap.Error(err),
			)
			return DraftFailedMsg{ID: email.ID, Err: err}
		}

		return DraftSavedMsg{ID: email.ID}
	}
}
