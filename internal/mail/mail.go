// Package mail defines the mail-store boundary the client talks to,
// and the error taxonomy its implementations surface.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/webmail/internal/model"
)

// Page is one fetched page of a folder, plus the server-reported total
// used for pagination.
type Page struct {
	Emails     []model.Email
	TotalCount int
}

// Store is the remote mail store. Implementations are opaque to the
// rest of the client; errors are surfaced through the taxonomy below,
// never swallowed.
type Store interface {
	// FetchPage retrieves one page of a folder in server order.
	FetchPage(ctx context.Context, folder model.Folder, page, pageSize int) (Page, error)

	// Send submits an outgoing email. The returned email is the
	// server's saved copy, which wins over the local draft of it.
	Send(ctx context.Context, email model.Email) (model.Email, error)

	// SaveDraft persists a draft under its id, overwriting any
	// previous save of the same draft.
	SaveDraft(ctx context.Context, email model.Email) error

	// ToggleStar flips the server-side star flag of a message.
	ToggleStar(ctx context.Context, id string) error
}

// AuthError indicates the stored credential was rejected by the store.
// The client treats it as "no identity": composition is blocked and the
// user is asked to log in again.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// RemoteError indicates a store call failed. It is recoverable: local
// state is left intact and the message is shown transiently.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UserMessage returns the text suitable for a status-bar toast,
// preferring the server-provided message.
func (e *RemoteError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// IsRemoteError reports whether err (or its chain) is a RemoteError.
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}

// ErrNotFound indicates a lookup by id matched nothing. Callers treat
// it as "deselect" or "no prefill", never as fatal.
var ErrNotFound = errors.New("mail: not found")
