package compose

import (
	"errors"

	"github.com/google/uuid"

	"github.com/nhle/webmail/internal/address"
	"github.com/nhle/webmail/internal/model"
)

// Status tracks the lifecycle of a compose session. A session starts
// Editing and ends in exactly one terminal state.
type Status int

const (
	StatusEditing Status = iota
	StatusSent
	StatusDrafted
	StatusCancelled
)

// ErrNotSubmittable is returned by BuildSend when the recipient fields
// are invalid or the To field holds no address.
var ErrNotSubmittable = errors.New("compose: recipients invalid or missing")

// Session owns the fields of one in-progress message and their
// submit-readiness. It is created when a compose, reply, or forward
// surface opens and discarded when the message is sent, drafted, or
// cancelled. Validation errors never leave this boundary; they are
// exposed as per-field invalid token lists.
type Session struct {
	recipients map[model.RecipientField]string
	subject    string
	body       string

	// draftID is set iff the session resumes an existing draft; the
	// draft keeps this identity across re-saves.
	draftID string

	invalid      map[model.RecipientField][]string
	status       Status
	backendError string
}

// NewBlank creates an empty compose session.
func NewBlank() *Session {
	s := &Session{
		recipients: make(map[model.RecipientField]string, 3),
		invalid:    make(map[model.RecipientField][]string, 3),
	}
	s.revalidate()
	return s
}

// NewFromDraft creates a session resuming an existing draft. The draft's
// id is retained so a later save overwrites the same draft.
func NewFromDraft(draft model.Email) *Session {
	s := NewBlank()
	s.recipients[model.FieldTo] = draft.To
	s.recipients[model.FieldCc] = draft.Cc
	s.recipients[model.FieldBcc] = draft.Bcc
	s.subject = draft.Subject
	s.body = draft.Body
	s.draftID = draft.ID
	s.revalidate()
	return s
}

// NewFromPrefill creates a session seeded by the reply/forward prefill
// engine. No draft id is attached; replying always composes a new
// message unless the user later saves it as a draft.
func NewFromPrefill(p Prefill) *Session {
	s := NewBlank()
	s.recipients[model.FieldTo] = p.To
	s.recipients[model.FieldCc] = p.Cc
	s.recipients[model.FieldBcc] = p.Bcc
	s.subject = p.Subject
	s.body = p.Body
	s.revalidate()
	return s
}

// SetRecipients updates one recipient field and revalidates all three.
func (s *Session) SetRecipients(f model.RecipientField, value string) {
	s.recipients[f] = value
	s.revalidate()
}

// SetSubject updates the subject. Submit-readiness is unaffected.
func (s *Session) SetSubject(value string) { s.subject = value }

// SetBody updates the body. Submit-readiness is unaffected.
func (s *Session) SetBody(value string) { s.body = value }

// Recipients returns the current value of one recipient field.
func (s *Session) Recipients(f model.RecipientField) string {
	return s.recipients[f]
}

// Subject returns the current subject.
func (s *Session) Subject() string { return s.subject }

// Body returns the current body.
func (s *Session) Body() string { return s.body }

// DraftID returns the resumed draft's id, or "" for a new message.
func (s *Session) DraftID() string { return s.draftID }

// Status returns the session lifecycle state.
func (s *Session) Status() Status { return s.status }

// Invalid returns the malformed tokens of one recipient field, in their
// original order, for inline display.
func (s *Session) Invalid(f model.RecipientField) []string {
	return s.invalid[f]
}

// CanSubmit reports whether the message may be sent: every recipient
// field validates and the To field carries at least one address.
func (s *Session) CanSubmit() bool {
	for _, f := range model.RecipientFields {
		if len(s.invalid[f]) > 0 {
			return false
		}
	}
	return len(address.Tokens(s.recipients[model.FieldTo])) > 0
}

// BuildSend assembles the outgoing email with a freshly generated id
// and the given sender. It fails with ErrNotSubmittable when the
// session is not submit-ready; the session stays in Editing and keeps
// its fields so the user can correct and retry.
func (s *Session) BuildSend(from string) (model.Email, error) {
	if !s.CanSubmit() {
		return model.Email{}, ErrNotSubmittable
	}
	return s.email(NewMessageID(), from), nil
}

// BuildDraft assembles the draft email. Drafts may be incomplete or
// invalid. The first save mints the draft's id; every later save reuses
// it so the same draft is overwritten.
func (s *Session) BuildDraft(from string) model.Email {
	if s.draftID == "" {
		s.draftID = NewMessageID()
	}
	return s.email(s.draftID, from)
}

// MarkSent moves the session to its Sent terminal state and clears all
// fields; the compose surface is closed afterwards.
func (s *Session) MarkSent() {
	s.status = StatusSent
	s.recipients = make(map[model.RecipientField]string, 3)
	s.subject = ""
	s.body = ""
	s.backendError = ""
	s.revalidate()
}

// MarkDrafted moves the session to its Drafted terminal state.
func (s *Session) MarkDrafted() { s.status = StatusDrafted }

// Cancel discards the session with no side effects.
func (s *Session) Cancel() { s.status = StatusCancelled }

// SetBackendError records a store failure message for display; the
// session remains editable.
func (s *Session) SetBackendError(msg string) { s.backendError = msg }

// BackendError returns the last store failure message, if any.
func (s *Session) BackendError() string { return s.backendError }

func (s *Session) email(id, from string) model.Email {
	return model.Email{
		ID:      id,
		From:    from,
		To:      s.recipients[model.FieldTo],
		Cc:      s.recipients[model.FieldCc],
		Bcc:     s.recipients[model.FieldBcc],
		Subject: s.subject,
		Body:    s.body,
	}
}

func (s *Session) revalidate() {
	for _, f := range model.RecipientFields {
		s.invalid[f] = address.Validate(s.recipients[f]).Invalid
	}
}

// NewMessageID produces a collision-resistant opaque id for messages
// composed on this client.
func NewMessageID() string {
	return uuid.NewString()
}
