package model

// Folder identifies a named partition of the mailbox.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderStarred Folder = "starred"
	FolderSent    Folder = "sent"
	FolderDrafts  Folder = "drafts"
	FolderTrash   Folder = "trash"
)

// Folders lists all folders in display order.
var Folders = []Folder{
	FolderInbox,
	FolderStarred,
	FolderSent,
	FolderDrafts,
	FolderTrash,
}

// ValidFolder reports whether f is one of the known folders.
func ValidFolder(f Folder) bool {
	for _, known := range Folders {
		if f == known {
			return true
		}
	}
	return false
}

// RecipientField identifies one of the three recipient address fields
// of a message. Keeping this a closed enumeration avoids dispatching
// on raw field-name strings.
type RecipientField int

const (
	FieldTo RecipientField = iota
	FieldCc
	FieldBcc
)

// RecipientFields lists the recipient fields in display order.
var RecipientFields = []RecipientField{FieldTo, FieldCc, FieldBcc}

// String returns the wire/display name of the field.
func (f RecipientField) String() string {
	switch f {
	case FieldTo:
		return "to"
	case FieldCc:
		return "cc"
	case FieldBcc:
		return "bcc"
	default:
		return "unknown"
	}
}

// Email is a single mail message as exchanged with the mail store.
// The To, Cc, and Bcc fields are semicolon-separated address lists.
// Emails are copied by value between the folder state and compose
// sessions; they hold no shared references.
type Email struct {
	// ID is an opaque identifier: client-generated for messages
	// composed here, server-assigned for received mail.
	ID string `json:"id"`

	From    string `json:"from"`
	To      string `json:"to"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`

	// Starred mirrors the server-side star flag. A local toggle is a
	// display hint only; folder membership changes on the next fetch.
	Starred bool `json:"starred"`
}
