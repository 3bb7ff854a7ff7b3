// Package compose holds the in-progress message session and the
// reply/forward prefill rules that seed it.
package compose

import (
	"strings"

	"github.com/nhle/webmail/internal/address"
	"github.com/nhle/webmail/internal/model"
)

// Mode selects how compose fields are derived from a source message.
type Mode int

const (
	ModeReply Mode = iota
	ModeReplyAll
	ModeForward
)

// String returns the mode name for logs and messages.
func (m Mode) String() string {
	switch m {
	case ModeReply:
		return "reply"
	case ModeReplyAll:
		return "replyAll"
	case ModeForward:
		return "forward"
	default:
		return "unknown"
	}
}

const (
	replyPrefix   = "Re: "
	forwardPrefix = "Fwd: "
)

// Prefill holds initial compose field values derived from a source email.
type Prefill struct {
	To      string
	Cc      string
	Bcc     string
	Subject string
	Body    string
}

// Derive computes initial compose fields for replying to or forwarding
// src. The viewer's own address is excluded from reply-all recipients.
// The produced address lists come from previously stored addresses and
// are well formed, but the session still revalidates them because the
// viewer may edit any field afterwards.
func Derive(src model.Email, mode Mode, viewer string) Prefill {
	switch mode {
	case ModeReply:
		return Prefill{
			To:      src.From,
			Subject: prefixSubject(src.Subject, replyPrefix),
			Body:    quotedReplyBody(src),
		}

	case ModeReplyAll:
		recipients := append([]string{src.From}, address.Tokens(src.To)...)
		return Prefill{
			To:      address.Join(withoutViewer(recipients, viewer)),
			Cc:      address.Join(withoutViewer(address.Tokens(src.Cc), viewer)),
			Subject: prefixSubject(src.Subject, replyPrefix),
			Body:    quotedReplyBody(src),
		}

	case ModeForward:
		return Prefill{
			Subject: prefixSubject(src.Subject, forwardPrefix),
			Body:    forwardBody(src),
		}

	default:
		return Prefill{}
	}
}

// prefixSubject prepends marker unless the subject already carries it,
// compared case-insensitively so "RE: x" is not doubled.
func prefixSubject(subject, marker string) string {
	trimmed := strings.TrimSpace(subject)
	bare := strings.TrimSpace(strings.TrimSuffix(marker, " "))
	if len(trimmed) >= len(bare) &&
		strings.EqualFold(trimmed[:len(bare)], bare) {
		return trimmed
	}
	return marker + trimmed
}

// withoutViewer filters every occurrence of the viewer's address
// (case-insensitive) and collapses duplicates, keeping first-seen order.
func withoutViewer(addrs []string, viewer string) []string {
	seen := make(map[string]bool, len(addrs))
	var out []string
	for _, a := range addrs {
		if strings.EqualFold(a, viewer) {
			continue
		}
		key := strings.ToLower(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// quotedReplyBody seeds a reply body with the original message quoted
// line by line. The convention keeps every original line intact.
func quotedReplyBody(src model.Email) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(src.From)
	b.WriteString(" wrote:\n")
	b.WriteString(quote(src.Body))
	return b.String()
}

// forwardBody seeds a forward body with the original header summary
// followed by the quoted original message.
func forwardBody(src model.Email) string {
	var b strings.Builder
	b.WriteString("\n\n---------- Forwarded message ----------\n")
	b.WriteString("From: " + src.From + "\n")
	b.WriteString("To: " + src.To + "\n")
	b.WriteString("Subject: " + src.Subject + "\n\n")
	b.WriteString(quote(src.Body))
	return b.String()
}

func quote(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
