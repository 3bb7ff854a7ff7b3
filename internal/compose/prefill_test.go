package compose

import (
	"strings"
	"testing"

	"github.com/nhle/webmail/internal/model"
)

func sourceEmail() model.Email {
	return model.Email{
		ID:      "m1",
		From:    "alice@example.com",
		To:      "bob@example.com; carol@example.com",
		Cc:      "dave@example.com",
		Subject: "Quarterly report",
		Body:    "First line.\nSecond line.",
	}
}

func TestDeriveReply(t *testing.T) {
	p := Derive(sourceEmail(), ModeReply, "bob@example.com")

	if p.To != "alice@example.com" {
		t.Errorf("To = %q, want sender only", p.To)
	}
	if p.Cc != "" || p.Bcc != "" {
		t.Errorf("Cc/Bcc = %q/%q, want empty", p.Cc, p.Bcc)
	}
	if p.Subject != "Re: Quarterly report" {
		t.Errorf("Subject = %q", p.Subject)
	}
	if !strings.Contains(p.Body, "> First line.") ||
		!strings.Contains(p.Body, "> Second line.") {
		t.Errorf("Body does not quote every original line: %q", p.Body)
	}
}

func TestDeriveReplySubjectNotDoubled(t *testing.T) {
	src := sourceEmail()
	src.Subject = "RE: Quarterly report"

	p := Derive(src, ModeReply, "bob@example.com")
	if p.Subject != "RE: Quarterly report" {
		t.Errorf("Subject = %q, want existing marker kept", p.Subject)
	}
}

func TestDeriveReplyAllExcludesViewer(t *testing.T) {
	src := sourceEmail()
	// Viewer appears twice in To and once in Cc, with mixed case.
	src.To = "bob@example.com; carol@example.com; Bob@Example.com"
	src.Cc = "dave@example.com; bob@example.com"

	p := Derive(src, ModeReplyAll, "bob@example.com")

	for _, field := range []string{p.To, p.Cc} {
		if strings.Contains(strings.ToLower(field), "bob@example.com") {
			t.Errorf("viewer address leaked into recipients: %q", field)
		}
	}
	if p.To != "alice@example.com; carol@example.com" {
		t.Errorf("To = %q", p.To)
	}
	if p.Cc != "dave@example.com" {
		t.Errorf("Cc = %q", p.Cc)
	}
}

func TestDeriveReplyAllDeduplicates(t *testing.T) {
	src := sourceEmail()
	src.To = "alice@example.com; carol@example.com"

	p := Derive(src, ModeReplyAll, "bob@example.com")
	if p.To != "alice@example.com; carol@example.com" {
		t.Errorf("To = %q, want sender not repeated", p.To)
	}
}

func TestDeriveForward(t *testing.T) {
	p := Derive(sourceEmail(), ModeForward, "bob@example.com")

	if p.To != "" || p.Cc != "" || p.Bcc != "" {
		t.Errorf("recipients = %q/%q/%q, want all empty", p.To, p.Cc, p.Bcc)
	}
	if p.Subject != "Fwd: Quarterly report" {
		t.Errorf("Subject = %q", p.Subject)
	}
	for _, want := range []string{
		"From: alice@example.com",
		"To: bob@example.com; carol@example.com",
		"Subject: Quarterly report",
		"> First line.",
		"> Second line.",
	} {
		if !strings.Contains(p.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, p.Body)
		}
	}
}
