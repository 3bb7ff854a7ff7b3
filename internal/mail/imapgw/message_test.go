package imapgw

import (
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/webmail/internal/model"
)

func makeUIDs(lo, hi uint32) []imap.UID {
	var uids []imap.UID
	for i := lo; i <= hi; i++ {
		uids = append(uids, imap.UID(i))
	}
	return uids
}

func TestBuildMessage(t *testing.T) {
	raw, err := buildMessage(model.Email{
		ID:      "abc123",
		From:    "me@example.com",
		To:      "a@b.com; c@d.com",
		Cc:      "e@f.com",
		Subject: "hello",
		Body:    "line one\nline two",
	})
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	msg := string(raw)
	for _, want := range []string{
		"From: <me@example.com>",
		"To: <a@b.com>, <c@d.com>",
		"Cc: <e@f.com>",
		"Subject: hello",
		"Message-Id: <abc123@webmail>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "line one") || !strings.Contains(msg, "line two") {
		t.Errorf("message body incomplete:\n%s", msg)
	}
}

func TestBuildMessageSkipsEmptyRecipientFields(t *testing.T) {
	raw, err := buildMessage(model.Email{
		ID:   "d1",
		From: "me@example.com",
		To:   "a@b.com",
	})
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	msg := string(raw)
	if strings.Contains(msg, "Cc:") || strings.Contains(msg, "Bcc:") {
		t.Errorf("empty Cc/Bcc must not emit headers:\n%s", msg)
	}
}

func TestParseTextBodyFallsBackToRaw(t *testing.T) {
	got := parseTextBody([]byte("not a mime message"))
	if got != "not a mime message" {
		t.Errorf("parseTextBody = %q", got)
	}
}

func TestRecipientSet(t *testing.T) {
	got := recipientSet(model.Email{
		To:  "a@b.com; c@d.com",
		Cc:  "a@b.com; e@f.com",
		Bcc: "g@h.com",
	})
	want := []string{"a@b.com", "c@d.com", "e@f.com", "g@h.com"}
	if len(got) != len(want) {
		t.Fatalf("recipientSet = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recipientSet[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseID(t *testing.T) {
	mailbox, uid, err := parseID("INBOX:42")
	if err != nil || mailbox != "INBOX" || uid != 42 {
		t.Errorf("parseID = %q/%d/%v", mailbox, uid, err)
	}

	if _, _, err := parseID("no-uid"); err == nil {
		t.Error("parseID must reject ids without a uid")
	}
	if _, _, err := parseID("INBOX:notanumber"); err == nil {
		t.Error("parseID must reject non-numeric uids")
	}
}

func TestPageSliceNewestFirst(t *testing.T) {
	uids := makeUIDs(1, 25)

	page3 := pageSlice(uids, 3, 10)
	if len(page3) != 5 {
		t.Fatalf("page 3 size = %d, want 5", len(page3))
	}
	// Newest first: page 3 of 25 holds uids 5..1.
	if page3[0] != 5 || page3[4] != 1 {
		t.Errorf("page 3 = %v", page3)
	}

	if got := pageSlice(uids, 4, 10); got != nil {
		t.Errorf("page past the end = %v, want nil", got)
	}
}
