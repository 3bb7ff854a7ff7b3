package imapgw

import (
	"bytes"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/nhle/webmail/internal/address"
	"github.com/nhle/webmail/internal/mail"
	"github.com/nhle/webmail/internal/model"
)

// submit hands the rendered message to the submission server. The
// recipient set is the union of To, Cc, and Bcc; Bcc recipients are
// carried in the envelope only by the header Bcc being suppressed at
// relay, which the submission server handles.
func (g *Gateway) submit(email model.Email, raw []byte) error {
	recipients := recipientSet(email)
	if len(recipients) == 0 {
		return &mail.RemoteError{
			Op:      "smtp submit",
			Message: "no recipients",
		}
	}

	addr := g.smtpHost + ":" + g.smtpPort
	auth := sasl.NewPlainClient("", g.username, g.password)

	send := smtp.SendMail
	if g.tls {
		send = smtp.SendMailTLS
	}

	err := send(addr, auth, email.From, recipients, bytes.NewReader(raw))
	if err != nil {
		return &mail.RemoteError{Op: "smtp submit " + addr, Err: err}
	}
	return nil
}

// recipientSet collects every unique recipient address across the
// three recipient fields, preserving first-seen order.
func recipientSet(email model.Email) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range []string{email.To, email.Cc, email.Bcc} {
		for _, token := range address.Tokens(list) {
			if seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, token)
		}
	}
	return out
}
