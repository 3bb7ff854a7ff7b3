package imapgw

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/webmail/internal/address"
	"github.com/nhle/webmail/internal/model"
)

// messageIDHeader renders a compose id as an RFC 5322 Message-ID.
func messageIDHeader(id string) string {
	return "<" + id + "@webmail>"
}

// buildMessage renders an Email as a plain-text RFC 5322 message.
func buildMessage(email model.Email) ([]byte, error) {
	var header mail.Header
	header.SetDate(time.Now())
	header.SetSubject(email.Subject)
	header.SetMessageID(email.ID + "@webmail")

	header.SetAddressList("From", addressList(email.From))

	for _, field := range []struct {
		name string
		list string
	}{
		{"To", email.To},
		{"Cc", email.Cc},
		{"Bcc", email.Bcc},
	} {
		if addrs := addressList(field.list); len(addrs) > 0 {
			header.SetAddressList(field.name, addrs)
		}
	}

	var buf bytes.Buffer
	writer, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(writer, email.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

// addressList converts a semicolon-separated address list into
// go-message addresses.
func addressList(list string) []*mail.Address {
	tokens := address.Tokens(list)
	addrs := make([]*mail.Address, 0, len(tokens))
	for _, token := range tokens {
		addrs = append(addrs, &mail.Address{Address: token})
	}
	return addrs
}

// emailFromBuffer converts a fetched IMAP message into the client's
// Email shape. Address lists are joined with semicolons to match the
// rest of the client; the star flag mirrors \Flagged.
func emailFromBuffer(
	mailbox string,
	buf *imapclient.FetchMessageBuffer,
	bodySection *imap.FetchItemBodySection,
) model.Email {
	email := model.Email{
		ID:      fmt.Sprintf("%s:%d", mailbox, uint32(buf.UID)),
		Starred: hasFlag(buf.Flags, imap.FlagFlagged),
	}

	if buf.Envelope != nil {
		email.Subject = buf.Envelope.Subject
		if len(buf.Envelope.From) > 0 {
			email.From = buf.Envelope.From[0].Addr()
		}
		email.To = joinEnvelopeAddrs(buf.Envelope.To)
		email.Cc = joinEnvelopeAddrs(buf.Envelope.Cc)
		email.Bcc = joinEnvelopeAddrs(buf.Envelope.Bcc)
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		email.Body = parseTextBody(raw)
	}

	return email
}

func joinEnvelopeAddrs(addrs []imap.Address) string {
	tokens := make([]string, 0, len(addrs))
	for _, a := range addrs {
		tokens = append(tokens, a.Addr())
	}
	return address.Join(tokens)
}

// parseTextBody parses a raw RFC 5322 message using go-message and
// extracts the text/plain body. When parsing fails, the raw bytes are
// treated as plain text rather than dropped.
func parseTextBody(raw []byte) string {
	reader := bytes.NewReader(raw)

	mr, err := mail.CreateReader(reader)
	if err != nil {
		return string(raw)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}

		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}
		return string(body)
	}

	return ""
}
