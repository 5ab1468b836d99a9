package filter

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// NormalizeEmail builds the pipeline input from a parsed message and its
// envelope. Sender and recipient come out as lower-cased bare addresses,
// header keys lower-cased; a message without a resolvable sender or
// recipient is rejected here, before the pipeline sees it.
func NormalizeEmail(msg *mail.Message, envelopeFrom, envelopeTo, body string) (*core.Email, error) {
	headers := make(map[string]string, len(msg.Header))
	for key, values := range msg.Header {
		if len(values) > 0 {
			headers[strings.ToLower(key)] = strings.Join(values, " ")
		}
	}

	sender := bareAddress(msg.Header.Get("From"))
	if sender == "" {
		sender = bareAddress(envelopeFrom)
	}
	if sender == "" {
		return nil, core.ErrNoSender
	}

	recipient := bareAddress(envelopeTo)
	if recipient == "" {
		recipient = bareAddress(msg.Header.Get("To"))
	}
	if recipient == "" {
		return nil, core.ErrNoRecipient
	}

	sentAt := time.Now()
	if t, err := msg.Header.Date(); err == nil {
		sentAt = t
	}

	messageID := strings.Trim(msg.Header.Get("Message-Id"), "<> ")
	if messageID == "" {
		messageID = uuid.NewString()
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	return &core.Email{
		MessageID: messageID,
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Headers:   headers,
		SentAt:    sentAt,
	}, nil
}

// bareAddress extracts the lower-cased addr-spec from a From/To header value
// or an envelope address. Returns "" when nothing resolvable is found.
func bareAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if addr, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(addr.Address)
	}

	// Envelope addresses arrive as bare user@host, sometimes angle-bracketed
	raw = strings.Trim(raw, "<>")
	if at := strings.Count(raw, "@"); at == 1 && !strings.ContainsAny(raw, " \t") {
		return strings.ToLower(raw)
	}
	return ""
}
