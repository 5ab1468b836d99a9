package filter

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-phish-filter/internal/core"
)

const sampleMessage = `From: "CEO" <Ceo@Corp.Example>
To: accounting@corp.example
Subject: Urgent wire transfer
Date: Mon, 02 Jan 2006 15:04:05 -0700
Message-Id: <abc123@corp.example>
Authentication-Results: mx; spf=fail; dkim=fail; dmarc=fail

Please wire $40,000 immediately.
`

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestNormalizeEmail(t *testing.T) {
	msg := parseMessage(t, sampleMessage)

	email, err := NormalizeEmail(msg, "bounce@other.example", "accounting@corp.example", "Please wire $40,000 immediately.")

	require.NoError(t, err)
	assert.Equal(t, "ceo@corp.example", email.Sender, "From header wins over envelope, lower-cased bare address")
	assert.Equal(t, "accounting@corp.example", email.Recipient)
	assert.Equal(t, "abc123@corp.example", email.MessageID)
	assert.Equal(t, "Urgent wire transfer", email.Subject)
	assert.Equal(t, 2006, email.SentAt.Year())
	assert.Contains(t, email.Headers, "authentication-results", "header keys are lower-cased")
}

func TestNormalizeEmailEnvelopeFallback(t *testing.T) {
	raw := "Subject: no addresses in headers\n\nbody\n"
	msg := parseMessage(t, raw)

	email, err := NormalizeEmail(msg, "<sender@x.example>", "rcpt@y.example", "body")

	require.NoError(t, err)
	assert.Equal(t, "sender@x.example", email.Sender)
	assert.Equal(t, "rcpt@y.example", email.Recipient)
}

func TestNormalizeEmailMissingSender(t *testing.T) {
	msg := parseMessage(t, "Subject: x\n\nbody\n")

	_, err := NormalizeEmail(msg, "", "rcpt@y.example", "body")

	assert.ErrorIs(t, err, core.ErrNoSender)
}

func TestNormalizeEmailMissingRecipient(t *testing.T) {
	msg := parseMessage(t, "From: a@x.example\nSubject: x\n\nbody\n")

	_, err := NormalizeEmail(msg, "", "", "body")

	assert.ErrorIs(t, err, core.ErrNoRecipient)
}

func TestNormalizeEmailGeneratesMessageID(t *testing.T) {
	msg := parseMessage(t, "From: a@x.example\nTo: b@y.example\n\nbody\n")

	email, err := NormalizeEmail(msg, "", "", "body")

	require.NoError(t, err)
	assert.NotEmpty(t, email.MessageID)
}

func TestNormalizeEmailMissingDateDefaultsToNow(t *testing.T) {
	msg := parseMessage(t, "From: a@x.example\nTo: b@y.example\n\nbody\n")

	before := time.Now()
	email, err := NormalizeEmail(msg, "", "", "body")

	require.NoError(t, err)
	assert.False(t, email.SentAt.Before(before))
}

func TestNormalizeEmailEncodedSubject(t *testing.T) {
	raw := "From: a@x.example\nTo: b@y.example\nSubject: =?UTF-8?B?SMOpbGxv?=\n\nbody\n"
	msg := parseMessage(t, raw)

	email, err := NormalizeEmail(msg, "", "", "body")

	require.NoError(t, err)
	assert.Equal(t, "Héllo", email.Subject)
}

func TestBareAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Display Name" <User@Host.Example>`, "user@host.example"},
		{"user@host.example", "user@host.example"},
		{"<user@host.example>", "user@host.example"},
		{"", ""},
		{"not an address", ""},
		{"two@at@signs", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, bareAddress(tt.in), "input %q", tt.in)
	}
}

func TestExtractTextPlain(t *testing.T) {
	msg := parseMessage(t, sampleMessage)

	body, err := ExtractText(msg)

	require.NoError(t, err)
	assert.Contains(t, body, "Please wire $40,000 immediately.")
}

func TestExtractTextMultipartPrefersPlain(t *testing.T) {
	raw := "From: a@x.example\n" +
		"To: b@y.example\n" +
		"MIME-Version: 1.0\n" +
		"Content-Type: multipart/alternative; boundary=\"bnd\"\n" +
		"\n" +
		"--bnd\n" +
		"Content-Type: text/html; charset=utf-8\n" +
		"\n" +
		"<p>html version</p>\n" +
		"--bnd\n" +
		"Content-Type: text/plain; charset=utf-8\n" +
		"\n" +
		"plain version\n" +
		"--bnd--\n"
	msg := parseMessage(t, raw)

	body, err := ExtractText(msg)

	require.NoError(t, err)
	assert.Contains(t, body, "plain version")
	assert.NotContains(t, body, "<p>")
}
