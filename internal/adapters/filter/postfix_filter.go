package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

// PostfixFilter implements a Postfix content filter: messages arrive over
// SMTP, get scored, receive risk headers and are reinjected into Postfix.
type PostfixFilter struct {
	service        *core.RiskScoringService
	logger         *zap.Logger
	listenAddr     string
	server         *smtp.Server
	blockHighRisk  bool
	levelHeader    string
	scoreHeader    string
	reasonsHeader  string
	postfixAddr    string
	postfixPort    int
	postfixEnabled bool
	subjectPrefix  string
	modifySubject  bool
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service *core.RiskScoringService,
	logger *zap.Logger,
	listenAddr string,
	blockHighRisk bool,
	levelHeader string,
	scoreHeader string,
	reasonsHeader string,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	subjectPrefix string,
	modifySubject bool,
) *PostfixFilter {
	if subjectPrefix == "" && modifySubject {
		subjectPrefix = "[RISK] "
	}

	return &PostfixFilter{
		service:        service,
		logger:         logger,
		listenAddr:     listenAddr,
		blockHighRisk:  blockHighRisk,
		levelHeader:    levelHeader,
		scoreHeader:    scoreHeader,
		reasonsHeader:  reasonsHeader,
		postfixAddr:    postfixAddr,
		postfixPort:    postfixPort,
		postfixEnabled: postfixEnabled,
		subjectPrefix:  subjectPrefix,
		modifySubject:  modifySubject,
	}
}

// Start starts the SMTP listener
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP listener
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail scores a single already-normalized email. Used for direct
// calls and tests; the SMTP path goes through the session below.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.RiskVerdict, error) {
	return f.service.ProcessEmail(ctx, email)
}

// reinject sends the stamped message onward to Postfix
func (f *PostfixFilter) reinject(sender string, recipients []string, emailData []byte) error {
	postfixAddr := fmt.Sprintf("%s:%d", f.postfixAddr, f.postfixPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout ends the session
func (s *smtpSession) Logout() error {
	return nil
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the envelope sender
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds an envelope recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data scores the message and relays it with risk headers stamped on
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := ExtractText(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	envelopeTo := ""
	if len(s.recipients) > 0 {
		envelopeTo = s.recipients[0]
	}

	email, err := NormalizeEmail(msg, s.sender, envelopeTo, textContent)
	if err != nil {
		// Records without a resolvable sender are skipped, not bounced:
		// relay unmodified so mail flow is never the casualty.
		s.filter.logger.Warn("Skipping unscorable message", zap.Error(err))
		return s.relay(rawData)
	}

	verdict, err := s.filter.service.ProcessEmail(context.Background(), email)
	if err != nil {
		s.filter.logger.Error("Failed to score email",
			zap.String("sender", email.Sender),
			zap.Error(err))
		return s.relay(rawData)
	}

	if verdict.Level == core.RiskHigh && s.filter.blockHighRisk {
		s.filter.logger.Info("Rejecting high risk email",
			zap.String("sender", email.Sender),
			zap.Int("score", verdict.Score),
			zap.Strings("reasons", verdict.Reasons))
		return fmt.Errorf("550 Rejected as high risk (score: %d)", verdict.Score)
	}

	return s.relay(s.stampVerdict(rawData, msg, verdict))
}

// relay hands the message to Postfix when reinjection is enabled
func (s *smtpSession) relay(data []byte) error {
	if !s.filter.postfixEnabled {
		return nil
	}
	if err := s.filter.reinject(s.sender, s.recipients, data); err != nil {
		s.filter.logger.Error("Failed to reinject message", zap.Error(err))
		return err
	}
	return nil
}

// stampVerdict prepends risk headers (and optionally a subject prefix for
// High verdicts) to the raw message
func (s *smtpSession) stampVerdict(rawData []byte, msg *mail.Message, verdict *core.RiskVerdict) []byte {
	var stamped bytes.Buffer

	fmt.Fprintf(&stamped, "%s: %s\r\n", s.filter.levelHeader, verdict.Level)
	fmt.Fprintf(&stamped, "%s: %d\r\n", s.filter.scoreHeader, verdict.Score)
	fmt.Fprintf(&stamped, "%s: %s\r\n", s.filter.reasonsHeader, core.FormatReasons(verdict.Reasons))

	prefixSubject := verdict.Level == core.RiskHigh && s.filter.modifySubject && s.filter.subjectPrefix != ""
	for key, values := range msg.Header {
		if prefixSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&stamped, "%s: %s\r\n", key, value)
		}
	}
	if prefixSubject {
		subject := msg.Header.Get("Subject")
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		if !strings.HasPrefix(subject, s.filter.subjectPrefix) {
			subject = s.filter.subjectPrefix + subject
		}
		fmt.Fprintf(&stamped, "Subject: %s\r\n", subject)
	}
	stamped.WriteString("\r\n")

	// Original body starts after the header separator in the raw bytes
	bodyStart := bytes.Index(rawData, []byte("\r\n\r\n"))
	separator := 4
	if bodyStart == -1 {
		bodyStart = bytes.Index(rawData, []byte("\n\n"))
		separator = 2
	}
	if bodyStart != -1 {
		stamped.Write(rawData[bodyStart+separator:])
	}

	return stamped.Bytes()
}
