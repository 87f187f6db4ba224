package mail

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPTransport delivers through one SMTP host/port pair. The pipeline
// builds one per configured port so a blocked submission port falls
// through to the next.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	timeout  time.Duration
}

// NewSMTPTransport builds a transport bound to a single port.
func NewSMTPTransport(host string, port int, username, password, from, fromName string, timeout time.Duration) *SMTPTransport {
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
		timeout:  timeout,
	}
}

// Name identifies the transport in logs and metrics.
func (t *SMTPTransport) Name() string {
	return "smtp:" + strconv.Itoa(t.port)
}

// Send dials the SMTP server and submits the message with inline
// content-ID attachments.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(t.fromName, t.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	for _, img := range msg.Inline {
		if err := m.EmbedReader(img.Filename, bytes.NewReader(img.Data)); err != nil {
			return fmt.Errorf("smtp embed %s: %w", img.Filename, err)
		}
	}

	opts := []gomail.Option{
		gomail.WithPort(t.port),
		gomail.WithTimeout(t.timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if t.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.username),
			gomail.WithPassword(t.password),
		)
	}

	client, err := gomail.NewClient(t.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		// timeouts, resets and DNS failures surface through the error
		// chain and classify as transient; protocol rejections do not.
		return err
	}
	return nil
}
