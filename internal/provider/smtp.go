package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSendTimeout = 30 * time.Second

// SMTPTransport submits messages to an SMTP relay. Each Send performs its own
// dial so one stuck server never wedges a shared connection.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSMTPTransport(host string, port int, username, password string, logger *zap.Logger) *SMTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SMTPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  defaultSendTimeout,
		logger:   logger,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, message EmailMessage) error {
	if t.host == "" {
		return permanentError("smtp host not configured", nil)
	}
	if message.To == "" {
		return permanentError("recipient address is empty", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	payload := t.buildMessage(message)
	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	if err := t.transmit(ctx, addr, message.FromEmail, message.To, payload); err != nil {
		return err
	}

	t.logger.Debug("smtp message accepted",
		zap.String("to", message.To),
		zap.String("subject", message.Subject),
	)
	return nil
}

func (t *SMTPTransport) buildMessage(message EmailMessage) []byte {
	boundary := fmt.Sprintf("=_%s", uuid.NewString()[:16])

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", message.FromName, message.FromEmail))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", message.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", message.Subject))
	buf.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), t.host))
	if message.ReplyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", message.ReplyTo))
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
	buf.WriteString("\r\n")

	if message.TextBody != "" {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(message.TextBody)
		buf.WriteString("\r\n")
	}
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	buf.WriteString(message.HTMLBody)
	buf.WriteString("\r\n")
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

func (t *SMTPTransport) transmit(ctx context.Context, addr, from, to string, payload []byte) error {
	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return transientError(fmt.Sprintf("connect %s", addr), err)
	}

	// The deadline covers the whole exchange, greeting through QUIT. A
	// server that accepts the connection and then stalls must not hold a
	// dispatch worker past the per-message budget.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(t.timeout))
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return transientError("smtp handshake", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			t.logger.Warn("starttls failed, continuing without tls", zap.Error(err))
		}
	}

	if t.username != "" && t.password != "" {
		if err := client.Auth(&plainAuth{user: t.username, pass: t.password}); err != nil {
			return permanentError("smtp auth", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return permanentError("MAIL FROM", err)
	}
	if err := client.Rcpt(to); err != nil {
		return permanentError("RCPT TO", err)
	}
	w, err := client.Data()
	if err != nil {
		return transientError("DATA", err)
	}
	if _, err := w.Write(payload); err != nil {
		return transientError("write payload", err)
	}
	if err := w.Close(); err != nil {
		return transientError("close payload", err)
	}

	return client.Quit()
}

// plainAuth implements smtp.Auth without the TLS requirement that stdlib's
// PlainAuth enforces; relays on private networks commonly skip TLS on the
// submission port.
type plainAuth struct {
	user, pass string
}

func (a *plainAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "PLAIN", []byte("\x00" + a.user + "\x00" + a.pass), nil
}

func (a *plainAuth) Next(_ []byte, _ bool) ([]byte, error) {
	return nil, nil
}
