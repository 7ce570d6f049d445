package mailbox

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/knadh/go-pop3"
	"go.uber.org/zap"
)

const dialTimeout = 15 * time.Second

// POP3Reader reads reply candidates from a POP3 mailbox. Each ListSince run
// opens a fresh connection and fetches headers only; bodies never leave the
// server.
type POP3Reader struct {
	client *pop3.Client
	user   string
	pass   string
	logger *zap.Logger
}

func NewPOP3Reader(host string, port int, user, pass string, tlsEnabled bool, logger *zap.Logger) *POP3Reader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &POP3Reader{
		client: pop3.New(pop3.Opt{
			Host:        host,
			Port:        port,
			TLSEnabled:  tlsEnabled,
			DialTimeout: dialTimeout,
		}),
		user:   user,
		pass:   pass,
		logger: logger,
	}
}

func (r *POP3Reader) ListSince(ctx context.Context, since time.Time) ([]InboundMessage, error) {
	conn, err := r.client.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect mailbox: %w", err)
	}
	defer func() {
		_ = conn.Quit()
	}()

	if err := conn.Auth(r.user, r.pass); err != nil {
		return nil, fmt.Errorf("failed to authenticate mailbox: %w", err)
	}

	ids, err := conn.List(0)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox: %w", err)
	}

	messages := make([]InboundMessage, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entity, err := conn.Top(id.ID, 0)
		if err != nil {
			r.logger.Warn("skipping unreadable message", zap.Int("id", id.ID), zap.Error(err))
			continue
		}

		receivedAt, err := mail.ParseDate(entity.Header.Get("Date"))
		if err != nil {
			r.logger.Warn("skipping message with unparseable date", zap.Int("id", id.ID), zap.Error(err))
			continue
		}
		if receivedAt.Before(since) {
			continue
		}

		sender, err := mail.ParseAddress(entity.Header.Get("From"))
		if err != nil {
			r.logger.Warn("skipping message with unparseable sender", zap.Int("id", id.ID), zap.Error(err))
			continue
		}

		messages = append(messages, InboundMessage{
			Subject:    strings.TrimSpace(entity.Header.Get("Subject")),
			Sender:     sender.Address,
			ReceivedAt: receivedAt,
		})
	}

	return messages, nil
}
