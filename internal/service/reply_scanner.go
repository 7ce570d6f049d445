package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kursadbilgin/campaign-engine/internal/mailbox"
	"github.com/kursadbilgin/campaign-engine/internal/observability"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultReplyScanInterval = time.Minute
	defaultReplyLookback     = 24 * time.Hour
	replyScanTimeout         = 2 * time.Minute
	replySubjectPrefix       = "re: "
)

// ReplyScanner polls the shared mailbox and correlates inbound messages with
// sent campaign emails. A message counts as a reply when its subject is
// exactly "Re: " plus a sent subject line, case-insensitively, and its sender
// matches the tracked recipient.
type ReplyScanner struct {
	tracking reader
	mailbox  mailbox.Reader
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	lookback time.Duration
	running  sync.Mutex
	now      func() time.Time
}

// reader is the slice of the tracking repository the scanner needs.
type reader interface {
	ListReplyCandidates(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error)
	RecordReply(ctx context.Context, campaignID, recipientID string) error
}

func NewReplyScanner(
	tracking repository.TrackingRepository,
	mailboxReader mailbox.Reader,
	interval time.Duration,
	lookback time.Duration,
	logger *zap.Logger,
) (*ReplyScanner, error) {
	if tracking == nil {
		return nil, fmt.Errorf("tracking repository is required")
	}
	if mailboxReader == nil {
		return nil, fmt.Errorf("mailbox reader is required")
	}
	if interval <= 0 {
		interval = defaultReplyScanInterval
	}
	if lookback <= 0 {
		lookback = defaultReplyLookback
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReplyScanner{
		tracking: tracking,
		mailbox:  mailboxReader,
		logger:   logger,
		interval: interval,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

func (s *ReplyScanner) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *ReplyScanner) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Catch replies that arrived while the service was down before waiting
	// for the first ticker edge.
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single scan. A scan already in flight makes this a
// no-op; mailbox polls can outlast the tick interval and must not pile up.
func (s *ReplyScanner) RunOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Debug("reply scan already running, skipping tick")
		if s.metrics != nil {
			s.metrics.IncReplyScanRun("skipped")
		}
		return
	}
	defer s.running.Unlock()

	scanCtx, cancel := context.WithTimeout(ctx, replyScanTimeout)
	defer cancel()

	matched, err := s.scan(scanCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("reply scan failed", zap.Error(err))
		if s.metrics != nil {
			s.metrics.IncReplyScanRun("error")
		}
		return
	}

	if s.metrics != nil {
		s.metrics.IncReplyScanRun("ok")
	}
	if matched > 0 {
		s.logger.Info("reply scan matched messages", zap.Int("matched", matched))
	}
}

func (s *ReplyScanner) scan(ctx context.Context) (int, error) {
	since := s.now().Add(-s.lookback)

	candidates, err := s.tracking.ListReplyCandidates(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list reply candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	messages, err := s.mailbox.ListSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to read mailbox: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	matched := 0
	for i := range messages {
		candidate, ok := matchReply(messages[i], candidates)
		if !ok {
			continue
		}

		if err := s.tracking.RecordReply(ctx, candidate.CampaignID, candidate.RecipientID); err != nil {
			s.logger.Error("failed to record reply",
				zap.String("campaignId", candidate.CampaignID),
				zap.String("recipientId", candidate.RecipientID),
				zap.Error(err),
			)
			continue
		}

		matched++
		if s.metrics != nil {
			s.metrics.IncReplyMatch()
		}
		s.logger.Info("reply recorded",
			zap.String("campaignId", candidate.CampaignID),
			zap.String("recipientId", candidate.RecipientID),
		)
	}

	return matched, nil
}

// matchReply pairs an inbound message with at most one candidate: the sender
// must be the tracked recipient and the subject must equal "Re: " plus the
// campaign subject, ignoring case and surrounding whitespace.
func matchReply(msg mailbox.InboundMessage, candidates []repository.ReplyCandidate) (repository.ReplyCandidate, bool) {
	subject := strings.TrimSpace(msg.Subject)
	sender := strings.TrimSpace(msg.Sender)

	for i := range candidates {
		expected := replySubjectPrefix + candidates[i].SubjectLine
		if !strings.EqualFold(subject, expected) {
			continue
		}
		if !strings.EqualFold(sender, candidates[i].RecipientEmail) {
			continue
		}
		return candidates[i], true
	}

	return repository.ReplyCandidate{}, false
}
