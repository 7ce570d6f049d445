package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/campaign-engine/internal/mailbox"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

type fakeMailbox struct {
	listSinceFn func(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error)
}

func (f *fakeMailbox) ListSince(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error) {
	if f.listSinceFn != nil {
		return f.listSinceFn(ctx, since)
	}
	return nil, nil
}

var _ mailbox.Reader = (*fakeMailbox)(nil)

func TestReplyScannerMatchesSubjectAndSender(t *testing.T) {
	t.Parallel()

	candidates := []repository.ReplyCandidate{
		{CampaignID: "c1", RecipientID: "r1", SubjectLine: "Quick question", RecipientEmail: "one@example.com"},
		{CampaignID: "c1", RecipientID: "r2", SubjectLine: "Quick question", RecipientEmail: "two@example.com"},
	}

	messages := []mailbox.InboundMessage{
		{Subject: "RE: quick question", Sender: "two@example.com", ReceivedAt: time.Now()},
		{Subject: "Re: Quick question", Sender: "stranger@example.com", ReceivedAt: time.Now()},
		{Subject: "Quick question", Sender: "one@example.com", ReceivedAt: time.Now()},
		{Subject: "Fwd: Quick question", Sender: "one@example.com", ReceivedAt: time.Now()},
	}

	var recorded []string
	tracking := &fakeTrackingRepo{
		listReplyCandidatesFn: func(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error) {
			return candidates, nil
		},
		recordReplyFn: func(ctx context.Context, campaignID, recipientID string) error {
			recorded = append(recorded, campaignID+"/"+recipientID)
			return nil
		},
	}
	inbox := &fakeMailbox{
		listSinceFn: func(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error) {
			return messages, nil
		},
	}

	scanner, err := NewReplyScanner(tracking, inbox, time.Minute, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}

	scanner.RunOnce(context.Background())

	if len(recorded) != 1 {
		t.Fatalf("recorded %d replies, want 1: %v", len(recorded), recorded)
	}
	if recorded[0] != "c1/r2" {
		t.Fatalf("recorded = %v, want the case-insensitive subject match from two@example.com", recorded)
	}
}

func TestReplyScannerUsesLookbackWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	lookback := 6 * time.Hour

	var candidateSince, mailboxSince time.Time
	tracking := &fakeTrackingRepo{
		listReplyCandidatesFn: func(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error) {
			candidateSince = since
			return []repository.ReplyCandidate{
				{CampaignID: "c1", RecipientID: "r1", SubjectLine: "Hello", RecipientEmail: "one@example.com"},
			}, nil
		},
	}
	inbox := &fakeMailbox{
		listSinceFn: func(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error) {
			mailboxSince = since
			return nil, nil
		},
	}

	scanner, err := NewReplyScanner(tracking, inbox, time.Minute, lookback, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}
	scanner.now = func() time.Time { return now }

	scanner.RunOnce(context.Background())

	want := now.Add(-lookback)
	if !candidateSince.Equal(want) {
		t.Fatalf("candidate window start = %v, want %v", candidateSince, want)
	}
	if !mailboxSince.Equal(want) {
		t.Fatalf("mailbox window start = %v, want %v", mailboxSince, want)
	}
}

func TestReplyScannerSkipsMailboxWithoutCandidates(t *testing.T) {
	t.Parallel()

	mailboxPolled := false
	tracking := &fakeTrackingRepo{
		listReplyCandidatesFn: func(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error) {
			return nil, nil
		},
	}
	inbox := &fakeMailbox{
		listSinceFn: func(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error) {
			mailboxPolled = true
			return nil, nil
		},
	}

	scanner, err := NewReplyScanner(tracking, inbox, time.Minute, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}

	scanner.RunOnce(context.Background())

	if mailboxPolled {
		t.Fatal("mailbox should not be polled when nothing awaits a reply")
	}
}

func TestReplyScannerSwallowsMailboxErrors(t *testing.T) {
	t.Parallel()

	tracking := &fakeTrackingRepo{
		listReplyCandidatesFn: func(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error) {
			return []repository.ReplyCandidate{
				{CampaignID: "c1", RecipientID: "r1", SubjectLine: "Hello", RecipientEmail: "one@example.com"},
			}, nil
		},
	}
	inbox := &fakeMailbox{
		listSinceFn: func(ctx context.Context, since time.Time) ([]mailbox.InboundMessage, error) {
			return nil, errors.New("pop3 connect refused")
		},
	}

	scanner, err := NewReplyScanner(tracking, inbox, time.Minute, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}

	// Must not panic; the error stays inside the scanner.
	scanner.RunOnce(context.Background())
}

func TestReplyScannerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	firstStarted := make(chan struct{})
	polls := 0
	var mu sync.Mutex

	tracking := &fakeTrackingRepo{
		listReplyCandidatesFn: func(ctx context.Context, since time.Time) ([]repository.ReplyCandidate, error) {
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if first {
				close(firstStarted)
				<-release
			}
			return nil, nil
		},
	}

	scanner, err := NewReplyScanner(tracking, &fakeMailbox{}, time.Minute, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}

	go scanner.RunOnce(context.Background())
	<-firstStarted

	// Overlapping run must return immediately without touching storage.
	scanner.RunOnce(context.Background())
	close(release)

	mu.Lock()
	defer mu.Unlock()
	if polls != 1 {
		t.Fatalf("storage polled %d times, want 1", polls)
	}
}

func TestReplyScannerStartReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	scanner, err := NewReplyScanner(&fakeTrackingRepo{}, &fakeMailbox{}, 10*time.Millisecond, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplyScanner() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- scanner.Start(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}
