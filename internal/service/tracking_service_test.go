package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"go.uber.org/zap"
)

const testFallbackURL = "https://www.example.org"

func TestTrackingServiceHandleClickResolvesDestination(t *testing.T) {
	t.Parallel()

	tracking := &fakeTrackingRepo{
		recordClickFn: func(ctx context.Context, trackingID, linkID string) (string, error) {
			if trackingID != "tr1" || linkID != "l1" {
				t.Errorf("RecordClick(%q, %q), want (tr1, l1)", trackingID, linkID)
			}
			return "https://acme.test/pricing", nil
		},
	}

	svc, err := NewTrackingService(tracking, testFallbackURL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTrackingService() error = %v", err)
	}

	got := svc.HandleClick(context.Background(), "tr1", "l1")
	if got != "https://acme.test/pricing" {
		t.Fatalf("HandleClick() = %q, want the original URL", got)
	}
}

func TestTrackingServiceHandleClickFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "unknown link", err: domain.ErrNotFound},
		{name: "storage failure", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracking := &fakeTrackingRepo{
				recordClickFn: func(ctx context.Context, trackingID, linkID string) (string, error) {
					return "", tt.err
				},
			}

			svc, err := NewTrackingService(tracking, testFallbackURL, zap.NewNop())
			if err != nil {
				t.Fatalf("NewTrackingService() error = %v", err)
			}

			got := svc.HandleClick(context.Background(), "tr1", "missing")
			if got != testFallbackURL {
				t.Fatalf("HandleClick() = %q, want fallback %q", got, testFallbackURL)
			}
		})
	}
}

func TestTrackingServiceHandleOpenSwallowsErrors(t *testing.T) {
	t.Parallel()

	tracking := &fakeTrackingRepo{
		recordOpenFn: func(ctx context.Context, pixelID string) error {
			return errors.New("connection reset")
		},
	}

	svc, err := NewTrackingService(tracking, testFallbackURL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTrackingService() error = %v", err)
	}

	// Must not panic or surface anything.
	svc.HandleOpen(context.Background(), "px1")
	svc.HandleBeacon(context.Background(), "px1")
}

func TestTrackingServiceHandleBounceRecordsReason(t *testing.T) {
	t.Parallel()

	var gotPixel, gotReason string
	tracking := &fakeTrackingRepo{
		recordBounceFn: func(ctx context.Context, pixelID, reason string) error {
			gotPixel = pixelID
			gotReason = reason
			return nil
		},
	}

	svc, err := NewTrackingService(tracking, testFallbackURL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTrackingService() error = %v", err)
	}

	svc.HandleBounce(context.Background(), "px1", "550 user unknown")
	if gotPixel != "px1" || gotReason != "550 user unknown" {
		t.Fatalf("RecordBounce(%q, %q), want (px1, 550 user unknown)", gotPixel, gotReason)
	}
}
