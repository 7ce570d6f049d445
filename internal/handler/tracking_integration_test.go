package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/transport"
	"go.uber.org/zap"
)

type stubTrackingService struct {
	handleOpenFn   func(ctx context.Context, pixelID string)
	handleBeaconFn func(ctx context.Context, pixelID string)
	handleClickFn  func(ctx context.Context, trackingID, linkID string) string
	handleBounceFn func(ctx context.Context, pixelID, reason string)
}

func (s *stubTrackingService) HandleOpen(ctx context.Context, pixelID string) {
	if s.handleOpenFn != nil {
		s.handleOpenFn(ctx, pixelID)
	}
}

func (s *stubTrackingService) HandleBeacon(ctx context.Context, pixelID string) {
	if s.handleBeaconFn != nil {
		s.handleBeaconFn(ctx, pixelID)
	}
}

func (s *stubTrackingService) HandleClick(ctx context.Context, trackingID, linkID string) string {
	if s.handleClickFn != nil {
		return s.handleClickFn(ctx, trackingID, linkID)
	}
	return "https://www.example.org"
}

func (s *stubTrackingService) HandleBounce(ctx context.Context, pixelID, reason string) {
	if s.handleBounceFn != nil {
		s.handleBounceFn(ctx, pixelID, reason)
	}
}

func newTrackingTestApp(t *testing.T, svc TrackingService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterTrackingRoutes(app, svc); err != nil {
		t.Fatalf("RegisterTrackingRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func TestTrackingIntegration_OpenPixel(t *testing.T) {
	t.Parallel()

	var gotPixelID string
	svc := &stubTrackingService{
		handleOpenFn: func(ctx context.Context, pixelID string) {
			gotPixelID = pixelID
		},
	}

	app := newTrackingTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/track/open/px-123", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotPixelID != "px-123" {
		t.Fatalf("pixelID = %q, want px-123", gotPixelID)
	}
	if resp.Header.Get(fiber.HeaderContentType) != "image/gif" {
		t.Fatalf("content-type = %q, want image/gif", resp.Header.Get(fiber.HeaderContentType))
	}
	if !bytes.Equal(body, pixelGIF) {
		t.Fatal("response body is not the tracking pixel")
	}
	if resp.Header.Get(fiber.HeaderCacheControl) == "" {
		t.Fatal("pixel responses must disable caching")
	}
}

func TestTrackingIntegration_PixelServedOnUnknownID(t *testing.T) {
	t.Parallel()

	// The service layer swallows lookup failures; the handler must still
	// serve the pixel so broken ids do not leak errors to mail clients.
	app := newTrackingTestApp(t, &stubTrackingService{})

	resp, body := performRequest(t, app, http.MethodGet, "/track/open/not-a-real-pixel", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Equal(body, pixelGIF) {
		t.Fatal("response body is not the tracking pixel")
	}
}

func TestTrackingIntegration_Beacon(t *testing.T) {
	t.Parallel()

	var gotPixelID string
	svc := &stubTrackingService{
		handleBeaconFn: func(ctx context.Context, pixelID string) {
			gotPixelID = pixelID
		},
	}

	app := newTrackingTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodGet, "/track/beacon/px-456", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotPixelID != "px-456" {
		t.Fatalf("pixelID = %q, want px-456", gotPixelID)
	}
	if !bytes.Equal(body, pixelGIF) {
		t.Fatal("beacon must serve the same pixel bytes")
	}
}

func TestTrackingIntegration_ClickRedirects(t *testing.T) {
	t.Parallel()

	svc := &stubTrackingService{
		handleClickFn: func(ctx context.Context, trackingID, linkID string) string {
			if trackingID != "tr-1" || linkID != "l-1" {
				t.Errorf("HandleClick(%q, %q), want (tr-1, l-1)", trackingID, linkID)
			}
			return "https://acme.test/pricing"
		},
	}

	app := newTrackingTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodGet, "/track/click/tr-1/l-1", "")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderLocation); got != "https://acme.test/pricing" {
		t.Fatalf("location = %q, want the original URL", got)
	}
}

func TestTrackingIntegration_ClickFallbackRedirect(t *testing.T) {
	t.Parallel()

	svc := &stubTrackingService{
		handleClickFn: func(ctx context.Context, trackingID, linkID string) string {
			return "https://www.example.org"
		},
	}

	app := newTrackingTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodGet, "/track/click/bogus/bogus", "")
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302 even for unknown ids", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderLocation); got != "https://www.example.org" {
		t.Fatalf("location = %q, want the fallback URL", got)
	}
}

func TestTrackingIntegration_Bounce(t *testing.T) {
	t.Parallel()

	var gotPixelID, gotReason string
	svc := &stubTrackingService{
		handleBounceFn: func(ctx context.Context, pixelID, reason string) {
			gotPixelID = pixelID
			gotReason = reason
		},
	}

	app := newTrackingTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPost, "/track/bounce", `{"pixelId":"px-789","reason":"550 user unknown"}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if gotPixelID != "px-789" || gotReason != "550 user unknown" {
		t.Fatalf("HandleBounce(%q, %q)", gotPixelID, gotReason)
	}

	resp, _ = performRequest(t, app, http.MethodPost, "/track/bounce", `{"reason":"no pixel"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing pixelId", resp.StatusCode)
	}
}
