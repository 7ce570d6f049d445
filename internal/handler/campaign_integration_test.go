package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"github.com/kursadbilgin/campaign-engine/internal/service"
	"github.com/kursadbilgin/campaign-engine/internal/transport"
	"go.uber.org/zap"
)

type stubCampaignService struct {
	createFn      func(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	getByIDFn     func(ctx context.Context, userID, id string) (*domain.Campaign, error)
	listFn        func(ctx context.Context, userID string, params repository.CampaignListParams) ([]domain.Campaign, int64, error)
	updateFn      func(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	deleteFn      func(ctx context.Context, userID, id string) error
	requestSendFn func(ctx context.Context, userID, campaignID string, testMode bool) error
	markRepliedFn func(ctx context.Context, userID, campaignID, recipientID string) error
	dashboardFn   func(ctx context.Context, userID, campaignID string) (*service.CampaignDashboard, error)
}

func (s *stubCampaignService) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if s.createFn != nil {
		return s.createFn(ctx, campaign)
	}
	return campaign, nil
}

func (s *stubCampaignService) GetByID(ctx context.Context, userID, id string) (*domain.Campaign, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubCampaignService) List(ctx context.Context, userID string, params repository.CampaignListParams) ([]domain.Campaign, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID, params)
	}
	return nil, 0, nil
}

func (s *stubCampaignService) Update(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, campaign)
	}
	return campaign, nil
}

func (s *stubCampaignService) Delete(ctx context.Context, userID, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, id)
	}
	return nil
}

func (s *stubCampaignService) RequestSend(ctx context.Context, userID, campaignID string, testMode bool) error {
	if s.requestSendFn != nil {
		return s.requestSendFn(ctx, userID, campaignID, testMode)
	}
	return nil
}

func (s *stubCampaignService) MarkReplied(ctx context.Context, userID, campaignID, recipientID string) error {
	if s.markRepliedFn != nil {
		return s.markRepliedFn(ctx, userID, campaignID, recipientID)
	}
	return nil
}

func (s *stubCampaignService) Dashboard(ctx context.Context, userID, campaignID string) (*service.CampaignDashboard, error) {
	if s.dashboardFn != nil {
		return s.dashboardFn(ctx, userID, campaignID)
	}
	return nil, domain.ErrNotFound
}

func newCampaignTestApp(t *testing.T, svc CampaignService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterCampaignRoutes(app, svc); err != nil {
		t.Fatalf("RegisterCampaignRoutes() error = %v", err)
	}

	return app
}

func performUserRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(userIDHeader, "u1")

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

func TestCampaignIntegration_CreateCampaign(t *testing.T) {
	t.Parallel()

	svc := &stubCampaignService{
		createFn: func(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
			if campaign.UserID != "u1" {
				t.Errorf("UserID = %q, want u1", campaign.UserID)
			}
			if err := campaign.Validate(); err != nil {
				return nil, err
			}
			campaign.ID = "c-created"
			campaign.Status = domain.CampaignStatusDraft
			return campaign, nil
		},
	}

	app := newCampaignTestApp(t, svc)

	validBody := `{"name":"Launch","subjectLine":"Hello","fromName":"Acme","fromEmail":"outreach@acme.test","replyToEmail":"replies@acme.test"}`
	resp, body := performUserRequest(t, app, http.MethodPost, "/v1/campaigns", validBody)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", resp.StatusCode, string(body))
	}

	var created map[string]any
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if created["id"] != "c-created" {
		t.Fatalf("id = %v, want c-created", created["id"])
	}
	if created["status"] != domain.CampaignStatusDraft.String() {
		t.Fatalf("status = %v, want draft", created["status"])
	}

	missingFromBody := `{"name":"Launch","subjectLine":"Hello","fromName":"Acme","fromEmail":"","replyToEmail":"replies@acme.test"}`
	resp, _ = performUserRequest(t, app, http.MethodPost, "/v1/campaigns", missingFromBody)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing from email", resp.StatusCode)
	}
}

func TestCampaignIntegration_MissingUserHeader(t *testing.T) {
	t.Parallel()

	app := newCampaignTestApp(t, &stubCampaignService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without %s", resp.StatusCode, userIDHeader)
	}
}

func TestCampaignIntegration_SendCampaign(t *testing.T) {
	t.Parallel()

	var gotTestMode bool
	svc := &stubCampaignService{
		requestSendFn: func(ctx context.Context, userID, campaignID string, testMode bool) error {
			if campaignID != "c1" {
				t.Errorf("campaignID = %q, want c1", campaignID)
			}
			gotTestMode = testMode
			return nil
		},
	}

	app := newCampaignTestApp(t, svc)

	resp, _ := performUserRequest(t, app, http.MethodPost, "/v1/campaigns/c1/send", `{"testMode":true}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if !gotTestMode {
		t.Fatal("testMode should be forwarded to the service")
	}
}

func TestCampaignIntegration_SendConflict(t *testing.T) {
	t.Parallel()

	svc := &stubCampaignService{
		requestSendFn: func(ctx context.Context, userID, campaignID string, testMode bool) error {
			return domain.ErrConflict
		},
	}

	app := newCampaignTestApp(t, svc)

	resp, _ := performUserRequest(t, app, http.MethodPost, "/v1/campaigns/c1/send", `{}`)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409 for an already-sent campaign", resp.StatusCode)
	}
}

func TestCampaignIntegration_MarkReplied(t *testing.T) {
	t.Parallel()

	var gotRecipientID string
	svc := &stubCampaignService{
		markRepliedFn: func(ctx context.Context, userID, campaignID, recipientID string) error {
			gotRecipientID = recipientID
			return nil
		},
	}

	app := newCampaignTestApp(t, svc)

	resp, _ := performUserRequest(t, app, http.MethodPost, "/v1/campaigns/c1/mark-replied", `{"recipientId":"r1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotRecipientID != "r1" {
		t.Fatalf("recipientID = %q, want r1", gotRecipientID)
	}

	resp, _ = performUserRequest(t, app, http.MethodPost, "/v1/campaigns/c1/mark-replied", `{}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing recipientId", resp.StatusCode)
	}
}

func TestCampaignIntegration_Dashboard(t *testing.T) {
	t.Parallel()

	svc := &stubCampaignService{
		dashboardFn: func(ctx context.Context, userID, campaignID string) (*service.CampaignDashboard, error) {
			return &service.CampaignDashboard{
				Campaign: domain.Campaign{ID: campaignID, Status: domain.CampaignStatusCompleted},
				Stats:    domain.CampaignStats{SentCount: 4, OpenedCount: 2},
				Records: []domain.TrackingRecord{
					{ID: "tr1", Status: domain.EngagementOpened, OpenCount: 3},
				},
			}, nil
		},
	}

	app := newCampaignTestApp(t, svc)

	resp, body := performUserRequest(t, app, http.MethodGet, "/v1/campaigns/c1/dashboard", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var dashboard struct {
		Stats struct {
			SentCount int     `json:"sentCount"`
			OpenRate  float64 `json:"openRate"`
		} `json:"stats"`
		Records []struct {
			Status    string `json:"status"`
			OpenCount int    `json:"openCount"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &dashboard); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if dashboard.Stats.SentCount != 4 {
		t.Fatalf("sentCount = %d, want 4", dashboard.Stats.SentCount)
	}
	if dashboard.Stats.OpenRate != 50 {
		t.Fatalf("openRate = %v, want 50", dashboard.Stats.OpenRate)
	}
	if len(dashboard.Records) != 1 || dashboard.Records[0].Status != "opened" {
		t.Fatalf("records = %+v", dashboard.Records)
	}
}
