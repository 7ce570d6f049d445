package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/queue"
	"go.uber.org/zap"
)

func validCampaignPayload() *domain.Campaign {
	return &domain.Campaign{
		UserID:       "u1",
		Name:         "Launch",
		SubjectLine:  "Hello",
		FromName:     "Acme",
		FromEmail:    "outreach@acme.test",
		ReplyToEmail: "replies@acme.test",
	}
}

func TestCampaignServiceCreateAssignsDraftState(t *testing.T) {
	t.Parallel()

	var created *domain.Campaign
	campaigns := &fakeCampaignRepo{
		createFn: func(ctx context.Context, campaign *domain.Campaign) error {
			created = campaign
			return nil
		},
	}

	svc, err := NewCampaignService(campaigns, &fakeTrackingRepo{}, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}

	payload := validCampaignPayload()
	payload.Status = domain.CampaignStatusCompleted // must be ignored

	got, err := svc.Create(context.Background(), payload)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("repository Create was not called")
	}
	if got.ID == "" {
		t.Fatal("Create() should assign an id")
	}
	if got.Status != domain.CampaignStatusDraft {
		t.Fatalf("Status = %s, want draft", got.Status)
	}
	if !got.Active {
		t.Fatal("new campaigns should be active")
	}
}

func TestCampaignServiceCreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *domain.Campaign)
	}{
		{name: "missing name", mutate: func(c *domain.Campaign) { c.Name = "" }},
		{name: "missing subject", mutate: func(c *domain.Campaign) { c.SubjectLine = "" }},
		{name: "bad from address", mutate: func(c *domain.Campaign) { c.FromEmail = "not-an-address" }},
		{name: "bad reply-to address", mutate: func(c *domain.Campaign) { c.ReplyToEmail = "not-an-address" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := NewCampaignService(&fakeCampaignRepo{}, &fakeTrackingRepo{}, &fakePublisher{}, zap.NewNop())
			if err != nil {
				t.Fatalf("NewCampaignService() error = %v", err)
			}

			payload := validCampaignPayload()
			tt.mutate(payload)

			if _, err := svc.Create(context.Background(), payload); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCampaignServiceUpdateRejectsNonDraft(t *testing.T) {
	t.Parallel()

	existing := validCampaignPayload()
	existing.ID = "c1"
	existing.Status = domain.CampaignStatusCompleted

	campaigns := &fakeCampaignRepo{
		getByIDFn: func(ctx context.Context, userID, id string) (*domain.Campaign, error) {
			return existing, nil
		},
	}

	svc, err := NewCampaignService(campaigns, &fakeTrackingRepo{}, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}

	payload := validCampaignPayload()
	payload.ID = "c1"

	if _, err := svc.Update(context.Background(), payload); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
}

func TestCampaignServiceRequestSendEnqueues(t *testing.T) {
	t.Parallel()

	campaign := validCampaignPayload()
	campaign.ID = "c1"
	campaign.Status = domain.CampaignStatusDraft

	var published []queue.DispatchMessage
	campaigns := &fakeCampaignRepo{
		getByIDFn: func(ctx context.Context, userID, id string) (*domain.Campaign, error) {
			return campaign, nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.DispatchMessage) error {
			if queueName != queue.DispatchQueueName {
				t.Errorf("published to %q, want %q", queueName, queue.DispatchQueueName)
			}
			published = append(published, msg)
			return nil
		},
	}

	svc, err := NewCampaignService(campaigns, &fakeTrackingRepo{}, publisher, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}

	if err := svc.RequestSend(context.Background(), "u1", "c1", false); err != nil {
		t.Fatalf("RequestSend() error = %v", err)
	}

	if len(published) != 1 {
		t.Fatalf("published %d messages, want 1", len(published))
	}
	msg := published[0]
	if msg.CampaignID != "c1" || msg.UserID != "u1" || msg.TestMode {
		t.Fatalf("published message = %+v", msg)
	}
	if msg.CorrelationID == "" {
		t.Fatal("message should carry a correlation id")
	}
}

func TestCampaignServiceRequestSendStatusGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   domain.CampaignStatus
		testMode bool
		wantErr  error
	}{
		{name: "draft live", status: domain.CampaignStatusDraft},
		{name: "failed live retries", status: domain.CampaignStatusFailed},
		{name: "sending live rejected", status: domain.CampaignStatusSending, wantErr: domain.ErrConflict},
		{name: "completed live rejected", status: domain.CampaignStatusCompleted, wantErr: domain.ErrConflict},
		{name: "completed test allowed", status: domain.CampaignStatusCompleted, testMode: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			campaign := validCampaignPayload()
			campaign.ID = "c1"
			campaign.Status = tt.status

			campaigns := &fakeCampaignRepo{
				getByIDFn: func(ctx context.Context, userID, id string) (*domain.Campaign, error) {
					return campaign, nil
				},
			}

			svc, err := NewCampaignService(campaigns, &fakeTrackingRepo{}, &fakePublisher{}, zap.NewNop())
			if err != nil {
				t.Fatalf("NewCampaignService() error = %v", err)
			}

			err = svc.RequestSend(context.Background(), "u1", "c1", tt.testMode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RequestSend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequestSend() error = %v", err)
			}
		})
	}
}

func TestCampaignServiceMarkRepliedChecksOwnership(t *testing.T) {
	t.Parallel()

	replyRecorded := false
	campaigns := &fakeCampaignRepo{
		getByIDFn: func(ctx context.Context, userID, id string) (*domain.Campaign, error) {
			return nil, domain.ErrNotFound
		},
	}
	tracking := &fakeTrackingRepo{
		recordReplyFn: func(ctx context.Context, campaignID, recipientID string) error {
			replyRecorded = true
			return nil
		},
	}

	svc, err := NewCampaignService(campaigns, tracking, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}

	if err := svc.MarkReplied(context.Background(), "intruder", "c1", "r1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MarkReplied() error = %v, want ErrNotFound", err)
	}
	if replyRecorded {
		t.Fatal("reply must not be recorded for a foreign campaign")
	}
}

func TestCampaignServiceDashboard(t *testing.T) {
	t.Parallel()

	campaign := validCampaignPayload()
	campaign.ID = "c1"

	campaigns := &fakeCampaignRepo{
		getByIDFn: func(ctx context.Context, userID, id string) (*domain.Campaign, error) {
			return campaign, nil
		},
	}
	tracking := &fakeTrackingRepo{
		getCampaignStatsFn: func(ctx context.Context, campaignID string) (*domain.CampaignStats, error) {
			return &domain.CampaignStats{SentCount: 10, OpenedCount: 4}, nil
		},
		listByCampaignFn: func(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error) {
			return []domain.TrackingRecord{{ID: "tr1"}, {ID: "tr2"}}, nil
		},
	}

	svc, err := NewCampaignService(campaigns, tracking, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewCampaignService() error = %v", err)
	}

	dashboard, err := svc.Dashboard(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if dashboard.Stats.SentCount != 10 {
		t.Fatalf("SentCount = %d, want 10", dashboard.Stats.SentCount)
	}
	if len(dashboard.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(dashboard.Records))
	}
}
