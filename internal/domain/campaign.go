package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusSending, CampaignStatusCompleted, CampaignStatusFailed:
		return true
	}
	return false
}

func ParseCampaignStatusFromString(s string) (CampaignStatus, error) {
	st := CampaignStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid campaign status %q", ErrValidation, s)
	}
	return st, nil
}

// Campaign is the core entity describing one bulk mailing. Subject, from and
// reply-to fields are frozen once the status leaves draft; only the
// dispatcher mutates status and sent_at after that point.
type Campaign struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	UserID       string         `gorm:"type:uuid;not null;index"`
	Name         string         `gorm:"type:varchar(255);not null"`
	SubjectLine  string         `gorm:"type:varchar(255);not null"`
	FromName     string         `gorm:"type:varchar(255);not null"`
	FromEmail    string         `gorm:"type:varchar(255);not null"`
	ReplyToEmail string         `gorm:"type:varchar(255);not null"`
	Status       CampaignStatus `gorm:"type:varchar(20);not null;default:draft"`
	ScheduledAt  *time.Time
	SentAt       *time.Time
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if strings.TrimSpace(c.SubjectLine) == "" {
		return fmt.Errorf("%w: subject line is required", ErrValidation)
	}
	if strings.TrimSpace(c.FromName) == "" {
		return fmt.Errorf("%w: from name is required", ErrValidation)
	}
	if err := validateAddress(c.FromEmail); err != nil {
		return fmt.Errorf("%w: invalid from email %q", ErrValidation, c.FromEmail)
	}
	if err := validateAddress(c.ReplyToEmail); err != nil {
		return fmt.Errorf("%w: invalid reply-to email %q", ErrValidation, c.ReplyToEmail)
	}
	return nil
}

func validateAddress(address string) error {
	_, err := mail.ParseAddress(strings.TrimSpace(address))
	return err
}

// CampaignStats aggregates engagement counts for one campaign.
type CampaignStats struct {
	SentCount    int
	OpenedCount  int
	ClickedCount int
	RepliedCount int
	BouncedCount int
}

func (s CampaignStats) OpenRate() float64  { return rate(s.OpenedCount, s.SentCount) }
func (s CampaignStats) ClickRate() float64 { return rate(s.ClickedCount, s.SentCount) }
func (s CampaignStats) ReplyRate() float64 { return rate(s.RepliedCount, s.SentCount) }

func rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
