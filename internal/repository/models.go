package repository

import (
	"time"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
)

// UserModel is the persistence model for the users table.
type UserModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"type:varchar(255);not null"`
	FullName  string `gorm:"type:varchar(255);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID           string                `gorm:"type:uuid;primaryKey"`
	UserID       string                `gorm:"type:uuid;not null"`
	Name         string                `gorm:"type:varchar(255);not null"`
	SubjectLine  string                `gorm:"type:varchar(255);not null"`
	FromName     string                `gorm:"type:varchar(255);not null"`
	FromEmail    string                `gorm:"type:varchar(255);not null"`
	ReplyToEmail string                `gorm:"type:varchar(255);not null"`
	Status       domain.CampaignStatus `gorm:"type:varchar(20);not null"`
	ScheduledAt  *time.Time            `gorm:"type:timestamptz"`
	SentAt       *time.Time            `gorm:"type:timestamptz"`
	Active       bool                  `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// TemplateModel is the persistence model for the templates table.
type TemplateModel struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	UserID      string  `gorm:"type:uuid;not null"`
	CampaignID  *string `gorm:"type:uuid"`
	Name        string  `gorm:"type:varchar(255);not null"`
	HTMLContent string  `gorm:"type:text;not null"`
	TextContent string  `gorm:"type:text"`
	Active      bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (TemplateModel) TableName() string {
	return "templates"
}

// RecipientModel is the persistence model for the recipients table.
type RecipientModel struct {
	ID           string              `gorm:"type:uuid;primaryKey"`
	UserID       string              `gorm:"type:uuid;not null"`
	Email        string              `gorm:"type:varchar(255);not null"`
	FirstName    string              `gorm:"type:varchar(255)"`
	LastName     string              `gorm:"type:varchar(255)"`
	Company      string              `gorm:"type:varchar(255)"`
	Position     string              `gorm:"type:varchar(255)"`
	CustomFields domain.CustomFields `gorm:"type:jsonb;serializer:json"`
	Active       bool                `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (RecipientModel) TableName() string {
	return "recipients"
}

// CampaignRecipientModel is the persistence model for campaign_recipients.
type CampaignRecipientModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	CampaignID  string `gorm:"type:uuid;not null"`
	RecipientID string `gorm:"type:uuid;not null"`
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
}

func (CampaignRecipientModel) TableName() string {
	return "campaign_recipients"
}

// TrackingModel is the persistence model for tracking_records.
type TrackingModel struct {
	ID           string                  `gorm:"type:uuid;primaryKey"`
	CampaignID   string                  `gorm:"type:uuid;not null"`
	RecipientID  string                  `gorm:"type:uuid;not null"`
	PixelID      string                  `gorm:"type:varchar(64);not null"`
	Status       domain.EngagementStatus `gorm:"type:varchar(20);not null"`
	SentAt       *time.Time              `gorm:"type:timestamptz"`
	OpenedAt     *time.Time              `gorm:"type:timestamptz"`
	ClickedAt    *time.Time              `gorm:"type:timestamptz"`
	RepliedAt    *time.Time              `gorm:"type:timestamptz"`
	BouncedAt    *time.Time              `gorm:"type:timestamptz"`
	BounceReason *string                 `gorm:"type:text"`
	OpenCount    int                     `gorm:"not null;default:0"`
	ClickCount   int                     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (TrackingModel) TableName() string {
	return "tracking_records"
}

// LinkTrackingModel is the persistence model for link_tracking_records.
type LinkTrackingModel struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	TrackingID     string     `gorm:"type:uuid;not null"`
	OriginalURL    string     `gorm:"type:text;not null"`
	TrackingURL    string     `gorm:"type:text;not null"`
	ClickCount     int        `gorm:"not null;default:0"`
	FirstClickedAt *time.Time `gorm:"type:timestamptz"`
	LastClickedAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt      time.Time
}

func (LinkTrackingModel) TableName() string {
	return "link_tracking_records"
}

func userModelFromDomain(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}

	return &UserModel{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		FullName:  m.FullName,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:           c.ID,
		UserID:       c.UserID,
		Name:         c.Name,
		SubjectLine:  c.SubjectLine,
		FromName:     c.FromName,
		FromEmail:    c.FromEmail,
		ReplyToEmail: c.ReplyToEmail,
		Status:       c.Status,
		ScheduledAt:  c.ScheduledAt,
		SentAt:       c.SentAt,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:           m.ID,
		UserID:       m.UserID,
		Name:         m.Name,
		SubjectLine:  m.SubjectLine,
		FromName:     m.FromName,
		FromEmail:    m.FromEmail,
		ReplyToEmail: m.ReplyToEmail,
		Status:       m.Status,
		ScheduledAt:  m.ScheduledAt,
		SentAt:       m.SentAt,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func templateModelFromDomain(t *domain.Template) *TemplateModel {
	if t == nil {
		return nil
	}

	return &TemplateModel{
		ID:          t.ID,
		UserID:      t.UserID,
		CampaignID:  t.CampaignID,
		Name:        t.Name,
		HTMLContent: t.HTMLContent,
		TextContent: t.TextContent,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func templateModelToDomain(m *TemplateModel) *domain.Template {
	if m == nil {
		return nil
	}

	return &domain.Template{
		ID:          m.ID,
		UserID:      m.UserID,
		CampaignID:  m.CampaignID,
		Name:        m.Name,
		HTMLContent: m.HTMLContent,
		TextContent: m.TextContent,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func recipientModelFromDomain(r *domain.Recipient) *RecipientModel {
	if r == nil {
		return nil
	}

	return &RecipientModel{
		ID:           r.ID,
		UserID:       r.UserID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Company:      r.Company,
		Position:     r.Position,
		CustomFields: r.CustomFields,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func recipientModelToDomain(m *RecipientModel) *domain.Recipient {
	if m == nil {
		return nil
	}

	return &domain.Recipient{
		ID:           m.ID,
		UserID:       m.UserID,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Company:      m.Company,
		Position:     m.Position,
		CustomFields: m.CustomFields,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func campaignRecipientModelFromDomain(cr *domain.CampaignRecipient) *CampaignRecipientModel {
	if cr == nil {
		return nil
	}

	return &CampaignRecipientModel{
		ID:          cr.ID,
		CampaignID:  cr.CampaignID,
		RecipientID: cr.RecipientID,
		Active:      cr.Active,
		CreatedAt:   cr.CreatedAt,
	}
}

func campaignRecipientModelToDomain(m *CampaignRecipientModel) *domain.CampaignRecipient {
	if m == nil {
		return nil
	}

	return &domain.CampaignRecipient{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		RecipientID: m.RecipientID,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

func trackingModelFromDomain(t *domain.TrackingRecord) *TrackingModel {
	if t == nil {
		return nil
	}

	return &TrackingModel{
		ID:           t.ID,
		CampaignID:   t.CampaignID,
		RecipientID:  t.RecipientID,
		PixelID:      t.PixelID,
		Status:       t.Status,
		SentAt:       t.SentAt,
		OpenedAt:     t.OpenedAt,
		ClickedAt:    t.ClickedAt,
		RepliedAt:    t.RepliedAt,
		BouncedAt:    t.BouncedAt,
		BounceReason: t.BounceReason,
		OpenCount:    t.OpenCount,
		ClickCount:   t.ClickCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func trackingModelToDomain(m *TrackingModel) *domain.TrackingRecord {
	if m == nil {
		return nil
	}

	return &domain.TrackingRecord{
		ID:           m.ID,
		CampaignID:   m.CampaignID,
		RecipientID:  m.RecipientID,
		PixelID:      m.PixelID,
		Status:       m.Status,
		SentAt:       m.SentAt,
		OpenedAt:     m.OpenedAt,
		ClickedAt:    m.ClickedAt,
		RepliedAt:    m.RepliedAt,
		BouncedAt:    m.BouncedAt,
		BounceReason: m.BounceReason,
		OpenCount:    m.OpenCount,
		ClickCount:   m.ClickCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func linkTrackingModelFromDomain(l *domain.LinkTrackingRecord) *LinkTrackingModel {
	if l == nil {
		return nil
	}

	return &LinkTrackingModel{
		ID:             l.ID,
		TrackingID:     l.TrackingID,
		OriginalURL:    l.OriginalURL,
		TrackingURL:    l.TrackingURL,
		ClickCount:     l.ClickCount,
		FirstClickedAt: l.FirstClickedAt,
		LastClickedAt:  l.LastClickedAt,
		CreatedAt:      l.CreatedAt,
	}
}

func linkTrackingModelToDomain(m *LinkTrackingModel) *domain.LinkTrackingRecord {
	if m == nil {
		return nil
	}

	return &domain.LinkTrackingRecord{
		ID:             m.ID,
		TrackingID:     m.TrackingID,
		OriginalURL:    m.OriginalURL,
		TrackingURL:    m.TrackingURL,
		ClickCount:     m.ClickCount,
		FirstClickedAt: m.FirstClickedAt,
		LastClickedAt:  m.LastClickedAt,
		CreatedAt:      m.CreatedAt,
	}
}
