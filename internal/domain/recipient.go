package domain

import (
	"fmt"
	"strings"
	"time"
)

// CustomFields is a free-form per-recipient field map, persisted as JSONB and
// consumed by template personalization.
type CustomFields map[string]string

// Recipient is an addressable contact owned by one user. Deletion is always a
// soft delete so historical tracking rows keep a valid reference.
type Recipient struct {
	ID           string       `gorm:"type:uuid;primaryKey"`
	UserID       string       `gorm:"type:uuid;not null;index"`
	Email        string       `gorm:"type:varchar(255);not null"`
	FirstName    string       `gorm:"type:varchar(255)"`
	LastName     string       `gorm:"type:varchar(255)"`
	Company      string       `gorm:"type:varchar(255)"`
	Position     string       `gorm:"type:varchar(255)"`
	CustomFields CustomFields `gorm:"type:jsonb;serializer:json"`
	Active       bool         `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r *Recipient) Validate() error {
	if err := validateAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid recipient email %q", ErrValidation, r.Email)
	}
	return nil
}

// PersonalizationFields flattens the recipient into the token map used by the
// content instrumentor. Custom fields never shadow the built-in ones.
func (r *Recipient) PersonalizationFields() map[string]string {
	fields := map[string]string{
		"email":      r.Email,
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"company":    r.Company,
		"position":   r.Position,
	}
	for key, value := range r.CustomFields {
		normalized := strings.TrimSpace(key)
		if normalized == "" {
			continue
		}
		if _, reserved := fields[normalized]; reserved {
			continue
		}
		fields[normalized] = value
	}
	return fields
}

// CampaignRecipient is the campaign<->recipient join row. Its own soft-delete
// flag lets a recipient leave one campaign without touching the history of
// any other.
type CampaignRecipient struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	CampaignID  string `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_recipient_pair"`
	RecipientID string `gorm:"type:uuid;not null;uniqueIndex:idx_campaign_recipient_pair"`
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
}
