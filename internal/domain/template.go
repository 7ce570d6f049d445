package domain

import (
	"fmt"
	"strings"
	"time"
)

// Template holds the HTML and plain-text bodies for one campaign. The
// dispatcher reads the body once at dispatch time, so editing a template after
// a send never rewrites content that is already instrumented and tracked.
type Template struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	UserID      string  `gorm:"type:uuid;not null;index"`
	CampaignID  *string `gorm:"type:uuid;index"`
	Name        string  `gorm:"type:varchar(255);not null"`
	HTMLContent string  `gorm:"type:text;not null"`
	TextContent string  `gorm:"type:text"`
	Active      bool    `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrValidation)
	}
	if strings.TrimSpace(t.HTMLContent) == "" {
		return fmt.Errorf("%w: html content is required", ErrValidation)
	}
	return nil
}
