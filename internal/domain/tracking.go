package domain

import (
	"fmt"
	"strings"
	"time"
)

// EngagementStatus is the per-recipient engagement state. The funnel states
// form a strict order and a record never moves backwards along it, no matter
// in which order the open/click/reply signals arrive.
type EngagementStatus string

const (
	EngagementSending EngagementStatus = "sending"
	EngagementSent    EngagementStatus = "sent"
	EngagementOpened  EngagementStatus = "opened"
	EngagementClicked EngagementStatus = "clicked"
	EngagementReplied EngagementStatus = "replied"
	// EngagementBounced sits outside the funnel: reachable from any state
	// except replied, and absorbing once entered.
	EngagementBounced EngagementStatus = "bounced"
)

func (s EngagementStatus) String() string { return string(s) }

func (s EngagementStatus) IsValid() bool {
	switch s {
	case EngagementSending, EngagementSent, EngagementOpened, EngagementClicked, EngagementReplied, EngagementBounced:
		return true
	}
	return false
}

// Rank orders the funnel states. Bounced ranks alongside replied so that a
// bounced record is also treated as terminal by rank comparisons.
func (s EngagementStatus) Rank() int {
	switch s {
	case EngagementSending:
		return 0
	case EngagementSent:
		return 1
	case EngagementOpened:
		return 2
	case EngagementClicked:
		return 3
	case EngagementReplied, EngagementBounced:
		return 4
	}
	return -1
}

func ParseEngagementStatusFromString(s string) (EngagementStatus, error) {
	st := EngagementStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid engagement status %q", ErrValidation, s)
	}
	return st, nil
}

// TrackingRecord is the authoritative engagement row for one recipient of one
// campaign. Exactly one exists per pair, created by the dispatcher at send
// time and never by an inbound tracking fetch. Every *_at timestamp is
// first-write-wins and both counters only increase.
type TrackingRecord struct {
	ID           string           `gorm:"type:uuid;primaryKey"`
	CampaignID   string           `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_campaign_recipient"`
	RecipientID  string           `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_campaign_recipient"`
	PixelID      string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status       EngagementStatus `gorm:"type:varchar(20);not null;default:sending"`
	SentAt       *time.Time
	OpenedAt     *time.Time
	ClickedAt    *time.Time
	RepliedAt    *time.Time
	BouncedAt    *time.Time
	BounceReason *string `gorm:"type:text"`
	OpenCount    int     `gorm:"not null;default:0"`
	ClickCount   int     `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LinkTrackingRecord is the per-hyperlink click ledger, child of a
// TrackingRecord. One row exists per distinct outbound link in a sent
// message; re-instrumenting the same content always allocates fresh rows.
type LinkTrackingRecord struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	TrackingID     string `gorm:"type:uuid;not null;index"`
	OriginalURL    string `gorm:"type:text;not null"`
	TrackingURL    string `gorm:"type:text;not null"`
	ClickCount     int    `gorm:"not null;default:0"`
	FirstClickedAt *time.Time
	LastClickedAt  *time.Time
	CreatedAt      time.Time
}
