package domain

import "time"

// User is the owning identity for campaigns, templates and recipients.
// Authentication lives in the outer routing layer; the engine only needs the
// id for ownership scoping and the email address for test-mode sends.
type User struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName  string `gorm:"type:varchar(255);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
