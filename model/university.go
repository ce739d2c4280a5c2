package model

import (
	"time"
)

// University is the institution a set of frames belongs to. Name is the
// canonical name used as ground truth when resolving free-text queries.
type University struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null;uniqueIndex" json:"name"`
	WebsiteURL string    `gorm:"type:varchar(512)" json:"website_url,omitempty"`
	LogoKey    string    `gorm:"type:varchar(512)" json:"-"` // object key, e.g. "logos/harvard.png"
	LogoURL    string    `gorm:"type:varchar(1024)" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Frames []Frame `gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE" json:"frames,omitempty"`
}
