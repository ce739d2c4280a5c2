package model

import "time"

// UnrankedSortOrder is the display rank of a frame whose filename carries no
// numeric ordering hint.
const UnrankedSortOrder = 999

// Frame is a single image asset of a university. URL is derived from the
// object key and refreshed on every sync; (UniversityID, Filename) is unique.
type Frame struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UniversityID uint      `gorm:"not null;uniqueIndex:idx_frames_university_filename,priority:1" json:"university_id"`
	Filename     string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_frames_university_filename,priority:2" json:"filename"`
	URL          string    `gorm:"column:url;type:varchar(2048);not null" json:"url"`
	SortOrder    int       `gorm:"not null;default:999;index" json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
