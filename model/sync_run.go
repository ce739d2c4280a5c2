package model

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRunStatus is the outcome of one reconciliation attempt
type SyncRunStatus string

const (
	SyncRunCompleted SyncRunStatus = "completed"
	SyncRunEmpty     SyncRunStatus = "empty"
	SyncRunFailed    SyncRunStatus = "failed"
)

// SyncTrigger records what started a sync
type SyncTrigger string

const (
	SyncTriggerOnDemand SyncTrigger = "on_demand"
	SyncTriggerAdmin    SyncTrigger = "admin"
	SyncTriggerBulk     SyncTrigger = "bulk"
)

// SyncRun logs a single bucket-to-database reconciliation for a university
type SyncRun struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UniversityID   uint           `gorm:"not null;index" json:"university_id"`
	RequestedName  string         `gorm:"type:varchar(512)" json:"requested_name"`
	Folder         string         `gorm:"type:varchar(512)" json:"folder"`
	Candidates     datatypes.JSON `json:"candidates"` // folder names tried, in order
	FramesUpserted int            `gorm:"default:0" json:"frames_upserted"`
	Status         SyncRunStatus  `gorm:"type:varchar(20);not null" json:"status"`
	Trigger        SyncTrigger    `gorm:"type:varchar(20);not null" json:"trigger"`
	ErrorMsg       string         `gorm:"type:text" json:"error_msg,omitempty"`
	StartedAt      time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}
