package models

import (
	"time"
)

// CaptureRecord is one stored screenshot. Rows are append-only except for
// the Deleted flag; a row is inserted only after its PNG has been written.
type CaptureRecord struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	WindowTitle  string    `json:"window_title"`
	AppName      string    `json:"app_name"`
	EventType    string    `gorm:"not null" json:"event_type"` // "focus", "title", "interval" or "snapshot"
	ImagePath    string    `gorm:"not null;uniqueIndex" json:"image_path"`
	Width        int       `gorm:"not null" json:"width"`
	Height       int       `gorm:"not null" json:"height"`
	MonitorLabel string    `json:"monitor_label,omitempty"` // set only when the monitor path produced the image
	Deleted      bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Event types accepted in CaptureRecord.EventType.
const (
	EventFocus    = "focus"
	EventTitle    = "title"
	EventInterval = "interval"
	EventSnapshot = "snapshot"
)
