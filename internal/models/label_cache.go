package models

import "time"

// LabelCacheEntry persists an answer of the external labeler.
type LabelCacheEntry struct {
	Key        string    `gorm:"primaryKey;size:36" json:"key"`
	Text       string    `gorm:"not null" json:"text"`
	Category   Category  `gorm:"not null;index" json:"category"`
	Confidence float64   `json:"confidence"`
	Tags       string    `json:"tags"` // comma separated
	Rationale  string    `json:"rationale"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
