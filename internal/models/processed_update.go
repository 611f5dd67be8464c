package models

import "time"

// ProcessedUpdate is one published snapshot identity. Rows are written once
// and never updated; (sequence_id, timestamp) is unique.
type ProcessedUpdate struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SequenceID  string    `gorm:"type:text;not null;uniqueIndex:idx_processed_updates_key,priority:1"`
	Timestamp   string    `gorm:"column:timestamp;type:text;not null;uniqueIndex:idx_processed_updates_key,priority:2"`
	ProcessedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProcessedUpdate) TableName() string {
	return "processed_updates"
}
