package models

import (
	"time"

	"gorm.io/datatypes"
)

// WorkflowRun records how one driver invocation ended.
type WorkflowRun struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"type:varchar(36);not null;uniqueIndex"`
	State      string `gorm:"type:varchar(32);not null;index"`
	ExitCode   int    `gorm:"not null"`
	SequenceID string `gorm:"type:text"`
	Timestamp  string `gorm:"column:timestamp;type:text"`
	Rendered   bool
	Recorded   bool

	// Outcomes maps publisher name to "ok" or the error text.
	Outcomes datatypes.JSON
	Error    string `gorm:"type:text"`

	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt time.Time
}

func (WorkflowRun) TableName() string {
	return "workflow_runs"
}
