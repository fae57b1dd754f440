package models

import (
	"time"

	"gorm.io/gorm"
)

// PeriodCloseRun records one month-end close. The unique period key makes
// the close idempotent: a re-run of a completed period returns the stored
// summary instead of recomputing.
type PeriodCloseRun struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	PeriodKey          string         `gorm:"type:varchar(7);not null;uniqueIndex" json:"period_key"`
	PlanVersion        string         `gorm:"type:varchar(32);not null" json:"plan_version"`
	Status             string         `gorm:"type:varchar(20);not null;index" json:"status"`
	CommissionsCreated int            `gorm:"not null;default:0" json:"commissions_created"`
	RanksChanged       int            `gorm:"not null;default:0" json:"ranks_changed"`
	RewardsIssued      int            `gorm:"not null;default:0" json:"rewards_issued"`
	EventsSkipped      int            `gorm:"not null;default:0" json:"events_skipped"`
	StartedAt          time.Time      `json:"started_at"`
	FinishedAt         *time.Time     `json:"finished_at,omitempty"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (PeriodCloseRun) TableName() string {
	return "period_close_runs"
}
