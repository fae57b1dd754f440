package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionRecord is one commission line for one earner in one period.
// Records are immutable after creation except for status transitions driven
// by the payout flow. The composite unique index makes period runs
// re-executable without double-paying.
type CommissionRecord struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	EarnerID       uint           `gorm:"not null;index;index:idx_commission_unique,unique" json:"earner_id"`
	Type           string         `gorm:"type:varchar(20);not null;index:idx_commission_unique,unique" json:"type"`
	PeriodKey      string         `gorm:"type:varchar(7);not null;index;index:idx_commission_unique,unique" json:"period_key"`
	SourceEventKey string         `gorm:"type:varchar(64);not null;default:'';index:idx_commission_unique,unique" json:"source_event_key,omitempty"`
	AmountCents    Cents          `gorm:"not null;default:0" json:"amount_cents"`
	BasisCents     Cents          `gorm:"not null;default:0" json:"basis_cents"`
	BasisVolume    int            `gorm:"not null;default:0" json:"basis_volume"`
	RatePercent    string         `gorm:"type:varchar(16);not null;default:'0'" json:"rate_percent"`
	PlanVersion    string         `gorm:"type:varchar(32);not null" json:"plan_version"`
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`
	ReasonCode     string         `gorm:"type:varchar(40);not null;default:''" json:"reason_code,omitempty"`
	PayoutID       *uint          `gorm:"index" json:"payout_id,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Earner Distributor `gorm:"foreignKey:EarnerID" json:"earner,omitempty"`
}

// TableName sets the table name.
func (CommissionRecord) TableName() string {
	return "commission_records"
}
