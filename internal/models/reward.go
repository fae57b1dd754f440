package models

import (
	"time"

	"gorm.io/gorm"
)

// RewardPoint is one "3-for-Free" point: one qualifying autoship enrollment
// in one calendar month. Points never roll over; the period key scopes them.
// Kind belongs to the uniqueness key: recruit ids and order event ids live
// in separate sequences, so the same numeric source ref can name two
// different qualifying enrollments.
type RewardPoint struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	DistributorID uint           `gorm:"not null;index;index:idx_reward_point_source,unique" json:"distributor_id"`
	PeriodKey     string         `gorm:"type:varchar(7);not null;index;index:idx_reward_point_source,unique" json:"period_key"`
	Kind          string         `gorm:"type:varchar(20);not null;index:idx_reward_point_source,unique" json:"kind"`
	SourceRefID   uint           `gorm:"not null;default:0;index:idx_reward_point_source,unique" json:"source_ref_id"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (RewardPoint) TableName() string {
	return "reward_points"
}

// FreeReward is the free case earned at three points in one month.
type FreeReward struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	DistributorID uint           `gorm:"not null;index;index:idx_free_reward_period,unique" json:"distributor_id"`
	PeriodKey     string         `gorm:"type:varchar(7);not null;index:idx_free_reward_period,unique" json:"period_key"`
	Status        string         `gorm:"type:varchar(20);not null;index" json:"status"`
	ShippedAt     *time.Time     `json:"shipped_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (FreeReward) TableName() string {
	return "free_rewards"
}
