package models

import (
	"time"

	"gorm.io/gorm"
)

// Distributor is one node in the two-leg placement tree. SponsorID is the
// recruiter used for commission lineage; ParentID/Position locate the node in
// the placement tree and may differ from the sponsor under spillover.
// Distributors are never hard-deleted so commission history stays auditable.
type Distributor struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Code         string         `gorm:"type:varchar(16);not null;uniqueIndex" json:"code"`
	Username     string         `gorm:"type:varchar(64);index" json:"username,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Status       string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	SponsorID    *uint          `gorm:"index" json:"sponsor_id,omitempty"`
	ParentID     *uint          `gorm:"index:idx_distributor_slot,unique,where:parent_id IS NOT NULL" json:"parent_id,omitempty"`
	Position     string         `gorm:"type:varchar(8);index:idx_distributor_slot,unique,where:parent_id IS NOT NULL" json:"position,omitempty"`
	PackageID    *uint          `gorm:"index" json:"package_id,omitempty"`

	// Current-period aggregates, reset at period close.
	PersonalVolume int `gorm:"not null;default:0" json:"personal_volume"`
	TeamVolume     int `gorm:"not null;default:0" json:"team_volume"`

	// Lifetime aggregates, never reset.
	LifetimePersonalVolume int `gorm:"not null;default:0" json:"lifetime_personal_volume"`
	LifetimeTeamVolume     int `gorm:"not null;default:0" json:"lifetime_team_volume"`
	LifetimeSalesCount     int `gorm:"not null;default:0" json:"lifetime_sales_count"`

	// Binary pay-leg volume carried past the per-period cap.
	LeftCarryVolume  int `gorm:"not null;default:0" json:"left_carry_volume"`
	RightCarryVolume int `gorm:"not null;default:0" json:"right_carry_volume"`

	Rank            string     `gorm:"type:varchar(20);not null;default:'starter';index" json:"rank"`
	RankAchievedAt  *time.Time `json:"rank_achieved_at,omitempty"`
	IsActive        bool       `gorm:"not null;default:false;index" json:"is_active"`
	AutoshipEnabled bool       `gorm:"not null;default:false" json:"autoship_enabled"`

	EnrolledAt  time.Time      `gorm:"index" json:"enrolled_at"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Sponsor *Distributor       `gorm:"foreignKey:SponsorID" json:"sponsor,omitempty"`
	Package *EnrollmentPackage `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// TableName sets the table name.
func (Distributor) TableName() string {
	return "distributors"
}

// RankChange records one promotion or demotion for audit and notification.
type RankChange struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	DistributorID uint      `gorm:"not null;index" json:"distributor_id"`
	FromRank      string    `gorm:"type:varchar(20);not null" json:"from_rank"`
	ToRank        string    `gorm:"type:varchar(20);not null" json:"to_rank"`
	PeriodKey     string    `gorm:"type:varchar(7);not null;index" json:"period_key"`
	Reason        string    `gorm:"type:varchar(40);not null" json:"reason"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (RankChange) TableName() string {
	return "rank_changes"
}
