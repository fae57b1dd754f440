package repository

import "time"

// DistributorListFilter filters the distributor list.
type DistributorListFilter struct {
	Page         int
	PageSize     int
	Keyword      string
	Rank         string
	Status       string
	IsActive     *bool
	SponsorID    uint
	EnrolledFrom *time.Time
	EnrolledTo   *time.Time
}

// OrderEventListFilter filters the order event list.
type OrderEventListFilter struct {
	Page          int
	PageSize      int
	DistributorID uint
	PeriodKey     string
	IsAutoship    *bool
	UnappliedOnly bool
}

// CommissionListFilter filters commission records.
type CommissionListFilter struct {
	Page      int
	PageSize  int
	EarnerID  uint
	PeriodKey string
	Type      string
	Status    string
}

// PayoutListFilter filters payout requests.
type PayoutListFilter struct {
	Page          int
	PageSize      int
	DistributorID uint
	Status        string
	Method        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// RewardListFilter filters reward points and free rewards.
type RewardListFilter struct {
	Page          int
	PageSize      int
	DistributorID uint
	PeriodKey     string
	Status        string
}

// RankChangeListFilter filters the rank change audit log.
type RankChangeListFilter struct {
	Page          int
	PageSize      int
	DistributorID uint
	PeriodKey     string
	Reason        string
}
