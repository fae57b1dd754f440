package constants

// Distributor rank constants, ordered lowest to highest.
const (
	RankStarter    = "starter"
	RankBronze     = "bronze"
	RankSilver     = "silver"
	RankGold       = "gold"
	RankPlatinum   = "platinum"
	RankDiamond    = "diamond"
	RankCrown      = "crown"
	RankAmbassador = "ambassador"
)

// RankOrder maps each rank to its position on the ladder.
var RankOrder = map[string]int{
	RankStarter:    0,
	RankBronze:     1,
	RankSilver:     2,
	RankGold:       3,
	RankPlatinum:   4,
	RankDiamond:    5,
	RankCrown:      6,
	RankAmbassador: 7,
}

// Placement tree positions.
const (
	PositionLeft  = "left"
	PositionRight = "right"
)

// Distributor account status constants.
const (
	DistributorStatusActive   = "active"
	DistributorStatusDisabled = "disabled"
)

// Commission type constants.
const (
	CommissionTypeRetail    = "retail"
	CommissionTypeBinary    = "binary"
	CommissionTypeFastStart = "fast_start"
	CommissionTypeMatching  = "matching"

	// CommissionTypeIneligible marks the zero-amount record documenting a
	// failed earning gate. Its own type keeps it off the unique key of a
	// real binary record when a resumed close finds the earner eligible.
	CommissionTypeIneligible = "ineligible"
)

// Commission status constants.
const (
	CommissionStatusPending  = "pending"
	CommissionStatusApproved = "approved"
	CommissionStatusPaid     = "paid"
	CommissionStatusVoid     = "void"
)

// Commission ineligibility reason codes. A zero-amount record carries one of
// these so reporting can explain why the period paid nothing.
const (
	CommissionReasonAutoshipInactive = "autoship_inactive"
	CommissionReasonPVNotMet         = "pv_requirement_not_met"
)

// Payout request status constants.
const (
	PayoutStatusPending    = "pending"
	PayoutStatusApproved   = "approved"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
	PayoutStatusCancelled  = "cancelled"
)

// Payout method constants.
const (
	PayoutMethodStripeConnect = "stripe_connect"
	PayoutMethodPaypal        = "paypal"
	PayoutMethodBankTransfer  = "bank_transfer"
	PayoutMethodCheck         = "check"
)

// Reward point enrollment kinds.
const (
	RewardKindCustomer    = "customer"
	RewardKindDistributor = "distributor"
)

// Free reward status constants.
const (
	FreeRewardStatusPending = "pending"
	FreeRewardStatusShipped = "shipped"
)

// Period close run status constants.
const (
	PeriodCloseStatusRunning   = "running"
	PeriodCloseStatusCompleted = "completed"
	PeriodCloseStatusFailed    = "failed"
)

// Rank change reasons.
const (
	RankChangeReasonPromotion   = "promotion"
	RankChangeReasonPeriodClose = "period_close_demotion"
)

// Queue and task name constants.
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskOrderEventApply      = "order_event:apply"
	TaskRankReevaluate       = "rank:reevaluate"
	TaskPeriodClose          = "period:close"
	TaskPayoutDispatch       = "payout:dispatch"
	TaskNotificationDispatch = "notification:dispatch"
)

// Notification kinds dispatched after engine state commits.
const (
	NotificationRankChanged     = "rank_changed"
	NotificationPayoutCompleted = "payout_completed"
	NotificationPayoutFailed    = "payout_failed"
	NotificationFreeReward      = "free_reward_earned"
)

// PeriodKeyLayout is the time layout for commission period keys.
const PeriodKeyLayout = "2006-01"
