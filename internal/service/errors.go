package service

import "errors"

// Sentinel errors shared by the service layer. Handlers map these to
// response codes; anything else surfaces as an internal error.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidSponsor      = errors.New("sponsor not found or not active")
	ErrInvalidPackage      = errors.New("enrollment package not found or inactive")
	ErrInvalidPosition     = errors.New("position must be left or right")
	ErrSlotOccupied        = errors.New("placement slot already occupied")
	ErrTreeFull            = errors.New("no open slot within the placement search limit")
	ErrDuplicateEvent      = errors.New("order event already recorded")
	ErrInvalidEventItem    = errors.New("order event item invalid")
	ErrUnknownProduct      = errors.New("product not found or inactive")
	ErrEventNotFound       = errors.New("order event not found")
	ErrPeriodAlreadyClosed = errors.New("period already closed")
	ErrPeriodCloseRunning  = errors.New("period close already running")
	ErrPeriodNotElapsed    = errors.New("period has not ended yet")
	ErrBelowMinimum        = errors.New("balance below minimum payout")
	ErrInvalidPayoutMethod = errors.New("payout method not supported")
	ErrMissingPayoutDetail = errors.New("payout method details missing")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrPayoutNotFound      = errors.New("payout request not found")
	ErrRewardNotFound      = errors.New("free reward not found")
)
