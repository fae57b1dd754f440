package models

import (
	"time"

	"gorm.io/gorm"
)

// PayoutRequest batches approved commission cents into one transfer request.
// FeeCents/NetCents are filled when processing completes; until then the
// gross amount is the authoritative figure.
type PayoutRequest struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	DistributorID uint           `gorm:"not null;index" json:"distributor_id"`
	AmountCents   Cents          `gorm:"not null;default:0" json:"amount_cents"`
	FeeCents      Cents          `gorm:"not null;default:0" json:"fee_cents"`
	NetCents      Cents          `gorm:"not null;default:0" json:"net_cents"`
	Method        string         `gorm:"type:varchar(20);not null" json:"method"`
	PaypalEmail   string         `gorm:"type:varchar(200);not null;default:''" json:"paypal_email,omitempty"`
	MailingAddr   string         `gorm:"type:varchar(500);not null;default:''" json:"mailing_address,omitempty"`
	Status        string         `gorm:"type:varchar(20);not null;index" json:"status"`
	FailReason    string         `gorm:"type:varchar(255);not null;default:''" json:"fail_reason,omitempty"`
	RequestedAt   time.Time      `gorm:"index" json:"requested_at"`
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Distributor Distributor `gorm:"foreignKey:DistributorID" json:"distributor,omitempty"`
}

// TableName sets the table name.
func (PayoutRequest) TableName() string {
	return "payout_requests"
}
