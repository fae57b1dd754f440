package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderEvent is one qualifying purchase (order or autoship cycle). Events are
// immutable once recorded; EventKey is the idempotency key, and AppliedAt
// marks that the event's volume has been rolled up exactly once.
type OrderEvent struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	EventKey      string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"event_key"`
	DistributorID uint           `gorm:"not null;index" json:"distributor_id"`
	IsAutoship    bool           `gorm:"not null;default:false;index" json:"is_autoship"`
	PeriodKey     string         `gorm:"type:varchar(7);not null;index" json:"period_key"`
	TotalPV       int            `gorm:"not null;default:0" json:"total_pv"`
	TotalCents    Cents          `gorm:"not null;default:0" json:"total_cents"`
	OccurredAt    time.Time      `gorm:"index" json:"occurred_at"`
	AppliedAt     *time.Time     `gorm:"index" json:"applied_at,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items       []OrderEventItem `gorm:"foreignKey:OrderEventID" json:"items,omitempty"`
	Distributor Distributor      `gorm:"foreignKey:DistributorID" json:"distributor,omitempty"`
}

// TableName sets the table name.
func (OrderEvent) TableName() string {
	return "order_events"
}

// OrderEventItem is one line of an order event with unit PV and pricing
// snapshotted at record time.
type OrderEventItem struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	OrderEventID   uint   `gorm:"not null;index" json:"order_event_id"`
	ProductID      uint   `gorm:"not null;index" json:"product_id"`
	SKU            string `gorm:"type:varchar(64);not null" json:"sku"`
	Quantity       int    `gorm:"not null;default:0" json:"quantity"`
	PVPerUnit      int    `gorm:"not null;default:0" json:"pv_per_unit"`
	PricePerUnit   Cents  `gorm:"not null;default:0" json:"price_per_unit"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName sets the table name.
func (OrderEventItem) TableName() string {
	return "order_event_items"
}
