package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a sellable SKU with its commissionable point value.
type Product struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	SKU              string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"sku"`
	Name             string         `gorm:"type:varchar(200);not null" json:"name"`
	PriceCents       Cents          `gorm:"not null;default:0" json:"price_cents"`
	PVPerUnit        int            `gorm:"not null;default:0" json:"pv_per_unit"`
	AutoshipEligible bool           `gorm:"not null;default:true" json:"autoship_eligible"`
	IsActive         bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}

// EnrollmentPackage is a signup bundle selected at enrollment.
type EnrollmentPackage struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents Cents          `gorm:"not null;default:0" json:"price_cents"`
	PV         int            `gorm:"not null;default:0" json:"pv"`
	IsActive   bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (EnrollmentPackage) TableName() string {
	return "enrollment_packages"
}
