package repository

import (
	"errors"
	"time"

	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
)

// OrderEventRepository is the data access interface for order events.
type OrderEventRepository interface {
	WithTx(tx *gorm.DB) OrderEventRepository

	GetByID(id uint) (*models.OrderEvent, error)
	GetByEventKey(eventKey string) (*models.OrderEvent, error)
	Create(event *models.OrderEvent) error
	MarkApplied(id uint, appliedAt time.Time) error
	List(filter OrderEventListFilter) ([]models.OrderEvent, int64, error)

	CountAutoshipInPeriod(distributorID uint, periodKey string) (int64, error)
	FirstByDistributor(distributorID uint) (*models.OrderEvent, error)
	SumPVInPeriod(distributorID uint, periodKey string) (int, error)
	AppliedPVAfterPeriod(periodKey string) (map[uint]int, error)
}

// GormOrderEventRepository is the GORM implementation.
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewOrderEventRepository creates the repository.
func NewOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderEventRepository) WithTx(tx *gorm.DB) OrderEventRepository {
	if tx == nil {
		return r
	}
	return &GormOrderEventRepository{db: tx}
}

// GetByID fetches an event with its items.
func (r *GormOrderEventRepository) GetByID(id uint) (*models.OrderEvent, error) {
	if id == 0 {
		return nil, nil
	}
	var event models.OrderEvent
	if err := r.db.Preload("Items").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// GetByEventKey fetches an event by its idempotency key.
func (r *GormOrderEventRepository) GetByEventKey(eventKey string) (*models.OrderEvent, error) {
	if eventKey == "" {
		return nil, nil
	}
	var event models.OrderEvent
	if err := r.db.Preload("Items").Where("event_key = ?", eventKey).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Create inserts an event with its items.
func (r *GormOrderEventRepository) Create(event *models.OrderEvent) error {
	if event == nil {
		return nil
	}
	return r.db.Create(event).Error
}

// MarkApplied stamps an event as rolled up.
func (r *GormOrderEventRepository) MarkApplied(id uint, appliedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.OrderEvent{}).Where("id = ?", id).Updates(map[string]interface{}{
		"applied_at": appliedAt,
		"updated_at": time.Now(),
	}).Error
}

// List queries events with filtering and pagination.
func (r *GormOrderEventRepository) List(filter OrderEventListFilter) ([]models.OrderEvent, int64, error) {
	query := r.db.Model(&models.OrderEvent{})
	if filter.DistributorID > 0 {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	if filter.IsAutoship != nil {
		query = query.Where("is_autoship = ?", *filter.IsAutoship)
	}
	if filter.UnappliedOnly {
		query = query.Where("applied_at IS NULL")
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderEvent
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountAutoshipInPeriod counts applied autoship events inside one period.
func (r *GormOrderEventRepository) CountAutoshipInPeriod(distributorID uint, periodKey string) (int64, error) {
	if distributorID == 0 || periodKey == "" {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.OrderEvent{}).
		Where("distributor_id = ? AND period_key = ? AND is_autoship = ? AND applied_at IS NOT NULL", distributorID, periodKey, true).
		Count(&count).Error
	return count, err
}

// FirstByDistributor fetches the earliest event for a distributor; used for
// the fast start window check.
func (r *GormOrderEventRepository) FirstByDistributor(distributorID uint) (*models.OrderEvent, error) {
	if distributorID == 0 {
		return nil, nil
	}
	var event models.OrderEvent
	err := r.db.Where("distributor_id = ?", distributorID).Order("occurred_at asc, id asc").First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// AppliedPVAfterPeriod totals applied personal volume belonging to periods
// after the given key, grouped by originator. Period keys order
// lexicographically, so a plain comparison walks the calendar.
func (r *GormOrderEventRepository) AppliedPVAfterPeriod(periodKey string) (map[uint]int, error) {
	totals := map[uint]int{}
	if periodKey == "" {
		return totals, nil
	}
	var rows []struct {
		DistributorID uint
		TotalPV       int64
	}
	err := r.db.Model(&models.OrderEvent{}).
		Where("period_key > ? AND applied_at IS NOT NULL", periodKey).
		Select("distributor_id, COALESCE(SUM(total_pv), 0) AS total_pv").
		Group("distributor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.DistributorID] = int(row.TotalPV)
	}
	return totals, nil
}

// SumPVInPeriod totals applied personal volume inside one period.
func (r *GormOrderEventRepository) SumPVInPeriod(distributorID uint, periodKey string) (int, error) {
	if distributorID == 0 || periodKey == "" {
		return 0, nil
	}
	var total int64
	err := r.db.Model(&models.OrderEvent{}).
		Where("distributor_id = ? AND period_key = ? AND applied_at IS NOT NULL", distributorID, periodKey).
		Select("COALESCE(SUM(total_pv), 0)").Scan(&total).Error
	return int(total), err
}
