package repository

import (
	"errors"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository is the data access interface for commission records.
type CommissionRepository interface {
	WithTx(tx *gorm.DB) CommissionRepository

	GetByID(id uint) (*models.CommissionRecord, error)
	Create(record *models.CommissionRecord) error
	CreateIgnoreDuplicate(record *models.CommissionRecord) (bool, error)
	List(filter CommissionListFilter) ([]models.CommissionRecord, int64, error)

	SumByEarnerStatus(earnerID uint, status string) (models.Cents, error)
	ListUnpaidApproved(earnerID uint) ([]models.CommissionRecord, error)
	BindToPayout(commissionIDs []uint, payoutID uint) error
	ReleaseFromPayout(payoutID uint) error
	MarkPaidByPayout(payoutID uint) error
	ApproveByPeriod(periodKey string) (int64, error)
}

// GormCommissionRepository is the GORM implementation.
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates the repository.
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// GetByID fetches a record by id.
func (r *GormCommissionRepository) GetByID(id uint) (*models.CommissionRecord, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.CommissionRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create inserts a commission record.
func (r *GormCommissionRepository) Create(record *models.CommissionRecord) error {
	if record == nil {
		return nil
	}
	return r.db.Create(record).Error
}

// CreateIgnoreDuplicate inserts a record unless the (earner, type, period,
// source) key already exists. Returns whether a row was written, which lets
// rerun counters distinguish fresh work from replays.
func (r *GormCommissionRepository) CreateIgnoreDuplicate(record *models.CommissionRecord) (bool, error) {
	if record == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List queries commission records with filtering and pagination.
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.CommissionRecord, int64, error) {
	query := r.db.Model(&models.CommissionRecord{})
	if filter.EarnerID > 0 {
		query = query.Where("earner_id = ?", filter.EarnerID)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.CommissionRecord
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumByEarnerStatus totals commission cents for one earner in one status.
func (r *GormCommissionRepository) SumByEarnerStatus(earnerID uint, status string) (models.Cents, error) {
	if earnerID == 0 {
		return 0, nil
	}
	var total int64
	err := r.db.Model(&models.CommissionRecord{}).
		Where("earner_id = ? AND status = ?", earnerID, status).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&total).Error
	return models.Cents(total), err
}

// ListUnpaidApproved fetches approved records not yet bound to a payout,
// locked so a concurrent payout request cannot claim the same cents.
func (r *GormCommissionRepository) ListUnpaidApproved(earnerID uint) ([]models.CommissionRecord, error) {
	if earnerID == 0 {
		return nil, nil
	}
	var rows []models.CommissionRecord
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("earner_id = ? AND status = ? AND payout_id IS NULL", earnerID, constants.CommissionStatusApproved).
		Order("id asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BindToPayout attaches the given records to a payout request.
func (r *GormCommissionRepository) BindToPayout(commissionIDs []uint, payoutID uint) error {
	if len(commissionIDs) == 0 || payoutID == 0 {
		return nil
	}
	return r.db.Model(&models.CommissionRecord{}).
		Where("id IN ?", commissionIDs).
		Updates(map[string]interface{}{"payout_id": payoutID, "updated_at": time.Now()}).Error
}

// ReleaseFromPayout detaches records so a cancelled or failed payout returns
// the cents to the available balance.
func (r *GormCommissionRepository) ReleaseFromPayout(payoutID uint) error {
	if payoutID == 0 {
		return nil
	}
	return r.db.Model(&models.CommissionRecord{}).
		Where("payout_id = ?", payoutID).
		Updates(map[string]interface{}{"payout_id": nil, "updated_at": time.Now()}).Error
}

// MarkPaidByPayout marks every record bound to a completed payout paid.
func (r *GormCommissionRepository) MarkPaidByPayout(payoutID uint) error {
	if payoutID == 0 {
		return nil
	}
	return r.db.Model(&models.CommissionRecord{}).
		Where("payout_id = ?", payoutID).
		Updates(map[string]interface{}{"status": constants.CommissionStatusPaid, "updated_at": time.Now()}).Error
}

// ApproveByPeriod promotes all pending records of one period to approved.
func (r *GormCommissionRepository) ApproveByPeriod(periodKey string) (int64, error) {
	if periodKey == "" {
		return 0, nil
	}
	result := r.db.Model(&models.CommissionRecord{}).
		Where("period_key = ? AND status = ?", periodKey, constants.CommissionStatusPending).
		Updates(map[string]interface{}{"status": constants.CommissionStatusApproved, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}
