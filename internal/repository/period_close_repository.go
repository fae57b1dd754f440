package repository

import (
	"errors"

	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PeriodCloseRepository is the data access interface for close runs.
type PeriodCloseRepository interface {
	WithTx(tx *gorm.DB) PeriodCloseRepository

	GetByPeriodKey(periodKey string) (*models.PeriodCloseRun, error)
	CreateIgnoreDuplicate(run *models.PeriodCloseRun) (bool, error)
	Update(run *models.PeriodCloseRun) error
	List(page, pageSize int) ([]models.PeriodCloseRun, int64, error)
}

// GormPeriodCloseRepository is the GORM implementation.
type GormPeriodCloseRepository struct {
	db *gorm.DB
}

// NewPeriodCloseRepository creates the repository.
func NewPeriodCloseRepository(db *gorm.DB) *GormPeriodCloseRepository {
	return &GormPeriodCloseRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPeriodCloseRepository) WithTx(tx *gorm.DB) PeriodCloseRepository {
	if tx == nil {
		return r
	}
	return &GormPeriodCloseRepository{db: tx}
}

// GetByPeriodKey fetches the run for one period.
func (r *GormPeriodCloseRepository) GetByPeriodKey(periodKey string) (*models.PeriodCloseRun, error) {
	if periodKey == "" {
		return nil, nil
	}
	var run models.PeriodCloseRun
	if err := r.db.Where("period_key = ?", periodKey).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// CreateIgnoreDuplicate claims the period. The unique period key makes the
// claim a mutex: only one caller gets RowsAffected > 0.
func (r *GormPeriodCloseRepository) CreateIgnoreDuplicate(run *models.PeriodCloseRun) (bool, error) {
	if run == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(run)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update saves the full record.
func (r *GormPeriodCloseRepository) Update(run *models.PeriodCloseRun) error {
	if run == nil || run.ID == 0 {
		return nil
	}
	return r.db.Save(run).Error
}

// List queries close runs newest first.
func (r *GormPeriodCloseRepository) List(page, pageSize int) ([]models.PeriodCloseRun, int64, error) {
	query := r.db.Model(&models.PeriodCloseRun{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PeriodCloseRun
	if err := applyPagination(query.Order("period_key desc"), page, pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
