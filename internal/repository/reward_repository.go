package repository

import (
	"errors"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RewardRepository is the data access interface for the rewards ledger.
type RewardRepository interface {
	WithTx(tx *gorm.DB) RewardRepository

	CreatePointIgnoreDuplicate(point *models.RewardPoint) (bool, error)
	CountPoints(distributorID uint, periodKey string) (int64, error)
	ListPoints(filter RewardListFilter) ([]models.RewardPoint, int64, error)

	CreateFreeRewardIgnoreDuplicate(reward *models.FreeReward) (bool, error)
	GetFreeRewardByID(id uint) (*models.FreeReward, error)
	GetFreeReward(distributorID uint, periodKey string) (*models.FreeReward, error)
	MarkFreeRewardShipped(id uint, shippedAt time.Time) error
	ListFreeRewards(filter RewardListFilter) ([]models.FreeReward, int64, error)
}

// GormRewardRepository is the GORM implementation.
type GormRewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository creates the repository.
func NewRewardRepository(db *gorm.DB) *GormRewardRepository {
	return &GormRewardRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRewardRepository) WithTx(tx *gorm.DB) RewardRepository {
	if tx == nil {
		return r
	}
	return &GormRewardRepository{db: tx}
}

// CreatePointIgnoreDuplicate inserts a point unless the same source already
// produced one in the period. Returns whether a row was written.
func (r *GormRewardRepository) CreatePointIgnoreDuplicate(point *models.RewardPoint) (bool, error) {
	if point == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(point)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountPoints counts reward points earned in one period.
func (r *GormRewardRepository) CountPoints(distributorID uint, periodKey string) (int64, error) {
	if distributorID == 0 || periodKey == "" {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.RewardPoint{}).
		Where("distributor_id = ? AND period_key = ?", distributorID, periodKey).
		Count(&count).Error
	return count, err
}

// ListPoints queries reward points with filtering and pagination.
func (r *GormRewardRepository) ListPoints(filter RewardListFilter) ([]models.RewardPoint, int64, error) {
	query := r.db.Model(&models.RewardPoint{})
	if filter.DistributorID > 0 {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.RewardPoint
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CreateFreeRewardIgnoreDuplicate inserts the period's free reward unless one
// already exists. Returns whether a row was written.
func (r *GormRewardRepository) CreateFreeRewardIgnoreDuplicate(reward *models.FreeReward) (bool, error) {
	if reward == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(reward)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetFreeRewardByID fetches a free reward by id.
func (r *GormRewardRepository) GetFreeRewardByID(id uint) (*models.FreeReward, error) {
	if id == 0 {
		return nil, nil
	}
	var reward models.FreeReward
	if err := r.db.First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// GetFreeReward fetches the free reward for one distributor and period.
func (r *GormRewardRepository) GetFreeReward(distributorID uint, periodKey string) (*models.FreeReward, error) {
	if distributorID == 0 || periodKey == "" {
		return nil, nil
	}
	var reward models.FreeReward
	err := r.db.Where("distributor_id = ? AND period_key = ?", distributorID, periodKey).First(&reward).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reward, nil
}

// MarkFreeRewardShipped stamps a free reward as shipped.
func (r *GormRewardRepository) MarkFreeRewardShipped(id uint, shippedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.FreeReward{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     constants.FreeRewardStatusShipped,
		"shipped_at": shippedAt,
		"updated_at": time.Now(),
	}).Error
}

// ListFreeRewards queries free rewards with filtering and pagination.
func (r *GormRewardRepository) ListFreeRewards(filter RewardListFilter) ([]models.FreeReward, int64, error) {
	query := r.db.Model(&models.FreeReward{})
	if filter.DistributorID > 0 {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.FreeReward
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
