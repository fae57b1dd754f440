package repository

import (
	"errors"

	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayoutRepository is the data access interface for payout requests.
type PayoutRepository interface {
	WithTx(tx *gorm.DB) PayoutRepository

	GetByID(id uint) (*models.PayoutRequest, error)
	GetByIDForUpdate(id uint) (*models.PayoutRequest, error)
	Create(payout *models.PayoutRequest) error
	Update(payout *models.PayoutRequest) error
	List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error)
	ListByStatus(status string, limit int) ([]models.PayoutRequest, error)
}

// GormPayoutRepository is the GORM implementation.
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository creates the repository.
func NewPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPayoutRepository) WithTx(tx *gorm.DB) PayoutRepository {
	if tx == nil {
		return r
	}
	return &GormPayoutRepository{db: tx}
}

// GetByID fetches a payout request by id.
func (r *GormPayoutRepository) GetByID(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.PayoutRequest
	if err := r.db.First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// GetByIDForUpdate fetches a payout request with a row lock so status
// transitions are serialized.
func (r *GormPayoutRepository) GetByIDForUpdate(id uint) (*models.PayoutRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var payout models.PayoutRequest
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payout, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

// Create inserts a payout request.
func (r *GormPayoutRepository) Create(payout *models.PayoutRequest) error {
	if payout == nil {
		return nil
	}
	return r.db.Create(payout).Error
}

// Update saves the full record.
func (r *GormPayoutRepository) Update(payout *models.PayoutRequest) error {
	if payout == nil || payout.ID == 0 {
		return nil
	}
	return r.db.Save(payout).Error
}

// List queries payout requests with filtering and pagination.
func (r *GormPayoutRepository) List(filter PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	query := r.db.Model(&models.PayoutRequest{})
	if filter.DistributorID > 0 {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PayoutRequest
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByStatus fetches payout requests in one status, oldest first.
func (r *GormPayoutRepository) ListByStatus(status string, limit int) ([]models.PayoutRequest, error) {
	if status == "" {
		return nil, nil
	}
	query := r.db.Where("status = ?", status).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.PayoutRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
