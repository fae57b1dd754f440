package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DistributorRepository is the data access interface for the genealogy tree.
type DistributorRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) DistributorRepository

	GetByID(id uint) (*models.Distributor, error)
	GetByIDForUpdate(id uint) (*models.Distributor, error)
	GetByCode(code string) (*models.Distributor, error)
	GetByEmail(email string) (*models.Distributor, error)
	Create(d *models.Distributor) error
	Update(d *models.Distributor) error
	UpdateFields(id uint, fields map[string]interface{}) error
	List(filter DistributorListFilter) ([]models.Distributor, int64, error)

	GetChild(parentID uint, position string) (*models.Distributor, error)
	ListChildren(parentIDs []uint) ([]models.Distributor, error)
	ListBySponsor(sponsorID uint) ([]models.Distributor, error)
	ListAllIDs() ([]uint, error)

	AddVolumes(id uint, personalDelta, teamDelta, lifetimePersonalDelta, lifetimeTeamDelta, salesCountDelta int) error
	ResetPeriodVolumes(id uint, personalVolume, teamVolume, leftCarry, rightCarry int) error
	SetActive(id uint, active bool) error
	UpdateRank(id uint, rank string, achievedAt time.Time) error

	CreateRankChange(change *models.RankChange) error
	ListRankChanges(filter RankChangeListFilter) ([]models.RankChange, int64, error)
}

// GormDistributorRepository is the GORM implementation.
type GormDistributorRepository struct {
	db *gorm.DB
}

// NewDistributorRepository creates the repository.
func NewDistributorRepository(db *gorm.DB) *GormDistributorRepository {
	return &GormDistributorRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormDistributorRepository) WithTx(tx *gorm.DB) DistributorRepository {
	if tx == nil {
		return r
	}
	return &GormDistributorRepository{db: tx}
}

// Transaction runs fn inside a transaction.
func (r *GormDistributorRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID fetches a distributor by id.
func (r *GormDistributorRepository) GetByID(id uint) (*models.Distributor, error) {
	if id == 0 {
		return nil, nil
	}
	var d models.Distributor
	if err := r.db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// GetByIDForUpdate fetches a distributor with a row lock. Serializes
// concurrent volume roll-ups through shared ancestors.
func (r *GormDistributorRepository) GetByIDForUpdate(id uint) (*models.Distributor, error) {
	if id == 0 {
		return nil, nil
	}
	var d models.Distributor
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// GetByCode fetches a distributor by enrollment code.
func (r *GormDistributorRepository) GetByCode(code string) (*models.Distributor, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var d models.Distributor
	if err := r.db.Where("code = ?", normalized).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// GetByEmail fetches a distributor by login email.
func (r *GormDistributorRepository) GetByEmail(email string) (*models.Distributor, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var d models.Distributor
	if err := r.db.Where("email = ?", normalized).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a distributor.
func (r *GormDistributorRepository) Create(d *models.Distributor) error {
	if d == nil {
		return nil
	}
	return r.db.Create(d).Error
}

// Update saves the full record.
func (r *GormDistributorRepository) Update(d *models.Distributor) error {
	if d == nil || d.ID == 0 {
		return nil
	}
	return r.db.Save(d).Error
}

// UpdateFields applies a partial update.
func (r *GormDistributorRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Distributor{}).Where("id = ?", id).Updates(fields).Error
}

// List queries distributors with filtering and pagination.
func (r *GormDistributorRepository) List(filter DistributorListFilter) ([]models.Distributor, int64, error) {
	query := r.db.Model(&models.Distributor{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("code LIKE ? OR email LIKE ? OR username LIKE ?", like, like, like)
	}
	if filter.Rank != "" {
		query = query.Where("rank = ?", filter.Rank)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.SponsorID > 0 {
		query = query.Where("sponsor_id = ?", filter.SponsorID)
	}
	if filter.EnrolledFrom != nil {
		query = query.Where("enrolled_at >= ?", *filter.EnrolledFrom)
	}
	if filter.EnrolledTo != nil {
		query = query.Where("enrolled_at <= ?", *filter.EnrolledTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Distributor
	if err := applyPagination(query.Order("id asc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetChild fetches the node occupying one slot under a parent.
func (r *GormDistributorRepository) GetChild(parentID uint, position string) (*models.Distributor, error) {
	if parentID == 0 {
		return nil, nil
	}
	var d models.Distributor
	err := r.db.Where("parent_id = ? AND position = ?", parentID, position).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// ListChildren fetches all children of the given parents in one query;
// feeds the breadth-first placement and genealogy walks.
func (r *GormDistributorRepository) ListChildren(parentIDs []uint) ([]models.Distributor, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var rows []models.Distributor
	if err := r.db.Where("parent_id IN ?", parentIDs).Order("parent_id asc, position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySponsor fetches all personally sponsored distributors.
func (r *GormDistributorRepository) ListBySponsor(sponsorID uint) ([]models.Distributor, error) {
	if sponsorID == 0 {
		return nil, nil
	}
	var rows []models.Distributor
	if err := r.db.Where("sponsor_id = ?", sponsorID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAllIDs returns every distributor id; used by period close sweeps.
func (r *GormDistributorRepository) ListAllIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Distributor{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AddVolumes atomically increments the period and lifetime aggregates.
func (r *GormDistributorRepository) AddVolumes(id uint, personalDelta, teamDelta, lifetimePersonalDelta, lifetimeTeamDelta, salesCountDelta int) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if personalDelta != 0 {
		updates["personal_volume"] = gorm.Expr("personal_volume + ?", personalDelta)
	}
	if teamDelta != 0 {
		updates["team_volume"] = gorm.Expr("team_volume + ?", teamDelta)
	}
	if lifetimePersonalDelta != 0 {
		updates["lifetime_personal_volume"] = gorm.Expr("lifetime_personal_volume + ?", lifetimePersonalDelta)
	}
	if lifetimeTeamDelta != 0 {
		updates["lifetime_team_volume"] = gorm.Expr("lifetime_team_volume + ?", lifetimeTeamDelta)
	}
	if salesCountDelta != 0 {
		updates["lifetime_sales_count"] = gorm.Expr("lifetime_sales_count + ?", salesCountDelta)
	}
	return r.db.Model(&models.Distributor{}).Where("id = ?", id).Updates(updates).Error
}

// ResetPeriodVolumes installs the next period's starting aggregates and leg
// carries; run for every node at period close. The volumes are what the node
// already accumulated past the closed period's boundary, not necessarily zero.
func (r *GormDistributorRepository) ResetPeriodVolumes(id uint, personalVolume, teamVolume, leftCarry, rightCarry int) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Distributor{}).Where("id = ?", id).Updates(map[string]interface{}{
		"personal_volume":    personalVolume,
		"team_volume":        teamVolume,
		"left_carry_volume":  leftCarry,
		"right_carry_volume": rightCarry,
		"is_active":          false,
		"updated_at":         time.Now(),
	}).Error
}

// SetActive flips the period activity flag.
func (r *GormDistributorRepository) SetActive(id uint, active bool) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Distributor{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}).Error
}

// UpdateRank sets the rank and its achievement time.
func (r *GormDistributorRepository) UpdateRank(id uint, rank string, achievedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Distributor{}).Where("id = ?", id).Updates(map[string]interface{}{
		"rank":             rank,
		"rank_achieved_at": achievedAt,
		"updated_at":       time.Now(),
	}).Error
}

// CreateRankChange appends one rank change audit row.
func (r *GormDistributorRepository) CreateRankChange(change *models.RankChange) error {
	if change == nil {
		return nil
	}
	return r.db.Create(change).Error
}

// ListRankChanges queries the rank change log.
func (r *GormDistributorRepository) ListRankChanges(filter RankChangeListFilter) ([]models.RankChange, int64, error) {
	query := r.db.Model(&models.RankChange{})
	if filter.DistributorID > 0 {
		query = query.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.PeriodKey != "" {
		query = query.Where("period_key = ?", filter.PeriodKey)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.RankChange
	if err := applyPagination(query.Order("id desc"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
