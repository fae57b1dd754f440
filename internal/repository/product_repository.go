package repository

import (
	"errors"

	"github.com/neonclub/neon-api/internal/models"

	"gorm.io/gorm"
)

// ProductRepository is the data access interface for the catalog.
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySKU(sku string) (*models.Product, error)
	ListBySKUs(skus []string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	ListActive() ([]models.Product, error)

	GetPackage(id uint) (*models.EnrollmentPackage, error)
	ListActivePackages() ([]models.EnrollmentPackage, error)
	CreatePackage(pkg *models.EnrollmentPackage) error
}

// GormProductRepository is the GORM implementation.
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates the repository.
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetByID fetches a product by id.
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySKU fetches a product by SKU.
func (r *GormProductRepository) GetBySKU(sku string) (*models.Product, error) {
	if sku == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Where("sku = ?", sku).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListBySKUs fetches products by SKU in one query.
func (r *GormProductRepository) ListBySKUs(skus []string) ([]models.Product, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := r.db.Where("sku IN ?", skus).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a product.
func (r *GormProductRepository) Create(product *models.Product) error {
	if product == nil {
		return nil
	}
	return r.db.Create(product).Error
}

// Update saves the full record.
func (r *GormProductRepository) Update(product *models.Product) error {
	if product == nil || product.ID == 0 {
		return nil
	}
	return r.db.Save(product).Error
}

// ListActive fetches all active products.
func (r *GormProductRepository) ListActive() ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetPackage fetches an enrollment package by id.
func (r *GormProductRepository) GetPackage(id uint) (*models.EnrollmentPackage, error) {
	if id == 0 {
		return nil, nil
	}
	var pkg models.EnrollmentPackage
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// ListActivePackages fetches all active enrollment packages.
func (r *GormProductRepository) ListActivePackages() ([]models.EnrollmentPackage, error) {
	var rows []models.EnrollmentPackage
	if err := r.db.Where("is_active = ?", true).Order("price_cents asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreatePackage inserts an enrollment package.
func (r *GormProductRepository) CreatePackage(pkg *models.EnrollmentPackage) error {
	if pkg == nil {
		return nil
	}
	return r.db.Create(pkg).Error
}
