package admin

import (
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminListProducts lists the active catalog.
func (h *Handler) AdminListProducts(c *gin.Context) {
	products, err := h.ProductRepo.ListActive()
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	response.Success(c, products)
}

// ProductRequest creates or updates a catalog product.
type ProductRequest struct {
	SKU              string `json:"sku" binding:"required"`
	Name             string `json:"name" binding:"required"`
	PriceCents       int64  `json:"price_cents" binding:"required"`
	PVPerUnit        int    `json:"pv_per_unit" binding:"required"`
	AutoshipEligible *bool  `json:"autoship_eligible"`
	IsActive         *bool  `json:"is_active"`
}

// AdminCreateProduct adds a product to the catalog.
func (h *Handler) AdminCreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if existing, err := h.ProductRepo.GetBySKU(sku); err != nil {
		respondError(c, response.CodeInternal, "product create failed", err)
		return
	} else if existing != nil {
		respondError(c, response.CodeConflict, "sku already exists", nil)
		return
	}

	product := &models.Product{
		SKU:              sku,
		Name:             strings.TrimSpace(req.Name),
		PriceCents:       models.Cents(req.PriceCents),
		PVPerUnit:        req.PVPerUnit,
		AutoshipEligible: true,
		IsActive:         true,
	}
	if req.AutoshipEligible != nil {
		product.AutoshipEligible = *req.AutoshipEligible
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := h.ProductRepo.Create(product); err != nil {
		respondError(c, response.CodeInternal, "product create failed", err)
		return
	}
	response.Success(c, product)
}

// AdminUpdateProduct updates a catalog product. PV and price changes only
// affect events recorded afterwards; existing events keep their snapshots.
func (h *Handler) AdminUpdateProduct(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	product, err := h.ProductRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}

	product.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	product.Name = strings.TrimSpace(req.Name)
	product.PriceCents = models.Cents(req.PriceCents)
	product.PVPerUnit = req.PVPerUnit
	if req.AutoshipEligible != nil {
		product.AutoshipEligible = *req.AutoshipEligible
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := h.ProductRepo.Update(product); err != nil {
		respondError(c, response.CodeInternal, "product update failed", err)
		return
	}
	response.Success(c, product)
}

// PackageRequest creates an enrollment package.
type PackageRequest struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"required"`
	PV         int    `json:"pv" binding:"required"`
	IsActive   *bool  `json:"is_active"`
}

// AdminListPackages lists the active enrollment packages.
func (h *Handler) AdminListPackages(c *gin.Context) {
	packages, err := h.ProductRepo.ListActivePackages()
	if err != nil {
		respondError(c, response.CodeInternal, "package fetch failed", err)
		return
	}
	response.Success(c, packages)
}

// AdminCreatePackage adds an enrollment package.
func (h *Handler) AdminCreatePackage(c *gin.Context) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	pkg := &models.EnrollmentPackage{
		Name:       strings.TrimSpace(req.Name),
		PriceCents: models.Cents(req.PriceCents),
		PV:         req.PV,
		IsActive:   true,
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}
	if err := h.ProductRepo.CreatePackage(pkg); err != nil {
		respondError(c, response.CodeInternal, "package create failed", err)
		return
	}
	response.Success(c, pkg)
}
