package main

import (
	"fmt"
	"time"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/provider"
	"github.com/neonclub/neon-api/internal/service"

	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "neon-demo-pass1"

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	products := []models.Product{
		{SKU: "NRG-SHOT-12", Name: "Neon Energy Shot 12-Pack", PriceCents: 3600, PVPerUnit: 30},
		{SKU: "NRG-SHOT-24", Name: "Neon Energy Shot 24-Pack", PriceCents: 6600, PVPerUnit: 60},
		{SKU: "NRG-HYDRATE", Name: "Neon Hydrate Sticks", PriceCents: 2900, PVPerUnit: 25},
		{SKU: "NRG-FOCUS", Name: "Neon Focus Capsules", PriceCents: 4400, PVPerUnit: 40},
		{SKU: "NRG-MERCH-TEE", Name: "Neon Club Tee", PriceCents: 2200, PVPerUnit: 0, AutoshipEligible: false},
	}
	for i := range products {
		p := &products[i]
		p.IsActive = true
		var existing models.Product
		if err := models.DB.Where("sku = ?", p.SKU).First(&existing).Error; err == nil {
			stdLog.Printf("product already exists: %s", p.SKU)
			continue
		}
		if err := models.DB.Create(p).Error; err != nil {
			stdLog.Printf("failed to create product %s: %v", p.SKU, err)
		} else {
			stdLog.Printf("created product: %s", p.SKU)
		}
	}

	packages := []models.EnrollmentPackage{
		{Name: "Starter Pack", PriceCents: 9900, PV: 75},
		{Name: "Builder Pack", PriceCents: 29900, PV: 250},
		{Name: "Pro Pack", PriceCents: 59900, PV: 500},
	}
	for i := range packages {
		pkg := &packages[i]
		pkg.IsActive = true
		var existing models.EnrollmentPackage
		if err := models.DB.Where("name = ?", pkg.Name).First(&existing).Error; err == nil {
			*pkg = existing
			stdLog.Printf("package already exists: %s", pkg.Name)
			continue
		}
		if err := models.DB.Create(pkg).Error; err != nil {
			stdLog.Fatalf("failed to create package %s: %v", pkg.Name, err)
		}
		stdLog.Printf("created package: %s", pkg.Name)
	}

	c := provider.NewContainer(cfg)

	root, err := c.DistributorRepo.GetByCode("NCROOT")
	if err != nil {
		stdLog.Fatalf("failed to look up root distributor: %v", err)
	}
	if root == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Fatalf("failed to hash demo password: %v", err)
		}
		root = &models.Distributor{
			Code:            "NCROOT",
			Username:        "house",
			Email:           "root@neonclub.test",
			PasswordHash:    string(hash),
			Status:          constants.DistributorStatusActive,
			Rank:            constants.RankStarter,
			AutoshipEnabled: true,
			EnrolledAt:      time.Now(),
		}
		if err := c.DistributorRepo.Create(root); err != nil {
			stdLog.Fatalf("failed to create root distributor: %v", err)
		}
		stdLog.Printf("created root distributor: %s", root.Code)
	} else {
		stdLog.Printf("root distributor already exists: %s", root.Code)
	}

	builderPack := packages[1]

	recruits := []struct {
		email    string
		username string
		position string
		autoship bool
	}{
		{"ada@neonclub.test", "ada", constants.PositionLeft, true},
		{"ben@neonclub.test", "ben", constants.PositionRight, true},
		{"cho@neonclub.test", "cho", constants.PositionLeft, true},
		{"dev@neonclub.test", "dev", constants.PositionRight, false},
		{"eva@neonclub.test", "eva", "", true},
		{"fox@neonclub.test", "fox", "", false},
	}
	var enrolled []*models.Distributor
	for _, r := range recruits {
		existing, err := c.DistributorRepo.GetByEmail(r.email)
		if err != nil {
			stdLog.Fatalf("failed to look up %s: %v", r.email, err)
		}
		if existing != nil {
			stdLog.Printf("distributor already exists: %s", r.email)
			enrolled = append(enrolled, existing)
			continue
		}
		d, err := c.EnrollmentService.Enroll(service.EnrollInput{
			SponsorCode:       root.Code,
			Email:             r.email,
			Password:          demoPassword,
			Username:          r.username,
			PackageID:         builderPack.ID,
			PreferredPosition: r.position,
			AutoshipEnabled:   r.autoship,
		})
		if err != nil {
			stdLog.Fatalf("failed to enroll %s: %v", r.email, err)
		}
		stdLog.Printf("enrolled %s as %s under parent %d (%s)", r.email, d.Code, derefUint(d.ParentID), d.Position)
		enrolled = append(enrolled, d)
	}

	// Demo orders so the portal dashboard and commission preview have data.
	for i, d := range enrolled {
		if !d.AutoshipEnabled {
			continue
		}
		_, err := c.VolumeService.RecordOrder(service.RecordOrderInput{
			EventKey:      fmt.Sprintf("seed-autoship-%s", d.Code),
			DistributorID: d.ID,
			IsAutoship:    true,
			Items: []service.RecordOrderItem{
				{SKU: "NRG-SHOT-24", Quantity: 1},
				{SKU: "NRG-HYDRATE", Quantity: 1 + i%2},
			},
			OccurredAt: time.Now(),
		})
		if err != nil {
			stdLog.Printf("failed to record autoship order for %s: %v", d.Code, err)
		} else {
			stdLog.Printf("recorded autoship order for %s", d.Code)
		}
	}

	stdLog.Printf("seed complete")
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
