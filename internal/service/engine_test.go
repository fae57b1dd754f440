package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// engineFixture wires the full engine against an in-memory database with the
// queue disabled, so every side effect runs synchronously.
type engineFixture struct {
	db              *gorm.DB
	plan            *plan.Plan
	distributorRepo repository.DistributorRepository
	eventRepo       repository.OrderEventRepository
	productRepo     repository.ProductRepository
	commissionRepo  repository.CommissionRepository
	payoutRepo      repository.PayoutRepository
	rewardRepo      repository.RewardRepository
	closeRepo       repository.PeriodCloseRepository

	placement  *PlacementService
	rewards    *RewardsService
	volume     *VolumeService
	rank       *RankService
	commission *CommissionService
	payout     *PayoutService
	genealogy  *GenealogyService
	close      *PeriodCloseService
	enrollment *EnrollmentService
}

func setupEngineTest(t *testing.T) *engineFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:engine_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Distributor{},
		&models.RankChange{},
		&models.EnrollmentPackage{},
		&models.Product{},
		&models.OrderEvent{},
		&models.OrderEventItem{},
		&models.CommissionRecord{},
		&models.PayoutRequest{},
		&models.RewardPoint{},
		&models.FreeReward{},
		&models.PeriodCloseRun{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client failed: %v", err)
	}
	compPlan := plan.Default()

	f := &engineFixture{
		db:              db,
		plan:            compPlan,
		distributorRepo: repository.NewDistributorRepository(db),
		eventRepo:       repository.NewOrderEventRepository(db),
		productRepo:     repository.NewProductRepository(db),
		commissionRepo:  repository.NewCommissionRepository(db),
		payoutRepo:      repository.NewPayoutRepository(db),
		rewardRepo:      repository.NewRewardRepository(db),
		closeRepo:       repository.NewPeriodCloseRepository(db),
	}
	f.placement = NewPlacementService(f.distributorRepo, compPlan.PlacementSearchMax)
	f.rewards = NewRewardsService(f.rewardRepo, f.distributorRepo, queueClient, compPlan)
	f.volume = NewVolumeService(f.distributorRepo, f.eventRepo, f.productRepo, f.rewards, queueClient, compPlan)
	f.rank = NewRankService(f.distributorRepo, queueClient, compPlan)
	f.commission = NewCommissionService(f.distributorRepo, f.commissionRepo, f.eventRepo, compPlan)
	f.payout = NewPayoutService(f.payoutRepo, f.commissionRepo, f.distributorRepo, queueClient, compPlan)
	f.genealogy = NewGenealogyService(f.distributorRepo, compPlan)
	f.close = NewPeriodCloseService(f.distributorRepo, f.eventRepo, f.commissionRepo, f.closeRepo, f.volume, f.rank, f.commission, f.rewards, compPlan)
	f.enrollment = NewEnrollmentService(f.distributorRepo, f.productRepo, f.eventRepo, f.placement, f.rewards, f.volume, queueClient)
	return f
}

// createTestDistributor inserts an active autoship-enabled node. Pass a nil
// parent for the tree root.
func createTestDistributor(t *testing.T, db *gorm.DB, code string, parentID *uint, position string) *models.Distributor {
	t.Helper()
	d := &models.Distributor{
		Code:            code,
		Email:           strings.ToLower(code) + "@example.com",
		PasswordHash:    "hash",
		Status:          constants.DistributorStatusActive,
		ParentID:        parentID,
		Position:        position,
		Rank:            constants.RankStarter,
		AutoshipEnabled: true,
		EnrolledAt:      time.Now(),
	}
	if parentID != nil {
		sponsorID := *parentID
		d.SponsorID = &sponsorID
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("create distributor %s failed: %v", code, err)
	}
	return d
}

func createTestProduct(t *testing.T, db *gorm.DB, sku string, pv int, priceCents models.Cents) *models.Product {
	t.Helper()
	p := &models.Product{
		SKU:              sku,
		Name:             sku,
		PriceCents:       priceCents,
		PVPerUnit:        pv,
		AutoshipEligible: true,
		IsActive:         true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create product %s failed: %v", sku, err)
	}
	return p
}

// createAppliedEvent inserts an order event that has already been rolled up,
// for commission tests that set distributor volumes directly.
func createAppliedEvent(t *testing.T, db *gorm.DB, distributorID uint, periodKey string, totalPV int, totalCents models.Cents, autoship bool) *models.OrderEvent {
	t.Helper()
	now := time.Now()
	event := &models.OrderEvent{
		EventKey:      fmt.Sprintf("evt-%d-%d", distributorID, time.Now().UnixNano()),
		DistributorID: distributorID,
		IsAutoship:    autoship,
		PeriodKey:     periodKey,
		TotalPV:       totalPV,
		TotalCents:    totalCents,
		OccurredAt:    now,
		AppliedAt:     &now,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("create order event failed: %v", err)
	}
	return event
}

func updateDistributor(t *testing.T, db *gorm.DB, id uint, fields map[string]interface{}) {
	t.Helper()
	if err := db.Model(&models.Distributor{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		t.Fatalf("update distributor %d failed: %v", id, err)
	}
}

func reloadDistributor(t *testing.T, db *gorm.DB, id uint) *models.Distributor {
	t.Helper()
	var d models.Distributor
	if err := db.First(&d, id).Error; err != nil {
		t.Fatalf("reload distributor %d failed: %v", id, err)
	}
	return &d
}
