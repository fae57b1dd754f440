package provider

import (
	"github.com/neonclub/neon-api/internal/authz"
	"github.com/neonclub/neon-api/internal/cache"
	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"
	"github.com/neonclub/neon-api/internal/service"
)

// Container wires repositories and services together.
type Container struct {
	Config      *config.Config
	Plan        *plan.Plan
	QueueClient *queue.Client

	// Repositories
	AdminRepo       repository.AdminRepository
	DistributorRepo repository.DistributorRepository
	ProductRepo     repository.ProductRepository
	OrderEventRepo  repository.OrderEventRepository
	CommissionRepo  repository.CommissionRepository
	PayoutRepo      repository.PayoutRepository
	RewardRepo      repository.RewardRepository
	PeriodCloseRepo repository.PeriodCloseRepository

	// Services
	AuthzService           *authz.Service
	AuthService            *service.AuthService
	DistributorAuthService *service.DistributorAuthService
	PlacementService       *service.PlacementService
	EnrollmentService      *service.EnrollmentService
	VolumeService          *service.VolumeService
	RankService            *service.RankService
	CommissionService      *service.CommissionService
	PayoutService          *service.PayoutService
	RewardsService         *service.RewardsService
	PeriodCloseService     *service.PeriodCloseService
	GenealogyService       *service.GenealogyService
	NotificationService    *service.NotificationService
	ReportService          *service.ReportService
}

// NewContainer initializes the container. The compensation plan is parsed
// once here; an invalid plan is a fatal misconfiguration.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	compPlan, err := plan.FromConfig(cfg.Plan)
	if err != nil {
		logger.S().Fatalw("provider_invalid_plan", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}
	if queueClient == nil {
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		Plan:        compPlan,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.DistributorRepo = repository.NewDistributorRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderEventRepo = repository.NewOrderEventRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
	c.PeriodCloseRepo = repository.NewPeriodCloseRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
	}
	c.AuthzService = authzService

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.DistributorAuthService = service.NewDistributorAuthService(c.Config, c.DistributorRepo)
	c.PlacementService = service.NewPlacementService(c.DistributorRepo, c.Plan.PlacementSearchMax)
	c.RewardsService = service.NewRewardsService(c.RewardRepo, c.DistributorRepo, c.QueueClient, c.Plan)
	c.VolumeService = service.NewVolumeService(c.DistributorRepo, c.OrderEventRepo, c.ProductRepo, c.RewardsService, c.QueueClient, c.Plan)
	c.EnrollmentService = service.NewEnrollmentService(c.DistributorRepo, c.ProductRepo, c.OrderEventRepo, c.PlacementService, c.RewardsService, c.VolumeService, c.QueueClient)
	c.RankService = service.NewRankService(c.DistributorRepo, c.QueueClient, c.Plan)
	c.CommissionService = service.NewCommissionService(c.DistributorRepo, c.CommissionRepo, c.OrderEventRepo, c.Plan)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.CommissionRepo, c.DistributorRepo, c.QueueClient, c.Plan)
	c.PeriodCloseService = service.NewPeriodCloseService(c.DistributorRepo, c.OrderEventRepo, c.CommissionRepo, c.PeriodCloseRepo, c.VolumeService, c.RankService, c.CommissionService, c.RewardsService, c.Plan)
	c.GenealogyService = service.NewGenealogyService(c.DistributorRepo, c.Plan)
	c.NotificationService = service.NewNotificationService(&c.Config.Email, c.DistributorRepo, c.PayoutRepo)
	c.ReportService = service.NewReportService(c.CommissionRepo, c.DistributorRepo)
}
