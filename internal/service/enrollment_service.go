package service

import (
	"net/mail"
	"strings"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnrollmentService signs up new distributors and places them in the tree.
type EnrollmentService struct {
	distributorRepo repository.DistributorRepository
	productRepo     repository.ProductRepository
	eventRepo       repository.OrderEventRepository
	placement       *PlacementService
	rewards         *RewardsService
	volume          *VolumeService
	queueClient     *queue.Client
}

// NewEnrollmentService creates the enrollment service.
func NewEnrollmentService(distributorRepo repository.DistributorRepository, productRepo repository.ProductRepository, eventRepo repository.OrderEventRepository, placement *PlacementService, rewards *RewardsService, volume *VolumeService, queueClient *queue.Client) *EnrollmentService {
	return &EnrollmentService{
		distributorRepo: distributorRepo,
		productRepo:     productRepo,
		eventRepo:       eventRepo,
		placement:       placement,
		rewards:         rewards,
		volume:          volume,
		queueClient:     queueClient,
	}
}

// EnrollInput is the signup request.
type EnrollInput struct {
	SponsorCode       string
	Email             string
	Password          string
	Username          string
	PackageID         uint
	PreferredPosition string
	AutoshipEnabled   bool
}

// Enroll creates the distributor, places the node, and records the package
// purchase as the first order event. The sponsor earns a reward point when
// the recruit enrolls on autoship.
func (s *EnrollmentService) Enroll(input EnrollInput) (*models.Distributor, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidCredentials
	}
	if len(input.Password) < 8 {
		return nil, ErrInvalidCredentials
	}
	existing, err := s.distributorRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	sponsor, err := s.distributorRepo.GetByCode(input.SponsorCode)
	if err != nil {
		return nil, err
	}
	if sponsor == nil || sponsor.Status != constants.DistributorStatusActive {
		return nil, ErrInvalidSponsor
	}

	pkg, err := s.productRepo.GetPackage(input.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.IsActive {
		return nil, ErrInvalidPackage
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	recruit := &models.Distributor{
		Code:            generateDistributorCode(),
		Username:        strings.TrimSpace(input.Username),
		Email:           email,
		PasswordHash:    string(hash),
		Status:          constants.DistributorStatusActive,
		SponsorID:       &sponsor.ID,
		PackageID:       &pkg.ID,
		Rank:            constants.RankStarter,
		AutoshipEnabled: input.AutoshipEnabled,
		EnrolledAt:      now,
	}
	event := &models.OrderEvent{
		EventKey:   uuid.NewString(),
		IsAutoship: false,
		PeriodKey:  PeriodKeyFor(now),
		TotalPV:    pkg.PV,
		TotalCents: pkg.PriceCents,
		OccurredAt: now,
	}

	err = s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		slot, err := s.placement.FindOpenSlot(tx, sponsor.ID, input.PreferredPosition)
		if err != nil {
			return err
		}
		recruit.ParentID = &slot.ParentID
		recruit.Position = slot.Position
		if err := s.distributorRepo.WithTx(tx).Create(recruit); err != nil {
			return err
		}
		event.DistributorID = recruit.ID
		if err := s.eventRepo.WithTx(tx).Create(event); err != nil {
			return err
		}
		if input.AutoshipEnabled {
			if err := s.rewards.recordEnrollmentPoint(tx, sponsor.ID, constants.RewardKindDistributor, recruit.ID, event.PeriodKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("distributor_enrolled",
		"distributor_id", recruit.ID,
		"code", recruit.Code,
		"sponsor_id", sponsor.ID,
		"parent_id", derefUint(recruit.ParentID),
		"position", recruit.Position,
		"package_id", pkg.ID,
	)

	// The new node is visible in every ancestor's cached tree fragment.
	if ancestors, err := s.placement.AncestorChain(nil, recruit); err != nil {
		logger.Warnw("enroll_ancestor_chain_failed", "distributor_id", recruit.ID, "error", err)
	} else {
		ids := make([]uint, 0, len(ancestors))
		for _, ancestor := range ancestors {
			ids = append(ids, ancestor.ID)
		}
		s.volume.invalidateGenealogy(ids)
	}

	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderEventApply(queue.OrderEventApplyPayload{EventKey: event.EventKey}); err != nil {
			logger.Warnw("enroll_enqueue_event_apply_failed", "event_key", event.EventKey, "error", err)
		}
	} else if err := s.volume.ApplyEventByKey(event.EventKey); err != nil {
		return nil, err
	}
	return recruit, nil
}

// generateDistributorCode derives a short unique code from a uuid.
func generateDistributorCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "NC" + strings.ToUpper(raw[:10])
}

func derefUint(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}
