package service

import (
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"

	"gorm.io/gorm"
)

// RewardsService keeps the "3-for-Free" ledger: one point per qualifying
// autoship enrollment, a free case at the configured point count, counters
// scoped to the calendar month.
type RewardsService struct {
	rewardRepo      repository.RewardRepository
	distributorRepo repository.DistributorRepository
	queueClient     *queue.Client
	compPlan        *plan.Plan
}

// NewRewardsService creates the rewards service.
func NewRewardsService(rewardRepo repository.RewardRepository, distributorRepo repository.DistributorRepository, queueClient *queue.Client, compPlan *plan.Plan) *RewardsService {
	return &RewardsService{
		rewardRepo:      rewardRepo,
		distributorRepo: distributorRepo,
		queueClient:     queueClient,
		compPlan:        compPlan,
	}
}

// RecordQualifyingEnrollment credits one point for an autoship enrollment
// and issues the free reward when the month's point count reaches the plan
// threshold. Replays of the same source are no-ops.
func (s *RewardsService) RecordQualifyingEnrollment(distributorID uint, kind string, sourceRefID uint, periodKey string) error {
	if kind != constants.RewardKindCustomer && kind != constants.RewardKindDistributor {
		return ErrInvalidEventItem
	}
	distributor, err := s.distributorRepo.GetByID(distributorID)
	if err != nil {
		return err
	}
	if distributor == nil {
		return ErrNotFound
	}
	return s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		return s.recordEnrollmentPoint(tx, distributorID, kind, sourceRefID, periodKey)
	})
}

// recordEnrollmentPoint is the transactional body shared with enrollment and
// volume roll-up.
func (s *RewardsService) recordEnrollmentPoint(tx *gorm.DB, distributorID uint, kind string, sourceRefID uint, periodKey string) error {
	repo := s.rewardRepo.WithTx(tx)
	created, err := repo.CreatePointIgnoreDuplicate(&models.RewardPoint{
		DistributorID: distributorID,
		PeriodKey:     periodKey,
		Kind:          kind,
		SourceRefID:   sourceRefID,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Debugw("reward_point_duplicate",
			"distributor_id", distributorID,
			"period_key", periodKey,
			"source_ref_id", sourceRefID,
		)
		return nil
	}
	logger.Infow("reward_point_recorded",
		"distributor_id", distributorID,
		"period_key", periodKey,
		"kind", kind,
	)
	return s.issueIfEarned(tx, distributorID, periodKey)
}

// issueIfEarned creates the period's free reward once the point count
// reaches the threshold. The unique (distributor, period) index keeps the
// reward single even across replays.
func (s *RewardsService) issueIfEarned(tx *gorm.DB, distributorID uint, periodKey string) error {
	repo := s.rewardRepo.WithTx(tx)
	count, err := repo.CountPoints(distributorID, periodKey)
	if err != nil {
		return err
	}
	if count < int64(s.compPlan.RewardPointsForFree) {
		return nil
	}
	created, err := repo.CreateFreeRewardIgnoreDuplicate(&models.FreeReward{
		DistributorID: distributorID,
		PeriodKey:     periodKey,
		Status:        constants.FreeRewardStatusPending,
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	logger.Infow("free_reward_issued",
		"distributor_id", distributorID,
		"period_key", periodKey,
		"points", count,
	)
	if err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Kind:          constants.NotificationFreeReward,
		DistributorID: distributorID,
		PeriodKey:     periodKey,
	}); err != nil {
		logger.Warnw("free_reward_enqueue_notification_failed", "distributor_id", distributorID, "error", err)
	}
	return nil
}

// IssueMissedRewards re-checks every distributor that holds enough points in
// the period but no free reward yet. Returns the number issued; run as part
// of period close.
func (s *RewardsService) IssueMissedRewards(periodKey string) (int, error) {
	ids, err := s.distributorRepo.ListAllIDs()
	if err != nil {
		return 0, err
	}
	issued := 0
	for _, id := range ids {
		count, err := s.rewardRepo.CountPoints(id, periodKey)
		if err != nil {
			return issued, err
		}
		if count < int64(s.compPlan.RewardPointsForFree) {
			continue
		}
		created, err := s.rewardRepo.CreateFreeRewardIgnoreDuplicate(&models.FreeReward{
			DistributorID: id,
			PeriodKey:     periodKey,
			Status:        constants.FreeRewardStatusPending,
		})
		if err != nil {
			return issued, err
		}
		if created {
			issued++
			logger.Infow("free_reward_issued_at_close", "distributor_id", id, "period_key", periodKey)
		}
	}
	return issued, nil
}

// ListPoints lists reward points.
func (s *RewardsService) ListPoints(filter repository.RewardListFilter) ([]models.RewardPoint, int64, error) {
	return s.rewardRepo.ListPoints(filter)
}

// ListFreeRewards lists free rewards.
func (s *RewardsService) ListFreeRewards(filter repository.RewardListFilter) ([]models.FreeReward, int64, error) {
	return s.rewardRepo.ListFreeRewards(filter)
}

// MarkShipped marks a pending free reward shipped.
func (s *RewardsService) MarkShipped(rewardID uint) error {
	reward, err := s.rewardRepo.GetFreeRewardByID(rewardID)
	if err != nil {
		return err
	}
	if reward == nil {
		return ErrRewardNotFound
	}
	if reward.Status != constants.FreeRewardStatusPending {
		return ErrInvalidTransition
	}
	return s.rewardRepo.MarkFreeRewardShipped(rewardID, time.Now())
}
