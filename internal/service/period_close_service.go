package service

import (
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/repository"

	"gorm.io/gorm"
)

// PeriodCloseService orchestrates the month-end close: apply stragglers,
// compute commissions, move ranks, issue missed rewards, reset period state.
// The unique run row per period makes the whole sequence idempotent.
type PeriodCloseService struct {
	distributorRepo repository.DistributorRepository
	eventRepo       repository.OrderEventRepository
	commissionRepo  repository.CommissionRepository
	closeRepo       repository.PeriodCloseRepository
	volume          *VolumeService
	rank            *RankService
	commission      *CommissionService
	rewards         *RewardsService
	compPlan        *plan.Plan
}

// NewPeriodCloseService creates the period close service.
func NewPeriodCloseService(distributorRepo repository.DistributorRepository, eventRepo repository.OrderEventRepository, commissionRepo repository.CommissionRepository, closeRepo repository.PeriodCloseRepository, volume *VolumeService, rank *RankService, commission *CommissionService, rewards *RewardsService, compPlan *plan.Plan) *PeriodCloseService {
	return &PeriodCloseService{
		distributorRepo: distributorRepo,
		eventRepo:       eventRepo,
		commissionRepo:  commissionRepo,
		closeRepo:       closeRepo,
		volume:          volume,
		rank:            rank,
		commission:      commission,
		rewards:         rewards,
		compPlan:        compPlan,
	}
}

// RunPeriodClose closes one period. A completed period returns its stored
// summary; a period still running returns ErrPeriodCloseRunning; a failed
// run is resumed from the top, which is safe because every step is keyed.
func (s *PeriodCloseService) RunPeriodClose(periodKey string) (*models.PeriodCloseRun, error) {
	if _, err := ParsePeriodKey(periodKey); err != nil {
		return nil, ErrNotFound
	}
	if !PeriodElapsed(periodKey, time.Now()) {
		return nil, ErrPeriodNotElapsed
	}

	run, err := s.claimRun(periodKey)
	if err != nil {
		return nil, err
	}
	if run.Status == constants.PeriodCloseStatusCompleted {
		logger.Infow("period_close_replay", "period_key", periodKey, "run_id", run.ID)
		return run, nil
	}

	logger.Infow("period_close_started", "period_key", periodKey, "run_id", run.ID, "plan_version", run.PlanVersion)
	if err := s.execute(run, periodKey); err != nil {
		run.Status = constants.PeriodCloseStatusFailed
		if saveErr := s.closeRepo.Update(run); saveErr != nil {
			logger.Errorw("period_close_mark_failed_error", "period_key", periodKey, "error", saveErr)
		}
		logger.Errorw("period_close_failed", "period_key", periodKey, "error", err)
		return nil, err
	}

	now := time.Now()
	run.Status = constants.PeriodCloseStatusCompleted
	run.FinishedAt = &now
	if err := s.closeRepo.Update(run); err != nil {
		return nil, err
	}
	logger.Infow("period_close_completed",
		"period_key", periodKey,
		"commissions_created", run.CommissionsCreated,
		"ranks_changed", run.RanksChanged,
		"rewards_issued", run.RewardsIssued,
		"events_skipped", run.EventsSkipped,
	)
	return run, nil
}

// claimRun creates or resumes the run row for the period.
func (s *PeriodCloseService) claimRun(periodKey string) (*models.PeriodCloseRun, error) {
	candidate := &models.PeriodCloseRun{
		PeriodKey:   periodKey,
		PlanVersion: s.compPlan.Version,
		Status:      constants.PeriodCloseStatusRunning,
		StartedAt:   time.Now(),
	}
	created, err := s.closeRepo.CreateIgnoreDuplicate(candidate)
	if err != nil {
		return nil, err
	}
	if created {
		return candidate, nil
	}
	existing, err := s.closeRepo.GetByPeriodKey(periodKey)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	switch existing.Status {
	case constants.PeriodCloseStatusCompleted:
		return existing, nil
	case constants.PeriodCloseStatusRunning:
		return nil, ErrPeriodCloseRunning
	default:
		existing.Status = constants.PeriodCloseStatusRunning
		existing.StartedAt = time.Now()
		if err := s.closeRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
}

func (s *PeriodCloseService) execute(run *models.PeriodCloseRun, periodKey string) error {
	skipped, err := s.applyStragglers(periodKey)
	if err != nil {
		return err
	}
	run.EventsSkipped = skipped

	var result *PeriodResult
	err = s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.commission.CalculatePeriodCommissions(tx, periodKey)
		if err != nil {
			return err
		}
		_, err = s.commissionRepo.WithTx(tx).ApproveByPeriod(periodKey)
		return err
	})
	if err != nil {
		return err
	}
	run.CommissionsCreated = result.Created

	changed, err := s.moveRanks(periodKey)
	if err != nil {
		return err
	}
	run.RanksChanged = changed

	issued, err := s.rewards.IssueMissedRewards(periodKey)
	if err != nil {
		return err
	}
	run.RewardsIssued = issued

	return s.resetPeriod(result)
}

// applyStragglers rolls up events recorded but never applied, counting and
// skipping the ones that cannot be processed.
func (s *PeriodCloseService) applyStragglers(periodKey string) (int, error) {
	events, _, err := s.eventRepo.List(repository.OrderEventListFilter{
		PeriodKey:     periodKey,
		UnappliedOnly: true,
	})
	if err != nil {
		return 0, err
	}
	skipped := 0
	for _, event := range events {
		if err := s.volume.ApplyEventByKey(event.EventKey); err != nil {
			skipped++
			logger.Warnw("period_close_event_skipped",
				"period_key", periodKey,
				"event_key", event.EventKey,
				"error", err,
			)
		}
	}
	return skipped, nil
}

// moveRanks promotes everyone who qualifies, then demotes per the one-period
// hold rule. Returns the total number of rank changes.
func (s *PeriodCloseService) moveRanks(periodKey string) (int, error) {
	ids, err := s.distributorRepo.ListAllIDs()
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, id := range ids {
		before, err := s.distributorRepo.GetByID(id)
		if err != nil {
			return changed, err
		}
		if before == nil {
			continue
		}
		if err := s.rank.Evaluate(id, periodKey); err != nil {
			return changed, err
		}
		after, err := s.distributorRepo.GetByID(id)
		if err != nil {
			return changed, err
		}
		if after != nil && after.Rank != before.Rank {
			changed++
			continue
		}
		err = s.distributorRepo.Transaction(func(tx *gorm.DB) error {
			fresh, err := s.distributorRepo.WithTx(tx).GetByIDForUpdate(id)
			if err != nil {
				return err
			}
			if fresh == nil {
				return nil
			}
			demoted, err := s.rank.DemoteAtClose(tx, fresh, periodKey)
			if err != nil {
				return err
			}
			if demoted {
				changed++
			}
			return nil
		})
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// resetPeriod installs the new leg carries and rolls the live counters over:
// volume already applied for later periods stays, everything else is cleared.
// Activity is then recomputed from what remains.
func (s *PeriodCloseService) resetPeriod(result *PeriodResult) error {
	ids, err := s.distributorRepo.ListAllIDs()
	if err != nil {
		return err
	}
	return s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.distributorRepo.WithTx(tx)
		for _, id := range ids {
			carry := result.Carries[id]
			if err := repo.ResetPeriodVolumes(id, result.NextPV[id], result.NextTV[id], carry.Left, carry.Right); err != nil {
				return err
			}
			if err := s.volume.refreshActivity(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRuns lists close runs newest first.
func (s *PeriodCloseService) ListRuns(page, pageSize int) ([]models.PeriodCloseRun, int64, error) {
	return s.closeRepo.List(page, pageSize)
}

// GetRun fetches one run by period key.
func (s *PeriodCloseService) GetRun(periodKey string) (*models.PeriodCloseRun, error) {
	return s.closeRepo.GetByPeriodKey(periodKey)
}
