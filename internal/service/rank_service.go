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

// RankService evaluates distributors against the rank ladder. Promotions
// apply immediately; demotions only happen at period close, and only when
// the node was not promoted during the closing period.
type RankService struct {
	distributorRepo repository.DistributorRepository
	queueClient     *queue.Client
	compPlan        *plan.Plan
}

// NewRankService creates the rank service.
func NewRankService(distributorRepo repository.DistributorRepository, queueClient *queue.Client, compPlan *plan.Plan) *RankService {
	return &RankService{
		distributorRepo: distributorRepo,
		queueClient:     queueClient,
		compPlan:        compPlan,
	}
}

// ActiveLegCount counts the distributor's legs whose subtree contains at
// least one active node. A leg here is an immediate placement child.
func (s *RankService) ActiveLegCount(tx *gorm.DB, distributorID uint) (int, error) {
	repo := s.distributorRepo.WithTx(tx)
	children, err := repo.ListChildren([]uint{distributorID})
	if err != nil {
		return 0, err
	}
	active := 0
	for _, child := range children {
		hasActive, err := s.subtreeHasActive(repo, child)
		if err != nil {
			return 0, err
		}
		if hasActive {
			active++
		}
	}
	return active, nil
}

func (s *RankService) subtreeHasActive(repo repository.DistributorRepository, root models.Distributor) (bool, error) {
	if root.IsActive {
		return true, nil
	}
	frontier := []uint{root.ID}
	for len(frontier) > 0 {
		children, err := repo.ListChildren(frontier)
		if err != nil {
			return false, err
		}
		next := make([]uint, 0, len(children))
		for _, child := range children {
			if child.IsActive {
				return true, nil
			}
			next = append(next, child.ID)
		}
		frontier = next
	}
	return false, nil
}

// HighestQualifiedRank returns the highest ladder rank whose thresholds the
// distributor currently meets.
func (s *RankService) HighestQualifiedRank(tx *gorm.DB, d *models.Distributor) (string, error) {
	activeLegs, err := s.ActiveLegCount(tx, d.ID)
	if err != nil {
		return "", err
	}
	qualified := constants.RankStarter
	for _, req := range plan.Ladder() {
		if d.PersonalVolume >= req.PersonalPV && d.TeamVolume >= req.TeamPV && activeLegs >= req.ActiveLegs {
			qualified = req.Rank
		}
	}
	return qualified, nil
}

// Evaluate promotes the distributor if they now qualify for a higher rank.
// It never demotes.
func (s *RankService) Evaluate(distributorID uint, periodKey string) error {
	var change *models.RankChange
	err := s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.distributorRepo.WithTx(tx)
		d, err := repo.GetByIDForUpdate(distributorID)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrNotFound
		}
		qualified, err := s.HighestQualifiedRank(tx, d)
		if err != nil {
			return err
		}
		if !rankAbove(qualified, d.Rank) {
			return nil
		}
		now := time.Now()
		if err := repo.UpdateRank(d.ID, qualified, now); err != nil {
			return err
		}
		change = &models.RankChange{
			DistributorID: d.ID,
			FromRank:      d.Rank,
			ToRank:        qualified,
			PeriodKey:     periodKey,
			Reason:        constants.RankChangeReasonPromotion,
		}
		return repo.CreateRankChange(change)
	})
	if err != nil || change == nil {
		return err
	}

	logger.Infow("rank_promoted",
		"distributor_id", change.DistributorID,
		"from_rank", change.FromRank,
		"to_rank", change.ToRank,
		"period_key", change.PeriodKey,
	)
	if err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Kind:          constants.NotificationRankChanged,
		DistributorID: change.DistributorID,
		PeriodKey:     periodKey,
		Detail:        change.ToRank,
	}); err != nil {
		logger.Warnw("rank_enqueue_notification_failed", "distributor_id", change.DistributorID, "error", err)
	}
	return nil
}

// DemoteAtClose demotes the distributor to their highest qualified rank if
// they no longer meet their current rank's thresholds and hold no promotion
// within the closing period. Returns whether a change was written.
func (s *RankService) DemoteAtClose(tx *gorm.DB, d *models.Distributor, periodKey string) (bool, error) {
	repo := s.distributorRepo.WithTx(tx)
	qualified, err := s.HighestQualifiedRank(tx, d)
	if err != nil {
		return false, err
	}
	if !rankAbove(d.Rank, qualified) {
		return false, nil
	}
	promotions, _, err := repo.ListRankChanges(repository.RankChangeListFilter{
		DistributorID: d.ID,
		PeriodKey:     periodKey,
		Reason:        constants.RankChangeReasonPromotion,
	})
	if err != nil {
		return false, err
	}
	if len(promotions) > 0 {
		// One period hold after a promotion.
		return false, nil
	}
	now := time.Now()
	if err := repo.UpdateRank(d.ID, qualified, now); err != nil {
		return false, err
	}
	if err := repo.CreateRankChange(&models.RankChange{
		DistributorID: d.ID,
		FromRank:      d.Rank,
		ToRank:        qualified,
		PeriodKey:     periodKey,
		Reason:        constants.RankChangeReasonPeriodClose,
	}); err != nil {
		return false, err
	}
	logger.Infow("rank_demoted_at_close",
		"distributor_id", d.ID,
		"from_rank", d.Rank,
		"to_rank", qualified,
		"period_key", periodKey,
	)
	return true, nil
}

// Progress describes how far a distributor sits from the next rank.
type Progress struct {
	CurrentRank    string `json:"current_rank"`
	NextRank       string `json:"next_rank,omitempty"`
	PersonalVolume int    `json:"personal_volume"`
	TeamVolume     int    `json:"team_volume"`
	ActiveLegs     int    `json:"active_legs"`
	NeedPersonalPV int    `json:"need_personal_pv"`
	NeedTeamPV     int    `json:"need_team_pv"`
	NeedActiveLegs int    `json:"need_active_legs"`
}

// GetProgress reports current standing against the next rank's thresholds.
func (s *RankService) GetProgress(distributorID uint) (*Progress, error) {
	d, err := s.distributorRepo.GetByID(distributorID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	activeLegs, err := s.ActiveLegCount(nil, d.ID)
	if err != nil {
		return nil, err
	}
	progress := &Progress{
		CurrentRank:    d.Rank,
		NextRank:       plan.NextRank(d.Rank),
		PersonalVolume: d.PersonalVolume,
		TeamVolume:     d.TeamVolume,
		ActiveLegs:     activeLegs,
	}
	if progress.NextRank == "" {
		return progress, nil
	}
	req := plan.RequirementFor(progress.NextRank)
	if req == nil {
		return progress, nil
	}
	progress.NeedPersonalPV = maxInt(0, req.PersonalPV-d.PersonalVolume)
	progress.NeedTeamPV = maxInt(0, req.TeamPV-d.TeamVolume)
	progress.NeedActiveLegs = maxInt(0, req.ActiveLegs-activeLegs)
	return progress, nil
}

func rankAbove(a, b string) bool {
	return constants.RankOrder[a] > constants.RankOrder[b]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
