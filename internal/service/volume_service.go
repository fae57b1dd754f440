package service

import (
	"context"
	"time"

	"github.com/neonclub/neon-api/internal/cache"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VolumeService records qualifying purchases and rolls their volume up the
// placement tree.
type VolumeService struct {
	distributorRepo repository.DistributorRepository
	eventRepo       repository.OrderEventRepository
	productRepo     repository.ProductRepository
	rewards         *RewardsService
	queueClient     *queue.Client
	compPlan        *plan.Plan
}

// NewVolumeService creates the volume service.
func NewVolumeService(distributorRepo repository.DistributorRepository, eventRepo repository.OrderEventRepository, productRepo repository.ProductRepository, rewards *RewardsService, queueClient *queue.Client, compPlan *plan.Plan) *VolumeService {
	return &VolumeService{
		distributorRepo: distributorRepo,
		eventRepo:       eventRepo,
		productRepo:     productRepo,
		rewards:         rewards,
		queueClient:     queueClient,
		compPlan:        compPlan,
	}
}

// RecordOrderItem is one line of a recorded order.
type RecordOrderItem struct {
	SKU      string
	Quantity int
}

// RecordOrderInput is a qualifying purchase to record.
type RecordOrderInput struct {
	EventKey      string
	DistributorID uint
	IsAutoship    bool
	Items         []RecordOrderItem
	OccurredAt    time.Time
}

// RecordOrder persists the event and queues its roll-up. A repeated event
// key returns the stored event unchanged. PV and pricing are snapshotted
// from the catalog at record time.
func (s *VolumeService) RecordOrder(input RecordOrderInput) (*models.OrderEvent, error) {
	distributor, err := s.distributorRepo.GetByID(input.DistributorID)
	if err != nil {
		return nil, err
	}
	if distributor == nil {
		return nil, ErrNotFound
	}
	if len(input.Items) == 0 {
		return nil, ErrInvalidEventItem
	}

	eventKey := input.EventKey
	if eventKey == "" {
		eventKey = uuid.NewString()
	}
	existing, err := s.eventRepo.GetByEventKey(eventKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debugw("order_event_duplicate_key", "event_key", eventKey, "event_id", existing.ID)
		return existing, nil
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	event := &models.OrderEvent{
		EventKey:      eventKey,
		DistributorID: distributor.ID,
		IsAutoship:    input.IsAutoship,
		PeriodKey:     PeriodKeyFor(occurredAt),
		OccurredAt:    occurredAt,
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidEventItem
		}
		product, err := s.productRepo.GetBySKU(item.SKU)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrUnknownProduct
		}
		if input.IsAutoship && !product.AutoshipEligible {
			return nil, ErrInvalidEventItem
		}
		event.Items = append(event.Items, models.OrderEventItem{
			ProductID:    product.ID,
			SKU:          product.SKU,
			Quantity:     item.Quantity,
			PVPerUnit:    product.PVPerUnit,
			PricePerUnit: product.PriceCents,
		})
		event.TotalPV += item.Quantity * product.PVPerUnit
		event.TotalCents += models.Cents(int64(item.Quantity)) * product.PriceCents
	}

	if err := s.eventRepo.Create(event); err != nil {
		return nil, err
	}
	logger.Infow("order_event_recorded",
		"event_key", event.EventKey,
		"distributor_id", event.DistributorID,
		"period_key", event.PeriodKey,
		"total_pv", event.TotalPV,
		"total_cents", event.TotalCents,
		"is_autoship", event.IsAutoship,
	)

	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderEventApply(queue.OrderEventApplyPayload{EventKey: event.EventKey}); err != nil {
			logger.Warnw("order_event_enqueue_apply_failed", "event_key", event.EventKey, "error", err)
		}
	} else if err := s.ApplyEventByKey(event.EventKey); err != nil {
		return nil, err
	}
	return event, nil
}

// ApplyEventByKey rolls one recorded event into the tree: originator PV plus
// team volume for every placement ancestor, all in one transaction with row
// locks taken root-ward so concurrent applies through shared ancestors do
// not deadlock. An already applied event is a no-op success.
func (s *VolumeService) ApplyEventByKey(eventKey string) error {
	event, err := s.eventRepo.GetByEventKey(eventKey)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}
	if event.AppliedAt != nil {
		logger.Debugw("order_event_already_applied", "event_key", eventKey)
		return nil
	}

	var touched []uint
	err = s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.distributorRepo.WithTx(tx)
		eventRepo := s.eventRepo.WithTx(tx)

		// Re-read under the transaction; a concurrent worker may have won.
		fresh, err := eventRepo.GetByEventKey(eventKey)
		if err != nil {
			return err
		}
		if fresh == nil || fresh.AppliedAt != nil {
			return nil
		}

		originator, err := repo.GetByID(fresh.DistributorID)
		if err != nil {
			return err
		}
		if originator == nil {
			return ErrNotFound
		}

		// Resolve the ancestor chain before locking, then lock root first.
		chain := []uint{}
		current := originator
		for current.ParentID != nil {
			parent, err := repo.GetByID(*current.ParentID)
			if err != nil {
				return err
			}
			if parent == nil {
				break
			}
			chain = append(chain, parent.ID)
			current = parent
		}
		lockOrder := make([]uint, 0, len(chain)+1)
		for i := len(chain) - 1; i >= 0; i-- {
			lockOrder = append(lockOrder, chain[i])
		}
		lockOrder = append(lockOrder, originator.ID)
		touched = lockOrder
		for _, id := range lockOrder {
			if _, err := repo.GetByIDForUpdate(id); err != nil {
				return err
			}
		}

		if err := repo.AddVolumes(originator.ID, fresh.TotalPV, fresh.TotalPV, fresh.TotalPV, fresh.TotalPV, 1); err != nil {
			return err
		}
		for _, ancestorID := range chain {
			if err := repo.AddVolumes(ancestorID, 0, fresh.TotalPV, 0, fresh.TotalPV, 0); err != nil {
				return err
			}
		}

		if err := s.refreshActivity(tx, originator.ID); err != nil {
			return err
		}
		if fresh.IsAutoship && originator.SponsorID != nil {
			if err := s.rewards.recordEnrollmentPoint(tx, *originator.SponsorID, constants.RewardKindCustomer, fresh.ID, fresh.PeriodKey); err != nil {
				return err
			}
		}
		return eventRepo.MarkApplied(fresh.ID, time.Now())
	})
	if err != nil {
		return err
	}

	logger.Infow("order_event_applied",
		"event_key", event.EventKey,
		"distributor_id", event.DistributorID,
		"total_pv", event.TotalPV,
	)
	s.invalidateGenealogy(touched)
	if err := s.queueClient.EnqueueRankReevaluate(queue.RankReevaluatePayload{
		DistributorID: event.DistributorID,
		PeriodKey:     event.PeriodKey,
	}); err != nil {
		logger.Warnw("order_event_enqueue_rank_failed", "distributor_id", event.DistributorID, "error", err)
	}
	return nil
}

// invalidateGenealogy drops cached tree fragments rooted at the given nodes;
// their rendered volumes just changed.
func (s *VolumeService) invalidateGenealogy(ids []uint) {
	ctx := context.Background()
	for _, id := range ids {
		if err := cache.InvalidateGenealogy(ctx, id, s.compPlan.GenealogyMaxDepth); err != nil {
			logger.Warnw("genealogy_cache_invalidate_failed", "distributor_id", id, "error", err)
		}
	}
}

// refreshActivity recomputes the period activity flag from applied PV and
// the autoship setting.
func (s *VolumeService) refreshActivity(tx *gorm.DB, distributorID uint) error {
	repo := s.distributorRepo.WithTx(tx)
	d, err := repo.GetByID(distributorID)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}
	active := d.AutoshipEnabled && d.PersonalVolume >= s.compPlan.MonthlyPVRequirement
	if active == d.IsActive {
		return nil
	}
	return repo.SetActive(distributorID, active)
}
