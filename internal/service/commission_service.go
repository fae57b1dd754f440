package service

import (
	"fmt"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/repository"

	"gorm.io/gorm"
)

// CommissionService computes the four commission types for a period. Every
// record insert goes through the composite unique index, so recomputing a
// period never double-pays.
type CommissionService struct {
	distributorRepo repository.DistributorRepository
	commissionRepo  repository.CommissionRepository
	eventRepo       repository.OrderEventRepository
	compPlan        *plan.Plan
}

// NewCommissionService creates the commission service.
func NewCommissionService(distributorRepo repository.DistributorRepository, commissionRepo repository.CommissionRepository, eventRepo repository.OrderEventRepository, compPlan *plan.Plan) *CommissionService {
	return &CommissionService{
		distributorRepo: distributorRepo,
		commissionRepo:  commissionRepo,
		eventRepo:       eventRepo,
		compPlan:        compPlan,
	}
}

// LegCarry is the carry-forward volume left on a node's legs after binary
// payment.
type LegCarry struct {
	Left  int
	Right int
}

// PeriodResult summarizes one commission computation. NextPV and NextTV hold
// the volume already applied for periods after the computed one; the close
// must preserve it when it resets the live counters.
type PeriodResult struct {
	Created int
	Carries map[uint]LegCarry
	NextPV  map[uint]int
	NextTV  map[uint]int
}

// Eligibility applies the earning gate: autoship on and period PV at the
// plan requirement. The returned reason is empty when eligible.
func (s *CommissionService) Eligibility(d *models.Distributor) (bool, string) {
	if !d.AutoshipEnabled {
		return false, constants.CommissionReasonAutoshipInactive
	}
	if d.PersonalVolume < s.compPlan.MonthlyPVRequirement {
		return false, constants.CommissionReasonPVNotMet
	}
	return true, ""
}

// CalculatePeriodCommissions computes retail, fast start, binary and
// matching records for every distributor in the period. Ineligible earners
// get a single zero-amount record carrying the gate reason. Returns the
// number of records actually created plus the post-payment leg carries.
func (s *CommissionService) CalculatePeriodCommissions(tx *gorm.DB, periodKey string) (*PeriodResult, error) {
	distributorRepo := s.distributorRepo.WithTx(tx)
	commissionRepo := s.commissionRepo.WithTx(tx)
	eventRepo := s.eventRepo.WithTx(tx)

	distributors, _, err := distributorRepo.List(repository.DistributorListFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Distributor, len(distributors))
	childBySlot := make(map[uint]map[string]*models.Distributor, len(distributors))
	for i := range distributors {
		d := &distributors[i]
		byID[d.ID] = d
	}
	for i := range distributors {
		d := &distributors[i]
		if d.ParentID == nil {
			continue
		}
		if childBySlot[*d.ParentID] == nil {
			childBySlot[*d.ParentID] = make(map[string]*models.Distributor, 2)
		}
		childBySlot[*d.ParentID][d.Position] = d
	}

	events, _, err := eventRepo.List(repository.OrderEventListFilter{PeriodKey: periodKey})
	if err != nil {
		return nil, err
	}

	// Events of later periods may already be rolled into the live counters
	// when the close runs after the boundary. Strip their contribution so
	// the gate and the binary legs see this period's volume only.
	nextPV, err := eventRepo.AppliedPVAfterPeriod(periodKey)
	if err != nil {
		return nil, err
	}
	nextTV := make(map[uint]int, len(nextPV))
	for id, pv := range nextPV {
		node := byID[id]
		for node != nil {
			nextTV[node.ID] += pv
			if node.ParentID == nil {
				break
			}
			node = byID[*node.ParentID]
		}
	}
	for i := range distributors {
		d := &distributors[i]
		d.PersonalVolume -= nextPV[d.ID]
		d.TeamVolume -= nextTV[d.ID]
	}

	result := &PeriodResult{
		Carries: make(map[uint]LegCarry, len(distributors)),
		NextPV:  nextPV,
		NextTV:  nextTV,
	}
	binaryAmounts := make(map[uint]models.Cents, len(distributors))

	for i := range distributors {
		d := &distributors[i]
		eligible, reason := s.Eligibility(d)
		if !eligible {
			created, err := commissionRepo.CreateIgnoreDuplicate(&models.CommissionRecord{
				EarnerID:    d.ID,
				Type:        constants.CommissionTypeIneligible,
				PeriodKey:   periodKey,
				AmountCents: 0,
				RatePercent: "0",
				PlanVersion: s.compPlan.Version,
				Status:      constants.CommissionStatusPending,
				ReasonCode:  reason,
			})
			if err != nil {
				return nil, err
			}
			if created {
				result.Created++
			}
			// Carry still accrues while the earner is ineligible.
			left, right := s.legVolumes(d, childBySlot)
			result.Carries[d.ID] = LegCarry{
				Left:  minInt(left, s.compPlan.MaxCarryVolume),
				Right: minInt(right, s.compPlan.MaxCarryVolume),
			}
			continue
		}

		created, err := s.retailForEarner(commissionRepo, d, events, byID, periodKey)
		if err != nil {
			return nil, err
		}
		result.Created += created

		created, err = s.fastStartForEarner(commissionRepo, eventRepo, d, distributors, periodKey)
		if err != nil {
			return nil, err
		}
		result.Created += created

		amount, carry, wrote, err := s.binaryForEarner(commissionRepo, d, childBySlot, periodKey)
		if err != nil {
			return nil, err
		}
		if wrote {
			result.Created++
		}
		result.Carries[d.ID] = carry
		if amount > 0 {
			binaryAmounts[d.ID] = amount
		}
	}

	created, err := s.matchingPass(commissionRepo, byID, binaryAmounts, periodKey)
	if err != nil {
		return nil, err
	}
	result.Created += created

	logger.Infow("period_commissions_calculated",
		"period_key", periodKey,
		"records_created", result.Created,
		"plan_version", s.compPlan.Version,
	)
	return result, nil
}

// retailForEarner pays the plan retail rate on each personally sponsored
// non-autoship order in the period.
func (s *CommissionService) retailForEarner(commissionRepo repository.CommissionRepository, earner *models.Distributor, events []models.OrderEvent, byID map[uint]*models.Distributor, periodKey string) (int, error) {
	created := 0
	for i := range events {
		event := &events[i]
		if event.IsAutoship || event.AppliedAt == nil {
			continue
		}
		buyer := byID[event.DistributorID]
		if buyer == nil || buyer.SponsorID == nil || *buyer.SponsorID != earner.ID {
			continue
		}
		amount := models.ApplyPercent(event.TotalCents, s.compPlan.RetailRatePercent)
		wrote, err := commissionRepo.CreateIgnoreDuplicate(&models.CommissionRecord{
			EarnerID:       earner.ID,
			Type:           constants.CommissionTypeRetail,
			PeriodKey:      periodKey,
			SourceEventKey: event.EventKey,
			AmountCents:    amount,
			BasisCents:     event.TotalCents,
			RatePercent:    s.compPlan.RetailRatePercent.String(),
			PlanVersion:    s.compPlan.Version,
			Status:         constants.CommissionStatusPending,
		})
		if err != nil {
			return created, err
		}
		if wrote {
			created++
		}
	}
	return created, nil
}

// fastStartForEarner pays the fast start rate on each recruit's first
// qualifying order, when that order falls inside this period and within the
// plan window after enrollment. The source event key keeps it once per
// recruit.
func (s *CommissionService) fastStartForEarner(commissionRepo repository.CommissionRepository, eventRepo repository.OrderEventRepository, earner *models.Distributor, distributors []models.Distributor, periodKey string) (int, error) {
	created := 0
	for i := range distributors {
		recruit := &distributors[i]
		if recruit.SponsorID == nil || *recruit.SponsorID != earner.ID {
			continue
		}
		first, err := eventRepo.FirstByDistributor(recruit.ID)
		if err != nil {
			return created, err
		}
		if first == nil || first.AppliedAt == nil || first.PeriodKey != periodKey {
			continue
		}
		window := recruit.EnrolledAt.AddDate(0, 0, s.compPlan.FastStartWindowDays)
		if first.OccurredAt.After(window) {
			continue
		}
		amount := models.ApplyPercent(first.TotalCents, s.compPlan.FastStartRatePercent)
		wrote, err := commissionRepo.CreateIgnoreDuplicate(&models.CommissionRecord{
			EarnerID:       earner.ID,
			Type:           constants.CommissionTypeFastStart,
			PeriodKey:      periodKey,
			SourceEventKey: first.EventKey,
			AmountCents:    amount,
			BasisCents:     first.TotalCents,
			RatePercent:    s.compPlan.FastStartRatePercent.String(),
			PlanVersion:    s.compPlan.Version,
			Status:         constants.CommissionStatusPending,
		})
		if err != nil {
			return created, err
		}
		if wrote {
			created++
		}
	}
	return created, nil
}

// legVolumes returns the period pay volume on each leg: the immediate
// child's team volume plus the carried remainder from earlier periods.
func (s *CommissionService) legVolumes(d *models.Distributor, childBySlot map[uint]map[string]*models.Distributor) (int, int) {
	left := d.LeftCarryVolume
	right := d.RightCarryVolume
	if slots := childBySlot[d.ID]; slots != nil {
		if child := slots[constants.PositionLeft]; child != nil {
			left += child.TeamVolume
		}
		if child := slots[constants.PositionRight]; child != nil {
			right += child.TeamVolume
		}
	}
	return left, right
}

// binaryForEarner pays on the lesser leg, capped per period. Matched volume
// is flushed from both legs; the remainder carries up to the plan carry cap.
func (s *CommissionService) binaryForEarner(commissionRepo repository.CommissionRepository, d *models.Distributor, childBySlot map[uint]map[string]*models.Distributor, periodKey string) (models.Cents, LegCarry, bool, error) {
	left, right := s.legVolumes(d, childBySlot)
	payVolume := minInt(left, right)
	if s.compPlan.BinaryCapVolume > 0 {
		payVolume = minInt(payVolume, s.compPlan.BinaryCapVolume)
	}
	carry := LegCarry{
		Left:  minInt(left-payVolume, s.compPlan.MaxCarryVolume),
		Right: minInt(right-payVolume, s.compPlan.MaxCarryVolume),
	}
	if payVolume <= 0 {
		return 0, carry, false, nil
	}
	amount := models.VolumeCents(payVolume, s.compPlan.VolumePointValueCents, s.compPlan.BinaryRatePercent)
	wrote, err := commissionRepo.CreateIgnoreDuplicate(&models.CommissionRecord{
		EarnerID:    d.ID,
		Type:        constants.CommissionTypeBinary,
		PeriodKey:   periodKey,
		AmountCents: amount,
		BasisVolume: payVolume,
		RatePercent: s.compPlan.BinaryRatePercent.String(),
		PlanVersion: s.compPlan.Version,
		Status:      constants.CommissionStatusPending,
	})
	if err != nil {
		return 0, carry, false, err
	}
	return amount, carry, wrote, nil
}

// matchingPass pays a slice of each binary commission up the sponsor chain.
// Generation one is the earner's sponsor; each ancestor must hold the plan
// minimum rank and pass the gate.
func (s *CommissionService) matchingPass(commissionRepo repository.CommissionRepository, byID map[uint]*models.Distributor, binaryAmounts map[uint]models.Cents, periodKey string) (int, error) {
	created := 0
	for downlineID, binaryAmount := range binaryAmounts {
		downline := byID[downlineID]
		if downline == nil {
			continue
		}
		ancestor := downline
		for _, rate := range s.compPlan.MatchingRatesPercent {
			if ancestor.SponsorID == nil {
				break
			}
			sponsor := byID[*ancestor.SponsorID]
			if sponsor == nil {
				break
			}
			ancestor = sponsor
			eligible, _ := s.Eligibility(sponsor)
			if !eligible || !plan.RankAtLeast(sponsor.Rank, s.compPlan.MatchingMinRank) {
				continue
			}
			amount := models.ApplyPercent(binaryAmount, rate)
			if amount <= 0 {
				continue
			}
			wrote, err := commissionRepo.CreateIgnoreDuplicate(&models.CommissionRecord{
				EarnerID:       sponsor.ID,
				Type:           constants.CommissionTypeMatching,
				PeriodKey:      periodKey,
				SourceEventKey: fmt.Sprintf("binary:%d", downlineID),
				AmountCents:    amount,
				BasisCents:     binaryAmount,
				RatePercent:    rate.String(),
				PlanVersion:    s.compPlan.Version,
				Status:         constants.CommissionStatusPending,
			})
			if err != nil {
				return created, err
			}
			if wrote {
				created++
			}
		}
	}
	return created, nil
}

// ListCommissions lists commission records.
func (s *CommissionService) ListCommissions(filter repository.CommissionListFilter) ([]models.CommissionRecord, int64, error) {
	return s.commissionRepo.List(filter)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
