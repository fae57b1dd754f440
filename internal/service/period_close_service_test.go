package service

import (
	"errors"
	"testing"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"
)

func TestRunPeriodCloseHappyPathAndReplay(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	makeEligible(t, f, earner.ID)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 1200})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 800})

	periodKey := PreviousPeriodKey(time.Now())
	createAppliedEvent(t, f.db, left.ID, periodKey, 120, 14400, false)

	run, err := f.close.RunPeriodClose(periodKey)
	if err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}
	if run.Status != constants.PeriodCloseStatusCompleted || run.FinishedAt == nil {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.CommissionsCreated == 0 {
		t.Fatalf("expected commissions created")
	}

	// All period records leave pending at close.
	var pending int64
	if err := f.db.Model(&models.CommissionRecord{}).
		Where("period_key = ? AND status = ?", periodKey, constants.CommissionStatusPending).
		Count(&pending).Error; err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending records after close, got %d", pending)
	}

	// Period volumes reset; the binary remainder carries on the heavy leg.
	after := reloadDistributor(t, f.db, earner.ID)
	if after.PersonalVolume != 0 || after.TeamVolume != 0 {
		t.Fatalf("period volumes must reset, got pv=%d tv=%d", after.PersonalVolume, after.TeamVolume)
	}
	if after.LeftCarryVolume != 400 || after.RightCarryVolume != 0 {
		t.Fatalf("unexpected carries: left=%d right=%d", after.LeftCarryVolume, after.RightCarryVolume)
	}

	var total int64
	if err := f.db.Model(&models.CommissionRecord{}).Where("period_key = ?", periodKey).Count(&total).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	replay, err := f.close.RunPeriodClose(periodKey)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if replay.ID != run.ID || replay.CommissionsCreated != run.CommissionsCreated {
		t.Fatalf("replay must return the stored run, got: %+v", replay)
	}
	var totalAfter int64
	if err := f.db.Model(&models.CommissionRecord{}).Where("period_key = ?", periodKey).Count(&totalAfter).Error; err != nil {
		t.Fatalf("recount commissions failed: %v", err)
	}
	if totalAfter != total {
		t.Fatalf("replay must not add records: %d -> %d", total, totalAfter)
	}
}

func TestRunPeriodCloseRejectsOpenPeriod(t *testing.T) {
	f := setupEngineTest(t)
	if _, err := f.close.RunPeriodClose(CurrentPeriodKey()); !errors.Is(err, ErrPeriodNotElapsed) {
		t.Fatalf("expected ErrPeriodNotElapsed, got: %v", err)
	}
}

func TestRunPeriodCloseRejectsBadKey(t *testing.T) {
	f := setupEngineTest(t)
	if _, err := f.close.RunPeriodClose("202608"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRunPeriodCloseAlreadyRunning(t *testing.T) {
	f := setupEngineTest(t)
	periodKey := PreviousPeriodKey(time.Now())
	if err := f.db.Create(&models.PeriodCloseRun{
		PeriodKey:   periodKey,
		PlanVersion: f.plan.Version,
		Status:      constants.PeriodCloseStatusRunning,
		StartedAt:   time.Now(),
	}).Error; err != nil {
		t.Fatalf("create run failed: %v", err)
	}
	if _, err := f.close.RunPeriodClose(periodKey); !errors.Is(err, ErrPeriodCloseRunning) {
		t.Fatalf("expected ErrPeriodCloseRunning, got: %v", err)
	}
}

func TestRunPeriodCloseResumesFailedRun(t *testing.T) {
	f := setupEngineTest(t)
	createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := PreviousPeriodKey(time.Now())
	if err := f.db.Create(&models.PeriodCloseRun{
		PeriodKey:   periodKey,
		PlanVersion: f.plan.Version,
		Status:      constants.PeriodCloseStatusFailed,
		StartedAt:   time.Now(),
	}).Error; err != nil {
		t.Fatalf("create run failed: %v", err)
	}
	run, err := f.close.RunPeriodClose(periodKey)
	if err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}
	if run.Status != constants.PeriodCloseStatusCompleted {
		t.Fatalf("expected failed run resumed to completion, got %s", run.Status)
	}
}

func TestRunPeriodCloseAppliesStragglers(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := PreviousPeriodKey(time.Now())
	straggler := &models.OrderEvent{
		EventKey:      "late-event",
		DistributorID: d.ID,
		PeriodKey:     periodKey,
		TotalPV:       120,
		TotalCents:    13200,
		OccurredAt:    time.Now().AddDate(0, -1, 0),
	}
	if err := f.db.Create(straggler).Error; err != nil {
		t.Fatalf("create event failed: %v", err)
	}

	run, err := f.close.RunPeriodClose(periodKey)
	if err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}
	if run.EventsSkipped != 0 {
		t.Fatalf("expected no skipped events, got %d", run.EventsSkipped)
	}
	fresh, err := f.eventRepo.GetByEventKey("late-event")
	if err != nil {
		t.Fatalf("GetByEventKey error: %v", err)
	}
	if fresh.AppliedAt == nil {
		t.Fatalf("expected straggler applied during close")
	}
	// The volume landed in lifetime aggregates before the period reset.
	after := reloadDistributor(t, f.db, d.ID)
	if after.LifetimePersonalVolume != 120 || after.PersonalVolume != 0 {
		t.Fatalf("unexpected volumes after close: %+v", after)
	}
}

func TestRunPeriodCloseKeepsNextPeriodVolume(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createTestProduct(t, f.db, "NRG-60", 60, 7200)
	createTestProduct(t, f.db, "NRG-48", 48, 5800)

	priorKey := PreviousPeriodKey(time.Now())
	priorStart, err := ParsePeriodKey(priorKey)
	if err != nil {
		t.Fatalf("ParsePeriodKey error: %v", err)
	}
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: d.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-60", Quantity: 1}},
		OccurredAt:    priorStart.Add(12 * time.Hour),
	}); err != nil {
		t.Fatalf("record prior order: %v", err)
	}
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: d.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-48", Quantity: 1}},
	}); err != nil {
		t.Fatalf("record current order: %v", err)
	}

	if _, err := f.close.RunPeriodClose(priorKey); err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}

	// Closing last month only clears last month's volume; the order already
	// applied for the running month stays on the live counters.
	after := reloadDistributor(t, f.db, d.ID)
	if after.PersonalVolume != 48 || after.TeamVolume != 48 {
		t.Fatalf("current period volume lost by the close: pv=%d tv=%d", after.PersonalVolume, after.TeamVolume)
	}
	if after.LifetimePersonalVolume != 108 {
		t.Fatalf("unexpected lifetime volume: %d", after.LifetimePersonalVolume)
	}
	if !after.IsActive {
		t.Fatalf("activity must be recomputed from the surviving volume")
	}
}

func TestRunPeriodCloseExcludesNextPeriodFromGateAndLegs(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	createTestProduct(t, f.db, "NRG-60", 60, 7200)
	createTestProduct(t, f.db, "NRG-500", 500, 60000)
	createTestProduct(t, f.db, "NRG-800", 800, 96000)

	priorKey := PreviousPeriodKey(time.Now())
	priorStart, err := ParsePeriodKey(priorKey)
	if err != nil {
		t.Fatalf("ParsePeriodKey error: %v", err)
	}
	priorAt := priorStart.Add(12 * time.Hour)
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: earner.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-60", Quantity: 1}},
		OccurredAt:    priorAt,
	}); err != nil {
		t.Fatalf("record earner order: %v", err)
	}
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: left.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-800", Quantity: 1}},
		OccurredAt:    priorAt,
	}); err != nil {
		t.Fatalf("record left order: %v", err)
	}
	// The right leg produces only after the boundary.
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: right.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-500", Quantity: 1}},
	}); err != nil {
		t.Fatalf("record right order: %v", err)
	}

	if _, err := f.close.RunPeriodClose(priorKey); err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}

	// Inside the closed period the right leg is empty, so nothing pays and
	// the left leg carries whole.
	if records := commissionsFor(t, f, earner.ID, constants.CommissionTypeBinary, priorKey); len(records) != 0 {
		t.Fatalf("next period volume must not fund a leg, got: %+v", records)
	}
	afterEarner := reloadDistributor(t, f.db, earner.ID)
	if afterEarner.LeftCarryVolume != 800 || afterEarner.RightCarryVolume != 0 {
		t.Fatalf("unexpected carries: left=%d right=%d", afterEarner.LeftCarryVolume, afterEarner.RightCarryVolume)
	}

	// The right child keeps its current-period volume and stays gated for
	// the closed period despite it.
	afterRight := reloadDistributor(t, f.db, right.ID)
	if afterRight.PersonalVolume != 500 || afterRight.TeamVolume != 500 {
		t.Fatalf("right child volume lost by the close: pv=%d tv=%d", afterRight.PersonalVolume, afterRight.TeamVolume)
	}
	gated := commissionsFor(t, f, right.ID, constants.CommissionTypeIneligible, priorKey)
	if len(gated) != 1 || gated[0].ReasonCode != constants.CommissionReasonPVNotMet {
		t.Fatalf("expected the right child gated for the closed period, got: %+v", gated)
	}
}

func TestRunPeriodCloseDemotesWithoutHold(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	updateDistributor(t, f.db, d.ID, map[string]interface{}{"rank": constants.RankBronze})

	periodKey := PreviousPeriodKey(time.Now())
	run, err := f.close.RunPeriodClose(periodKey)
	if err != nil {
		t.Fatalf("RunPeriodClose error: %v", err)
	}
	if run.RanksChanged != 1 {
		t.Fatalf("expected 1 rank change, got %d", run.RanksChanged)
	}
	if after := reloadDistributor(t, f.db, d.ID); after.Rank != constants.RankStarter {
		t.Fatalf("expected demotion to starter, got %s", after.Rank)
	}
	changes, _, err := f.distributorRepo.ListRankChanges(repository.RankChangeListFilter{
		DistributorID: d.ID,
		PeriodKey:     periodKey,
		Reason:        constants.RankChangeReasonPeriodClose,
	})
	if err != nil {
		t.Fatalf("ListRankChanges error: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected demotion logged, got %d changes", len(changes))
	}
}
