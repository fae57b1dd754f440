package service

import (
	"testing"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"
)

func makeEligible(t *testing.T, f *engineFixture, id uint) {
	t.Helper()
	updateDistributor(t, f.db, id, map[string]interface{}{
		"personal_volume":  f.plan.MonthlyPVRequirement,
		"is_active":        true,
		"autoship_enabled": true,
	})
}

func commissionsFor(t *testing.T, f *engineFixture, earnerID uint, commissionType, periodKey string) []models.CommissionRecord {
	t.Helper()
	records, _, err := f.commissionRepo.List(repository.CommissionListFilter{
		EarnerID:  earnerID,
		Type:      commissionType,
		PeriodKey: periodKey,
	})
	if err != nil {
		t.Fatalf("list commissions failed: %v", err)
	}
	return records
}

func TestEligibilityGate(t *testing.T) {
	f := setupEngineTest(t)

	d := &models.Distributor{AutoshipEnabled: false, PersonalVolume: 100}
	if ok, reason := f.commission.Eligibility(d); ok || reason != constants.CommissionReasonAutoshipInactive {
		t.Fatalf("expected autoship gate, got ok=%v reason=%s", ok, reason)
	}
	d = &models.Distributor{AutoshipEnabled: true, PersonalVolume: f.plan.MonthlyPVRequirement - 1}
	if ok, reason := f.commission.Eligibility(d); ok || reason != constants.CommissionReasonPVNotMet {
		t.Fatalf("expected PV gate, got ok=%v reason=%s", ok, reason)
	}
	d = &models.Distributor{AutoshipEnabled: true, PersonalVolume: f.plan.MonthlyPVRequirement}
	if ok, reason := f.commission.Eligibility(d); !ok || reason != "" {
		t.Fatalf("expected eligible, got ok=%v reason=%s", ok, reason)
	}
}

func TestRetailCommission(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	buyer := createTestDistributor(t, f.db, "B1", &earner.ID, constants.PositionLeft)
	makeEligible(t, f, earner.ID)

	periodKey := CurrentPeriodKey()
	createAppliedEvent(t, f.db, buyer.ID, periodKey, 120, 14400, false)

	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeRetail, periodKey)
	if len(records) != 1 {
		t.Fatalf("expected 1 retail record, got %d", len(records))
	}
	if records[0].AmountCents != 2880 {
		t.Fatalf("expected 20%% of 14400 = 2880, got %d", records[0].AmountCents)
	}
	if records[0].BasisCents != 14400 || records[0].Status != constants.CommissionStatusPending {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestRetailSkipsAutoshipEvents(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	buyer := createTestDistributor(t, f.db, "B1", &earner.ID, constants.PositionLeft)
	makeEligible(t, f, earner.ID)

	periodKey := CurrentPeriodKey()
	createAppliedEvent(t, f.db, buyer.ID, periodKey, 60, 6600, true)

	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	if records := commissionsFor(t, f, earner.ID, constants.CommissionTypeRetail, periodKey); len(records) != 0 {
		t.Fatalf("autoship events must not pay retail, got %d records", len(records))
	}
}

func TestIneligibleEarnerGetsZeroRecordWithReason(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	updateDistributor(t, f.db, earner.ID, map[string]interface{}{"autoship_enabled": false})
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 900})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 600})

	periodKey := CurrentPeriodKey()
	result, err := f.commission.CalculatePeriodCommissions(f.db, periodKey)
	if err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeIneligible, periodKey)
	if len(records) != 1 {
		t.Fatalf("expected 1 zero record, got %d", len(records))
	}
	if records[0].AmountCents != 0 || records[0].ReasonCode != constants.CommissionReasonAutoshipInactive {
		t.Fatalf("unexpected zero record: %+v", records[0])
	}
	// The unpaid leg volume still carries while the earner is gated.
	carry := result.Carries[earner.ID]
	if carry.Left != 900 || carry.Right != 600 {
		t.Fatalf("unexpected carry: %+v", carry)
	}
}

func TestBinaryPaysLesserLegAndCarriesRemainder(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	makeEligible(t, f, earner.ID)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 1200})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 800})

	periodKey := CurrentPeriodKey()
	result, err := f.commission.CalculatePeriodCommissions(f.db, periodKey)
	if err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeBinary, periodKey)
	if len(records) != 1 {
		t.Fatalf("expected 1 binary record, got %d", len(records))
	}
	// 800 points at 100 cents each, 10% rate.
	if records[0].AmountCents != 8000 || records[0].BasisVolume != 800 {
		t.Fatalf("unexpected binary record: %+v", records[0])
	}
	carry := result.Carries[earner.ID]
	if carry.Left != 400 || carry.Right != 0 {
		t.Fatalf("unexpected carry: %+v", carry)
	}
}

func TestBinaryHonorsPerPeriodAndCarryCaps(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	makeEligible(t, f, earner.ID)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 80000})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 70000})

	periodKey := CurrentPeriodKey()
	result, err := f.commission.CalculatePeriodCommissions(f.db, periodKey)
	if err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeBinary, periodKey)
	if len(records) != 1 || records[0].BasisVolume != f.plan.BinaryCapVolume {
		t.Fatalf("expected pay volume capped at %d, got: %+v", f.plan.BinaryCapVolume, records)
	}
	carry := result.Carries[earner.ID]
	if carry.Left != f.plan.MaxCarryVolume || carry.Right != f.plan.MaxCarryVolume {
		t.Fatalf("expected carries clipped to %d, got: %+v", f.plan.MaxCarryVolume, carry)
	}
}

func TestLegVolumesIncludePriorCarry(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	makeEligible(t, f, earner.ID)
	updateDistributor(t, f.db, earner.ID, map[string]interface{}{"left_carry_volume": 500})
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 100})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 600})

	periodKey := CurrentPeriodKey()
	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeBinary, periodKey)
	if len(records) != 1 || records[0].BasisVolume != 600 {
		t.Fatalf("expected carry to top up the left leg to 600 pay volume, got: %+v", records)
	}
}

func TestFastStartPaysFirstOrderInsideWindow(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	recruit := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionLeft)
	makeEligible(t, f, earner.ID)

	periodKey := CurrentPeriodKey()
	createAppliedEvent(t, f.db, recruit.ID, periodKey, 250, 29900, false)

	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeFastStart, periodKey)
	if len(records) != 1 {
		t.Fatalf("expected 1 fast start record, got %d", len(records))
	}
	if records[0].AmountCents != 5980 {
		t.Fatalf("expected 20%% of 29900 = 5980, got %d", records[0].AmountCents)
	}
}

func TestMatchingRequiresRankAndStopsAtRates(t *testing.T) {
	f := setupEngineTest(t)
	// Sponsor chain: top -> mid -> earner. The earner produces the binary.
	top := createTestDistributor(t, f.db, "TOP", nil, "")
	mid := createTestDistributor(t, f.db, "MID", &top.ID, constants.PositionLeft)
	earner := createTestDistributor(t, f.db, "E1", &mid.ID, constants.PositionLeft)
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)

	makeEligible(t, f, earner.ID)
	makeEligible(t, f, mid.ID)
	makeEligible(t, f, top.ID)
	// Generation one holds the minimum rank, generation two does not.
	updateDistributor(t, f.db, mid.ID, map[string]interface{}{"rank": constants.RankGold})
	updateDistributor(t, f.db, top.ID, map[string]interface{}{"rank": constants.RankSilver})
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 1000})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 1000})

	periodKey := CurrentPeriodKey()
	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("CalculatePeriodCommissions error: %v", err)
	}

	// Binary for the earner: 1000 points -> 10000 cents.
	matched := commissionsFor(t, f, mid.ID, constants.CommissionTypeMatching, periodKey)
	if len(matched) != 1 {
		t.Fatalf("expected 1 matching record for generation one, got %d", len(matched))
	}
	if matched[0].AmountCents != 1000 || matched[0].BasisCents != 10000 {
		t.Fatalf("expected 10%% of 10000 = 1000, got: %+v", matched[0])
	}
	if records := commissionsFor(t, f, top.ID, constants.CommissionTypeMatching, periodKey); len(records) != 0 {
		t.Fatalf("below-rank ancestor must not match, got %d records", len(records))
	}
}

func TestCalculatePeriodCommissionsRerunCreatesNothing(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	buyer := createTestDistributor(t, f.db, "B1", &earner.ID, constants.PositionLeft)
	makeEligible(t, f, earner.ID)
	updateDistributor(t, f.db, buyer.ID, map[string]interface{}{"team_volume": 300})

	periodKey := CurrentPeriodKey()
	createAppliedEvent(t, f.db, buyer.ID, periodKey, 120, 14400, false)

	first, err := f.commission.CalculatePeriodCommissions(f.db, periodKey)
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if first.Created == 0 {
		t.Fatalf("expected records on first run")
	}
	second, err := f.commission.CalculatePeriodCommissions(f.db, periodKey)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("rerun must not create records, got %d", second.Created)
	}
}

func TestRerunPaysBinaryAfterEligibilityChange(t *testing.T) {
	f := setupEngineTest(t)
	earner := createTestDistributor(t, f.db, "E1", nil, "")
	updateDistributor(t, f.db, earner.ID, map[string]interface{}{"autoship_enabled": false})
	left := createTestDistributor(t, f.db, "L1", &earner.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &earner.ID, constants.PositionRight)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"team_volume": 700})
	updateDistributor(t, f.db, right.ID, map[string]interface{}{"team_volume": 400})

	periodKey := CurrentPeriodKey()
	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if records := commissionsFor(t, f, earner.ID, constants.CommissionTypeIneligible, periodKey); len(records) != 1 {
		t.Fatalf("expected 1 gate record from the first run, got %d", len(records))
	}

	// The earner qualifies between the first run and a resumed one. The
	// stale gate record must not shadow the real payout on the retry.
	makeEligible(t, f, earner.ID)
	if _, err := f.commission.CalculatePeriodCommissions(f.db, periodKey); err != nil {
		t.Fatalf("rerun error: %v", err)
	}
	records := commissionsFor(t, f, earner.ID, constants.CommissionTypeBinary, periodKey)
	if len(records) != 1 {
		t.Fatalf("expected the rerun to pay the binary, got %d records", len(records))
	}
	if records[0].AmountCents != 4000 || records[0].BasisVolume != 400 {
		t.Fatalf("unexpected binary record: %+v", records[0])
	}
}
