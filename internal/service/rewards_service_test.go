package service

import (
	"errors"
	"testing"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"
)

func TestThreePointsEarnFreeReward(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := CurrentPeriodKey()

	for ref := uint(1); ref <= 3; ref++ {
		if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, ref, periodKey); err != nil {
			t.Fatalf("RecordQualifyingEnrollment error: %v", err)
		}
	}

	rewards, _, err := f.rewardRepo.ListFreeRewards(repository.RewardListFilter{DistributorID: d.ID, PeriodKey: periodKey})
	if err != nil {
		t.Fatalf("ListFreeRewards error: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected 1 free reward at 3 points, got %d", len(rewards))
	}
	if rewards[0].Status != constants.FreeRewardStatusPending {
		t.Fatalf("expected pending reward, got %s", rewards[0].Status)
	}

	// A fourth point in the same period must not issue a second reward.
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindDistributor, 4, periodKey); err != nil {
		t.Fatalf("fourth point error: %v", err)
	}
	rewards, _, err = f.rewardRepo.ListFreeRewards(repository.RewardListFilter{DistributorID: d.ID, PeriodKey: periodKey})
	if err != nil {
		t.Fatalf("ListFreeRewards error: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected the reward to stay single, got %d", len(rewards))
	}
}

func TestDuplicateSourceDoesNotAddPoint(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := CurrentPeriodKey()

	for i := 0; i < 2; i++ {
		if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, 7, periodKey); err != nil {
			t.Fatalf("RecordQualifyingEnrollment error: %v", err)
		}
	}
	count, err := f.rewardRepo.CountPoints(d.ID, periodKey)
	if err != nil {
		t.Fatalf("CountPoints error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected replayed source to count once, got %d", count)
	}
}

func TestPointsDistinguishSourceNamespaces(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := CurrentPeriodKey()

	// A customer order event and a distributor enrollment can share a
	// numeric id; both qualify and both must count.
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, 7, periodKey); err != nil {
		t.Fatalf("customer point error: %v", err)
	}
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindDistributor, 7, periodKey); err != nil {
		t.Fatalf("distributor point error: %v", err)
	}
	count, err := f.rewardRepo.CountPoints(d.ID, periodKey)
	if err != nil {
		t.Fatalf("CountPoints error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected both kinds to count, got %d point(s)", count)
	}
}

func TestPointsScopedToPeriod(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")

	lastPeriod := PreviousPeriodKey(time.Now())
	thisPeriod := CurrentPeriodKey()
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, 1, lastPeriod); err != nil {
		t.Fatalf("RecordQualifyingEnrollment error: %v", err)
	}
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, 2, thisPeriod); err != nil {
		t.Fatalf("RecordQualifyingEnrollment error: %v", err)
	}
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, 3, thisPeriod); err != nil {
		t.Fatalf("RecordQualifyingEnrollment error: %v", err)
	}

	rewards, _, err := f.rewardRepo.ListFreeRewards(repository.RewardListFilter{DistributorID: d.ID})
	if err != nil {
		t.Fatalf("ListFreeRewards error: %v", err)
	}
	if len(rewards) != 0 {
		t.Fatalf("points across periods must not combine, got %d rewards", len(rewards))
	}
}

func TestRecordQualifyingEnrollmentRejectsBadKind(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	if err := f.rewards.RecordQualifyingEnrollment(d.ID, "stranger", 1, CurrentPeriodKey()); !errors.Is(err, ErrInvalidEventItem) {
		t.Fatalf("expected ErrInvalidEventItem, got: %v", err)
	}
}

func TestIssueMissedRewards(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := PreviousPeriodKey(time.Now())
	// Points written directly, as if the issue step had crashed mid-close.
	for ref := uint(1); ref <= 3; ref++ {
		if _, err := f.rewardRepo.CreatePointIgnoreDuplicate(&models.RewardPoint{
			DistributorID: d.ID,
			PeriodKey:     periodKey,
			Kind:          constants.RewardKindCustomer,
			SourceRefID:   ref,
		}); err != nil {
			t.Fatalf("create point failed: %v", err)
		}
	}

	issued, err := f.rewards.IssueMissedRewards(periodKey)
	if err != nil {
		t.Fatalf("IssueMissedRewards error: %v", err)
	}
	if issued != 1 {
		t.Fatalf("expected 1 reward issued, got %d", issued)
	}
	issued, err = f.rewards.IssueMissedRewards(periodKey)
	if err != nil {
		t.Fatalf("second IssueMissedRewards error: %v", err)
	}
	if issued != 0 {
		t.Fatalf("rerun must not issue again, got %d", issued)
	}
}

func TestMarkShipped(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	periodKey := CurrentPeriodKey()
	for ref := uint(1); ref <= 3; ref++ {
		if err := f.rewards.RecordQualifyingEnrollment(d.ID, constants.RewardKindCustomer, ref, periodKey); err != nil {
			t.Fatalf("RecordQualifyingEnrollment error: %v", err)
		}
	}
	rewards, _, err := f.rewardRepo.ListFreeRewards(repository.RewardListFilter{DistributorID: d.ID})
	if err != nil || len(rewards) != 1 {
		t.Fatalf("expected 1 reward, got %d (err: %v)", len(rewards), err)
	}

	if err := f.rewards.MarkShipped(rewards[0].ID); err != nil {
		t.Fatalf("MarkShipped error: %v", err)
	}
	if err := f.rewards.MarkShipped(rewards[0].ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on reshipping, got: %v", err)
	}
	if err := f.rewards.MarkShipped(999); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got: %v", err)
	}
}
