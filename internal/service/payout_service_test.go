package service

import (
	"errors"
	"testing"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
)

func createApprovedCommission(t *testing.T, f *engineFixture, earnerID uint, amount models.Cents, source string) *models.CommissionRecord {
	t.Helper()
	record := &models.CommissionRecord{
		EarnerID:       earnerID,
		Type:           constants.CommissionTypeRetail,
		PeriodKey:      CurrentPeriodKey(),
		SourceEventKey: source,
		AmountCents:    amount,
		Status:         constants.CommissionStatusApproved,
		PlanVersion:    "test",
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create commission failed: %v", err)
	}
	return record
}

func TestRequestPayoutBelowMinimum(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createApprovedCommission(t, f, d.ID, 500, "a")

	_, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodPaypal,
		PaypalEmail:   "d1@example.com",
	})
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got: %v", err)
	}
}

func TestRequestPayoutLocksCommissions(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createApprovedCommission(t, f, d.ID, 6000, "a")
	createApprovedCommission(t, f, d.ID, 4000, "b")

	payout, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodPaypal,
		PaypalEmail:   "d1@example.com",
	})
	if err != nil {
		t.Fatalf("RequestPayout error: %v", err)
	}
	if payout.AmountCents != 10000 || payout.Status != constants.PayoutStatusPending {
		t.Fatalf("unexpected payout: %+v", payout)
	}
	balance, err := f.payout.AvailableBalance(d.ID)
	if err != nil {
		t.Fatalf("AvailableBalance error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("locked commissions must leave the balance, got %d", balance)
	}
}

func TestPayoutMethodValidation(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")

	cases := []struct {
		name  string
		input RequestPayoutInput
		want  error
	}{
		{"unknown method", RequestPayoutInput{DistributorID: d.ID, Method: "venmo"}, ErrInvalidPayoutMethod},
		{"paypal without email", RequestPayoutInput{DistributorID: d.ID, Method: constants.PayoutMethodPaypal}, ErrMissingPayoutDetail},
		{"check without address", RequestPayoutInput{DistributorID: d.ID, Method: constants.PayoutMethodCheck}, ErrMissingPayoutDetail},
	}
	for _, tc := range cases {
		if _, err := f.payout.RequestPayout(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got: %v", tc.name, tc.want, err)
		}
	}
}

func TestPayoutLifecycleCompleteTakesFee(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	record := createApprovedCommission(t, f, d.ID, 10000, "a")

	payout, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodPaypal,
		PaypalEmail:   "d1@example.com",
	})
	if err != nil {
		t.Fatalf("RequestPayout error: %v", err)
	}
	if _, err := f.payout.Approve(payout.ID); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if _, err := f.payout.Dispatch(payout.ID); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	completed, err := f.payout.Complete(payout.ID)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	// 2.5% of 10000 rounds to 250; net 9750.
	if completed.FeeCents != 250 || completed.NetCents != 9750 {
		t.Fatalf("unexpected fee split: fee=%d net=%d", completed.FeeCents, completed.NetCents)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("expected completion time set")
	}
	var paid models.CommissionRecord
	if err := f.db.First(&paid, record.ID).Error; err != nil {
		t.Fatalf("reload commission failed: %v", err)
	}
	if paid.Status != constants.CommissionStatusPaid {
		t.Fatalf("expected commission paid, got %s", paid.Status)
	}
}

func TestPayoutInvalidTransitions(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createApprovedCommission(t, f, d.ID, 10000, "a")

	payout, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodCheck,
		MailingAddr:   "1 Neon Way",
	})
	if err != nil {
		t.Fatalf("RequestPayout error: %v", err)
	}
	if _, err := f.payout.Complete(payout.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending cannot complete, got: %v", err)
	}
	if _, err := f.payout.Retry(payout.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending cannot retry, got: %v", err)
	}
	if _, err := f.payout.Approve(999); !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("expected ErrPayoutNotFound, got: %v", err)
	}
}

func TestPayoutFailThenRetry(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createApprovedCommission(t, f, d.ID, 10000, "a")

	payout, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("RequestPayout error: %v", err)
	}
	if _, err := f.payout.Approve(payout.ID); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if _, err := f.payout.Dispatch(payout.ID); err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	failed, err := f.payout.Fail(payout.ID, "transfer rejected")
	if err != nil {
		t.Fatalf("Fail error: %v", err)
	}
	if failed.Status != constants.PayoutStatusFailed || failed.FailReason != "transfer rejected" {
		t.Fatalf("unexpected failed payout: %+v", failed)
	}
	retried, err := f.payout.Retry(payout.ID)
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if retried.Status != constants.PayoutStatusPending || retried.FailReason != "" {
		t.Fatalf("unexpected retried payout: %+v", retried)
	}
}

func TestPayoutCancelReleasesBalance(t *testing.T) {
	f := setupEngineTest(t)
	d := createTestDistributor(t, f.db, "D1", nil, "")
	createApprovedCommission(t, f, d.ID, 10000, "a")

	payout, err := f.payout.RequestPayout(RequestPayoutInput{
		DistributorID: d.ID,
		Method:        constants.PayoutMethodCheck,
		MailingAddr:   "1 Neon Way",
	})
	if err != nil {
		t.Fatalf("RequestPayout error: %v", err)
	}
	if _, err := f.payout.Cancel(payout.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	balance, err := f.payout.AvailableBalance(d.ID)
	if err != nil {
		t.Fatalf("AvailableBalance error: %v", err)
	}
	if balance != 10000 {
		t.Fatalf("cancel must release the balance, got %d", balance)
	}
}
