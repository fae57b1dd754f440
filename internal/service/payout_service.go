package service

import (
	"net/mail"
	"strings"
	"time"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/logger"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/plan"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/repository"

	"gorm.io/gorm"
)

// payoutTransitions is the allowed status machine. Anything absent here is
// rejected with ErrInvalidTransition and leaves the request untouched.
var payoutTransitions = map[string]map[string]bool{
	constants.PayoutStatusPending: {
		constants.PayoutStatusApproved:  true,
		constants.PayoutStatusCancelled: true,
	},
	constants.PayoutStatusApproved: {
		constants.PayoutStatusProcessing: true,
		constants.PayoutStatusCancelled:  true,
	},
	constants.PayoutStatusProcessing: {
		constants.PayoutStatusCompleted: true,
		constants.PayoutStatusFailed:    true,
	},
	constants.PayoutStatusFailed: {
		constants.PayoutStatusPending: true,
	},
}

// PayoutService turns approved commission balances into payout requests and
// drives them through the status machine.
type PayoutService struct {
	payoutRepo      repository.PayoutRepository
	commissionRepo  repository.CommissionRepository
	distributorRepo repository.DistributorRepository
	queueClient     *queue.Client
	compPlan        *plan.Plan
}

// NewPayoutService creates the payout service.
func NewPayoutService(payoutRepo repository.PayoutRepository, commissionRepo repository.CommissionRepository, distributorRepo repository.DistributorRepository, queueClient *queue.Client, compPlan *plan.Plan) *PayoutService {
	return &PayoutService{
		payoutRepo:      payoutRepo,
		commissionRepo:  commissionRepo,
		distributorRepo: distributorRepo,
		queueClient:     queueClient,
		compPlan:        compPlan,
	}
}

// RequestPayoutInput is a distributor's withdrawal request.
type RequestPayoutInput struct {
	DistributorID uint
	Method        string
	PaypalEmail   string
	MailingAddr   string
}

// RequestPayout locks the caller's unclaimed approved commissions into a new
// pending request. The balance must clear the plan minimum; method details
// are validated before anything is written.
func (s *PayoutService) RequestPayout(input RequestPayoutInput) (*models.PayoutRequest, error) {
	if err := validateMethod(input); err != nil {
		return nil, err
	}
	distributor, err := s.distributorRepo.GetByID(input.DistributorID)
	if err != nil {
		return nil, err
	}
	if distributor == nil {
		return nil, ErrNotFound
	}

	payout := &models.PayoutRequest{
		DistributorID: input.DistributorID,
		Method:        input.Method,
		PaypalEmail:   strings.TrimSpace(input.PaypalEmail),
		MailingAddr:   strings.TrimSpace(input.MailingAddr),
		Status:        constants.PayoutStatusPending,
		RequestedAt:   time.Now(),
	}
	err = s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		commissionRepo := s.commissionRepo.WithTx(tx)
		records, err := commissionRepo.ListUnpaidApproved(input.DistributorID)
		if err != nil {
			return err
		}
		var total models.Cents
		ids := make([]uint, 0, len(records))
		for _, record := range records {
			total += record.AmountCents
			ids = append(ids, record.ID)
		}
		if int64(total) < s.compPlan.MinimumPayoutCents {
			return ErrBelowMinimum
		}
		payout.AmountCents = total
		if err := s.payoutRepo.WithTx(tx).Create(payout); err != nil {
			return err
		}
		return commissionRepo.BindToPayout(ids, payout.ID)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("payout_requested",
		"payout_id", payout.ID,
		"distributor_id", payout.DistributorID,
		"amount_cents", payout.AmountCents,
		"method", payout.Method,
	)
	return payout, nil
}

// Approve moves a pending request to approved.
func (s *PayoutService) Approve(payoutID uint) (*models.PayoutRequest, error) {
	return s.transition(payoutID, constants.PayoutStatusApproved, "", func(p *models.PayoutRequest, tx *gorm.DB) error {
		now := time.Now()
		p.ApprovedAt = &now
		return nil
	})
}

// Cancel aborts a pending or approved request, releasing the locked
// commissions back to the available balance.
func (s *PayoutService) Cancel(payoutID uint) (*models.PayoutRequest, error) {
	return s.transition(payoutID, constants.PayoutStatusCancelled, "", func(p *models.PayoutRequest, tx *gorm.DB) error {
		return s.commissionRepo.WithTx(tx).ReleaseFromPayout(p.ID)
	})
}

// Dispatch marks an approved request processing and queues the transfer.
func (s *PayoutService) Dispatch(payoutID uint) (*models.PayoutRequest, error) {
	payout, err := s.transition(payoutID, constants.PayoutStatusProcessing, "", nil)
	if err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueuePayoutDispatch(queue.PayoutDispatchPayload{PayoutID: payout.ID}); err != nil {
		logger.Warnw("payout_enqueue_dispatch_failed", "payout_id", payout.ID, "error", err)
	}
	return payout, nil
}

// Complete finalizes a processing request: the fee comes off, bound
// commissions become paid, and the distributor is notified.
func (s *PayoutService) Complete(payoutID uint) (*models.PayoutRequest, error) {
	payout, err := s.transition(payoutID, constants.PayoutStatusCompleted, "", func(p *models.PayoutRequest, tx *gorm.DB) error {
		p.FeeCents = models.ApplyPercent(p.AmountCents, s.compPlan.PayoutFeePercent)
		p.NetCents = p.AmountCents - p.FeeCents
		now := time.Now()
		p.CompletedAt = &now
		return s.commissionRepo.WithTx(tx).MarkPaidByPayout(p.ID)
	})
	if err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Kind:          constants.NotificationPayoutCompleted,
		DistributorID: payout.DistributorID,
		RefID:         payout.ID,
	}); err != nil {
		logger.Warnw("payout_enqueue_notification_failed", "payout_id", payout.ID, "error", err)
	}
	return payout, nil
}

// Fail records a transfer failure. The request returns to pending by a
// subsequent Retry; the locked commissions stay bound meanwhile.
func (s *PayoutService) Fail(payoutID uint, reason string) (*models.PayoutRequest, error) {
	payout, err := s.transition(payoutID, constants.PayoutStatusFailed, reason, nil)
	if err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueNotification(queue.NotificationPayload{
		Kind:          constants.NotificationPayoutFailed,
		DistributorID: payout.DistributorID,
		RefID:         payout.ID,
		Detail:        reason,
	}); err != nil {
		logger.Warnw("payout_enqueue_notification_failed", "payout_id", payout.ID, "error", err)
	}
	return payout, nil
}

// Retry moves a failed request back to pending.
func (s *PayoutService) Retry(payoutID uint) (*models.PayoutRequest, error) {
	return s.transition(payoutID, constants.PayoutStatusPending, "", func(p *models.PayoutRequest, tx *gorm.DB) error {
		p.FailReason = ""
		return nil
	})
}

// transition applies one status change under a row lock, running extra
// inside the same transaction.
func (s *PayoutService) transition(payoutID uint, to, failReason string, extra func(*models.PayoutRequest, *gorm.DB) error) (*models.PayoutRequest, error) {
	var payout *models.PayoutRequest
	err := s.distributorRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.payoutRepo.WithTx(tx)
		p, err := repo.GetByIDForUpdate(payoutID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPayoutNotFound
		}
		if !payoutTransitions[p.Status][to] {
			return ErrInvalidTransition
		}
		from := p.Status
		p.Status = to
		if failReason != "" {
			p.FailReason = failReason
		}
		if extra != nil {
			if err := extra(p, tx); err != nil {
				return err
			}
		}
		if err := repo.Update(p); err != nil {
			return err
		}
		logger.Infow("payout_status_changed",
			"payout_id", p.ID,
			"from", from,
			"to", to,
		)
		payout = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// AvailableBalance sums approved commissions not yet locked to a payout.
func (s *PayoutService) AvailableBalance(distributorID uint) (models.Cents, error) {
	records, err := s.commissionRepo.ListUnpaidApproved(distributorID)
	if err != nil {
		return 0, err
	}
	var total models.Cents
	for _, record := range records {
		total += record.AmountCents
	}
	return total, nil
}

// ListPayouts lists payout requests.
func (s *PayoutService) ListPayouts(filter repository.PayoutListFilter) ([]models.PayoutRequest, int64, error) {
	return s.payoutRepo.List(filter)
}

// GetPayout fetches one payout request.
func (s *PayoutService) GetPayout(payoutID uint) (*models.PayoutRequest, error) {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}
	return payout, nil
}

func validateMethod(input RequestPayoutInput) error {
	switch input.Method {
	case constants.PayoutMethodPaypal:
		if _, err := mail.ParseAddress(strings.TrimSpace(input.PaypalEmail)); err != nil {
			return ErrMissingPayoutDetail
		}
	case constants.PayoutMethodCheck:
		if strings.TrimSpace(input.MailingAddr) == "" {
			return ErrMissingPayoutDetail
		}
	case constants.PayoutMethodStripeConnect, constants.PayoutMethodBankTransfer:
		// Account linkage is managed out of band for these methods.
	default:
		return ErrInvalidPayoutMethod
	}
	return nil
}
