package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/congrego/congrego/internal/audit/domain"
	"github.com/congrego/congrego/internal/clock"
	"github.com/congrego/congrego/internal/config"
	eventdomain "github.com/congrego/congrego/internal/event/domain"
	"github.com/congrego/congrego/internal/events"
	inscriptiondomain "github.com/congrego/congrego/internal/inscription/domain"
	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
	"github.com/congrego/congrego/internal/payment/domain"
	"github.com/congrego/congrego/internal/payment/gateway"
)

// errDuplicateReplay aborts a confirmation transaction when a concurrent
// delivery won the installment insert. The caller answers with the current
// payment state instead of surfacing an error.
var errDuplicateReplay = errors.New("duplicate_installment_replay")

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Cfg             config.Config
	Clock           clock.Clock
	Repo            domain.Repository
	AllocationRepo  domain.AllocationRepository
	InstallmentRepo domain.InstallmentRepository
	InscriptionRepo inscriptiondomain.Repository
	EventRepo       eventdomain.Repository
	LedgerSvc       ledgerdomain.Service
	Audit           auditdomain.Recorder
	Outbox          *events.Outbox
	Gateway         gateway.Checkout `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	tolerance       decimal.Decimal
	clock           clock.Clock
	repo            domain.Repository
	allocationRepo  domain.AllocationRepository
	installmentRepo domain.InstallmentRepository
	inscriptionRepo inscriptiondomain.Repository
	eventRepo       eventdomain.Repository
	ledgerSvc       ledgerdomain.Service
	audit           auditdomain.Recorder
	outbox          *events.Outbox
	gateway         gateway.Checkout
}

func NewService(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("payment.service"),
		genID:           p.GenID,
		tolerance:       p.Cfg.SettleTolerance,
		clock:           p.Clock,
		repo:            p.Repo,
		allocationRepo:  p.AllocationRepo,
		installmentRepo: p.InstallmentRepo,
		inscriptionRepo: p.InscriptionRepo,
		eventRepo:       p.EventRepo,
		ledgerSvc:       p.LedgerSvc,
		audit:           p.Audit,
		outbox:          p.Outbox,
		gateway:         p.Gateway,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResponse, error) {
	if len(req.InscriptionIDs) == 0 {
		return nil, domain.ErrMissingInscriptionID
	}
	for _, id := range req.InscriptionIDs {
		if id == 0 {
			return nil, domain.ErrInvalidInscriptionID
		}
	}

	payment, err := domain.NewPayment(s.genID.Generate(), req.EventID, req.Payer, req.Method, req.TotalValue, req.Installments)
	if err != nil {
		return nil, err
	}
	if req.ImageURL != "" {
		imageURL := req.ImageURL
		payment.ImageURL = &imageURL
	}

	target, err := s.eventRepo.FindByID(ctx, s.db, req.EventID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, eventdomain.ErrEventNotFound
	}

	// Preliminary guard pass without locks so a doomed request never
	// reaches the gateway.
	if _, err := s.validateTargets(ctx, s.db, req, false); err != nil {
		return nil, err
	}

	var checkoutLink string
	if req.CreateCheckout {
		if s.gateway == nil {
			return nil, domain.ErrGatewayUnavailable
		}
		reference := payment.ID.String()
		session, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
			ExternalReference: reference,
			Value:             payment.TotalValue,
			Installments:      payment.Installments,
			CustomerName:      req.Payer.GuestName,
			CustomerEmail:     req.Payer.GuestEmail,
		})
		if err != nil {
			s.log.Warn("checkout creation failed", zap.Error(err))
			return nil, domain.ErrGatewayUnavailable
		}
		payment.AsaasCheckoutID = &session.ID
		payment.ExternalReference = &reference
		checkoutLink = session.Link
	}

	response := &domain.CreateResponse{Payment: payment, CheckoutLink: checkoutLink}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guards run again under row locks: a concurrent payment against
		// the same inscriptions must not slip past the overpayment check.
		targets, err := s.validateTargets(ctx, tx, req, true)
		if err != nil {
			return err
		}

		lines, err := domain.Allocate(payment.TotalValue, targets)
		if err != nil {
			return err
		}

		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}

		allocations := make([]domain.Allocation, 0, len(lines))
		deltas := make([]inscriptiondomain.BalanceDelta, 0, len(lines))
		for _, line := range lines {
			allocations = append(allocations, domain.Allocation{
				ID:            s.genID.Generate(),
				PaymentID:     payment.ID,
				InscriptionID: line.InscriptionID,
				Value:         line.Value,
			})
			deltas = append(deltas, inscriptiondomain.BalanceDelta{
				InscriptionID: line.InscriptionID,
				Value:         line.Value,
			})
		}
		if err := s.allocationRepo.InsertBatch(ctx, tx, allocations); err != nil {
			return err
		}
		if err := s.inscriptionRepo.IncrementTotalPaid(ctx, tx, deltas); err != nil {
			return err
		}
		response.Allocations = allocations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// validateTargets resolves the selected inscriptions in request order and
// runs the release-gate and overpayment guards. With lock set, each row is
// read FOR UPDATE so the guard holds under concurrency.
func (s *Service) validateTargets(ctx context.Context, db *gorm.DB, req domain.CreateRequest, lock bool) ([]domain.AllocationTarget, error) {
	targets := make([]domain.AllocationTarget, 0, len(req.InscriptionIDs))
	totalDebt := decimal.Zero
	for _, id := range req.InscriptionIDs {
		var inscription *inscriptiondomain.Inscription
		var err error
		if lock {
			inscription, err = s.inscriptionRepo.FindForUpdate(ctx, db, id)
		} else {
			inscription, err = s.inscriptionRepo.FindByID(ctx, db, id)
		}
		if err != nil {
			return nil, err
		}
		if inscription == nil {
			return nil, domain.ErrInvalidInscriptionID
		}
		if !inscription.AcceptsPayment() {
			return nil, domain.ErrInscriptionNotReleased
		}
		debt := inscription.RemainingDebt()
		totalDebt = totalDebt.Add(debt)
		targets = append(targets, domain.AllocationTarget{
			InscriptionID: inscription.ID,
			RemainingDebt: debt,
		})
	}
	if req.TotalValue.GreaterThan(totalDebt) {
		return nil, domain.ErrOverpaymentNotAllowed
	}
	return targets, nil
}

func (s *Service) Approve(ctx context.Context, paymentID, reviewerID snowflake.ID) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.repo.FindForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}

		wasReverted := payment.RevertedAt != nil
		if err := payment.Approve(reviewerID); err != nil {
			return err
		}

		allocations, err := s.allocationRepo.FindByPaymentID(ctx, tx, payment.ID)
		if err != nil {
			return err
		}

		// A reverted payment had its inscription credits compensated;
		// re-approval puts them back before settling statuses.
		if wasReverted {
			deltas := make([]inscriptiondomain.BalanceDelta, 0, len(allocations))
			for _, allocation := range allocations {
				deltas = append(deltas, inscriptiondomain.BalanceDelta{
					InscriptionID: allocation.InscriptionID,
					Value:         allocation.Value,
				})
			}
			if err := s.inscriptionRepo.IncrementTotalPaid(ctx, tx, deltas); err != nil {
				return err
			}
		}

		movement, err := s.ledgerSvc.CreateTx(ctx, tx, ledgerdomain.CreateMovement{
			EventID:     payment.EventID,
			AccountID:   payment.AccountID,
			Type:        ledgerdomain.MovementTypeIncome,
			Value:       payment.TotalValue,
			Description: "payment approval",
		})
		if err != nil {
			return err
		}
		payment.FinancialMovementID = &movement.ID

		if err := s.eventRepo.IncrementAmountCollected(ctx, tx, payment.EventID, payment.TotalValue); err != nil {
			return err
		}

		if err := s.settleInscriptions(ctx, tx, payment, allocations); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
			PaymentID: payment.ID,
			Action:    events.EventPaymentApproved,
			Metadata: map[string]any{
				"reviewer_id": reviewerID.String(),
				"value":       payment.TotalValue.StringFixed(2),
			},
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentApproved,
			Payload: events.PaymentPayload{
				PaymentID: payment.ID.String(),
				EventID:   payment.EventID.String(),
				Value:     payment.TotalValue.StringFixed(2),
				Method:    string(payment.Method),
			}.ToMap(),
			DedupeKey: "payment.approved:" + payment.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Reject(ctx context.Context, paymentID snowflake.ID, reason string) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.repo.FindForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		if err := payment.Reject(reason); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
			PaymentID: payment.ID,
			Action:    events.EventPaymentRejected,
			Metadata:  map[string]any{"reason": reason},
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentRejected,
			Payload: events.PaymentPayload{
				PaymentID: payment.ID.String(),
				EventID:   payment.EventID.String(),
				Value:     payment.TotalValue.StringFixed(2),
				Reason:    reason,
			}.ToMap(),
			DedupeKey: "payment.rejected:" + payment.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) Revert(ctx context.Context, paymentID snowflake.ID) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.repo.FindForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		if payment.Status != domain.StatusApproved {
			return domain.ErrInvalidStatusTransition
		}

		allocations, err := s.allocationRepo.FindByPaymentID(ctx, tx, payment.ID)
		if err != nil {
			return err
		}

		// Step 1: give the value back to the inscriptions' remaining debt.
		deltas := make([]inscriptiondomain.BalanceDelta, 0, len(allocations))
		for _, allocation := range allocations {
			deltas = append(deltas, inscriptiondomain.BalanceDelta{
				InscriptionID: allocation.InscriptionID,
				Value:         allocation.Value.Neg(),
			})
		}
		if err := s.inscriptionRepo.IncrementTotalPaid(ctx, tx, deltas); err != nil {
			return err
		}

		// Step 2: delete every ledger row the payment produced. Manual
		// approval stores its movement on the payment; gateway confirmations
		// store theirs on the installment rows. Revert and re-approve cycles
		// can leave the payment with either kind, so both are compensated.
		compensated, err := s.deleteMovement(ctx, tx, payment.FinancialMovementID)
		if err != nil {
			return err
		}
		installments, err := s.installmentRepo.FindByPaymentID(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		for _, installment := range installments {
			value, err := s.deleteMovement(ctx, tx, installment.FinancialMovementID)
			if err != nil {
				return err
			}
			compensated = compensated.Add(value)
		}

		// Step 3: pull exactly what those rows carried back out of the
		// event aggregate.
		if compensated.IsPositive() {
			if err := s.eventRepo.IncrementAmountCollected(ctx, tx, payment.EventID, compensated.Neg()); err != nil {
				return err
			}
		}

		// Step 4: inscriptions that no longer cover their debt fall back
		// to PENDING.
		for _, allocation := range allocations {
			inscription, err := s.inscriptionRepo.FindForUpdate(ctx, tx, allocation.InscriptionID)
			if err != nil {
				return err
			}
			if inscription == nil {
				return domain.ErrInvalidInscriptionID
			}
			if inscription.Status == inscriptiondomain.StatusPaid && !inscription.IsFullyPaid(s.tolerance) {
				if err := s.inscriptionRepo.UpdateStatus(ctx, tx, inscription.ID, inscriptiondomain.StatusPending); err != nil {
					return err
				}
				if err := s.eventRepo.IncrementQuantityParticipants(ctx, tx, payment.EventID, -1); err != nil {
					return err
				}
			}
		}

		// Step 5: the payment returns to review.
		if err := payment.Revert(s.clock.Now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
			PaymentID: payment.ID,
			Action:    events.EventPaymentReverted,
			Metadata:  map[string]any{"compensated": compensated.StringFixed(2)},
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentReverted,
			Payload: events.PaymentPayload{
				PaymentID: payment.ID.String(),
				EventID:   payment.EventID.String(),
				Value:     payment.TotalValue.StringFixed(2),
			}.ToMap(),
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// deleteMovement compensates one ledger row and returns the value it
// carried. A nil or already-compensated movement contributes zero.
func (s *Service) deleteMovement(ctx context.Context, tx *gorm.DB, id *snowflake.ID) (decimal.Decimal, error) {
	if id == nil {
		return decimal.Zero, nil
	}
	movement, err := s.ledgerSvc.DeleteTx(ctx, tx, *id)
	if errors.Is(err, ledgerdomain.ErrMovementNotFound) {
		s.log.Warn("compensating movement already absent", zap.String("movement_id", id.String()))
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return movement.Value, nil
}

func (s *Service) ConfirmInstallment(ctx context.Context, notif domain.InstallmentNotification) (*domain.Payment, error) {
	if notif.AsaasPaymentID == "" {
		return nil, domain.ErrInvalidInstallment
	}
	if notif.CheckoutID == "" {
		return nil, domain.ErrMissingExternalReference
	}

	var payment *domain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Replay guard: a repeated callback returns the current state and
		// credits nothing.
		existing, err := s.installmentRepo.FindByAsaasPaymentID(ctx, tx, notif.AsaasPaymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			payment, err = s.repo.FindByID(ctx, tx, existing.PaymentID)
			if err != nil {
				return err
			}
			if payment == nil {
				return domain.ErrPaymentNotFound
			}
			s.log.Info("installment replay ignored", zap.String("asaas_payment_id", notif.AsaasPaymentID))
			return nil
		}

		found, err := s.repo.FindByCheckoutID(ctx, tx, notif.CheckoutID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrPaymentNotFound
		}
		payment, err = s.repo.FindForUpdate(ctx, tx, found.ID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}

		if err := payment.RegisterInstallment(notif.Value, notif.NetValue, notif.InstallmentCount); err != nil {
			return err
		}

		// The ledger entry carries the net amount; processor fees never
		// reach the event's books.
		movement, err := s.ledgerSvc.CreateTx(ctx, tx, ledgerdomain.CreateMovement{
			EventID:     payment.EventID,
			AccountID:   payment.AccountID,
			Type:        ledgerdomain.MovementTypeIncome,
			Value:       notif.NetValue,
			Description: "installment confirmation",
		})
		if err != nil {
			return err
		}

		number := notif.InstallmentNumber
		if number <= 0 {
			number = payment.PaidInstallments
		}
		inserted, err := s.installmentRepo.Insert(ctx, tx, &domain.Installment{
			ID:                  s.genID.Generate(),
			PaymentID:           payment.ID,
			InstallmentNumber:   number,
			Value:               notif.Value,
			NetValue:            notif.NetValue,
			AsaasPaymentID:      notif.AsaasPaymentID,
			FinancialMovementID: &movement.ID,
			PaidAt:              notif.PaidAt,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return errDuplicateReplay
		}

		if err := s.eventRepo.IncrementAmountCollected(ctx, tx, payment.EventID, notif.NetValue); err != nil {
			return err
		}

		if payment.EligibleForRelease() {
			payment.Release()
			allocations, err := s.allocationRepo.FindByPaymentID(ctx, tx, payment.ID)
			if err != nil {
				return err
			}
			if err := s.settleInscriptions(ctx, tx, payment, allocations); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.audit.RecordTx(ctx, tx, auditdomain.Entry{
			PaymentID: payment.ID,
			Action:    events.EventPaymentInstallmentConfirmed,
			Metadata: map[string]any{
				"asaas_payment_id": notif.AsaasPaymentID,
				"net_value":        notif.NetValue.StringFixed(2),
			},
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentInstallmentConfirmed,
			Payload: events.PaymentPayload{
				PaymentID: payment.ID.String(),
				EventID:   payment.EventID.String(),
				Value:     notif.Value.StringFixed(2),
				Method:    string(payment.Method),
			}.ToMap(),
			DedupeKey: "payment.installment:" + notif.AsaasPaymentID,
		})
	})
	if errors.Is(err, errDuplicateReplay) {
		// A concurrent delivery won the insert; answer with its outcome.
		return s.GetByID(ctx, payment.ID)
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// settleInscriptions flips allocated inscriptions to PAID. Card payments
// release unconditionally once eligible; other methods require the balance
// to actually cover the debt.
func (s *Service) settleInscriptions(ctx context.Context, tx *gorm.DB, payment *domain.Payment, allocations []domain.Allocation) error {
	for _, allocation := range allocations {
		inscription, err := s.inscriptionRepo.FindForUpdate(ctx, tx, allocation.InscriptionID)
		if err != nil {
			return err
		}
		if inscription == nil {
			return domain.ErrInvalidInscriptionID
		}
		if inscription.Status == inscriptiondomain.StatusPaid {
			continue
		}
		if payment.Method != domain.MethodCard && !inscription.IsFullyPaid(s.tolerance) {
			continue
		}
		if err := s.inscriptionRepo.UpdateStatus(ctx, tx, inscription.ID, inscriptiondomain.StatusPaid); err != nil {
			return err
		}
		if err := s.eventRepo.IncrementQuantityParticipants(ctx, tx, payment.EventID, 1); err != nil {
			return err
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventInscriptionPaid,
			Payload: events.InscriptionPaidPayload{
				InscriptionID: inscription.ID.String(),
				PaymentID:     payment.ID.String(),
			}.ToMap(),
			DedupeKey: "inscription.paid:" + inscription.ID.String() + ":" + payment.ID.String(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, paymentID snowflake.ID) (*domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}
