package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditdomain "github.com/congrego/congrego/internal/audit/domain"
	auditrepository "github.com/congrego/congrego/internal/audit/repository"
	auditservice "github.com/congrego/congrego/internal/audit/service"
	"github.com/congrego/congrego/internal/clock"
	"github.com/congrego/congrego/internal/config"
	eventdomain "github.com/congrego/congrego/internal/event/domain"
	eventrepository "github.com/congrego/congrego/internal/event/repository"
	"github.com/congrego/congrego/internal/events"
	inscriptiondomain "github.com/congrego/congrego/internal/inscription/domain"
	inscriptionrepository "github.com/congrego/congrego/internal/inscription/repository"
	ledgerdomain "github.com/congrego/congrego/internal/ledger/domain"
	ledgerrepository "github.com/congrego/congrego/internal/ledger/repository"
	ledgerservice "github.com/congrego/congrego/internal/ledger/service"
	"github.com/congrego/congrego/internal/payment/domain"
	"github.com/congrego/congrego/internal/payment/repository"
)

func dec(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", raw, err)
	}
	return value
}

type harness struct {
	db      *gorm.DB
	svc     domain.Service
	eventID snowflake.ID
}

func setupHarness(t *testing.T) *harness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&eventdomain.Event{},
		&inscriptiondomain.Inscription{},
		&ledgerdomain.FinancialMovement{},
		&domain.Payment{},
		&domain.Allocation{},
		&domain.Installment{},
		&auditdomain.ReviewLog{},
		&events.Row{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()
	cfg := config.Config{SettleTolerance: dec(t, "0.01")}

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Repo:  ledgerrepository.Provide(),
	})

	svc := NewService(Params{
		DB:              conn,
		Log:             log,
		GenID:           node,
		Cfg:             cfg,
		Clock:           clock.SystemClock{},
		Repo:            repository.Provide(),
		AllocationRepo:  repository.ProvideAllocations(),
		InstallmentRepo: repository.ProvideInstallments(),
		InscriptionRepo: inscriptionrepository.Provide(),
		EventRepo:       eventrepository.Provide(),
		LedgerSvc:       ledgerSvc,
		Audit: auditservice.NewService(auditservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Repo:  auditrepository.Provide(),
		}),
		Outbox: events.NewOutbox(conn, node),
	})

	h := &harness{db: conn, svc: svc, eventID: node.Generate()}
	if err := conn.Create(&eventdomain.Event{
		ID:              h.eventID,
		Name:            "Annual Conference",
		AmountCollected: decimal.Zero,
	}).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return h
}

func (h *harness) newInscription(t *testing.T, total, paid string, status inscriptiondomain.Status) snowflake.ID {
	t.Helper()
	var count int64
	h.db.Model(&inscriptiondomain.Inscription{}).Count(&count)
	id := h.eventID + snowflake.ID(count+1)
	if err := h.db.Create(&inscriptiondomain.Inscription{
		ID:              id,
		EventID:         h.eventID,
		ParticipantName: "Participant",
		TotalValue:      dec(t, total),
		TotalPaid:       dec(t, paid),
		Status:          status,
	}).Error; err != nil {
		t.Fatalf("seed inscription: %v", err)
	}
	return id
}

func (h *harness) inscription(t *testing.T, id snowflake.ID) inscriptiondomain.Inscription {
	t.Helper()
	var inscription inscriptiondomain.Inscription
	if err := h.db.First(&inscription, "id = ?", id).Error; err != nil {
		t.Fatalf("load inscription: %v", err)
	}
	return inscription
}

func (h *harness) event(t *testing.T) eventdomain.Event {
	t.Helper()
	var event eventdomain.Event
	if err := h.db.First(&event, "id = ?", h.eventID).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	return event
}

func (h *harness) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var count int64
	if err := h.db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func (h *harness) create(t *testing.T, method domain.Method, total string, installments int, inscriptionIDs ...snowflake.ID) *domain.CreateResponse {
	t.Helper()
	response, err := h.svc.Create(context.Background(), domain.CreateRequest{
		EventID:        h.eventID,
		Payer:          domain.GuestPayer("Ana Souza", "ana@example.com"),
		Method:         method,
		TotalValue:     dec(t, total),
		Installments:   installments,
		InscriptionIDs: inscriptionIDs,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return response
}

func TestCreateAllocatesInSelectionOrder(t *testing.T) {
	h := setupHarness(t)
	first := h.newInscription(t, "100.00", "70.00", inscriptiondomain.StatusPending)
	second := h.newInscription(t, "50.00", "0", inscriptiondomain.StatusPending)

	response := h.create(t, domain.MethodPix, "80.00", 1, first, second)

	if len(response.Allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(response.Allocations))
	}
	if !response.Allocations[0].Value.Equal(dec(t, "30.00")) {
		t.Fatalf("first allocation should cap at remaining debt, got %s", response.Allocations[0].Value)
	}
	if !response.Allocations[1].Value.Equal(dec(t, "50.00")) {
		t.Fatalf("second allocation wrong: %s", response.Allocations[1].Value)
	}

	sum := decimal.Zero
	for _, allocation := range response.Allocations {
		sum = sum.Add(allocation.Value)
	}
	if !sum.Equal(response.Payment.TotalValue) {
		t.Fatalf("conservation broken: allocated %s of %s", sum, response.Payment.TotalValue)
	}

	if got := h.inscription(t, first).TotalPaid; !got.Equal(dec(t, "100.00")) {
		t.Fatalf("first inscription balance wrong: %s", got)
	}
	if got := h.inscription(t, second).TotalPaid; !got.Equal(dec(t, "50.00")) {
		t.Fatalf("second inscription balance wrong: %s", got)
	}
}

func TestCreateOverpaymentLeavesNothingBehind(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "50.00", "0", inscriptiondomain.StatusPending)

	_, err := h.svc.Create(context.Background(), domain.CreateRequest{
		EventID:        h.eventID,
		Payer:          domain.GuestPayer("Ana Souza", "ana@example.com"),
		Method:         domain.MethodPix,
		TotalValue:     dec(t, "90.00"),
		InscriptionIDs: []snowflake.ID{inscription},
	})
	if !errors.Is(err, domain.ErrOverpaymentNotAllowed) {
		t.Fatalf("expected overpayment error, got %v", err)
	}

	if count := h.countRows(t, &domain.Payment{}); count != 0 {
		t.Fatalf("payment persisted despite guard: %d rows", count)
	}
	if count := h.countRows(t, &domain.Allocation{}); count != 0 {
		t.Fatalf("allocations persisted despite guard: %d rows", count)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("ledger row persisted despite guard: %d rows", count)
	}
	if got := h.inscription(t, inscription).TotalPaid; !got.IsZero() {
		t.Fatalf("inscription balance mutated despite guard: %s", got)
	}
}

func TestCreateReleaseGate(t *testing.T) {
	h := setupHarness(t)
	blocked := h.newInscription(t, "50.00", "0", inscriptiondomain.StatusUnderReview)

	_, err := h.svc.Create(context.Background(), domain.CreateRequest{
		EventID:        h.eventID,
		Payer:          domain.GuestPayer("Ana Souza", "ana@example.com"),
		Method:         domain.MethodPix,
		TotalValue:     dec(t, "50.00"),
		InscriptionIDs: []snowflake.ID{blocked},
	})
	if !errors.Is(err, domain.ErrInscriptionNotReleased) {
		t.Fatalf("expected release gate error, got %v", err)
	}
}

func TestCreateGuardsInscriptionIDs(t *testing.T) {
	h := setupHarness(t)

	_, err := h.svc.Create(context.Background(), domain.CreateRequest{
		EventID:    h.eventID,
		Payer:      domain.GuestPayer("Ana Souza", "ana@example.com"),
		Method:     domain.MethodPix,
		TotalValue: dec(t, "50.00"),
	})
	if !errors.Is(err, domain.ErrMissingInscriptionID) {
		t.Fatalf("expected missing id error, got %v", err)
	}

	_, err = h.svc.Create(context.Background(), domain.CreateRequest{
		EventID:        h.eventID,
		Payer:          domain.GuestPayer("Ana Souza", "ana@example.com"),
		Method:         domain.MethodPix,
		TotalValue:     dec(t, "50.00"),
		InscriptionIDs: []snowflake.ID{snowflake.ID(424242)},
	})
	if !errors.Is(err, domain.ErrInvalidInscriptionID) {
		t.Fatalf("expected dangling id error, got %v", err)
	}
}

func TestApproveFullSettlement(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	approved, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}
	if approved.FinancialMovementID == nil {
		t.Fatalf("approval must record its ledger row")
	}

	row := h.inscription(t, inscription)
	if !row.TotalPaid.Equal(dec(t, "100.00")) {
		t.Fatalf("inscription balance wrong: %s", row.TotalPaid)
	}
	if row.Status != inscriptiondomain.StatusPaid {
		t.Fatalf("settled inscription should be PAID, got %s", row.Status)
	}

	event := h.event(t)
	if !event.AmountCollected.Equal(dec(t, "100.00")) {
		t.Fatalf("event aggregate wrong: %s", event.AmountCollected)
	}
	if event.QuantityParticipants != 1 {
		t.Fatalf("participant count wrong: %d", event.QuantityParticipants)
	}

	var movements []ledgerdomain.FinancialMovement
	if err := h.db.Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected exactly one movement, got %d", len(movements))
	}
	if !movements[0].Value.Equal(dec(t, "100.00")) || movements[0].Type != ledgerdomain.MovementTypeIncome {
		t.Fatalf("movement wrong: %+v", movements[0])
	}
}

func TestApproveSettlesMultipleInscriptions(t *testing.T) {
	h := setupHarness(t)
	first := h.newInscription(t, "100.00", "70.00", inscriptiondomain.StatusPending)
	second := h.newInscription(t, "50.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "80.00", 1, first, second)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if got := h.inscription(t, first).Status; got != inscriptiondomain.StatusPaid {
		t.Fatalf("first inscription should be PAID, got %s", got)
	}
	if got := h.inscription(t, second).Status; got != inscriptiondomain.StatusPaid {
		t.Fatalf("second inscription should be PAID, got %s", got)
	}
}

func TestApprovePartialCoverageKeepsPending(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "40.00", 1, inscription)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPending {
		t.Fatalf("partially covered inscription must stay PENDING, got %s", row.Status)
	}
	if !row.TotalPaid.Equal(dec(t, "40.00")) {
		t.Fatalf("balance wrong: %s", row.TotalPaid)
	}
}

func TestApproveNotFound(t *testing.T) {
	h := setupHarness(t)
	_, err := h.svc.Approve(context.Background(), snowflake.ID(999999), snowflake.ID(1))
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectTouchesNothingButThePayment(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	rejected, err := h.svc.Reject(context.Background(), response.Payment.ID, "proof does not match")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.StatusRefused {
		t.Fatalf("expected REFUSED, got %s", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "proof does not match" {
		t.Fatalf("rejection reason lost")
	}

	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("reject must not write ledger rows, got %d", count)
	}
	if got := h.event(t).AmountCollected; !got.IsZero() {
		t.Fatalf("reject must not touch the event aggregate, got %s", got)
	}

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(1)); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("REFUSED must be terminal, got %v", err)
	}
}

func TestRevertRoundTrip(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	reverted, err := h.svc.Revert(context.Background(), response.Payment.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}

	if reverted.Status != domain.StatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", reverted.Status)
	}
	if reverted.FinancialMovementID != nil || reverted.ApprovedBy != nil {
		t.Fatalf("revert must clear approval bookkeeping")
	}

	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPending {
		t.Fatalf("inscription must roll back to PENDING, got %s", row.Status)
	}
	if !row.TotalPaid.IsZero() {
		t.Fatalf("inscription balance must roll back, got %s", row.TotalPaid)
	}

	event := h.event(t)
	if !event.AmountCollected.IsZero() {
		t.Fatalf("event aggregate must roll back, got %s", event.AmountCollected)
	}
	if event.QuantityParticipants != 0 {
		t.Fatalf("participant count must roll back, got %d", event.QuantityParticipants)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("compensated movement still present: %d rows", count)
	}
	if count := h.countRows(t, &domain.Allocation{}); count != 1 {
		t.Fatalf("reversal must not delete allocations, got %d rows", count)
	}
}

func TestReapproveAfterRevert(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := h.svc.Revert(context.Background(), response.Payment.ID); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(778)); err != nil {
		t.Fatalf("re-approve: %v", err)
	}

	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPaid || !row.TotalPaid.Equal(dec(t, "100.00")) {
		t.Fatalf("re-approval must restore settlement: status=%s paid=%s", row.Status, row.TotalPaid)
	}
	if got := h.event(t).AmountCollected; !got.Equal(dec(t, "100.00")) {
		t.Fatalf("event aggregate after re-approval wrong: %s", got)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 1 {
		t.Fatalf("expected one live movement after re-approval, got %d", count)
	}
}

func attachCheckout(t *testing.T, h *harness, paymentID snowflake.ID, checkoutID string) {
	t.Helper()
	if err := h.db.Exec(
		`UPDATE payments SET asaas_checkout_id = ? WHERE id = ?`, checkoutID, paymentID,
	).Error; err != nil {
		t.Fatalf("attach checkout: %v", err)
	}
}

func TestConfirmInstallmentCardReleasesEarly(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "300.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodCard, "300.00", 3, inscription)
	attachCheckout(t, h, response.Payment.ID, "chk_abc")

	notif := domain.InstallmentNotification{
		CheckoutID:        "chk_abc",
		AsaasPaymentID:    "pay_001",
		Value:             dec(t, "100.00"),
		NetValue:          dec(t, "97.02"),
		InstallmentNumber: 1,
		InstallmentCount:  3,
	}
	confirmed, err := h.svc.ConfirmInstallment(context.Background(), notif)
	if err != nil {
		t.Fatalf("confirm installment: %v", err)
	}

	if confirmed.Status != domain.StatusApproved {
		t.Fatalf("card payment with 1 confirmed installment must release, got %s", confirmed.Status)
	}
	if confirmed.PaidInstallments != 1 || confirmed.Installments != 3 {
		t.Fatalf("installment counters wrong: %d/%d", confirmed.PaidInstallments, confirmed.Installments)
	}
	if !confirmed.TotalPaid.Equal(dec(t, "100.00")) || !confirmed.TotalNetValue.Equal(dec(t, "97.02")) {
		t.Fatalf("totals wrong: paid=%s net=%s", confirmed.TotalPaid, confirmed.TotalNetValue)
	}

	if got := h.inscription(t, inscription).Status; got != inscriptiondomain.StatusPaid {
		t.Fatalf("card release must settle the inscription, got %s", got)
	}

	// The ledger carries the net amount, not the gross.
	var movements []ledgerdomain.FinancialMovement
	if err := h.db.Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 || !movements[0].Value.Equal(dec(t, "97.02")) {
		t.Fatalf("expected one net-valued movement, got %+v", movements)
	}
	if got := h.event(t).AmountCollected; !got.Equal(dec(t, "97.02")) {
		t.Fatalf("event aggregate should hold the net value, got %s", got)
	}
}

func TestConfirmInstallmentReplayIsIdempotent(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "300.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodCard, "300.00", 3, inscription)
	attachCheckout(t, h, response.Payment.ID, "chk_abc")

	notif := domain.InstallmentNotification{
		CheckoutID:       "chk_abc",
		AsaasPaymentID:   "pay_001",
		Value:            dec(t, "100.00"),
		NetValue:         dec(t, "97.02"),
		InstallmentCount: 3,
	}
	first, err := h.svc.ConfirmInstallment(context.Background(), notif)
	if err != nil {
		t.Fatalf("first confirmation: %v", err)
	}
	replay, err := h.svc.ConfirmInstallment(context.Background(), notif)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if replay.PaidInstallments != first.PaidInstallments {
		t.Fatalf("replay changed paid installments: %d vs %d", replay.PaidInstallments, first.PaidInstallments)
	}
	if !replay.TotalPaid.Equal(first.TotalPaid) {
		t.Fatalf("replay changed total paid: %s vs %s", replay.TotalPaid, first.TotalPaid)
	}
	if count := h.countRows(t, &domain.Installment{}); count != 1 {
		t.Fatalf("replay created an installment row: %d rows", count)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 1 {
		t.Fatalf("replay created a ledger row: %d rows", count)
	}
	if got := h.event(t).AmountCollected; !got.Equal(dec(t, "97.02")) {
		t.Fatalf("replay double-credited the event aggregate: %s", got)
	}
}

func TestConfirmInstallmentAccumulatesToFullPayment(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "300.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodCard, "300.00", 3, inscription)
	attachCheckout(t, h, response.Payment.ID, "chk_abc")

	for i := 1; i <= 3; i++ {
		_, err := h.svc.ConfirmInstallment(context.Background(), domain.InstallmentNotification{
			CheckoutID:        "chk_abc",
			AsaasPaymentID:    fmt.Sprintf("pay_%03d", i),
			Value:             dec(t, "100.00"),
			NetValue:          dec(t, "97.02"),
			InstallmentNumber: i,
			InstallmentCount:  3,
		})
		if err != nil {
			t.Fatalf("confirm installment %d: %v", i, err)
		}
	}

	payment, err := h.svc.GetByID(context.Background(), response.Payment.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if !payment.IsFullyPaid() {
		t.Fatalf("expected fully paid after 3 of 3, got %d/%d", payment.PaidInstallments, payment.Installments)
	}
	if !payment.TotalPaid.Equal(dec(t, "300.00")) {
		t.Fatalf("gross accumulation wrong: %s", payment.TotalPaid)
	}
	if !payment.TotalNetValue.Equal(dec(t, "291.06")) {
		t.Fatalf("net accumulation wrong: %s", payment.TotalNetValue)
	}
	if count := h.countRows(t, &domain.Installment{}); count != 3 {
		t.Fatalf("expected 3 installment rows, got %d", count)
	}
}

func TestConfirmInstallmentUnknownCheckout(t *testing.T) {
	h := setupHarness(t)
	_, err := h.svc.ConfirmInstallment(context.Background(), domain.InstallmentNotification{
		CheckoutID:     "chk_missing",
		AsaasPaymentID: "pay_001",
		Value:          dec(t, "100.00"),
		NetValue:       dec(t, "97.02"),
	})
	if !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected payment not found, got %v", err)
	}
}

func TestCardRevertCompensatesInstallments(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "300.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodCard, "300.00", 3, inscription)
	attachCheckout(t, h, response.Payment.ID, "chk_abc")

	for i := 1; i <= 2; i++ {
		_, err := h.svc.ConfirmInstallment(context.Background(), domain.InstallmentNotification{
			CheckoutID:       "chk_abc",
			AsaasPaymentID:   fmt.Sprintf("pay_%03d", i),
			Value:            dec(t, "100.00"),
			NetValue:         dec(t, "97.02"),
			InstallmentCount: 3,
		})
		if err != nil {
			t.Fatalf("confirm installment %d: %v", i, err)
		}
	}

	reverted, err := h.svc.Revert(context.Background(), response.Payment.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.StatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", reverted.Status)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("card revert must compensate every installment movement, got %d", count)
	}
	if got := h.event(t).AmountCollected; !got.IsZero() {
		t.Fatalf("event aggregate must roll back, got %s", got)
	}
	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPending || !row.TotalPaid.IsZero() {
		t.Fatalf("inscription must roll back: status=%s paid=%s", row.Status, row.TotalPaid)
	}
}

func TestRevertAfterCheckoutSettlement(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)
	attachCheckout(t, h, response.Payment.ID, "chk_pix")

	// A single-installment confirmation settles the payment through the
	// gateway, so the only movement lives on the installment row.
	confirmed, err := h.svc.ConfirmInstallment(context.Background(), domain.InstallmentNotification{
		CheckoutID:       "chk_pix",
		AsaasPaymentID:   "pay_001",
		Value:            dec(t, "100.00"),
		NetValue:         dec(t, "99.00"),
		InstallmentCount: 1,
	})
	if err != nil {
		t.Fatalf("confirm installment: %v", err)
	}
	if confirmed.Status != domain.StatusApproved || confirmed.FinancialMovementID != nil {
		t.Fatalf("settlement shape wrong: status=%s movement=%v", confirmed.Status, confirmed.FinancialMovementID)
	}
	if got := h.event(t).AmountCollected; !got.Equal(dec(t, "99.00")) {
		t.Fatalf("event aggregate before revert wrong: %s", got)
	}

	reverted, err := h.svc.Revert(context.Background(), response.Payment.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.StatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", reverted.Status)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("installment movement left behind: %d rows", count)
	}
	event := h.event(t)
	if !event.AmountCollected.IsZero() {
		t.Fatalf("event aggregate must roll back to zero, got %s", event.AmountCollected)
	}
	if event.QuantityParticipants != 0 {
		t.Fatalf("participant count must roll back, got %d", event.QuantityParticipants)
	}
	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPending || !row.TotalPaid.IsZero() {
		t.Fatalf("inscription must roll back: status=%s paid=%s", row.Status, row.TotalPaid)
	}
}

func TestRevertManualCardApproval(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "300.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodCard, "300.00", 3, inscription)

	// Manual approval before any gateway confirmation settles the card
	// payment in full and books the gross value on the payment itself.
	approved, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.TotalPaid.Equal(dec(t, "300.00")) {
		t.Fatalf("manual card approval must settle the paid total, got %s", approved.TotalPaid)
	}
	if approved.FinancialMovementID == nil {
		t.Fatalf("manual approval must record its ledger row")
	}
	if got := h.event(t).AmountCollected; !got.Equal(dec(t, "300.00")) {
		t.Fatalf("event aggregate before revert wrong: %s", got)
	}

	reverted, err := h.svc.Revert(context.Background(), response.Payment.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.StatusUnderReview {
		t.Fatalf("expected UNDER_REVIEW, got %s", reverted.Status)
	}
	if count := h.countRows(t, &ledgerdomain.FinancialMovement{}); count != 0 {
		t.Fatalf("approval movement left behind: %d rows", count)
	}
	event := h.event(t)
	if !event.AmountCollected.IsZero() {
		t.Fatalf("event aggregate must roll back to zero, got %s", event.AmountCollected)
	}
	if event.QuantityParticipants != 0 {
		t.Fatalf("participant count must roll back, got %d", event.QuantityParticipants)
	}
	row := h.inscription(t, inscription)
	if row.Status != inscriptiondomain.StatusPending || !row.TotalPaid.IsZero() {
		t.Fatalf("inscription must roll back: status=%s paid=%s", row.Status, row.TotalPaid)
	}
}

func TestApprovePublishesOutboxEvent(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var rows []events.Row
	if err := h.db.Where("event_type = ?", events.EventPaymentApproved).Find(&rows).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one payment.approved outbox row, got %d", len(rows))
	}
	if rows[0].Published {
		t.Fatalf("outbox row must start unpublished")
	}
}

func TestApproveRecordsReviewLog(t *testing.T) {
	h := setupHarness(t)
	inscription := h.newInscription(t, "100.00", "0", inscriptiondomain.StatusPending)
	response := h.create(t, domain.MethodPix, "100.00", 1, inscription)

	if _, err := h.svc.Approve(context.Background(), response.Payment.ID, snowflake.ID(777)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var logs []auditdomain.ReviewLog
	if err := h.db.Where("payment_id = ?", response.Payment.ID).Find(&logs).Error; err != nil {
		t.Fatalf("load review logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one review log, got %d", len(logs))
	}
	if logs[0].Action != events.EventPaymentApproved {
		t.Fatalf("review log action wrong: %s", logs[0].Action)
	}
	if logs[0].Metadata["reviewer_id"] != snowflake.ID(777).String() {
		t.Fatalf("reviewer id not recorded: %v", logs[0].Metadata)
	}
}
