package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
	"savdesk/services"
	"savdesk/testutil"
)

type paymentFixture struct {
	db            *gorm.DB
	repos         *repository.Repositories
	payments      *services.PaymentService
	interventions *services.InterventionService
	gateway       *testutil.FakeGateway
	client        services.Identity
	responsable   services.Identity
	technicien    *database.Technicien
	article       *database.Article
	piece         *database.PieceRechange
	claim         *database.Reclamation
}

// newPaymentFixture records an intervention billed 25 + 50 on a claim of a
// fresh client.
func newPaymentFixture(t *testing.T, underWarranty bool) *paymentFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := testutil.Logger(t)
	repos := repository.NewRepositories(db, log)

	client := testutil.SeedClient(t, db, "alice")
	boss := testutil.SeedResponsable(t, db, "boss")
	technicien := testutil.SeedTechnicien(t, db, "Jean Dupont")
	article := testutil.SeedArticle(t, db, "Lave-linge", underWarranty)
	piece := testutil.SeedPiece(t, db, article.ID, "Courroie", "25.00")
	claim := testutil.SeedClaim(t, db, client.ID, article.ID)

	interventions := services.NewInterventionService(db, repos, log)
	_, _, err := interventions.RecordIntervention(context.Background(), testutil.Identity(boss), services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: technicien.ID, Description: "Courroie changée", PartIDs: []uint{piece.ID},
	})
	if err != nil {
		t.Fatalf("record intervention: %v", err)
	}

	gateway := &testutil.FakeGateway{}
	return &paymentFixture{
		db:            db,
		repos:         repos,
		payments:      services.NewPaymentService(repos, gateway, testutil.PaymentSecret, testutil.PaymentCurrency, log),
		interventions: interventions,
		gateway:       gateway,
		client:        testutil.Identity(client),
		responsable:   testutil.Identity(boss),
		technicien:    technicien,
		article:       article,
		piece:         piece,
		claim:         claim,
	}
}

func TestPaymentOrderAndVerification(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	payment, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(f.gateway.Orders) != 1 {
		t.Fatalf("expected one gateway order, got %d", len(f.gateway.Orders))
	}
	order := f.gateway.Orders[0]
	if order.AmountMinor != 7500 || order.Currency != testutil.PaymentCurrency {
		t.Errorf("unexpected gateway order: %+v", order)
	}
	if payment.Status != database.PaymentStatusPending || payment.ProviderOrderID != order.ID {
		t.Errorf("unexpected payment: %+v", payment)
	}

	paid, err := f.payments.Verify(ctx, f.client, order.ID, "pay_1", testutil.Sign(order.ID, "pay_1"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if paid.Status != database.PaymentStatusPaid || paid.ProviderPaymentID != "pay_1" {
		t.Errorf("unexpected verified payment: %+v", paid)
	}

	if _, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("already paid: expected conflict, got %v", err)
	}

	history, err := f.payments.List(ctx, f.client)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected one payment in history, got %d", len(history))
	}
}

func TestPaymentBadSignatureFailsTheOrder(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	if _, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID); err != nil {
		t.Fatalf("create order: %v", err)
	}
	first := f.gateway.Orders[0]

	_, err := f.payments.Verify(ctx, f.client, first.ID, "pay_1", "bad-signature")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad signature: expected validation error, got %v", err)
	}
	failed, err := f.repos.Payment.GetByProviderOrderID(ctx, first.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if failed.Status != database.PaymentStatusFailed {
		t.Errorf("expected status %q, got %q", database.PaymentStatusFailed, failed.Status)
	}

	// A failed order stays failed even with a valid signature.
	if _, err := f.payments.Verify(ctx, f.client, first.ID, "pay_1", testutil.Sign(first.ID, "pay_1")); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("verify failed order: expected conflict, got %v", err)
	}

	retry, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID)
	if err != nil {
		t.Fatalf("new order after failure: %v", err)
	}
	if !retry.Amount.Equal(decimal.NewFromInt(75)) {
		t.Errorf("failed payment must not count as paid, got amount %s", retry.Amount)
	}
	if _, err := f.payments.Verify(ctx, f.client, retry.ProviderOrderID, "pay_2", testutil.Sign(retry.ProviderOrderID, "pay_2")); err != nil {
		t.Fatalf("verify new order: %v", err)
	}
}

func TestPaymentAfterRevisionChargesDifference(t *testing.T) {
	f := newPaymentFixture(t, false)
	ctx := context.Background()

	first, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.payments.Verify(ctx, f.client, first.ProviderOrderID, "pay_1", testutil.Sign(first.ProviderOrderID, "pay_1")); err != nil {
		t.Fatalf("verify: %v", err)
	}

	moteur := testutil.SeedPiece(t, f.db, f.article.ID, "Moteur", "300.00")
	revised, _, err := f.interventions.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID:      f.claim.ID,
		TechnicienID: f.technicien.ID,
		Description:  "Courroie et moteur changés",
		PartIDs:      []uint{f.piece.ID, moteur.ID},
	})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if !revised.BilledAmount.Equal(decimal.NewFromInt(375)) {
		t.Fatalf("expected billed 375, got %s", revised.BilledAmount)
	}

	second, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID)
	if err != nil {
		t.Fatalf("order after revision: %v", err)
	}
	if !second.Amount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected the 300 difference, got %s", second.Amount)
	}
	if got := f.gateway.Orders[len(f.gateway.Orders)-1].AmountMinor; got != 30000 {
		t.Errorf("expected gateway amount 30000, got %d", got)
	}
	if _, err := f.payments.Verify(ctx, f.client, second.ProviderOrderID, "pay_2", testutil.Sign(second.ProviderOrderID, "pay_2")); err != nil {
		t.Fatalf("verify difference: %v", err)
	}

	if _, err := f.payments.CreateOrder(ctx, f.client, f.claim.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("fully paid: expected conflict, got %v", err)
	}
	total, err := f.repos.Payment.PaidTotal(ctx, revised.ID)
	if err != nil {
		t.Fatalf("paid total: %v", err)
	}
	if !total.Equal(revised.BilledAmount) {
		t.Errorf("paid %s, billed %s", total, revised.BilledAmount)
	}
}

func TestPaymentOrderUnderWarranty(t *testing.T) {
	f := newPaymentFixture(t, true)

	_, err := f.payments.CreateOrder(context.Background(), f.client, f.claim.ID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.gateway.Orders) != 0 {
		t.Errorf("no gateway order expected, got %d", len(f.gateway.Orders))
	}
}

func TestPaymentOrderOtherClient(t *testing.T) {
	f := newPaymentFixture(t, false)
	stranger := services.Identity{UserID: f.client.UserID + 100, Role: database.RoleClient}

	if _, err := f.payments.CreateOrder(context.Background(), stranger, f.claim.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPaymentGatewayFailure(t *testing.T) {
	f := newPaymentFixture(t, false)
	f.gateway.Err = errors.New("gateway down")

	_, err := f.payments.CreateOrder(context.Background(), f.client, f.claim.ID)
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	sig := testutil.Sign("order_1", "pay_1")
	if !services.VerifySignature("order_1|pay_1", sig, testutil.PaymentSecret) {
		t.Errorf("expected signature to verify")
	}
	if services.VerifySignature("order_1|pay_2", sig, testutil.PaymentSecret) {
		t.Errorf("signature of other data must not verify")
	}
	if services.VerifySignature("order_1|pay_1", sig, "other-secret") {
		t.Errorf("signature under another secret must not verify")
	}
}
