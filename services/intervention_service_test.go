package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"savdesk/apperr"
	"savdesk/database"
	"savdesk/repository"
	"savdesk/services"
	"savdesk/testutil"
)

type interventionFixture struct {
	db          *gorm.DB
	repos       *repository.Repositories
	svc         *services.InterventionService
	responsable services.Identity
	client      *database.User
	technicien  *database.Technicien
}

func newInterventionFixture(t *testing.T) *interventionFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := testutil.Logger(t)
	repos := repository.NewRepositories(db, log)
	return &interventionFixture{
		db:          db,
		repos:       repos,
		svc:         services.NewInterventionService(db, repos, log),
		responsable: testutil.Identity(testutil.SeedResponsable(t, db, "boss")),
		client:      testutil.SeedClient(t, db, "alice"),
		technicien:  testutil.SeedTechnicien(t, db, "Jean Dupont"),
	}
}

func assertAmount(t *testing.T, field string, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("%s: expected %d, got %s", field, want, got)
	}
}

func TestRecordInterventionUnderWarrantyIsFree(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Lave-vaisselle", true)
	piece := testutil.SeedPiece(t, f.db, article.ID, "Pompe", "80.00")
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)

	intervention, created, err := f.svc.RecordIntervention(context.Background(), f.responsable, services.RecordInterventionInput{
		ClaimID:      claim.ID,
		TechnicienID: f.technicien.ID,
		Description:  "Changement de pompe",
		PartIDs:      []uint{piece.ID},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !created {
		t.Errorf("expected a new intervention")
	}
	assertAmount(t, "parts_price", intervention.PartsPrice, 0)
	assertAmount(t, "labor_fee", intervention.LaborFee, 0)
	assertAmount(t, "billed_amount", intervention.BilledAmount, 0)
}

func TestRecordInterventionBillsPartsAndLabor(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Lave-linge", false)
	joint := testutil.SeedPiece(t, f.db, article.ID, "Joint", "10.00")
	filtre := testutil.SeedPiece(t, f.db, article.ID, "Filtre", "15.00")
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	intervention, created, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID:      claim.ID,
		TechnicienID: f.technicien.ID,
		Description:  "Remplacement joint et filtre",
		PartIDs:      []uint{joint.ID, filtre.ID, joint.ID, 9999},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !created {
		t.Errorf("expected a new intervention")
	}
	assertAmount(t, "parts_price", intervention.PartsPrice, 25)
	assertAmount(t, "labor_fee", intervention.LaborFee, 50)
	assertAmount(t, "billed_amount", intervention.BilledAmount, 75)
	if intervention.ReclamationID != claim.ID || intervention.TechnicienID != f.technicien.ID {
		t.Errorf("unexpected links: %+v", intervention)
	}

	updated, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if updated.EtatID != database.EtatInProgress {
		t.Errorf("expected claim etat %d, got %d", database.EtatInProgress, updated.EtatID)
	}
	if updated.InterventionID == nil || *updated.InterventionID != intervention.ID {
		t.Errorf("expected claim linked to intervention %d, got %v", intervention.ID, updated.InterventionID)
	}

	entries, err := f.repos.Audit.ListForEntity(ctx, "intervention", intervention.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != database.AuditInterventionRecorded {
		t.Errorf("expected one recorded audit entry, got %+v", entries)
	}
}

func TestRecordInterventionTwiceRevisesInPlace(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Lave-linge", false)
	joint := testutil.SeedPiece(t, f.db, article.ID, "Joint", "10.00")
	moteur := testutil.SeedPiece(t, f.db, article.ID, "Moteur", "120.50")
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	first, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Premier passage", PartIDs: []uint{joint.ID},
	})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}

	second, created, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Second passage", PartIDs: []uint{joint.ID, moteur.ID},
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if created {
		t.Errorf("second call should revise, not create")
	}
	if second.ID != first.ID {
		t.Errorf("expected same intervention %d, got %d", first.ID, second.ID)
	}
	if second.Description != "Second passage" {
		t.Errorf("description not revised: %q", second.Description)
	}
	if !second.BilledAmount.Equal(decimal.RequireFromString("180.50")) {
		t.Errorf("expected billed 180.50, got %s", second.BilledAmount)
	}

	var count int64
	f.db.Model(&database.Intervention{}).Where("reclamation_id = ?", claim.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected one intervention row, got %d", count)
	}

	reloaded, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.EtatID != database.EtatInProgress || reloaded.InterventionID == nil || *reloaded.InterventionID != first.ID {
		t.Errorf("claim lifecycle changed by revision: %+v", reloaded)
	}
}

func TestRecordInterventionConcurrentCallsKeepOneRow(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)

	const workers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := f.svc.RecordIntervention(context.Background(), f.responsable, services.RecordInterventionInput{
				ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil && !errors.Is(err, apperr.ErrConflict) {
				errs = append(errs, err)
			}
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if created != 1 {
		t.Errorf("expected exactly one creation, got %d", created)
	}
	var count int64
	f.db.Model(&database.Intervention{}).Where("reclamation_id = ?", claim.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected one intervention row, got %d", count)
	}
}

func TestRecordInterventionUnknownTechnicienChangesNothing(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	_, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: 4242, Description: "Diagnostic",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	var interventions, audits int64
	f.db.Model(&database.Intervention{}).Count(&interventions)
	f.db.Model(&database.AuditLog{}).Count(&audits)
	if interventions != 0 || audits != 0 {
		t.Errorf("expected no writes, got %d interventions and %d audit rows", interventions, audits)
	}

	reloaded, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.EtatID != database.EtatPending || reloaded.InterventionID != nil {
		t.Errorf("claim should be untouched: %+v", reloaded)
	}
}

func TestRecordInterventionRejectsBadInput(t *testing.T) {
	f := newInterventionFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: 4242, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown claim: expected not found, got %v", err)
	}

	_, _, err = f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: 1, TechnicienID: f.technicien.ID, Description: " ",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank description: expected validation error, got %v", err)
	}

	_, _, err = f.svc.RecordIntervention(ctx, testutil.Identity(f.client), services.RecordInterventionInput{
		ClaimID: 1, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("client caller: expected forbidden, got %v", err)
	}
}

func TestDeleteInterventionResetsClaim(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	intervention, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := f.svc.DeleteIntervention(ctx, f.responsable, intervention.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reloaded, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.EtatID != database.EtatPending {
		t.Errorf("expected claim back to etat %d, got %d", database.EtatPending, reloaded.EtatID)
	}
	if reloaded.InterventionID != nil {
		t.Errorf("expected no linked intervention, got %d", *reloaded.InterventionID)
	}
	if _, err := f.repos.Intervention.GetByID(ctx, intervention.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected intervention gone, got %v", err)
	}

	if err := f.svc.DeleteIntervention(ctx, f.responsable, intervention.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestRecordInterventionLosingRaceReturnsConflict(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	// Another writer lands the claim's intervention after the lookup found
	// none and before our insert. It shares the transaction, so the rollback
	// removes it as well.
	var raced bool
	var raceErr error
	err := f.db.Callback().Create().Before("gorm:create").Register("savdesk:competing_intervention", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "interventions" {
			return
		}
		raced = true
		now := time.Now().UTC()
		raceErr = tx.Session(&gorm.Session{NewDB: true}).Exec(
			`INSERT INTO interventions (performed_at, description, parts_price, labor_fee, billed_amount, technicien_id, reclamation_id, created_at, updated_at)
			 VALUES (?, ?, 0, 0, 0, ?, ?, ?, ?)`,
			now, "Concurrent", f.technicien.ID, claim.ID, now, now,
		).Error
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, _, err = f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if !raced || raceErr != nil {
		t.Fatalf("competing insert did not run: raced=%v err=%v", raced, raceErr)
	}
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := apperr.Message(err); got != fmt.Sprintf("Reclamation %d already has an intervention", claim.ID) {
		t.Errorf("unexpected message %q", got)
	}

	reloaded, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.EtatID != database.EtatPending || reloaded.InterventionID != nil {
		t.Errorf("claim changed by the losing call: %+v", reloaded)
	}
	var audits int64
	f.db.Model(&database.AuditLog{}).Where("action = ?", database.AuditInterventionRecorded).Count(&audits)
	if audits != 0 {
		t.Errorf("expected no audit entry, got %d", audits)
	}

	if _, created, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	}); err != nil || !created {
		t.Errorf("retry: expected a new intervention, got created=%v err=%v", created, err)
	}
}

func TestDeleteInterventionWithPaymentsIsRefused(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	intervention, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := f.repos.Payment.Create(ctx, &database.Payment{
		InterventionID:  intervention.ID,
		ClientID:        f.client.ID,
		Amount:          intervention.BilledAmount,
		Currency:        testutil.PaymentCurrency,
		Status:          database.PaymentStatusPending,
		ProviderOrderID: "order_delete_1",
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	err = f.svc.DeleteIntervention(ctx, f.responsable, intervention.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got, want := apperr.Message(err), fmt.Sprintf("Intervention %d has payments and cannot be deleted", intervention.ID); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}

	reloaded, err := f.repos.Claim.GetByID(ctx, claim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if reloaded.EtatID != database.EtatInProgress || reloaded.InterventionID == nil || *reloaded.InterventionID != intervention.ID {
		t.Errorf("claim should keep its intervention: %+v", reloaded)
	}
}

func TestReviseInterventionKeepsItsClaim(t *testing.T) {
	f := newInterventionFixture(t)
	article := testutil.SeedArticle(t, f.db, "Four", false)
	claim := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	other := testutil.SeedClaim(t, f.db, f.client.ID, article.ID)
	ctx := context.Background()

	intervention, _, err := f.svc.RecordIntervention(ctx, f.responsable, services.RecordInterventionInput{
		ClaimID: claim.ID, TechnicienID: f.technicien.ID, Description: "Diagnostic",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	_, err = f.svc.ReviseIntervention(ctx, f.responsable, intervention.ID, services.RecordInterventionInput{
		ClaimID: other.ID, TechnicienID: f.technicien.ID, Description: "Déplacé",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("moving to another claim: expected validation error, got %v", err)
	}

	revised, err := f.svc.ReviseIntervention(ctx, f.responsable, intervention.ID, services.RecordInterventionInput{
		TechnicienID: f.technicien.ID, Description: "Réparé",
	})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revised.ID != intervention.ID || revised.Description != "Réparé" {
		t.Errorf("unexpected revision: %+v", revised)
	}
}

func TestGetInterventionsByTechnicienAccess(t *testing.T) {
	f := newInterventionFixture(t)
	other := testutil.SeedTechnicien(t, f.db, "Paul Martin")
	own := testutil.Identity(testutil.SeedTechnicienUser(t, f.db, "jean", f.technicien.ID))
	ctx := context.Background()

	if _, err := f.svc.GetInterventionsByTechnicien(ctx, own, f.technicien.ID); err != nil {
		t.Errorf("own interventions: %v", err)
	}
	if _, err := f.svc.GetInterventionsByTechnicien(ctx, own, other.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("other technician: expected forbidden, got %v", err)
	}
	if _, err := f.svc.GetInterventionsByTechnicien(ctx, f.responsable, other.ID); err != nil {
		t.Errorf("back office: %v", err)
	}
	if _, err := f.svc.GetInterventionsByTechnicien(ctx, testutil.Identity(f.client), f.technicien.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("client: expected forbidden, got %v", err)
	}
}
