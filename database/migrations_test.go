package database_test

import (
	"testing"

	"go.uber.org/zap"

	"savdesk/database"
	"savdesk/testutil"
)

func TestMigrationsAreRepeatable(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if err := database.RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("second migration run: %v", err)
	}

	var etats []database.Etat
	if err := db.Order("id").Find(&etats).Error; err != nil {
		t.Fatalf("list etats: %v", err)
	}
	if len(etats) != 3 {
		t.Fatalf("expected 3 etats, got %d", len(etats))
	}
	for i, want := range database.SeedEtats {
		if etats[i].ID != want.ID || etats[i].Label != want.Label {
			t.Errorf("etat %d: expected %+v, got %+v", i, want, etats[i])
		}
	}
}

func TestSeedDefaultResponsableOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	for i := 0; i < 2; i++ {
		if err := database.SeedDefaultResponsable(db, "sav@example.com", "responsable", "hash", log); err != nil {
			t.Fatalf("seed run %d: %v", i+1, err)
		}
	}

	var count int64
	db.Model(&database.User{}).Where("role = ?", database.RoleResponsableSAV).Count(&count)
	if count != 1 {
		t.Errorf("expected one ResponsableSAV, got %d", count)
	}
}
