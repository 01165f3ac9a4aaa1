package client_test

import (
	"context"
	"errors"
	"go/build"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"savdesk/client"
	"savdesk/database"
	"savdesk/testutil"
)

func newServer(t *testing.T) (*client.Client, func() (*database.User, *database.User, *database.Technicien, *database.Article)) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	srv := httptest.NewServer(testutil.SetupRouter(t, db, &testutil.FakeGateway{}))
	t.Cleanup(srv.Close)

	seed := func() (*database.User, *database.User, *database.Technicien, *database.Article) {
		return testutil.SeedClient(t, db, "alice"),
			testutil.SeedResponsable(t, db, "boss"),
			testutil.SeedTechnicien(t, db, "Jean Dupont"),
			testutil.SeedArticle(t, db, "Lave-linge", false)
	}
	return client.New(srv.URL+"/", srv.Client()), seed
}

func TestSessionsAreIndependent(t *testing.T) {
	api, seed := newServer(t)
	alice, boss, technicien, article := seed()
	ctx := context.Background()

	clientSession, err := api.Login(ctx, alice.Email, testutil.TestPassword)
	if err != nil {
		t.Fatalf("client login: %v", err)
	}
	bossSession, err := api.Login(ctx, boss.Email, testutil.TestPassword)
	if err != nil {
		t.Fatalf("responsable login: %v", err)
	}

	if !clientSession.HasRole(string(database.RoleClient)) || clientSession.HasRole(string(database.RoleResponsableSAV)) {
		t.Errorf("unexpected client session role: %s", clientSession.Claims().Role)
	}
	if clientSession.Claims().UserID != alice.ID {
		t.Errorf("expected user %d, got %d", alice.ID, clientSession.Claims().UserID)
	}
	profile, err := api.Profile(ctx, clientSession)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.ID != alice.ID || profile.Email != alice.Email || profile.Role != string(database.RoleClient) {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if clientSession.Expired(time.Now()) {
		t.Errorf("fresh session reported expired")
	}
	if !clientSession.Expired(time.Now().Add(2 * time.Hour)) {
		t.Errorf("session should expire after its token")
	}

	claim, err := api.CreateClaim(ctx, clientSession, article.ID, "Ne démarre plus")
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}
	if claim.EtatID != database.EtatPending || claim.ClientID != alice.ID {
		t.Errorf("unexpected claim: %+v", claim)
	}

	// Two sessions side by side: each call carries its own token.
	_, err = api.RecordIntervention(ctx, clientSession, client.InterventionRequest{
		ReclamationID: claim.ID, TechnicienID: technicien.ID, Description: "Diagnostic",
	})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("client recording intervention: expected 403, got %v", err)
	}
	if apiErr.Message != "Permission denied" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}

	intervention, err := api.RecordIntervention(ctx, bossSession, client.InterventionRequest{
		ReclamationID: claim.ID, TechnicienID: technicien.ID, Description: "Diagnostic",
	})
	if err != nil {
		t.Fatalf("record intervention: %v", err)
	}

	if intervention.ReclamationID != claim.ID || !intervention.BilledAmount.Equal(intervention.PartsPrice.Add(intervention.LaborFee)) {
		t.Errorf("unexpected intervention: %+v", intervention)
	}

	reloaded, err := api.GetClaim(ctx, clientSession, claim.ID)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if reloaded.EtatID != database.EtatInProgress || reloaded.InterventionID == nil || *reloaded.InterventionID != intervention.ID {
		t.Errorf("claim not linked: %+v", reloaded)
	}

	claims, err := api.ListClaims(ctx, bossSession)
	if err != nil {
		t.Fatalf("list claims: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("expected 1 claim, got %d", len(claims))
	}
}

func TestAnonymousCallsAreRejected(t *testing.T) {
	api, _ := newServer(t)

	_, err := api.ListClaims(context.Background(), nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if apiErr.Message != "Authorization header is required" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestRegisterAndRefresh(t *testing.T) {
	api, _ := newServer(t)
	ctx := context.Background()

	session, err := api.Register(ctx, "carol@example.com", "carol", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !session.HasRole(string(database.RoleClient)) {
		t.Errorf("registered session should be a client, got %s", session.Claims().Role)
	}

	refreshed, err := api.Refresh(ctx, session)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.Token() == session.Token() {
		t.Errorf("refresh should issue a new token")
	}
	if refreshed.Claims().UserID != session.Claims().UserID {
		t.Errorf("refresh changed the account")
	}

	_, err = api.Login(ctx, "carol@example.com", "wrong-password")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("anonymous call sent credentials")
		}
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := client.New(srv.URL, nil).Do(context.Background(), nil, http.MethodGet, "/anything", nil, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream unavailable" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestNewSessionRejectsMalformedToken(t *testing.T) {
	if _, err := client.NewSession("not.a.token"); err == nil {
		t.Errorf("expected an error for a malformed token")
	}
}

func TestClientDoesNotDependOnServerPackages(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import client package: %v", err)
	}
	for _, path := range pkg.Imports {
		if strings.HasPrefix(path, "savdesk/") || strings.HasPrefix(path, "gorm.io/") {
			t.Errorf("client imports %s", path)
		}
	}
}
