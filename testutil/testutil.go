package testutil

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"savdesk/config"
	"savdesk/controllers"
	"savdesk/database"
	"savdesk/middleware"
	"savdesk/routes"
	"savdesk/services"
	"savdesk/utils"
)

const (
	JWTSecret       = "savdesk-test-secret"
	JWTIssuer       = "savdesk-test"
	PaymentSecret   = "razorpay-test-secret"
	TestPassword    = "password123"
	PaymentKeyID    = "rzp_test_key"
	PaymentCurrency = "EUR"
)

// Config returns the configuration used by SetupRouter.
func Config() config.Config {
	return config.Config{
		DBDriver:         "sqlite",
		JWTSecret:        JWTSecret,
		JWTIssuer:        JWTIssuer,
		JWTExpiryMinutes: 60,
		Environment:      "test",
		RazorpayKey:      PaymentKeyID,
		RazorpaySecret:   PaymentSecret,
		PaymentCurrency:  PaymentCurrency,
	}
}

// Logger returns a logger that writes warnings and errors to the test log.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// SetupTestDB opens a private in-memory sqlite database with the full
// schema and the seeded statuses. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes
	// writers the way a single sqlite file would.
	sqlDB.SetMaxOpenConns(1)

	if err := database.RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// SetupRouter builds the full API on db, as main does.
func SetupRouter(t *testing.T, db *gorm.DB, gateway services.PaymentGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}

	log := Logger(t)
	cfg := Config()
	svc := services.New(cfg, db, sqlDB, gateway, log)
	ctl := controllers.New(svc, db, cfg.RazorpayKey, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	routes.SetupRoutes(r, ctl, cfg.JWTSecret)
	return r
}

// TokenFor issues a valid token for user.
func TokenFor(t *testing.T, user *database.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(JWTSecret, JWTIssuer, utils.JWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Username:     user.Username,
		Role:         string(user.Role),
		TechnicienID: user.TechnicienID,
	}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

// Identity returns the service-level identity of user.
func Identity(user *database.User) services.Identity {
	return services.Identity{UserID: user.ID, Role: user.Role, TechnicienID: user.TechnicienID}
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes a JSON object response body.
func ParseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Response is not a JSON object: %v (%s)", err, w.Body.String())
	}
	return result
}

// DecodeResponse decodes the response body into out.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response: %v (%s)", err, w.Body.String())
	}
}

func seedUser(t *testing.T, db *gorm.DB, user *database.User) *database.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	user.PasswordHash = string(hash)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", user.Username, err)
	}
	return user
}

// SeedClient creates a Client account whose password is TestPassword.
func SeedClient(t *testing.T, db *gorm.DB, username string) *database.User {
	return seedUser(t, db, &database.User{
		Email:    username + "@example.com",
		Username: username,
		Role:     database.RoleClient,
	})
}

// SeedResponsable creates a ResponsableSAV account.
func SeedResponsable(t *testing.T, db *gorm.DB, username string) *database.User {
	return seedUser(t, db, &database.User{
		Email:    username + "@example.com",
		Username: username,
		Role:     database.RoleResponsableSAV,
	})
}

// SeedTechnicienUser creates a Technicien account acting for technicienID.
func SeedTechnicienUser(t *testing.T, db *gorm.DB, username string, technicienID uint) *database.User {
	return seedUser(t, db, &database.User{
		Email:        username + "@example.com",
		Username:     username,
		Role:         database.RoleTechnicien,
		TechnicienID: &technicienID,
	})
}

func SeedTechnicien(t *testing.T, db *gorm.DB, name string) *database.Technicien {
	t.Helper()
	technicien := &database.Technicien{
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@sav.example.com",
		Phone:     "0102030405",
		Specialty: "electromenager",
	}
	if err := db.Create(technicien).Error; err != nil {
		t.Fatalf("Failed to seed technicien: %v", err)
	}
	return technicien
}

func SeedArticle(t *testing.T, db *gorm.DB, label string, underWarranty bool) *database.Article {
	t.Helper()
	article := &database.Article{
		Label:         label,
		UnderWarranty: underWarranty,
		Price:         decimal.RequireFromString("499.90"),
	}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("Failed to seed article: %v", err)
	}
	return article
}

func SeedPiece(t *testing.T, db *gorm.DB, articleID uint, name, price string) *database.PieceRechange {
	t.Helper()
	piece := &database.PieceRechange{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		ArticleID: articleID,
	}
	if err := db.Create(piece).Error; err != nil {
		t.Fatalf("Failed to seed piece: %v", err)
	}
	return piece
}

// SeedClaim inserts a pending claim directly, bypassing the repository.
func SeedClaim(t *testing.T, db *gorm.DB, clientID, articleID uint) *database.Reclamation {
	t.Helper()
	claim := &database.Reclamation{
		Description: "Appareil en panne",
		FiledAt:     time.Now().UTC(),
		ArticleID:   articleID,
		ClientID:    clientID,
		EtatID:      database.EtatPending,
	}
	if err := db.Create(claim).Error; err != nil {
		t.Fatalf("Failed to seed reclamation: %v", err)
	}
	return claim
}

// FakeGateway is a PaymentGateway that records orders in memory.
type FakeGateway struct {
	Orders []FakeOrder
	Err    error
}

type FakeOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
}

func (g *FakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, _ map[string]interface{}) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	id := fmt.Sprintf("order_test_%d", len(g.Orders)+1)
	g.Orders = append(g.Orders, FakeOrder{ID: id, AmountMinor: amountMinor, Currency: currency, Receipt: receipt})
	return id, nil
}

// Sign returns the gateway signature of a completed checkout.
func Sign(orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(PaymentSecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
