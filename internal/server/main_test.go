package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharmalink/internal/config"
	"pharmalink/internal/database"
	"pharmalink/internal/featureflags"
	"pharmalink/internal/models"
	"pharmalink/internal/repository"
	"pharmalink/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3r$ecretPass!"

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newTestServer builds a Server against an in-memory database with routes
// registered and Redis absent.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	db := setupTestDB(t)

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:           cfg,
		db:               db,
		userRepo:         userRepo,
		convRepo:         convRepo,
		msgRepo:          msgRepo,
		requestRepo:      requestRepo,
		featureFlags:     flags,
		contactService:   service.NewContactService(requestRepo, convRepo, userRepo),
		messagingService: service.NewMessagingService(convRepo, msgRepo, userRepo, flags),
		consumedTickets:  make(map[string]consumedTicketEntry),
	}

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// createTestUser inserts a user with the shared test password.
func createTestUser(t *testing.T, s *Server, email string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// authHeader mints a valid bearer token for the user.
func authHeader(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Email)
	require.NoError(t, err)
	return "Bearer " + token
}

// doJSON performs a request with an optional auth header and JSON body, and
// decodes the response body into a generic map.
func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)

	decoded := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

// startConversation runs the full handshake between two users and returns the
// conversation ID.
func startConversation(t *testing.T, app *fiber.App, s *Server, from, to *models.User) uint {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/contacts", authHeader(t, s, from),
		fiber.Map{"user_id": to.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	request := body["request"].(map[string]interface{})
	requestID := uint(request["id"].(float64))

	resp, body = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/contacts/requests/%d/accept", requestID),
		authHeader(t, s, to), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conv := body["conversation"].(map[string]interface{})
	return uint(conv["id"].(float64))
}
