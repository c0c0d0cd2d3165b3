package service

import (
	"context"
	"testing"

	"pharmalink/internal/featureflags"
	"pharmalink/internal/models"
	"pharmalink/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	requests repository.RequestRepository
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.ConversationRequest{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		convs:    repository.NewConversationRepository(db),
		msgs:     repository.NewMessageRepository(db),
		requests: repository.NewRequestRepository(db),
	}
}

func (e *testEnv) contactService() *ContactService {
	return NewContactService(e.requests, e.convs, e.users)
}

func (e *testEnv) messagingService(flagConfig string) *MessagingService {
	return NewMessagingService(e.convs, e.msgs, e.users, featureflags.NewManager(flagConfig))
}

func (e *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "x",
		Role:         models.UserRole(role),
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) createConversation(t *testing.T, a, b uint) *models.Conversation {
	t.Helper()
	low, high := models.CanonicalPair(a, b)
	conv := &models.Conversation{UserLowID: low, UserHighID: high}
	require.NoError(t, e.convs.Create(context.Background(), conv))
	return conv
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}
