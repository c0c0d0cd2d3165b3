package seed

import (
	"testing"

	"pharmalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFactory_CreateUser(t *testing.T) {
	db := setupTestDB(t)
	f := NewFactory(db, Options{})

	user, err := f.CreateUser(models.RoleWorker)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.RoleWorker, user.Role)
	assert.NotEmpty(t, user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestFactory_CreateUserOverrides(t *testing.T) {
	db := setupTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	user, err := f.CreateUser(models.RolePharmacy, func(u *models.User) {
		u.Email = "owner@corner-pharmacy.test"
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@corner-pharmacy.test", user.Email)
	assert.Equal(t, "password123", user.PasswordHash)
}

func TestFactory_CreateThread(t *testing.T) {
	db := setupTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	a, err := f.CreateUser(models.RolePharmacy)
	require.NoError(t, err)
	b, err := f.CreateUser(models.RoleWorker)
	require.NoError(t, err)
	conv, err := f.CreateConversation(a, b)
	require.NoError(t, err)

	messages, err := f.CreateThread(conv, 9)
	require.NoError(t, err)
	require.Len(t, messages, 9)

	// Alternating senders, monotonically increasing timestamps.
	for i, msg := range messages {
		assert.Equal(t, conv.ID, msg.ConversationID)
		if i%2 == 0 {
			assert.Equal(t, conv.UserLowID, msg.SenderID)
		} else {
			assert.Equal(t, conv.UserHighID, msg.SenderID)
		}
		if i > 0 {
			assert.True(t, msg.SentAt.After(messages[i-1].SentAt))
		}
	}

	// Trailing third stays unread.
	var unread int
	for _, msg := range messages {
		if !msg.IsRead {
			unread++
		}
	}
	assert.Equal(t, 3, unread)
}

func TestFactory_CreateThreadEmpty(t *testing.T) {
	db := setupTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	a, err := f.CreateUser(models.RolePharmacy)
	require.NoError(t, err)
	b, err := f.CreateUser(models.RoleWorker)
	require.NoError(t, err)
	conv, err := f.CreateConversation(a, b)
	require.NoError(t, err)

	messages, err := f.CreateThread(conv, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
