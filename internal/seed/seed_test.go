package seed

import (
	"testing"

	"pharmalink/internal/database"
	"pharmalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestSeeder_Seed(t *testing.T) {
	db := setupTestDB(t)
	seeder := NewSeeder(db, Options{
		NumPharmacies: 4,
		NumWorkers:    8,
		SkipBcrypt:    true,
	})

	require.NoError(t, seeder.Seed())

	var pharmacies, workers, admins int64
	db.Model(&models.User{}).Where("role = ?", models.RolePharmacy).Count(&pharmacies)
	db.Model(&models.User{}).Where("role = ?", models.RoleWorker).Count(&workers)
	db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	assert.Equal(t, int64(4), pharmacies)
	assert.Equal(t, int64(8), workers)
	assert.Equal(t, int64(1), admins)

	// Every pharmacy starts at least two handshakes, so requests exist.
	var requests int64
	db.Model(&models.ConversationRequest{}).Count(&requests)
	assert.GreaterOrEqual(t, requests, int64(4))

	// Accepted requests must each be backed by a conversation.
	var accepted, conversations int64
	db.Model(&models.ConversationRequest{}).Where("is_accepted = ?", true).Count(&accepted)
	db.Model(&models.Conversation{}).Count(&conversations)
	assert.Equal(t, accepted, conversations)

	// Conversations carry threads.
	if conversations > 0 {
		var messages int64
		db.Model(&models.Message{}).Count(&messages)
		assert.Greater(t, messages, int64(0))
	}
}

func TestSeeder_ConversationsAreCanonical(t *testing.T) {
	db := setupTestDB(t)
	seeder := NewSeeder(db, Options{
		NumPharmacies: 3,
		NumWorkers:    6,
		SkipBcrypt:    true,
	})
	require.NoError(t, seeder.Seed())

	var convs []models.Conversation
	require.NoError(t, db.Find(&convs).Error)
	for _, conv := range convs {
		assert.Less(t, conv.UserLowID, conv.UserHighID)
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	db := setupTestDB(t)
	seeder := NewSeeder(db, Options{
		NumPharmacies: 2,
		NumWorkers:    4,
		SkipBcrypt:    true,
	})
	require.NoError(t, seeder.Seed())
	require.NoError(t, seeder.ClearAll())

	var users, convs, msgs, reqs int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Conversation{}).Count(&convs)
	db.Model(&models.Message{}).Count(&msgs)
	db.Model(&models.ConversationRequest{}).Count(&reqs)
	assert.Zero(t, users)
	assert.Zero(t, convs)
	assert.Zero(t, msgs)
	assert.Zero(t, reqs)
}

func TestSeeder_CleanOptionResets(t *testing.T) {
	db := setupTestDB(t)

	first := NewSeeder(db, Options{NumPharmacies: 2, NumWorkers: 4, SkipBcrypt: true})
	require.NoError(t, first.Seed())

	second := NewSeeder(db, Options{NumPharmacies: 3, NumWorkers: 5, SkipBcrypt: true, ShouldClean: true})
	require.NoError(t, second.Seed())

	var pharmacies int64
	db.Model(&models.User{}).Where("role = ?", models.RolePharmacy).Count(&pharmacies)
	assert.Equal(t, int64(3), pharmacies)
}
