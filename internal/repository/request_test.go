package repository

import (
	"context"
	"testing"

	"pharmalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository_FindPendingBetween(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker := createTestUser(t, db, "worker@pharmacy.test", "worker")

	req := &models.ConversationRequest{FromUserID: owner.ID, ToUserID: worker.ID}
	require.NoError(t, repo.Create(ctx, req))

	// Pending is found regardless of direction.
	found, err := repo.FindPendingBetween(ctx, owner.ID, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, req.ID, found.ID)

	found, err = repo.FindPendingBetween(ctx, worker.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, req.ID, found.ID)

	// Accepted requests no longer block new contact.
	require.NoError(t, repo.MarkAccepted(ctx, req.ID))
	found, err = repo.FindPendingBetween(ctx, owner.ID, worker.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRequestRepository_ListPendingFor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker1 := createTestUser(t, db, "w1@pharmacy.test", "worker")
	worker2 := createTestUser(t, db, "w2@pharmacy.test", "worker")

	require.NoError(t, repo.Create(ctx, &models.ConversationRequest{FromUserID: worker1.ID, ToUserID: owner.ID}))
	require.NoError(t, repo.Create(ctx, &models.ConversationRequest{FromUserID: worker2.ID, ToUserID: owner.ID}))
	accepted := &models.ConversationRequest{FromUserID: worker1.ID, ToUserID: worker2.ID, IsAccepted: true}
	require.NoError(t, repo.Create(ctx, accepted))

	pending, err := repo.ListPendingFor(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, p := range pending {
		require.NotNil(t, p.From, "sender should be preloaded")
		assert.Equal(t, owner.ID, p.ToUserID)
	}
}
