package repository

import (
	"context"
	"testing"
	"time"

	"pharmalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_MarkThreadRead(t *testing.T) {
	db := setupTestDB(t)
	convRepo := NewConversationRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker := createTestUser(t, db, "worker@pharmacy.test", "worker")

	low, high := models.CanonicalPair(owner.ID, worker.ID)
	conv := &models.Conversation{UserLowID: low, UserHighID: high}
	require.NoError(t, convRepo.Create(ctx, conv))

	incoming := &models.Message{ConversationID: conv.ID, SenderID: worker.ID, Content: "a", SentAt: time.Now()}
	outgoing := &models.Message{ConversationID: conv.ID, SenderID: owner.ID, Content: "b", SentAt: time.Now()}
	deletedIncoming := &models.Message{ConversationID: conv.ID, SenderID: worker.ID, Content: "c", SentAt: time.Now(), DeletedByReceiver: true}
	require.NoError(t, repo.Create(ctx, incoming))
	require.NoError(t, repo.Create(ctx, outgoing))
	require.NoError(t, repo.Create(ctx, deletedIncoming))

	affected, err := repo.MarkThreadRead(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	fetched, err := repo.GetByID(ctx, incoming.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsRead)

	// Sender's own message and receiver-deleted messages stay unread.
	fetched, err = repo.GetByID(ctx, outgoing.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsRead)

	fetched, err = repo.GetByID(ctx, deletedIncoming.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsRead)

	// Second pass is a no-op.
	affected, err = repo.MarkThreadRead(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMessageRepository_Recall(t *testing.T) {
	db := setupTestDB(t)
	convRepo := NewConversationRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker := createTestUser(t, db, "worker@pharmacy.test", "worker")

	low, high := models.CanonicalPair(owner.ID, worker.ID)
	conv := &models.Conversation{UserLowID: low, UserHighID: high}
	require.NoError(t, convRepo.Create(ctx, conv))

	msg := &models.Message{ConversationID: conv.ID, SenderID: owner.ID, Content: "typo", SentAt: time.Now()}
	require.NoError(t, repo.Create(ctx, msg))

	now := time.Now()
	require.NoError(t, repo.Recall(ctx, msg.ID, now))

	fetched, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsRecalled)
	require.NotNil(t, fetched.RecalledAt)
	// Original content survives in storage; rendering hides it.
	assert.Equal(t, "typo", fetched.Content)
	assert.Equal(t, models.RecalledPlaceholder, fetched.RenderedContent())
}

func TestMessageRepository_UnreadCounts(t *testing.T) {
	db := setupTestDB(t)
	convRepo := NewConversationRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker1 := createTestUser(t, db, "w1@pharmacy.test", "worker")
	worker2 := createTestUser(t, db, "w2@pharmacy.test", "worker")

	low1, high1 := models.CanonicalPair(owner.ID, worker1.ID)
	conv1 := &models.Conversation{UserLowID: low1, UserHighID: high1}
	require.NoError(t, convRepo.Create(ctx, conv1))

	low2, high2 := models.CanonicalPair(owner.ID, worker2.ID)
	conv2 := &models.Conversation{UserLowID: low2, UserHighID: high2}
	require.NoError(t, convRepo.Create(ctx, conv2))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Message{
			ConversationID: conv1.ID, SenderID: worker1.ID, Content: "m", SentAt: time.Now(),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Message{
		ConversationID: conv2.ID, SenderID: worker2.ID, Content: "m", SentAt: time.Now(),
	}))
	// Outgoing messages never count as unread for the sender.
	require.NoError(t, repo.Create(ctx, &models.Message{
		ConversationID: conv1.ID, SenderID: owner.ID, Content: "m", SentAt: time.Now(),
	}))

	total, err := repo.CountUnreadForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	rows, err := repo.UnreadByConversation(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	counts := map[uint]int64{}
	for _, row := range rows {
		counts[row.ConversationID] = row.Count
	}
	assert.Equal(t, int64(3), counts[conv1.ID])
	assert.Equal(t, int64(1), counts[conv2.ID])

	// Hiding a conversation removes its messages from the badge.
	require.NoError(t, convRepo.SetHidden(ctx, conv1, owner.ID, true))
	total, err = repo.CountUnreadForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Ending one does too, even with unread messages left behind.
	require.NoError(t, convRepo.End(ctx, conv2, worker2.ID, time.Now()))
	total, err = repo.CountUnreadForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	rows, err = repo.UnreadByConversation(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMessageRepository_LastVisibleTo(t *testing.T) {
	db := setupTestDB(t)
	convRepo := NewConversationRepository(db)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@pharmacy.test", "pharmacy")
	worker := createTestUser(t, db, "worker@pharmacy.test", "worker")

	low, high := models.CanonicalPair(owner.ID, worker.ID)
	conv := &models.Conversation{UserLowID: low, UserHighID: high}
	require.NoError(t, convRepo.Create(ctx, conv))

	last, err := repo.LastVisibleTo(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	base := time.Now()
	require.NoError(t, repo.Create(ctx, &models.Message{
		ConversationID: conv.ID, SenderID: owner.ID, Content: "first", SentAt: base,
	}))
	newest := &models.Message{
		ConversationID: conv.ID, SenderID: worker.ID, Content: "second", SentAt: base.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, newest))

	last, err = repo.LastVisibleTo(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "second", last.Content)

	// Once the owner deletes the newest incoming message, the older one
	// becomes their newest visible; the worker still sees both.
	require.NoError(t, repo.SetDeletedFlag(ctx, newest.ID, "deleted_by_receiver"))

	last, err = repo.LastVisibleTo(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "first", last.Content)

	last, err = repo.LastVisibleTo(ctx, conv.ID, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "second", last.Content)
}
