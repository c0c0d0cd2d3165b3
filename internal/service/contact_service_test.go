package service

import (
	"context"
	"testing"

	"pharmalink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService_StartContact(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker := env.createUser(t, "worker@pharmacy.test", "worker")

	t.Run("self contact rejected", func(t *testing.T) {
		_, err := svc.StartContact(ctx, owner.ID, owner.ID)
		assertCode(t, err, models.CodeValidation)
	})

	t.Run("unknown target rejected", func(t *testing.T) {
		_, err := svc.StartContact(ctx, owner.ID, 9999)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("creates request", func(t *testing.T) {
		res, err := svc.StartContact(ctx, owner.ID, worker.ID)
		require.NoError(t, err)
		require.NotNil(t, res.Request)
		assert.Nil(t, res.Conversation)
		assert.False(t, res.AlreadyPending)
		assert.Equal(t, owner.ID, res.Request.FromUserID)
		assert.Equal(t, worker.ID, res.Request.ToUserID)
	})

	t.Run("repeat is idempotent", func(t *testing.T) {
		first, err := svc.StartContact(ctx, owner.ID, worker.ID)
		require.NoError(t, err)

		again, err := svc.StartContact(ctx, owner.ID, worker.ID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyPending)
		assert.Equal(t, first.Request.ID, again.Request.ID)

		// The reverse direction also dedups against the same request.
		reverse, err := svc.StartContact(ctx, worker.ID, owner.ID)
		require.NoError(t, err)
		assert.True(t, reverse.AlreadyPending)
		assert.Equal(t, first.Request.ID, reverse.Request.ID)
	})

	t.Run("deleted target rejected", func(t *testing.T) {
		ghost := env.createUser(t, "ghost@pharmacy.test", "worker")
		require.NoError(t, env.users.SoftDelete(ctx, ghost.ID))

		_, err := svc.StartContact(ctx, owner.ID, ghost.ID)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestContactService_StartContact_ExistingConversation(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker := env.createUser(t, "worker@pharmacy.test", "worker")
	conv := env.createConversation(t, owner.ID, worker.ID)

	// Hide it for the owner, then start contact again: the live conversation
	// is reused and un-hidden rather than a new request being created.
	require.NoError(t, env.convs.SetHidden(ctx, conv, owner.ID, true))

	res, err := svc.StartContact(ctx, owner.ID, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Conversation)
	assert.Nil(t, res.Request)
	assert.Equal(t, conv.ID, res.Conversation.ID)
	assert.False(t, res.Conversation.HiddenFor(owner.ID))
}

func TestContactService_AcceptRequest(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker := env.createUser(t, "worker@pharmacy.test", "worker")

	res, err := svc.StartContact(ctx, owner.ID, worker.ID)
	require.NoError(t, err)
	reqID := res.Request.ID

	t.Run("sender cannot accept", func(t *testing.T) {
		// Reads as not-found so the id probe reveals nothing.
		_, err := svc.AcceptRequest(ctx, reqID, owner.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("recipient accepts and conversation opens", func(t *testing.T) {
		conv, err := svc.AcceptRequest(ctx, reqID, worker.ID)
		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.True(t, conv.HasParticipant(owner.ID))
		assert.True(t, conv.HasParticipant(worker.ID))
		assert.False(t, conv.Ended())

		stored, err := env.requests.GetByID(ctx, reqID)
		require.NoError(t, err)
		assert.True(t, stored.IsAccepted)
	})

	t.Run("repeat accept reuses conversation", func(t *testing.T) {
		first, err := env.convs.FindLiveByPair(ctx, owner.ID, worker.ID)
		require.NoError(t, err)
		require.NotNil(t, first)

		conv, err := svc.AcceptRequest(ctx, reqID, worker.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, conv.ID)
	})
}

func TestContactService_AcceptRequest_ReusesHiddenConversation(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker := env.createUser(t, "worker@pharmacy.test", "worker")
	conv := env.createConversation(t, owner.ID, worker.ID)
	require.NoError(t, env.convs.SetHidden(ctx, conv, worker.ID, true))

	req := &models.ConversationRequest{FromUserID: owner.ID, ToUserID: worker.ID}
	require.NoError(t, env.requests.Create(ctx, req))

	accepted, err := svc.AcceptRequest(ctx, req.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, accepted.ID)
	assert.False(t, accepted.HiddenFor(worker.ID))
}

func TestContactService_PendingRequests(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker1 := env.createUser(t, "w1@pharmacy.test", "worker")
	worker2 := env.createUser(t, "w2@pharmacy.test", "worker")

	_, err := svc.StartContact(ctx, worker1.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.StartContact(ctx, worker2.ID, owner.ID)
	require.NoError(t, err)

	pending, err := svc.PendingRequests(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Accepting removes the request from the pending inbox.
	_, err = svc.AcceptRequest(ctx, pending[0].ID, owner.ID)
	require.NoError(t, err)

	pending, err = svc.PendingRequests(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestContactService_DeclineRequest(t *testing.T) {
	env := setupEnv(t)
	svc := env.contactService()
	ctx := context.Background()

	owner := env.createUser(t, "owner@pharmacy.test", "pharmacy")
	worker := env.createUser(t, "worker@pharmacy.test", "worker")

	res, err := svc.StartContact(ctx, owner.ID, worker.ID)
	require.NoError(t, err)
	reqID := res.Request.ID

	t.Run("sender cannot decline", func(t *testing.T) {
		err := svc.DeclineRequest(ctx, reqID, owner.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("recipient declines and the request is gone", func(t *testing.T) {
		require.NoError(t, svc.DeclineRequest(ctx, reqID, worker.ID))

		pending, err := svc.PendingRequests(ctx, worker.ID)
		require.NoError(t, err)
		assert.Empty(t, pending)

		err = svc.DeclineRequest(ctx, reqID, worker.ID)
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("sender may start over after a decline", func(t *testing.T) {
		res, err := svc.StartContact(ctx, owner.ID, worker.ID)
		require.NoError(t, err)
		require.NotNil(t, res.Request)
		assert.False(t, res.AlreadyPending)
	})

	t.Run("accepted request cannot be declined", func(t *testing.T) {
		pending, err := svc.PendingRequests(ctx, worker.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		_, err = svc.AcceptRequest(ctx, pending[0].ID, worker.ID)
		require.NoError(t, err)

		err = svc.DeclineRequest(ctx, pending[0].ID, worker.ID)
		assertCode(t, err, models.CodeInvalidState)
	})
}
