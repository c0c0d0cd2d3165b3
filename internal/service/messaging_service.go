package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pharmalink/internal/cache"
	"pharmalink/internal/featureflags"
	"pharmalink/internal/models"
	"pharmalink/internal/observability"
	"pharmalink/internal/repository"
	"pharmalink/internal/validation"
)

// MessagingService handles message and conversation lifecycle operations
// inside established conversations.
type MessagingService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	flags    *featureflags.Manager
}

// NewMessagingService returns a new MessagingService.
func NewMessagingService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	flags *featureflags.Manager,
) *MessagingService {
	return &MessagingService{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		flags:    flags,
	}
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	SenderID       uint
	ConversationID uint
	Content        string
}

// ThreadMessage is a message as rendered for one viewer: recalled messages
// carry the placeholder, and per-side deleted messages are filtered out
// before this projection is built.
type ThreadMessage struct {
	ID         uint       `json:"id"`
	SenderID   uint       `json:"sender_id"`
	Content    string     `json:"content"`
	SentAt     time.Time  `json:"sent_at"`
	IsRead     bool       `json:"is_read"`
	IsRecalled bool       `json:"is_recalled"`
	RecalledAt *time.Time `json:"recalled_at,omitempty"`
	Mine       bool       `json:"mine"`
}

// Thread is a conversation plus the messages its viewer may see.
type Thread struct {
	Conversation *models.Conversation `json:"conversation"`
	OtherUser    *models.User         `json:"other_user,omitempty"`
	Messages     []ThreadMessage      `json:"messages"`
	// MarkedRead is the number of messages this fetch transitioned to read.
	MarkedRead int64 `json:"-"`
}

// InboxEntry is one conversation row in a user's inbox listing.
type InboxEntry struct {
	ConversationID uint         `json:"conversation_id"`
	OtherUser      *models.User `json:"other_user,omitempty"`
	LastMessage    string       `json:"last_message"`
	LastMessageAt  *time.Time   `json:"last_message_at,omitempty"`
	LastSenderID   uint         `json:"last_sender_id,omitempty"`
	UnreadCount    int64        `json:"unread_count"`
}

// WidgetSummary is the compact projection polled by the site-wide
// messaging widget.
type WidgetSummary struct {
	TotalUnread   int64        `json:"total_unread"`
	Conversations []InboxEntry `json:"conversations"`
}

// widgetConversationLimit caps how many conversations the widget shows.
const widgetConversationLimit = 5

// loadForParticipant fetches the conversation and verifies membership.
func (s *MessagingService) loadForParticipant(ctx context.Context, conversationID, userID uint) (*models.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, models.NewForbiddenError("You are not a participant in this conversation")
	}
	return conv, nil
}

// SendMessage appends a message to a live conversation. Sending is refused
// once a conversation has ended, and from a side the sender has hidden.
func (s *MessagingService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, *models.Conversation, error) {
	span, ctx := observability.NewSpan(ctx, "messaging.send")
	defer span.End()
	span.AddAttributes(attribute.Int("conversation.id", int(in.ConversationID)))

	if err := validation.ValidateMessageContent(in.Content); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}

	conv, err := s.loadForParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, nil, err
	}
	if conv.Ended() {
		return nil, nil, models.NewInvalidStateError("Conversation has ended")
	}
	if conv.HiddenFor(in.SenderID) {
		return nil, nil, models.NewInvalidStateError("Conversation is hidden; reopen it before sending")
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		SentAt:         time.Now(),
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	cache.InvalidateConversation(ctx, conv.ID)
	cache.InvalidateUser(ctx, conv.OtherParticipant(in.SenderID))
	return msg, conv, nil
}

// GetThread returns the conversation's messages as seen by userID, oldest
// first. Fetching the thread marks every visible incoming message as read;
// the operation is idempotent.
func (s *MessagingService) GetThread(ctx context.Context, conversationID, userID uint) (*Thread, error) {
	span, ctx := observability.NewSpan(ctx, "messaging.thread")
	defer span.End()
	span.AddAttributes(attribute.Int("conversation.id", int(conversationID)))

	conv, err := s.loadForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	marked, err := s.msgRepo.MarkThreadRead(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if marked > 0 {
		cache.InvalidateUser(ctx, userID)
	}

	thread := &Thread{
		Conversation: conv,
		Messages:     make([]ThreadMessage, 0, len(messages)),
		MarkedRead:   marked,
	}
	if other, err := s.userRepo.GetByID(ctx, conv.OtherParticipant(userID)); err == nil {
		thread.OtherUser = other
	}

	for i := range messages {
		m := &messages[i]
		if !m.VisibleTo(userID) {
			continue
		}
		isRead := m.IsRead || (m.SenderID != userID)
		thread.Messages = append(thread.Messages, ThreadMessage{
			ID:         m.ID,
			SenderID:   m.SenderID,
			Content:    m.RenderedContent(),
			SentAt:     m.SentAt,
			IsRead:     isRead,
			IsRecalled: m.IsRecalled,
			RecalledAt: m.RecalledAt,
			Mine:       m.SenderID == userID,
		})
	}
	return thread, nil
}

// DeleteMessage hides a message from the caller's side only. The
// counterparty keeps seeing it. Deletion is refused once the conversation
// has ended.
//
// Behind the legacy_hard_delete flag the message row is removed outright.
func (s *MessagingService) DeleteMessage(ctx context.Context, messageID, userID uint) error {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	conv, err := s.loadForParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return err
	}
	if conv.Ended() {
		return models.NewInvalidStateError("Conversation has ended")
	}

	if s.flags.Enabled(featureflags.LegacyHardDelete, userID) {
		if err := s.msgRepo.HardDelete(ctx, messageID); err != nil {
			return err
		}
		cache.InvalidateConversation(ctx, conv.ID)
		cache.InvalidateUser(ctx, userID)
		return nil
	}

	column := "deleted_by_receiver"
	if msg.SenderID == userID {
		column = "deleted_by_sender"
	}
	if err := s.msgRepo.SetDeletedFlag(ctx, messageID, column); err != nil {
		return err
	}
	cache.InvalidateConversation(ctx, conv.ID)
	cache.InvalidateUser(ctx, userID)
	return nil
}

// RecallMessage retracts a message for both sides. Only the sender may
// recall, and only while the conversation is live. Recalling an already
// recalled message is a no-op.
func (s *MessagingService) RecallMessage(ctx context.Context, messageID, userID uint) (*models.Message, *models.Conversation, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg.SenderID != userID {
		return nil, nil, models.NewForbiddenError("Only the sender can recall a message")
	}
	conv, err := s.loadForParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return nil, nil, err
	}
	if conv.Ended() {
		return nil, nil, models.NewInvalidStateError("Conversation has ended")
	}

	if !msg.IsRecalled {
		now := time.Now()
		if err := s.msgRepo.Recall(ctx, messageID, now); err != nil {
			return nil, nil, err
		}
		msg.IsRecalled = true
		msg.RecalledAt = &now
	}

	cache.InvalidateConversation(ctx, conv.ID)
	cache.InvalidateUser(ctx, conv.OtherParticipant(userID))
	return msg, conv, nil
}

// HideConversation removes the conversation from the caller's inbox without
// affecting the counterparty. Hiding works on ended conversations too.
//
// Behind the legacy_hard_delete flag the old destructive behavior applies
// instead: the conversation and all its messages are removed for both sides.
func (s *MessagingService) HideConversation(ctx context.Context, conversationID, userID uint) error {
	conv, err := s.loadForParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	if s.flags.Enabled(featureflags.LegacyHardDelete, userID) {
		if err := s.convRepo.HardDelete(ctx, conversationID); err != nil {
			return err
		}
	} else {
		if err := s.convRepo.SetHidden(ctx, conv, userID, true); err != nil {
			return err
		}
	}

	cache.InvalidateUser(ctx, userID)
	return nil
}

// EndConversation moves the conversation to its terminal state. Either
// participant may end it; ending twice is an invalid state.
func (s *MessagingService) EndConversation(ctx context.Context, conversationID, userID uint) (*models.Conversation, error) {
	conv, err := s.loadForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv.Ended() {
		return nil, models.NewInvalidStateError("Conversation has already ended")
	}

	if err := s.convRepo.End(ctx, conv, userID, time.Now()); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, conv.UserLowID)
	cache.InvalidateUser(ctx, conv.UserHighID)
	return conv, nil
}

// UnreadCount returns the total number of unread incoming messages across
// all conversations the user has not hidden.
func (s *MessagingService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadCountKey(userID), &count, cache.UnreadTTL, func() error {
		var fetchErr error
		count, fetchErr = s.msgRepo.CountUnreadForUser(ctx, userID)
		return fetchErr
	})
	if err != nil {
		if models.IsSchemaMissingError(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Inbox lists the user's visible conversations, most recent activity first.
// Conversations without messages sort last.
func (s *MessagingService) Inbox(ctx context.Context, userID uint) ([]InboxEntry, error) {
	conversations, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.msgRepo.UnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	unreadByConv := make(map[uint]int64, len(unread))
	for _, row := range unread {
		unreadByConv[row.ConversationID] = row.Count
	}

	entries := make([]InboxEntry, 0, len(conversations))
	for i := range conversations {
		conv := &conversations[i]
		entry := InboxEntry{
			ConversationID: conv.ID,
			UnreadCount:    unreadByConv[conv.ID],
		}
		if other, err := s.userRepo.GetByID(ctx, conv.OtherParticipant(userID)); err == nil {
			entry.OtherUser = other
		}
		// Preview comes from the newest message this viewer can still see,
		// so a per-side delete falls back to the one before it.
		last, err := s.msgRepo.LastVisibleTo(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			entry.LastMessageAt = &last.SentAt
			entry.LastSenderID = last.SenderID
			entry.LastMessage = last.RenderedContent()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Widget builds the compact summary for the messaging widget: total unread
// plus the few most recently active conversations.
func (s *MessagingService) Widget(ctx context.Context, userID uint) (*WidgetSummary, error) {
	summary := &WidgetSummary{}
	err := cache.Aside(ctx, cache.WidgetSummaryKey(userID), summary, cache.WidgetTTL, func() error {
		entries, fetchErr := s.Inbox(ctx, userID)
		if fetchErr != nil {
			return fetchErr
		}
		total, fetchErr := s.msgRepo.CountUnreadForUser(ctx, userID)
		if fetchErr != nil {
			return fetchErr
		}
		if len(entries) > widgetConversationLimit {
			entries = entries[:widgetConversationLimit]
		}
		summary.TotalUnread = total
		summary.Conversations = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
