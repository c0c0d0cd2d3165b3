package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	UnreadCountPrefix    = "user:%d:unread"
	WidgetSummaryPrefix  = "user:%d:widget"
	ConversationPrefix   = "conversation:%d"
	ThreadMessagesPrefix = "conversation:%d:messages"
)

const (
	UserTTL         = 5 * time.Minute
	UnreadTTL       = 30 * time.Second
	WidgetTTL       = 30 * time.Second
	ConversationTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountPrefix, userID)
}

func WidgetSummaryKey(userID uint) string {
	return fmt.Sprintf(WidgetSummaryPrefix, userID)
}

func ConversationKey(conversationID uint) string {
	return fmt.Sprintf(ConversationPrefix, conversationID)
}

func ThreadMessagesKey(conversationID uint) string {
	return fmt.Sprintf(ThreadMessagesPrefix, conversationID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, UnreadCountKey(userID))
	Invalidate(ctx, WidgetSummaryKey(userID))
}

func InvalidateConversation(ctx context.Context, conversationID uint) {
	Invalidate(ctx, ConversationKey(conversationID))
	Invalidate(ctx, ThreadMessagesKey(conversationID))
}
