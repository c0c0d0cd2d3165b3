package database

import (
	"testing"

	modelspkg "pharmalink/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesMessagingTables(t *testing.T) {
	var hasConversation, hasMessage, hasRequest bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *modelspkg.Conversation:
			hasConversation = true
		case *modelspkg.Message:
			hasMessage = true
		case *modelspkg.ConversationRequest:
			hasRequest = true
		}
	}
	require.True(t, hasConversation, "PersistentModels should include Conversation")
	require.True(t, hasMessage, "PersistentModels should include Message")
	require.True(t, hasRequest, "PersistentModels should include ConversationRequest")
}
