// Package validation contains input validation helpers shared by services
// and handlers.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageContentLen bounds message bodies in characters.
const MaxMessageContentLen = 10000

// ValidateMessageContent rejects empty or oversized message bodies.
// Whitespace-only content counts as empty.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageContentLen {
		return fmt.Errorf("message content too long (max %d characters)", MaxMessageContentLen)
	}
	return nil
}
