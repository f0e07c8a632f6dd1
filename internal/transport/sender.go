// Package transport implements the outbound half of the chat transport
// contract: core code never speaks to a concrete chat provider directly,
// it hands a (chat_id, html_text, optional inline keyboard) tuple to a
// Sender. The concrete chat adapter (WhatsApp, Telegram, ...) lives
// outside the core module, so this package only defines the contract
// plus one default implementation that lets the binary run standalone.
package transport

import (
	"context"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// Sender delivers one outbound turn to a chat_id. The interface is
// one-directional by design: the inbound side (receipts, participant
// responses) stays inside the adapter itself, so no Receipts()/
// Responses() channels are needed at this layer.
type Sender interface {
	// ValidateAndCanonicalizeChatID validates and canonicalizes a chat_id
	// before it is persisted or sent to.
	ValidateAndCanonicalizeChatID(chatID string) (string, error)

	// Send delivers htmlText (already restricted to the allowed HTML
	// subset by Sanitize) and an optional inline keyboard to chatID.
	Send(ctx context.Context, chatID, htmlText string, buttons [][]models.Button) error
}
