package chat

import "context"

// Client defines the chat platform operations the announcer depends on.
// This keeps the application layer free of any specific SDK.
type Client interface {
	SendMessage(ctx context.Context, channelID, text string) error
	// DisplayName resolves a user id to a human-readable name.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Directory answers membership questions about the chat workspace.
type Directory interface {
	// ChannelMembers lists the user ids in channelID.
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)
	IsBot(ctx context.Context, userID string) (bool, error)
}

// Markup produces the platform-specific tokens an announcement must contain.
type Markup interface {
	Mention(userID string) string
	Broadcast() string
}
