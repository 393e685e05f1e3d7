package llm

import (
	"context"
	"errors"
)

// ErrNoCompletion is returned when the backend answers without any usable choice.
var ErrNoCompletion = errors.New("generator returned no completion")

// Role of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a generation conversation.
type Message struct {
	Role    Role
	Content string
}

// Generator produces text from a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
