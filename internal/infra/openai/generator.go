package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brightday_bot/internal/domain/llm"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Config selects the endpoint and model of a Generator.
type Config struct {
	APIKey    string
	BaseURL   string // empty for the public OpenAI API
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Generator implements llm.Generator with the chat completions API.
type Generator struct {
	client    *goopenai.Client
	model     string
	maxTokens int
	logger    *logrus.Entry
}

func NewGenerator(cfg Config, logger *logrus.Entry) *Generator {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Generator{
		client:    goopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

func (g *Generator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  make([]goopenai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens: g.maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{Role: toRole(m.Role), Content: m.Content})
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion with %s: %w", g.model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completion with %s: %w", g.model, llm.ErrNoCompletion)
	}

	g.logger.WithFields(logrus.Fields{
		"model":             g.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"elapsed":           time.Since(start).String(),
	}).Debug("Chat completion received.")
	return resp.Choices[0].Message.Content, nil
}

func toRole(r llm.Role) string {
	switch r {
	case llm.RoleSystem:
		return goopenai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant
	default:
		return goopenai.ChatMessageRoleUser
	}
}
