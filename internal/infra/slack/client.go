package slack

import (
	"context"
	"fmt"
	"sync"

	"brightday_bot/internal/domain/chat"

	"github.com/sirupsen/logrus"
	goslack "github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

// membersPageSize is the conversations.members page size.
const membersPageSize = 1000

// Client implements chat.Client and chat.Directory on top of the Slack Web
// API. Calls share one rate limiter, and resolved display names and bot flags
// are cached for the process lifetime.
type Client struct {
	api     *goslack.Client
	limiter *rate.Limiter
	logger  *logrus.Entry

	mu    sync.RWMutex
	names map[string]string
	bots  map[string]bool
}

var (
	_ chat.Client    = (*Client)(nil)
	_ chat.Directory = (*Client)(nil)
)

// NewClient builds a Slack client. apiURL overrides the Web API base URL and
// may be empty.
func NewClient(token, apiURL string, ratePerSec float64, logger *logrus.Entry) *Client {
	var opts []goslack.Option
	if apiURL != "" {
		opts = append(opts, goslack.OptionAPIURL(apiURL))
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		api:     goslack.New(token, opts...),
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  logger,
		names:   map[string]string{},
		bots:    map[string]bool{},
	}
}

// SendMessage posts text to channelID.
func (c *Client) SendMessage(ctx context.Context, channelID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack rate limiter: %w", err)
	}
	_, ts, err := c.api.PostMessageContext(ctx, channelID, goslack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post slack message to %s: %w", channelID, err)
	}
	c.logger.WithFields(logrus.Fields{"channel_id": channelID, "ts": ts}).Debug("Slack message posted.")
	return nil
}

// DisplayName returns the user's display name, falling back to the real name.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	c.mu.RLock()
	name, ok := c.names[userID]
	c.mu.RUnlock()
	if ok {
		return name, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("slack rate limiter: %w", err)
	}
	profile, err := c.api.GetUserProfileContext(ctx, &goslack.GetUserProfileParameters{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to get slack profile for %s: %w", userID, err)
	}
	name = profile.DisplayName
	if name == "" {
		name = profile.RealName
	}
	if name == "" {
		return "", fmt.Errorf("slack profile for %s has no name", userID)
	}

	c.mu.Lock()
	c.names[userID] = name
	c.mu.Unlock()
	return name, nil
}

// ChannelMembers lists every member of channelID, following pagination cursors.
func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	params := &goslack.GetUsersInConversationParameters{ChannelID: channelID, Limit: membersPageSize}
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("slack rate limiter: %w", err)
		}
		page, cursor, err := c.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", channelID, err)
		}
		members = append(members, page...)
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}
	c.logger.WithFields(logrus.Fields{"channel_id": channelID, "members": len(members)}).Debug("Slack channel members retrieved.")
	return members, nil
}

// IsBot reports whether userID belongs to a bot user.
func (c *Client) IsBot(ctx context.Context, userID string) (bool, error) {
	c.mu.RLock()
	bot, ok := c.bots[userID]
	c.mu.RUnlock()
	if ok {
		return bot, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("slack rate limiter: %w", err)
	}
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get slack user %s: %w", userID, err)
	}

	c.mu.Lock()
	c.bots[userID] = user.IsBot
	c.mu.Unlock()
	return user.IsBot, nil
}

// Markup renders Slack mention tokens.
type Markup struct{}

func (Markup) Mention(userID string) string { return "<@" + userID + ">" }

func (Markup) Broadcast() string { return "<!channel>" }
