// Package line delivers push notifications through the LINE Messaging API.
package line

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/rs/zerolog"
)

// Notifier sends text push messages to a LINE user.
type Notifier struct {
	client *messaging_api.MessagingApiAPI
	logger zerolog.Logger
}

// New builds a notifier from a channel access token.
func New(channelToken string, logger zerolog.Logger) (*Notifier, error) {
	if channelToken == "" {
		return nil, fmt.Errorf("line channel access token is required")
	}

	client, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create line client: %w", err)
	}

	return &Notifier{
		client: client,
		logger: logger.With().Str("component", "line_notifier").Logger(),
	}, nil
}

// Push sends one text message to the given LINE user id.
func (n *Notifier) Push(ctx context.Context, to, text string) error {
	if to == "" {
		return fmt.Errorf("line user id is required")
	}

	_, err := n.client.PushMessage(&messaging_api.PushMessageRequest{
		To: to,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}

	n.logger.Debug().Str("to", to).Msg("push message sent")
	return nil
}
