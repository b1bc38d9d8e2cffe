package messaging

import (
	"context"
	"fmt"

	"github.com/peterssg513/willowandwater-sub001/internal/utils"
	"github.com/slack-go/slack"
)

type SlackAlerter struct {
	client    *slack.Client
	channelID string
}

// NewSlackAlerter returns nil unless both a bot token and a channel are set.
func NewSlackAlerter(token, channelID string) Alerter {
	if token == "" || channelID == "" {
		utils.Logger.Info("Slack alerts disabled")
		return nil
	}
	return &SlackAlerter{client: slack.New(token), channelID: channelID}
}

func (s *SlackAlerter) Alert(ctx context.Context, message string) error {
	_, _, err := s.client.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionText(message, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}
