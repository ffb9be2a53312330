package broadcast

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"
)

// FormatEvent renders an event as a single chat line.
func FormatEvent(event Event) string {
	switch event.Type {
	case "claimed":
		return fmt.Sprintf("Line %d claimed by %s", event.LineNumber, event.Actor)
	case "assigned":
		return fmt.Sprintf("Line %d assigned to %s", event.LineNumber, event.Actor)
	case "released":
		return fmt.Sprintf("Line %d released (by %s)", event.LineNumber, event.Actor)
	case "blacked_out":
		return fmt.Sprintf("Line %d blacked out by %s", event.LineNumber, event.Actor)
	default:
		return fmt.Sprintf("Line %d: %s (%s)", event.LineNumber, event.Type, event.Actor)
	}
}

// SlackSink posts events to a Slack incoming webhook.
type SlackSink struct {
	WebhookURL string
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Deliver(event Event) error {
	msg := &slack.WebhookMessage{Text: FormatEvent(event)}
	if err := slack.PostWebhook(s.WebhookURL, msg); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	return nil
}

// DiscordSink posts events to a Discord channel through a bot session.
type DiscordSink struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordSink builds a sink from a bot token and target channel.
// The session is used for outbound REST calls only; no gateway
// connection is opened.
func NewDiscordSink(token, channelID string) (*DiscordSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("broadcast: discord session: %w", err)
	}
	return &DiscordSink{session: session, channelID: channelID}, nil
}

func (d *DiscordSink) Name() string { return "discord" }

func (d *DiscordSink) Deliver(event Event) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, FormatEvent(event)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
