package discordadapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/formtalk/formtalk/internal/mapping"
	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0x5865F2

// DiscordAdapter executes the destination's channel webhook with one embed
// per completed response, a field per answered question.
type DiscordAdapter struct {
	session *discordgo.Session
}

func NewDiscordAdapter() (*DiscordAdapter, error) {
	// Webhook execution is unauthenticated; the session only provides the
	// HTTP plumbing.
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordAdapter{
		session: session,
	}, nil
}

func (a *DiscordAdapter) Deliver(ctx context.Context, params domain.DeliverParams) error {
	config, ok := params.Destination.Config.(*domain.DiscordConfig)
	if !ok {
		return fmt.Errorf("%w: discord destination has no webhook config", domain.ErrInvalidConfig)
	}

	webhookID, webhookToken, err := parseWebhookURL(config.WebhookURL)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("New response: %s", params.Form.Title),
		Color: embedColor,
	}

	for _, entry := range params.Answers.Answered() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  entry.QuestionText,
			Value: mapping.FormatValue(entry.Value),
		})
	}

	_, err = a.session.WebhookExecute(webhookID, webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}

	return nil
}

// parseWebhookURL splits a https://discord.com/api/webhooks/{id}/{token} URL
// into its id and token parts.
func parseWebhookURL(rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	for i, segment := range segments {
		if segment == "webhooks" && len(segments) > i+2 {
			return segments[i+1], segments[i+2], nil
		}
	}

	return "", "", fmt.Errorf("url %q is not a discord webhook url", rawURL)
}
