package slackadapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/formtalk/formtalk/internal/mapping"
	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/slack-go/slack"
)

type SlackAdapterDependencies struct {
	HTTPClient *http.Client
}

// SlackAdapter posts one block-structured message per completed response to
// the incoming-webhook URL stored in the destination config.
type SlackAdapter struct {
	httpClient *http.Client
}

func NewSlackAdapter(deps SlackAdapterDependencies) *SlackAdapter {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &SlackAdapter{
		httpClient: httpClient,
	}
}

func (a *SlackAdapter) Deliver(ctx context.Context, params domain.DeliverParams) error {
	config, ok := params.Destination.Config.(*domain.SlackConfig)
	if !ok {
		return fmt.Errorf("%w: slack destination has no webhook config", domain.ErrInvalidConfig)
	}

	message := &slack.WebhookMessage{
		Blocks: &slack.Blocks{
			BlockSet: buildBlocks(params.Form, params.Answers),
		},
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, config.WebhookURL, a.httpClient, message); err != nil {
		return fmt.Errorf("failed to post slack webhook message: %w", err)
	}

	return nil
}

func buildBlocks(form domain.Form, answers domain.AnswerSet) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("New response: %s", form.Title), false, false),
		),
	}

	for _, entry := range answers.Answered() {
		text := fmt.Sprintf("*%s*\n%s", entry.QuestionText, mapping.FormatValue(entry.Value))

		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil,
			nil,
		))
	}

	return blocks
}
