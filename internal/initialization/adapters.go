package initialization

import (
	"fmt"

	discordadapter "github.com/formtalk/formtalk/pkg/adapters/discord"
	googlesheets "github.com/formtalk/formtalk/pkg/adapters/googlesheets"
	notionadapter "github.com/formtalk/formtalk/pkg/adapters/notion"
	pipedriveadapter "github.com/formtalk/formtalk/pkg/adapters/pipedrive"
	slackadapter "github.com/formtalk/formtalk/pkg/adapters/slack"

	"github.com/formtalk/formtalk/internal/mapping"
	"github.com/formtalk/formtalk/pkg/domain"
)

type AdapterDependencies struct {
	TokenSource domain.TokenSource
}

// RegisterAdapters builds every destination adapter and registers it in the
// selector keyed by destination type.
func RegisterAdapters(deps AdapterDependencies) (domain.AdapterSelector, error) {
	selector := domain.NewAdapterSelector()
	engine := mapping.NewEngine()

	selector.Register(domain.DestinationType_Slack, slackadapter.NewSlackAdapter(slackadapter.SlackAdapterDependencies{}))

	discord, err := discordadapter.NewDiscordAdapter()
	if err != nil {
		return nil, fmt.Errorf("failed to create discord adapter: %w", err)
	}

	selector.Register(domain.DestinationType_Discord, discord)

	selector.Register(domain.DestinationType_GoogleSheets, googlesheets.NewGoogleSheetsAdapter(googlesheets.GoogleSheetsAdapterDependencies{
		TokenSource: deps.TokenSource,
		Engine:      engine,
	}))

	selector.Register(domain.DestinationType_Notion, notionadapter.NewNotionAdapter(notionadapter.NotionAdapterDependencies{
		Engine: engine,
	}))

	selector.Register(domain.DestinationType_Pipedrive, pipedriveadapter.NewPipedriveAdapter(pipedriveadapter.PipedriveAdapterDependencies{
		TokenSource: deps.TokenSource,
	}))

	return selector, nil
}
