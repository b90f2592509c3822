package pipedriveadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/rs/zerolog/log"
)

const DefaultAPIBaseURL = "https://api.pipedrive.com/v1"

// ErrMissingLeadFields is returned when lead creation is enabled but the
// response lacks a name-bearing or email-bearing answer to build the lead
// from.
var ErrMissingLeadFields = errors.New("lead requires both a contact name and an email")

type PipedriveAdapterDependencies struct {
	TokenSource domain.TokenSource
	HTTPClient  *http.Client
}

// PipedriveAdapter upserts a person, and optionally a lead, from a completed
// response. Fields are guessed by scanning question text for contact-shaped
// substrings; the match is best-effort by design, so near-miss questions
// ("work mail") are silently dropped rather than mis-assigned.
type PipedriveAdapter struct {
	tokenSource domain.TokenSource
	httpClient  *http.Client
}

func NewPipedriveAdapter(deps PipedriveAdapterDependencies) *PipedriveAdapter {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &PipedriveAdapter{
		tokenSource: deps.TokenSource,
		httpClient:  httpClient,
	}
}

// contactGuess is the fixed CRM schema the answer set is scanned into.
type contactGuess struct {
	Name      string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
}

// contactName is the name actually carried by the answers; empty when no
// name-bearing question was answered.
func (g contactGuess) contactName() string {
	if g.Name != "" {
		return g.Name
	}

	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

func (g contactGuess) fullName() string {
	if name := g.contactName(); name != "" {
		return name
	}

	return g.Email
}

func (a *PipedriveAdapter) Deliver(ctx context.Context, params domain.DeliverParams) error {
	config, ok := params.Destination.Config.(*domain.PipedriveConfig)
	if !ok {
		return fmt.Errorf("%w: pipedrive destination has no config", domain.ErrInvalidConfig)
	}

	guess := guessContact(params.Answers)

	// A lead needs a real contact name and an email; the email fallback used
	// for the person name is not enough.
	if config.CreateLeads && (guess.contactName() == "" || guess.Email == "") {
		return ErrMissingLeadFields
	}

	if guess.Email == "" {
		// Not an error: a form without an email-bearing answer has nothing
		// to upsert into the CRM.
		log.Debug().
			Str("destination_id", params.Destination.ID).
			Str("form_id", params.Form.ID).
			Msg("No email-bearing answer found, skipping pipedrive delivery")

		return nil
	}

	accessToken, err := a.tokenSource.AccessToken(ctx, params.Destination)
	if err != nil {
		return err
	}

	client := newClient(config.APIBaseURL, accessToken, a.httpClient)

	personID, err := a.upsertPerson(ctx, client, guess)
	if err != nil {
		return err
	}

	if config.CreateLeads {
		if err := a.createLead(ctx, client, guess, params.Form, personID); err != nil {
			return err
		}
	}

	return nil
}

func (a *PipedriveAdapter) upsertPerson(ctx context.Context, client *client, guess contactGuess) (int, error) {
	existingID, found, err := client.FindPersonByEmail(ctx, guess.Email)
	if err != nil {
		return 0, err
	}

	var orgID int
	if guess.Company != "" {
		orgID, err = client.FindOrCreateOrganization(ctx, guess.Company)
		if err != nil {
			return 0, err
		}
	}

	person := personPayload{
		Name:  guess.fullName(),
		Email: guess.Email,
		Phone: guess.Phone,
		OrgID: orgID,
	}

	if found {
		if err := client.UpdatePerson(ctx, existingID, person); err != nil {
			return 0, err
		}

		return existingID, nil
	}

	return client.CreatePerson(ctx, person)
}

func (a *PipedriveAdapter) createLead(ctx context.Context, client *client, guess contactGuess, form domain.Form, personID int) error {
	title := fmt.Sprintf("%s - %s", guess.fullName(), form.Title)

	return client.CreateLead(ctx, title, personID)
}

// guessContact scans question text for contact-shaped substrings and assigns
// the first matching answer per slot.
func guessContact(answers domain.AnswerSet) contactGuess {
	guess := contactGuess{}

	for _, entry := range answers.Answered() {
		value, ok := entry.Value.(string)
		if !ok || value == "" {
			continue
		}

		question := strings.ToLower(entry.QuestionText)

		switch {
		case strings.Contains(question, "email"):
			if guess.Email == "" {
				guess.Email = value
			}
		case strings.Contains(question, "first name"):
			if guess.FirstName == "" {
				guess.FirstName = value
			}
		case strings.Contains(question, "last name"):
			if guess.LastName == "" {
				guess.LastName = value
			}
		case strings.Contains(question, "phone"):
			if guess.Phone == "" {
				guess.Phone = value
			}
		case strings.Contains(question, "company") || strings.Contains(question, "organization"):
			if guess.Company == "" {
				guess.Company = value
			}
		case strings.Contains(question, "name"):
			if guess.Name == "" {
				guess.Name = value
			}
		}
	}

	return guess
}
