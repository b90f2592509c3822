package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ProviderConfig is the OAuth client registration for one destination type.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	AuthStyle    oauth2.AuthStyle
}

type ManagerDependencies struct {
	DestinationStore domain.DestinationStore
	Providers        map[domain.DestinationType]ProviderConfig

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Manager exchanges stored refresh tokens for fresh access tokens when a
// send finds the credential within the refresh margin, and persists the
// rotated credential so later sends reuse it.
type Manager struct {
	store     domain.DestinationStore
	providers map[domain.DestinationType]ProviderConfig
	now       func() time.Time
}

func NewManager(deps ManagerDependencies) *Manager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		store:     deps.DestinationStore,
		providers: deps.Providers,
		now:       now,
	}
}

func (m *Manager) AccessToken(ctx context.Context, destination *domain.Destination) (string, error) {
	config, ok := destination.Config.(domain.OAuthConfig)
	if !ok {
		return "", fmt.Errorf("destination %s does not carry an oauth credential", destination.Type)
	}

	credential := config.Credential()

	if !credential.NeedsRefresh(m.now()) {
		return credential.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, destination.Type, credential)
	if err != nil {
		return "", fmt.Errorf("failed to refresh %s token: %w", destination.Type, err)
	}

	config.SetCredential(refreshed)

	if err := m.store.UpdateCredential(ctx, destination.ID, refreshed); err != nil {
		// The in-memory credential is still valid for this send; the next
		// completion will refresh again.
		log.Error().
			Err(err).
			Str("destination_id", destination.ID).
			Str("destination_type", string(destination.Type)).
			Msg("Failed to persist refreshed credential")
	}

	log.Debug().
		Str("destination_id", destination.ID).
		Str("destination_type", string(destination.Type)).
		Time("expires_at", refreshed.ExpiresAt).
		Msg("Refreshed destination access token")

	return refreshed.AccessToken, nil
}

func (m *Manager) refresh(ctx context.Context, destinationType domain.DestinationType, credential domain.OAuthCredential) (domain.OAuthCredential, error) {
	provider, ok := m.providers[destinationType]
	if !ok {
		return domain.OAuthCredential{}, fmt.Errorf("no oauth provider configured for %s", destinationType)
	}

	if credential.RefreshToken == "" {
		return domain.OAuthCredential{}, fmt.Errorf("credential has no refresh token")
	}

	oauthConfig := oauth2.Config{
		ClientID:     provider.ClientID,
		ClientSecret: provider.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  provider.TokenURL,
			AuthStyle: provider.AuthStyle,
		},
	}

	token, err := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: credential.RefreshToken}).Token()
	if err != nil {
		return domain.OAuthCredential{}, err
	}

	refreshed := domain.OAuthCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	// Providers that do not rotate refresh tokens return an empty one.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = credential.RefreshToken
	}

	return refreshed, nil
}
