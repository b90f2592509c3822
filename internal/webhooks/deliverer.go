package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Second

type DelivererDependencies struct {
	SubscriptionStore domain.SubscriptionStore
	HTTPClient        *http.Client
	Timeout           time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Deliverer POSTs the fixed event envelope to every enabled subscription
// whose subscribed events contain the firing event. Deliveries are
// independent and concurrent; a non-2xx or transport failure is recorded on
// the subscription and logged, never retried or surfaced to the submitter.
type Deliverer struct {
	subscriptions domain.SubscriptionStore
	httpClient    *http.Client
	timeout       time.Duration
	now           func() time.Time
}

func NewDeliverer(deps DelivererDependencies) *Deliverer {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Deliverer{
		subscriptions: deps.SubscriptionStore,
		httpClient:    httpClient,
		timeout:       timeout,
		now:           now,
	}
}

func (d *Deliverer) DeliverEvent(ctx context.Context, event domain.ResponseEventType, form domain.Form, response domain.Response, answers domain.AnswerSet) error {
	subscriptions, err := d.subscriptions.GetEnabledByOwner(ctx, form.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load webhook subscriptions: %w", err)
	}

	var wg sync.WaitGroup

	for _, subscription := range subscriptions {
		if !subscription.SubscribedTo(event) {
			continue
		}

		wg.Add(1)

		go func(subscription *domain.WebhookSubscription) {
			defer wg.Done()

			d.deliverOne(ctx, subscription, event, form, response, answers)
		}(subscription)
	}

	wg.Wait()

	return nil
}

func (d *Deliverer) deliverOne(ctx context.Context, subscription *domain.WebhookSubscription, event domain.ResponseEventType, form domain.Form, response domain.Response, answers domain.AnswerSet) {
	envelope := domain.NewWebhookEnvelope(uuid.NewString(), event, form, response, answers, d.now())

	statusCode, err := d.post(ctx, subscription.URL, envelope)

	if recordErr := d.subscriptions.RecordTrigger(ctx, subscription.ID, statusCode, d.now()); recordErr != nil {
		log.Error().
			Err(recordErr).
			Str("subscription_id", subscription.ID).
			Msg("Failed to record webhook trigger")
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("subscription_id", subscription.ID).
			Str("event", string(event)).
			Str("response_id", response.ID).
			Msg("Webhook delivery failed")

		return
	}

	log.Debug().
		Str("subscription_id", subscription.ID).
		Str("event", string(event)).
		Int("status_code", statusCode).
		Msg("Webhook delivered")
}

// post sends the envelope and returns the HTTP status code, 0 on transport
// failure.
func (d *Deliverer) post(ctx context.Context, targetURL string, envelope domain.WebhookEnvelope) (int, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to POST webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}
