package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/rs/zerolog/log"
)

const defaultAdapterTimeout = 30 * time.Second

// EventDeliverer fires response lifecycle events at subscribed webhooks.
type EventDeliverer interface {
	DeliverEvent(ctx context.Context, event domain.ResponseEventType, form domain.Form, response domain.Response, answers domain.AnswerSet) error
}

type CoordinatorDependencies struct {
	ResponseStore    domain.ResponseStore
	DestinationStore domain.DestinationStore
	MappingStore     domain.FieldMappingStore
	AdapterSelector  domain.AdapterSelector
	WebhookDeliverer EventDeliverer

	// AdapterTimeout bounds each adapter call so one slow destination cannot
	// extend total fan-out latency unboundedly.
	AdapterTimeout time.Duration
}

// Coordinator fans a completed response out to every enabled destination of
// the form's owner. Destinations are delivered concurrently and
// independently: a failing destination is logged and the rest still run.
// Nothing is ever reported back to the submitter.
type Coordinator struct {
	responses    domain.ResponseStore
	destinations domain.DestinationStore
	mappings     domain.FieldMappingStore
	selector     domain.AdapterSelector
	webhooks     EventDeliverer
	timeout      time.Duration
}

func NewCoordinator(deps CoordinatorDependencies) *Coordinator {
	timeout := deps.AdapterTimeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	return &Coordinator{
		responses:    deps.ResponseStore,
		destinations: deps.DestinationStore,
		mappings:     deps.MappingStore,
		selector:     deps.AdapterSelector,
		webhooks:     deps.WebhookDeliverer,
		timeout:      timeout,
	}
}

// OnResponseCompleted handles a response's transition into the terminal
// completed state.
func (c *Coordinator) OnResponseCompleted(ctx context.Context, responseID string) error {
	return c.OnResponseEvent(ctx, responseID, domain.ResponseEvent_Completed)
}

// OnResponseEvent fires webhooks for every lifecycle event and, for the
// completed event, additionally dispatches to all enabled destinations.
func (c *Coordinator) OnResponseEvent(ctx context.Context, responseID string, event domain.ResponseEventType) error {
	response, err := c.responses.GetResponse(ctx, responseID)
	if err != nil {
		return fmt.Errorf("failed to load response %s: %w", responseID, err)
	}

	form, err := c.responses.GetForm(ctx, response.FormID)
	if err != nil {
		return fmt.Errorf("failed to load form %s: %w", response.FormID, err)
	}

	answers := domain.NewAnswerSet(*form, *response)

	var wg sync.WaitGroup

	if event == domain.ResponseEvent_Completed {
		wg.Add(1)

		go func() {
			defer wg.Done()

			c.dispatchDestinations(ctx, *form, *response, answers)
		}()
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := c.webhooks.DeliverEvent(ctx, event, *form, *response, answers); err != nil {
			log.Error().
				Err(err).
				Str("response_id", response.ID).
				Str("event", string(event)).
				Msg("Webhook fan-out failed")
		}
	}()

	wg.Wait()

	return nil
}

func (c *Coordinator) dispatchDestinations(ctx context.Context, form domain.Form, response domain.Response, answers domain.AnswerSet) {
	destinations, err := c.destinations.GetEnabledByOwner(ctx, form.OwnerID)
	if err != nil {
		log.Error().
			Err(err).
			Str("owner_id", form.OwnerID).
			Str("response_id", response.ID).
			Msg("Failed to load destinations for dispatch")

		return
	}

	var wg sync.WaitGroup

	for _, destination := range destinations {
		wg.Add(1)

		go func(destination *domain.Destination) {
			defer wg.Done()

			c.deliverOne(ctx, destination, form, response, answers)
		}(destination)
	}

	wg.Wait()
}

// deliverOne is the failure isolation boundary: any error or panic from one
// destination is caught and logged here and never propagates.
func (c *Coordinator) deliverOne(ctx context.Context, destination *domain.Destination, form domain.Form, response domain.Response, answers domain.AnswerSet) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error().
				Str("destination_id", destination.ID).
				Str("destination_type", string(destination.Type)).
				Str("response_id", response.ID).
				Interface("panic", recovered).
				Msg("Destination delivery panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	adapter, err := c.selector.Select(ctx, destination.Type)
	if err != nil {
		c.logFailure(destination, response, err)
		return
	}

	fieldMapping, err := c.mappings.GetMapping(ctx, form.ID, destination.Type)
	if err != nil {
		c.logFailure(destination, response, err)
		return
	}

	err = adapter.Deliver(ctx, domain.DeliverParams{
		Destination: destination,
		Form:        form,
		Answers:     answers,
		Mapping:     fieldMapping,
		SubmittedAt: response.SubmittedAt,
	})
	if err != nil {
		c.logFailure(destination, response, err)
		return
	}

	if err := c.destinations.MarkSynced(ctx, destination.ID, time.Now()); err != nil {
		log.Error().
			Err(err).
			Str("destination_id", destination.ID).
			Msg("Failed to record destination sync time")
	}

	log.Debug().
		Str("destination_id", destination.ID).
		Str("destination_type", string(destination.Type)).
		Str("response_id", response.ID).
		Msg("Delivered response to destination")
}

func (c *Coordinator) logFailure(destination *domain.Destination, response domain.Response, err error) {
	log.Warn().
		Str("destination_id", destination.ID).
		Str("destination_type", string(destination.Type)).
		Str("response_id", response.ID).
		Str("message", err.Error()).
		Msg("Destination delivery failed")
}
