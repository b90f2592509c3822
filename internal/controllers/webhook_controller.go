package controllers

import (
	"errors"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

type WebhookController struct {
	subscriptions domain.SubscriptionStore
}

type WebhookControllerDependencies struct {
	SubscriptionStore domain.SubscriptionStore
}

func NewWebhookController(deps WebhookControllerDependencies) *WebhookController {
	return &WebhookController{
		subscriptions: deps.SubscriptionStore,
	}
}

type createSubscriptionRequest struct {
	OwnerID string   `json:"owner_id"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
}

type subscriptionResponse struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	URL             string     `json:"url"`
	Events          []string   `json:"events"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	LastStatusCode  int        `json:"last_status_code,omitempty"`
}

func (c *WebhookController) CreateSubscription(ctx fiber.Ctx) error {
	var req createSubscriptionRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.OwnerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id is required")
	}

	events := make([]domain.ResponseEventType, 0, len(req.Events))
	for _, event := range req.Events {
		events = append(events, domain.ResponseEventType(event))
	}

	subscription := &domain.WebhookSubscription{
		ID:               xid.New().String(),
		OwnerID:          req.OwnerID,
		URL:              req.URL,
		SubscribedEvents: events,
		Enabled:          true,
		CreatedAt:        time.Now(),
	}

	if err := subscription.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := c.subscriptions.Create(ctx.RequestCtx(), subscription); err != nil {
		log.Error().Err(err).Str("owner_id", req.OwnerID).Msg("Failed to create webhook subscription")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create webhook subscription")
	}

	return ctx.Status(fiber.StatusCreated).JSON(toSubscriptionResponse(subscription))
}

func (c *WebhookController) DeleteSubscription(ctx fiber.Ctx) error {
	subscriptionID := ctx.Params("subscriptionID")

	err := c.subscriptions.Delete(ctx.RequestCtx(), subscriptionID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Webhook subscription not found")
	}
	if err != nil {
		log.Error().Err(err).Str("subscription_id", subscriptionID).Msg("Failed to delete webhook subscription")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete webhook subscription")
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *WebhookController) ListSubscriptions(ctx fiber.Ctx) error {
	ownerID := ctx.Query("owner_id")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id query parameter is required")
	}

	subscriptions, err := c.subscriptions.GetEnabledByOwner(ctx.RequestCtx(), ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list webhook subscriptions")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list webhook subscriptions")
	}

	responses := make([]subscriptionResponse, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		responses = append(responses, toSubscriptionResponse(subscription))
	}

	return ctx.JSON(responses)
}

func toSubscriptionResponse(subscription *domain.WebhookSubscription) subscriptionResponse {
	events := make([]string, 0, len(subscription.SubscribedEvents))
	for _, event := range subscription.SubscribedEvents {
		events = append(events, string(event))
	}

	return subscriptionResponse{
		ID:              subscription.ID,
		OwnerID:         subscription.OwnerID,
		URL:             subscription.URL,
		Events:          events,
		Enabled:         subscription.Enabled,
		CreatedAt:       subscription.CreatedAt,
		LastTriggeredAt: subscription.LastTriggeredAt,
		LastStatusCode:  subscription.LastStatusCode,
	}
}
