package controllers

import (
	"context"

	"github.com/formtalk/formtalk/internal/dispatch"
	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// EventController is the inbound trigger from the response lifecycle
// collaborator. Dispatch runs in the background: the caller gets a 202 and
// is never blocked on, or told about, delivery outcomes.
type EventController struct {
	coordinator *dispatch.Coordinator
}

type EventControllerDependencies struct {
	Coordinator *dispatch.Coordinator
}

func NewEventController(deps EventControllerDependencies) *EventController {
	return &EventController{
		coordinator: deps.Coordinator,
	}
}

type responseEventRequest struct {
	ResponseID string `json:"response_id"`
	Event      string `json:"event"`
}

func (c *EventController) HandleResponseEvent(ctx fiber.Ctx) error {
	var req responseEventRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.ResponseID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "response_id is required")
	}

	event, err := domain.ParseResponseEventType(req.Event)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// Deliberately detached from the request context: fan-out outlives the
	// triggering request.
	go func() {
		if err := c.coordinator.OnResponseEvent(context.Background(), req.ResponseID, event); err != nil {
			log.Error().
				Err(err).
				Str("response_id", req.ResponseID).
				Str("event", string(event)).
				Msg("Failed to dispatch response event")
		}
	}()

	return ctx.SendStatus(fiber.StatusAccepted)
}
