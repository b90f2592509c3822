package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// DestinationController handles the connect/disconnect surface used by the
// OAuth redirect collaborator once it has produced token artifacts.
type DestinationController struct {
	destinations domain.DestinationStore
}

type DestinationControllerDependencies struct {
	DestinationStore domain.DestinationStore
}

func NewDestinationController(deps DestinationControllerDependencies) *DestinationController {
	return &DestinationController{
		destinations: deps.DestinationStore,
	}
}

type connectDestinationRequest struct {
	OwnerID string          `json:"owner_id"`
	Type    string          `json:"type"`
	Config  json.RawMessage `json:"config"`
}

type destinationResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Type         string     `json:"type"`
	Enabled      bool       `json:"enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func (c *DestinationController) ConnectDestination(ctx fiber.Ctx) error {
	var req connectDestinationRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.OwnerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id is required")
	}

	// Config is validated here, at connect time, so malformed config fails
	// fast instead of mid-fan-out.
	config, err := domain.DecodeDestinationConfig(domain.DestinationType(req.Type), req.Config)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	destination := &domain.Destination{
		ID:        xid.New().String(),
		OwnerID:   req.OwnerID,
		Type:      domain.DestinationType(req.Type),
		Config:    config,
		Enabled:   true,
		CreatedAt: time.Now(),
	}

	if err := c.destinations.Upsert(ctx.RequestCtx(), destination); err != nil {
		log.Error().Err(err).Str("owner_id", req.OwnerID).Str("type", req.Type).Msg("Failed to connect destination")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to connect destination")
	}

	return ctx.Status(fiber.StatusCreated).JSON(toDestinationResponse(destination))
}

func (c *DestinationController) DisconnectDestination(ctx fiber.Ctx) error {
	destinationID := ctx.Params("destinationID")

	err := c.destinations.Delete(ctx.RequestCtx(), destinationID)
	if errors.Is(err, domain.ErrDestinationNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Destination not found")
	}
	if err != nil {
		log.Error().Err(err).Str("destination_id", destinationID).Msg("Failed to disconnect destination")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to disconnect destination")
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *DestinationController) ListDestinations(ctx fiber.Ctx) error {
	ownerID := ctx.Query("owner_id")
	if ownerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id query parameter is required")
	}

	destinations, err := c.destinations.GetByOwner(ctx.RequestCtx(), ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to list destinations")

		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list destinations")
	}

	responses := make([]destinationResponse, 0, len(destinations))
	for _, destination := range destinations {
		responses = append(responses, toDestinationResponse(destination))
	}

	return ctx.JSON(responses)
}

// toDestinationResponse deliberately excludes the config: it carries secrets.
func toDestinationResponse(destination *domain.Destination) destinationResponse {
	return destinationResponse{
		ID:           destination.ID,
		OwnerID:      destination.OwnerID,
		Type:         string(destination.Type),
		Enabled:      destination.Enabled,
		CreatedAt:    destination.CreatedAt,
		LastSyncedAt: destination.LastSyncedAt,
	}
}
