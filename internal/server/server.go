package server

import (
	"time"

	"github.com/formtalk/formtalk/internal/controllers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	DestinationController *controllers.DestinationController
	WebhookController     *controllers.WebhookController
	EventController       *controllers.EventController
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "formtalk-delivery",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "formtalk-delivery",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/v1")

	destinations := v1.Group("/destinations")
	destinations.Post("/", deps.DestinationController.ConnectDestination)
	destinations.Get("/", deps.DestinationController.ListDestinations)
	destinations.Delete("/:destinationID", deps.DestinationController.DisconnectDestination)

	webhooks := v1.Group("/webhooks")
	webhooks.Post("/", deps.WebhookController.CreateSubscription)
	webhooks.Get("/", deps.WebhookController.ListSubscriptions)
	webhooks.Delete("/:subscriptionID", deps.WebhookController.DeleteSubscription)

	v1.Post("/events/responses", deps.EventController.HandleResponseEvent)

	return router
}
