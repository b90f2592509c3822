package initialization

import (
	"context"
	"fmt"
	"time"

	"github.com/formtalk/formtalk/internal/controllers"
	"github.com/formtalk/formtalk/internal/dispatch"
	"github.com/formtalk/formtalk/internal/events"
	"github.com/formtalk/formtalk/internal/server"
	mongostorage "github.com/formtalk/formtalk/internal/storage/mongo"
	"github.com/formtalk/formtalk/internal/tokens"
	"github.com/formtalk/formtalk/internal/webhooks"
	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"
)

// Container wires the whole delivery pipeline together.
type Container struct {
	Config *Config

	Coordinator *dispatch.Coordinator
	Consumer    *events.RedisConsumer
	App         *fiber.App

	mongoClient *mongo.Client
	redisClient *redis.Client
}

func NewContainer(ctx context.Context) (*Container, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	database := mongoClient.Database(config.MongoDatabase)

	destinationStore := mongostorage.NewDestinationStore(database)
	subscriptionStore := mongostorage.NewSubscriptionStore(database)
	responseStore := mongostorage.NewResponseStore(database)
	fieldMappingStore := mongostorage.NewFieldMappingStore(database)

	tokenManager := tokens.NewManager(tokens.ManagerDependencies{
		DestinationStore: destinationStore,
		Providers: map[domain.DestinationType]tokens.ProviderConfig{
			domain.DestinationType_GoogleSheets: {
				ClientID:     config.GoogleClientID,
				ClientSecret: config.GoogleClientSecret,
				TokenURL:     "https://oauth2.googleapis.com/token",
				AuthStyle:    oauth2.AuthStyleInParams,
			},
			domain.DestinationType_Pipedrive: {
				ClientID:     config.PipedriveClientID,
				ClientSecret: config.PipedriveClientSecret,
				TokenURL:     "https://oauth.pipedrive.com/oauth/token",
				AuthStyle:    oauth2.AuthStyleInHeader,
			},
		},
	})

	selector, err := RegisterAdapters(AdapterDependencies{
		TokenSource: tokenManager,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register adapters: %w", err)
	}

	adapterTimeout := time.Duration(config.AdapterTimeoutSeconds) * time.Second

	webhookDeliverer := webhooks.NewDeliverer(webhooks.DelivererDependencies{
		SubscriptionStore: subscriptionStore,
		Timeout:           adapterTimeout,
	})

	coordinator := dispatch.NewCoordinator(dispatch.CoordinatorDependencies{
		ResponseStore:    responseStore,
		DestinationStore: destinationStore,
		MappingStore:     fieldMappingStore,
		AdapterSelector:  selector,
		WebhookDeliverer: webhookDeliverer,
		AdapterTimeout:   adapterTimeout,
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
	})

	consumer := events.NewRedisConsumer(events.RedisConsumerDependencies{
		Client:  redisClient,
		Channel: config.RedisChannel,
		Handler: coordinator,
	})

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		DestinationController: controllers.NewDestinationController(controllers.DestinationControllerDependencies{
			DestinationStore: destinationStore,
		}),
		WebhookController: controllers.NewWebhookController(controllers.WebhookControllerDependencies{
			SubscriptionStore: subscriptionStore,
		}),
		EventController: controllers.NewEventController(controllers.EventControllerDependencies{
			Coordinator: coordinator,
		}),
	})

	return &Container{
		Config:      config,
		Coordinator: coordinator,
		Consumer:    consumer,
		App:         app,
		mongoClient: mongoClient,
		redisClient: redisClient,
	}, nil
}

// Run starts the event consumer and the HTTP server and blocks until the
// context is cancelled or the server stops.
func (c *Container) Run(ctx context.Context) error {
	go func() {
		if err := c.Consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Response event consumer stopped")
		}
	}()

	go func() {
		<-ctx.Done()

		if err := c.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down HTTP server")
		}
	}()

	log.Info().Str("address", c.Config.HTTPAddress).Msg("Starting delivery service")

	return c.App.Listen(c.Config.HTTPAddress)
}

// Close releases the datastore clients.
func (c *Container) Close(ctx context.Context) error {
	if err := c.redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
	}

	return c.mongoClient.Disconnect(ctx)
}
