package initialization

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all delivery service configuration.
type Config struct {
	HTTPAddress string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string
	RedisChannel  string

	AdapterTimeoutSeconds int

	// OAuth client registrations used by the token refresh service.
	GoogleClientID        string
	GoogleClientSecret    string
	PipedriveClientID     string
	PipedriveClientSecret string
}

// LoadConfig loads configuration from an optional YAML file and environment
// variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":           "HTTP_ADDRESS",
		"MongoURI":              "MONGO_URI",
		"MongoDatabase":         "MONGO_DATABASE",
		"RedisAddress":          "REDIS_ADDRESS",
		"RedisPassword":         "REDIS_PASSWORD",
		"RedisChannel":          "REDIS_CHANNEL",
		"AdapterTimeoutSeconds": "ADAPTER_TIMEOUT_SECONDS",
		"GoogleClientID":        "GOOGLE_CLIENT_ID",
		"GoogleClientSecret":    "GOOGLE_CLIENT_SECRET",
		"PipedriveClientID":     "PIPEDRIVE_CLIENT_ID",
		"PipedriveClientSecret": "PIPEDRIVE_CLIENT_SECRET",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("formtalk_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.formtalk")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8090")
	v.SetDefault("MongoURI", "mongodb://localhost:27017")
	v.SetDefault("MongoDatabase", "formtalk")
	v.SetDefault("RedisAddress", "localhost:6379")
	v.SetDefault("RedisChannel", "formtalk:response-events")
	v.SetDefault("AdapterTimeoutSeconds", 30)
}
