package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ReadConfig loads ./data/config.* when present. A missing file is not an error,
// defaults and environment variables still apply.
func ReadConfig() error {
	SetConfigDefaults()

	viper.SetConfigName("config")
	viper.AddConfigPath("./data/")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func SetConfigDefaults() {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("API_TIMEOUT", "60s")
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", 15*time.Second)
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", 15*time.Second)
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", 60*time.Second)
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", 5*time.Second)

	viper.SetDefault("OSM_FILE", "")
	viper.SetDefault("SEARCH_RADIUS_KM", 0.5)
	viper.SetDefault("STREAM_FPS", 30)
	viper.SetDefault("STREAM_STEPS_PER_TICK", 5)
	viper.SetDefault("MAX_STEPS_PER_ADVANCE", 10000)

	viper.SetDefault("USE_RATE_LIMIT", false)
	viper.SetDefault("RATE_LIMIT_RPS", 50)
	viper.SetDefault("RATE_LIMIT_BURST", 100)

	viper.SetDefault("LOG_LEVEL", "info")
}
