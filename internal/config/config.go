/**
 * @description
 * This file handles the configuration management for the subscription-service.
 * It uses the 'viper' library to load configuration from environment variables,
 * providing a centralized and consistent way to manage application settings.
 */
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	CurrencyAPIURL      string `mapstructure:"CURRENCY_API_URL"`
	CurrencyAPIKey      string `mapstructure:"CURRENCY_API_KEY"`
	RateRefreshSchedule string `mapstructure:"RATE_REFRESH_SCHEDULE"`
	RateCacheTTLMinutes int    `mapstructure:"RATE_CACHE_TTL_MINUTES"`
}

// LoadConfig reads configuration from environment variables. RedisURL,
// RabbitMQURL and the currency API settings are optional; the service runs
// without the cache, the broker and the refresh job when they are unset.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("RATE_REFRESH_SCHEDULE", "0 * * * *")
	viper.SetDefault("RATE_CACHE_TTL_MINUTES", 15)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CURRENCY_API_URL")
	_ = viper.BindEnv("CURRENCY_API_KEY")
	_ = viper.BindEnv("RATE_REFRESH_SCHEDULE")
	_ = viper.BindEnv("RATE_CACHE_TTL_MINUTES")

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config.DatabaseURL == "" {
		return config, errors.New("DATABASE_URL is required")
	}
	if config.CurrencyAPIURL != "" && config.CurrencyAPIKey == "" {
		return config, errors.New("CURRENCY_API_KEY is required when CURRENCY_API_URL is set")
	}
	return config, nil
}
