package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DBURL        string `mapstructure:"DB_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	MQTTBroker   string `mapstructure:"MQTT_BROKER"`
	MQTTClientID string `mapstructure:"MQTT_CLIENT_ID"`
	WSGatewayURL string `mapstructure:"WS_GATEWAY_URL"`
	HTTPAddr     string `mapstructure:"HTTP_ADDR"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`
	SweepCron    string `mapstructure:"SWEEP_CRON"`
	WorkerCount  int    `mapstructure:"WORKER_COUNT"`
}

// LoadConfig reads configuration from config.yaml, .env, or env vars.
// Env vars win over file values either way.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	viper.SetDefault("HTTP_ADDR", ":5069")
	viper.SetDefault("MQTT_CLIENT_ID", "devicehub-dispatcher")
	viper.SetDefault("SWEEP_CRON", "@every 1m")
	viper.SetDefault("WORKER_COUNT", 10)

	cfg := &Config{
		DBURL:        viper.GetString("DB_URL"),
		RedisAddr:    viper.GetString("REDIS_ADDR"),
		MQTTBroker:   viper.GetString("MQTT_BROKER"),
		MQTTClientID: viper.GetString("MQTT_CLIENT_ID"),
		WSGatewayURL: viper.GetString("WS_GATEWAY_URL"),
		HTTPAddr:     viper.GetString("HTTP_ADDR"),
		LogLevel:     viper.GetString("LOG_LEVEL"),
		LogFormat:    viper.GetString("LOG_FORMAT"),
		SweepCron:    viper.GetString("SWEEP_CRON"),
		WorkerCount:  viper.GetInt("WORKER_COUNT"),
	}
	return cfg, nil
}
