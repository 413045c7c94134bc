package config

import (
	"github.com/spf13/viper"
)

// Config holds everything the service needs from the environment.
type Config struct {
	AppPort            string `mapstructure:"APP_PORT"`
	DSN                string `mapstructure:"DSN"`
	SupabaseProjectRef string `mapstructure:"SUPABASE_PROJECT_REF"`
	SupabaseServiceKey string `mapstructure:"SUPABASE_SERVICE_KEY"`
	GoTrueJWTSecret    string `mapstructure:"GOTRUE_JWT_SECRET"`
	StorageBucket      string `mapstructure:"STORAGE_BUCKET"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPass          string `mapstructure:"REDIS_PASS"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	IsProd             bool   `mapstructure:"IS_PROD"`
}

// Load reads config.env from the working directory, with environment
// variables taking precedence over file values.
func Load() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("STORAGE_BUCKET", "documents")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
