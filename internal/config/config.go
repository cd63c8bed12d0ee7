package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"tunelink/internal/storage"
)

type Config struct {
	Mode    string              `mapstructure:"mode"`
	Port    int                 `mapstructure:"port"`
	Storage string              `mapstructure:"storage"` // mongo | memory
	Mongo   storage.MongoConfig `mapstructure:"mongo"`
	Redis   storage.RedisConfig `mapstructure:"redis"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("storage", "memory")
	v.SetDefault("mongo.database", "tunelink")
	v.SetDefault("mongo.max_pool_size", 100)
	v.SetDefault("mongo.timeout", "10s")
	v.SetDefault("redis.ttl", "2h")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
