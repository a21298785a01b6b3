package util

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret     string `mapstructure:"JWT_SECRET" validate:"required"`
	RedisAddress  string `mapstructure:"REDIS_ADDR" validate:"required"`
	RedisPassword string `mapstructure:"REDIS_PW"`
	Port          string `mapstructure:"PORT" validate:"required,number"`
	CORSOrigin    string `mapstructure:"CORS_ORIGIN"`
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	config := &Config{
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddress:  os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PW"),
		Port:          os.Getenv("PORT"),
		CORSOrigin:    os.Getenv("CORS_ORIGIN"),
	}

	if config.CORSOrigin == "" {
		config.CORSOrigin = "http://localhost:8080"
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}
