package app

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/evolvia/student-lab-backend/pkg/config"
)

// LoadConfig loads environment variables and application configuration
func LoadConfig() (*config.Config, error) {
	// .env is optional; deployments configure through the environment
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
