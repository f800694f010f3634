package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Redis     RedisConfig
	Auth0     Auth0Config
	GitHub    GitHubConfig
	Internal  InternalConfig
	Messenger MessengerConfig
	Verify    VerifyConfig
	Webhook   WebhookConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
	Debug       bool
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int
	CorsOrigins  []string
	ReadTimeout  int
	WriteTimeout int
}

// RedisConfig holds the state store connection settings
type RedisConfig struct {
	Host string
	Port int
	DB   int
}

// Addr returns the host:port address for the Redis client
func (rc RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", rc.Host, rc.Port)
}

// Auth0Config holds the identity provider settings for bearer validation
type Auth0Config struct {
	Domain     string
	Audience   string
	Algorithms []string
}

// JWKSURL returns the published key set endpoint for the tenant
func (ac Auth0Config) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", ac.Domain)
}

// Issuer returns the expected token issuer for the tenant
func (ac Auth0Config) Issuer() string {
	return fmt.Sprintf("https://%s/", ac.Domain)
}

// GitHubConfig holds the CI workflow dispatch settings
type GitHubConfig struct {
	APIURL           string
	Repo             string
	WorkflowFilename string
	Token            string
}

// InternalConfig holds the shared secret for operator-only endpoints
type InternalConfig struct {
	Secret string
}

// MessengerConfig holds the email relay settings
type MessengerConfig struct {
	Host     string
	Path     string
	Template string
	APIKey   string
}

// VerifyConfig holds the verification relay settings
type VerifyConfig struct {
	Host   string
	Path   string
	APIKey string
}

// WebhookConfig holds the optional content-management webhook settings.
// The webhook is active only when both URL and SecretKey are set.
type WebhookConfig struct {
	URL       string
	SecretKey string
}

// Enabled reports whether the webhook integration is configured
func (wc WebhookConfig) Enabled() bool {
	return wc.URL != "" && wc.SecretKey != ""
}

// Load loads configuration from environment variables. Required variables
// are collected up front so a misconfigured deployment fails with one
// complete error instead of one variable at a time.
func Load() (*Config, error) {
	var missing []string
	requireEnv := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "student-lab-backend"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Debug:       getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Port:         getEnvInt("API_PORT", 8080),
			CorsOrigins:  strings.Split(getEnv("API_CORS_ORIGINS", "http://localhost:3000"), ","),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnvInt("REDIS_PORT", 6379),
			DB:   getEnvInt("REDIS_DB", 0),
		},
		Auth0: Auth0Config{
			Domain:     requireEnv("AUTH0_DOMAIN"),
			Audience:   requireEnv("AUTH0_AUDIENCE"),
			Algorithms: strings.Split(getEnv("AUTH0_ALGORITHMS", "RS256"), ","),
		},
		GitHub: GitHubConfig{
			APIURL:           getEnv("GITHUB_API_URL", "https://api.github.com"),
			Repo:             requireEnv("GITHUB_REPO"),
			WorkflowFilename: requireEnv("GITHUB_WORKFLOW_FILENAME"),
			Token:            requireEnv("GITHUB_TOKEN"),
		},
		Internal: InternalConfig{
			Secret: requireEnv("INTERNAL_SECRET"),
		},
		Messenger: MessengerConfig{
			Host:     requireEnv("MESSENGER_HOST"),
			Path:     requireEnv("MESSENGER_PATH"),
			Template: getEnv("MESSENGER_TEMPLATE", "lab_ready_default"),
			APIKey:   requireEnv("INTERNAL_MESSENGER_API_KEY"),
		},
		Verify: VerifyConfig{
			Host:   requireEnv("VERIFY_LAB_HOST"),
			Path:   requireEnv("VERIFY_LAB_PATH"),
			APIKey: requireEnv("INTERNAL_VERIFY_API_KEY"),
		},
		Webhook: WebhookConfig{
			URL:       getEnv("WORDPRESS_WEBHOOK_URL", ""),
			SecretKey: getEnv("WORDPRESS_SECRET_KEY", ""),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return config, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
