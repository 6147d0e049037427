// Package config loads and validates the application configuration from
// environment variables. The process refuses to start when a required
// value is missing or malformed.
package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
// It is constructed once at startup and treated as immutable afterwards.
type Config struct {
	// Database connections. DatabaseURL is the pooled connection used at
	// runtime; DirectURL bypasses the pooler and is used for migrations.
	DatabaseURL string `env:"DATABASE_URL,required"`
	DirectURL   string `env:"DIRECT_URL,required"`

	// Third-party API credentials.
	TavilyAPIKey      string `env:"TAVILY_API_KEY,required"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY,required"`
	TogetherAIAPIKey  string `env:"TOGETHER_AI_API_KEY,required"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY,required"`
	UnsplashAccessKey string `env:"UNSPLASH_ACCESS_KEY,required"`
	UploadThingSecret string `env:"UPLOADTHING_SECRET,required"`

	// Hosted identity service (password verification and sign-up).
	SupabaseURL     string `env:"SUPABASE_URL,required"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY,required"`

	// Google OAuth. Optional: the Google sign-in routes are disabled when
	// either value is absent.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// Session token signing. AuthURL is the public base URL of this
	// deployment; AuthSecret signs session tokens and is required in
	// production.
	AuthURL    string `env:"NEXTAUTH_URL,required"`
	AuthSecret string `env:"NEXTAUTH_SECRET"`

	Env        string `env:"PRESENTMAX_ENV" envDefault:"development"`
	ServerHost string `env:"PRESENTMAX_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PRESENTMAX_PORT" envDefault:"3000"`
	LogLevel   string `env:"PRESENTMAX_LOG_LEVEL" envDefault:"info"`

	// Default model for image generation.
	ImageModel string `env:"PRESENTMAX_IMAGE_MODEL" envDefault:"google/imagen-3-fast"`

	// Demo sign-in bypass. When enabled, the configured email plus a
	// password matching DemoPasswordHash signs in without contacting the
	// hosted identity service. Must stay disabled outside demo deployments.
	DemoLogin        bool   `env:"PRESENTMAX_DEMO_LOGIN" envDefault:"false"`
	DemoEmail        string `env:"PRESENTMAX_DEMO_EMAIL" envDefault:"demo@presentmax.app"`
	DemoPasswordHash string `env:"PRESENTMAX_DEMO_PASSWORD_HASH"`
}

// MinAuthSecretLength is the minimum required length for the token signing
// secret. HS256 needs at least 32 bytes of key material.
const MinAuthSecretLength = 32

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// GoogleEnabled returns true if Google OAuth is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for name, value := range map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"DIRECT_URL":   cfg.DirectURL,
		"SUPABASE_URL": cfg.SupabaseURL,
		"NEXTAUTH_URL": cfg.AuthURL,
	} {
		if err := validateURL(value); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	// The signing secret is only optional outside production so that local
	// setups can run with a generated fallback.
	if cfg.IsProduction() && cfg.AuthSecret == "" {
		return nil, fmt.Errorf("NEXTAUTH_SECRET is required in production")
	}
	if cfg.AuthSecret != "" && len(cfg.AuthSecret) < MinAuthSecretLength {
		return nil, fmt.Errorf("NEXTAUTH_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinAuthSecretLength, len(cfg.AuthSecret))
	}

	if cfg.DemoLogin && cfg.DemoPasswordHash == "" {
		return nil, fmt.Errorf("PRESENTMAX_DEMO_PASSWORD_HASH is required when PRESENTMAX_DEMO_LOGIN is enabled")
	}

	return cfg, nil
}

// validateURL checks that a value parses as an absolute URL.
func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q: scheme and host are required", value)
	}
	return nil
}
