package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config is the single place provider credentials and webhook secrets enter
// the process. Values come from the environment (godotenv autoload happens in
// main); secret values are validated here and never logged.
type Config struct {
	Port        string
	FrontendURL string
	PublicURL   string

	ProviderTimeout time.Duration

	Addi        AddiConfig
	Wompi       WompiConfig
	MercadoPago MercadoPagoConfig
}

// AddiConfig configures the financing provider.
type AddiConfig struct {
	ClientID      string
	ClientSecret  string
	AuthURL       string
	APIURL        string
	AllySlug      string
	WebhookSecret string
}

// Enabled reports whether this deployment carries Addi credentials.
func (c AddiConfig) Enabled() bool { return c.ClientID != "" || c.ClientSecret != "" }

// WompiConfig configures the card/PSE/wallet provider.
type WompiConfig struct {
	PublicKey     string
	PrivateKey    string
	APIURL        string
	CheckoutURL   string
	WebhookSecret string
}

func (c WompiConfig) Enabled() bool { return c.PrivateKey != "" }

type MercadoPagoConfig struct {
	AccessToken string
}

func (c MercadoPagoConfig) Enabled() bool { return c.AccessToken != "" }

// Load reads configuration from the environment and fails fast when an
// enabled provider is missing a required secret. Partial credentials are a
// deployment bug, not something to limp along with.
func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		PublicURL:       getEnv("PUBLIC_URL", "http://localhost:8080"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 5*time.Second),
		Addi: AddiConfig{
			ClientID:      os.Getenv("ADDI_CLIENT_ID"),
			ClientSecret:  os.Getenv("ADDI_CLIENT_SECRET"),
			AuthURL:       getEnv("ADDI_AUTH_URL", "https://auth.addi.com/oauth/token"),
			APIURL:        getEnv("ADDI_API_URL", "https://api.addi.com"),
			AllySlug:      os.Getenv("ADDI_ALLY_SLUG"),
			WebhookSecret: os.Getenv("ADDI_WEBHOOK_SECRET"),
		},
		Wompi: WompiConfig{
			PublicKey:     os.Getenv("WOMPI_PUBLIC_KEY"),
			PrivateKey:    os.Getenv("WOMPI_PRIVATE_KEY"),
			APIURL:        getEnv("WOMPI_API_URL", "https://production.wompi.co/v1"),
			CheckoutURL:   getEnv("WOMPI_CHECKOUT_URL", "https://checkout.wompi.co"),
			WebhookSecret: os.Getenv("WOMPI_EVENTS_SECRET"),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		},
	}

	cfg.validate()
	return cfg
}

func (c *Config) validate() {
	if c.Addi.Enabled() {
		requireAll("addi", map[string]string{
			"ADDI_CLIENT_ID":      c.Addi.ClientID,
			"ADDI_CLIENT_SECRET":  c.Addi.ClientSecret,
			"ADDI_ALLY_SLUG":      c.Addi.AllySlug,
			"ADDI_WEBHOOK_SECRET": c.Addi.WebhookSecret,
		})
	}
	if c.Wompi.Enabled() {
		requireAll("wompi", map[string]string{
			"WOMPI_PUBLIC_KEY":    c.Wompi.PublicKey,
			"WOMPI_PRIVATE_KEY":   c.Wompi.PrivateKey,
			"WOMPI_EVENTS_SECRET": c.Wompi.WebhookSecret,
		})
	}
}

func requireAll(provider string, vars map[string]string) {
	for key, val := range vars {
		if strings.TrimSpace(val) == "" {
			log.Fatalf("[config] %s is enabled but %s is not set", provider, key)
		}
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("[config] invalid duration for %s: %v", key, err)
	}
	return d
}
