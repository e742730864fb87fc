package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	BookDir        string        `envconfig:"BOOK_DIR" default:"./data/books"`
	AssetDir       string        `envconfig:"ASSET_DIR" default:"./data/assets"`
	TokenSecret    string        `envconfig:"TOKEN_SECRET" default:"dev-secret-change-in-production"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	TickRate       int           `envconfig:"TICK_RATE" default:"60"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CORSOrigins splits AllowedOrigins into full origins for CORS checks.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Origins splits AllowedOrigins into host patterns for websocket origin checks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range c.CORSOrigins() {
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		out = append(out, o)
	}
	return out
}
