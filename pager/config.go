package pager

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/tailored-agentic-units/pager/model"
	"github.com/tailored-agentic-units/pager/paged"
	"github.com/tailored-agentic-units/pager/transport/connectloader"
	"github.com/tailored-agentic-units/pager/transport/httploader"
)

// SourceKind selects the transport pages are loaded over.
type SourceKind string

const (
	SourceHTTP    SourceKind = "http"
	SourceConnect SourceKind = "connect"
)

type SourceConfig struct {
	Kind    SourceKind           `json:"kind,omitempty"`
	HTTP    httploader.Config    `json:"http"`
	Connect connectloader.Config `json:"connect"`
}

func (c *SourceConfig) Merge(source *SourceConfig) {
	if source.Kind != "" {
		c.Kind = source.Kind
	}

	c.HTTP.Merge(&source.HTTP)
	c.Connect.Merge(&source.Connect)
}

// Config holds initialization parameters for the loader, buffer and record
// schema.
type Config struct {
	Source SourceConfig `json:"source"`
	Buffer paged.Config `json:"buffer"`
	Schema model.Schema `json:"schema"`
}

func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind:    SourceHTTP,
			HTTP:    httploader.DefaultConfig(),
			Connect: connectloader.DefaultConfig(),
		},
		Buffer: paged.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c. A schema in source
// replaces c's schema as a whole.
func (c *Config) Merge(source *Config) {
	c.Source.Merge(&source.Source)
	c.Buffer.Merge(&source.Buffer)

	if source.Schema.KeyField != "" || len(source.Schema.Fields) > 0 {
		c.Schema = source.Schema
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config. Comments and trailing commas are accepted.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(standardized, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
