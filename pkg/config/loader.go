package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// configFileName is the single YAML file Initialize looks for under
// configDir, mirroring the teacher's single-`tarsy.yaml` convention.
const configFileName = "planning-explorer.yaml"

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed (mirrors the teacher's pkg/config/loader.go Initialize):
//  1. Load the YAML file from configDir, if present.
//  2. Expand environment variables in the raw bytes.
//  3. Parse YAML into a Config overlay.
//  4. Merge built-in defaults with the overlay (overlay wins).
//  5. Fill API keys from the process environment (never from YAML).
//  6. Validate the merged configuration.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg := defaults()
	cfg.configDir = configDir

	path := filepath.Join(configDir, configFileName)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		raw = ExpandEnv(raw)
		var overlay Config
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, overlay, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging configuration: %w", err)
		}
	case os.IsNotExist(err):
		log.Warn("No configuration file found, using built-in defaults", "path", path)
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.LLM.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.LLM.GenAIAPIKey = os.Getenv("GENAI_API_KEY")
	if v := os.Getenv("ELASTICSEARCH_NODE"); v != "" {
		cfg.Elasticsearch.Node = v
	}
	if v := os.Getenv("ELASTICSEARCH_USERNAME"); v != "" {
		cfg.Elasticsearch.Username = v
	}
	if v := os.Getenv("ELASTICSEARCH_PASSWORD"); v != "" {
		cfg.Elasticsearch.Password = v
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return cfg, nil
}
