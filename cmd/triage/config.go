package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/supportstack/triage"
)

// embeddingConfig selects and configures the embedding provider.
type embeddingConfig struct {
	Provider string `yaml:"provider"` // "voyage" or "openai"
	Model    string `yaml:"model,omitempty"`
}

// searchConfig selects and configures the vector search backend.
type searchConfig struct {
	Provider  string `yaml:"provider"` // "endee" or "pinecone"
	BaseURL   string `yaml:"base_url,omitempty"`
	Host      string `yaml:"host,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// datasetConfig points at the labeled-ticket CSV and how to read it.
type datasetConfig struct {
	Path            string   `yaml:"path"`
	CategoryAliases []string `yaml:"category_aliases,omitempty"`
	TextColumns     []string `yaml:"text_columns,omitempty"`
	IDPrefix        string   `yaml:"id_prefix,omitempty"`
}

// appConfig is the root configuration structure.
type appConfig struct {
	ListenAddr          string               `yaml:"listen_addr"`
	IndexName           string               `yaml:"index_name"`
	TopK                int                  `yaml:"top_k"`
	ConfidenceThreshold float64              `yaml:"confidence_threshold"`
	DatabasePath        string               `yaml:"database_path"`
	Dataset             datasetConfig        `yaml:"dataset"`
	Embedding           embeddingConfig      `yaml:"embedding"`
	Search              searchConfig         `yaml:"search"`
	RoutingRules        []triage.RoutingRule `yaml:"routing_rules,omitempty"`
}

// loadConfig reads a YAML config from path. A missing file yields defaults.
func loadConfig(path string) (*appConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultAppConfig()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg appConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyAppDefaults(&cfg)
	return &cfg, nil
}

func defaultAppConfig() *appConfig {
	cfg := &appConfig{}
	applyAppDefaults(cfg)
	return cfg
}

func applyAppDefaults(cfg *appConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.IndexName == "" {
		cfg.IndexName = triage.DefaultIndexName
	}
	if cfg.TopK == 0 {
		cfg.TopK = triage.DefaultTopK
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = triage.DefaultConfidenceThreshold
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "data/tickets.db"
	}
	if cfg.Dataset.Path == "" {
		cfg.Dataset.Path = "data/customer_support_tickets.csv"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "voyage"
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "endee"
	}
}
