package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hm-damul/template-factory-sub001/internal/models"
	"github.com/hm-damul/template-factory-sub001/internal/storage"
	"github.com/hm-damul/template-factory-sub001/internal/templates"
)

// Config holds library-wide settings stored in .template-factory/factory.json
type Config struct {
	DefaultLanguage    string   `json:"default_language"`
	Languages          []string `json:"languages,omitempty"`
	DefaultTemplateSet string   `json:"default_template_set"`
	Author             string   `json:"author,omitempty"`
	Strict             bool     `json:"strict,omitempty"`

	configPath string
}

// Default returns the built-in configuration for a library rooted at baseDir.
func Default(baseDir string) *Config {
	config := defaultConfig()
	config.configPath = filepath.Join(baseDir, storage.ConfigDirName, "factory.json")
	return config
}

// Load reads the factory configuration under baseDir, falling back to
// defaults when no file exists yet
func Load(baseDir string) (*Config, error) {
	config := Default(baseDir)

	data, err := os.ReadFile(config.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", config.configPath, err)
	}

	// Backfill anything an older or hand-edited file left empty
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = models.DefaultLanguage
	}
	if config.DefaultTemplateSet == "" {
		config.DefaultTemplateSet = templates.DefaultSetName
	}
	if len(config.Languages) == 0 {
		config.Languages = []string{config.DefaultLanguage}
	}

	return config, nil
}

// Save writes the configuration to disk
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("configuration path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	data = append(data, '\n')

	return os.WriteFile(c.configPath, data, 0644)
}

// HasLanguage reports whether lang is one of the configured languages
func (c *Config) HasLanguage(lang string) bool {
	for _, have := range c.Languages {
		if have == lang {
			return true
		}
	}
	return false
}

// AddLanguage records an additional language if it is not already present
func (c *Config) AddLanguage(lang string) {
	if lang == "" || c.HasLanguage(lang) {
		return
	}
	c.Languages = append(c.Languages, lang)
}

func defaultConfig() *Config {
	return &Config{
		DefaultLanguage:    models.DefaultLanguage,
		Languages:          []string{models.DefaultLanguage},
		DefaultTemplateSet: templates.DefaultSetName,
	}
}
