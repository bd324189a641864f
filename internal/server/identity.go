package server

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Identity is the agent's public identity as advertised on the discovery
// card. Fields left empty in an override file keep their configured values.
type Identity struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	PublicURL    string   `yaml:"publicUrl"`
	Capabilities []string `yaml:"capabilities"`
}

// LoadIdentityFile applies overrides from a YAML file on top of the base
// identity. A missing file is not an error: the base identity is returned
// unchanged.
func LoadIdentityFile(path string, base Identity, logger *slog.Logger) (Identity, error) {
	if path == "" {
		return base, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("identity file does not exist, using configured identity", "path", path)
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read identity file: %w", err)
	}

	var override Identity
	if err := yaml.Unmarshal(data, &override); err != nil {
		return base, fmt.Errorf("parse identity file %s: %w", path, err)
	}

	if override.ID != "" {
		base.ID = override.ID
	}
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.Description != "" {
		base.Description = override.Description
	}
	if override.PublicURL != "" {
		base.PublicURL = override.PublicURL
	}
	if len(override.Capabilities) > 0 {
		base.Capabilities = override.Capabilities
	}

	logger.Info("loaded identity overrides", "path", path, "name", base.Name)
	return base, nil
}

// DefaultCapabilities is the advertised capability set.
var DefaultCapabilities = []string{"task-summary", "notifications"}
