package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the Iris agent.
type Config struct {
	Agent      AgentConfig      `json:"agent"`
	Server     ServerConfig     `json:"server"`
	Telex      TelexConfig      `json:"telex"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Dedup      DedupConfig      `json:"dedup"`
	Log        LogConfig        `json:"log"`
}

// AgentConfig describes the public identity advertised on the discovery card.
type AgentConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PublicURL   string `json:"publicUrl"`
	// IdentityFile optionally points at a YAML file whose fields override
	// the advertised agent card.
	IdentityFile string `json:"identityFile,omitempty"`
}

type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	WebhookSecret string `json:"webhookSecret,omitempty"` // HMAC secret for webhook signatures
}

// TelexConfig configures the outbound chat-platform client.
type TelexConfig struct {
	BaseURL        string `json:"baseUrl"`
	APIKey         string `json:"apiKey"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// SummarizerConfig configures the model-backed summarization strategy.
// An empty API key disables it; the heuristic strategy then handles
// every accepted event.
type SummarizerConfig struct {
	APIKey         string `json:"apiKey,omitempty"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model,omitempty"`
	MaxTokens      int    `json:"maxTokens"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type DedupConfig struct {
	DBPath        string `json:"dbPath"`
	RetentionDays int    `json:"retentionDays"`
	QueueSize     int    `json:"queueSize"`
}

type LogConfig struct {
	Level string `json:"level"` // debug | info | warn | error
}

// DefaultConfigDir returns the default config directory (~/.iris).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".iris"
	}
	return filepath.Join(home, ".iris")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, env-expands, and validates a config file.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Dedup.DBPath = ExpandPath(cfg.Dedup.DBPath)
	cfg.Agent.IdentityFile = ExpandPath(cfg.Agent.IdentityFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural invariants of the config.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Agent.ID == "" {
		errs = append(errs, "agent.id is required")
	}
	if cfg.Agent.Name == "" {
		errs = append(errs, "agent.name is required")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if cfg.Telex.BaseURL == "" {
		errs = append(errs, "telex.baseUrl is required")
	}
	if cfg.Telex.TimeoutSeconds < 1 {
		errs = append(errs, "telex.timeoutSeconds must be >= 1")
	}
	if cfg.Summarizer.MaxTokens < 1 {
		errs = append(errs, "summarizer.maxTokens must be >= 1")
	}
	if cfg.Summarizer.TimeoutSeconds < 1 {
		errs = append(errs, "summarizer.timeoutSeconds must be >= 1")
	}
	if cfg.Dedup.RetentionDays < 1 {
		errs = append(errs, "dedup.retentionDays must be >= 1")
	}
	if cfg.Dedup.QueueSize < 1 {
		errs = append(errs, "dedup.queueSize must be >= 1")
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
