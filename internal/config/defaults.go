package config

func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ID:          "iris-agent",
			Name:        "Iris",
			Description: "Iris: auto-detects tasks and DMs clear summaries to assignees.",
			PublicURL:   "http://localhost:5001",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5001,
		},
		Telex: TelexConfig{
			BaseURL:        "https://api.telex.im",
			TimeoutSeconds: 15,
		},
		Summarizer: SummarizerConfig{
			APIBase:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			MaxTokens:      400,
			TimeoutSeconds: 30,
		},
		Dedup: DedupConfig{
			DBPath:        "~/.iris/dedup.db",
			RetentionDays: 7,
			QueueSize:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
