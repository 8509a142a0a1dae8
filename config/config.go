// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName        = "verba"
	configFileName = "config.json"
)

// Binding describes one configured trigger.
type Binding struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys"`
	Hold bool     `json:"hold"` // press-and-hold; false means toggle
}

// Sounds holds optional cue file paths.
type Sounds struct {
	Start string `json:"start,omitempty"`
	Stop  string `json:"stop,omitempty"`
}

// Config represents the application configuration.
type Config struct {
	// Transcription provider: "openai" or "whisper".
	Provider string `json:"provider"`

	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL    string `json:"openai_base_url,omitempty"`
	OpenAIModel      string `json:"openai_model,omitempty"`
	WhisperModelPath string `json:"whisper_model_path,omitempty"`

	// Language is the source language code; empty means auto-detect.
	Language string `json:"language,omitempty"`

	SelectedMicrophone string  `json:"selected_microphone,omitempty"`
	AlwaysOnMicrophone bool    `json:"always_on_microphone"`
	MuteWhileRecording bool    `json:"mute_while_recording"`
	PaddingRatio       float64 `json:"padding_ratio,omitempty"`

	// StreamingTranscription transcribes speech segments while the
	// recording is still running.
	StreamingTranscription bool `json:"streaming_transcription"`

	// RetainAudio keeps the recorded audio alongside history entries.
	RetainAudio bool `json:"retain_audio"`

	Bindings []Binding `json:"bindings"`
	Sounds   Sounds    `json:"sounds"`
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DataDir returns the directory for application data (history store),
// creating it if needed.
func DataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	path := filepath.Join(dir, appName, "data")
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return path, nil
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.PaddingRatio <= 0 {
		c.PaddingRatio = 1.25
	}
	if len(c.Bindings) == 0 {
		c.Bindings = defaultBindings()
	}
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

func defaultConfig() *Config {
	return &Config{
		Provider:               "openai",
		PaddingRatio:           1.25,
		MuteWhileRecording:     true,
		StreamingTranscription: true,
		Bindings:               defaultBindings(),
	}
}

func defaultBindings() []Binding {
	return []Binding{
		{ID: "dictate", Keys: []string{"ctrl", "shift", "space"}, Hold: true},
		{ID: "dictate-toggle", Keys: []string{"ctrl", "shift", "t"}},
	}
}
