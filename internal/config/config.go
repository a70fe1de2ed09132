package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for docuchat.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Translate TranslateConfig `mapstructure:"translate"`
	Speech    SpeechConfig    `mapstructure:"speech"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds the transcript store configuration. The default DSN
// is an in-memory database: nothing outlives the process.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LLMConfig holds the Gemini collaborator configuration. The API key is
// read from the GEMINI_API_KEY environment variable.
type LLMConfig struct {
	Model           string `mapstructure:"model"`
	TranscribeModel string `mapstructure:"transcribe_model"`
	APIKey          string `mapstructure:"api_key"`
}

// TranslateConfig holds the translation collaborator configuration.
type TranslateConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SpeechConfig holds the speech-synthesis collaborator configuration.
// Spoken output always uses the configured language, independent of any
// translation target.
type SpeechConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DOCUCHAT")
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY must be set")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)

	v.SetDefault("database.dsn", "file::memory:?cache=shared")

	v.SetDefault("llm.model", "gemini-2.5-pro")
	v.SetDefault("llm.transcribe_model", "gemini-2.5-flash")

	v.SetDefault("translate.base_url", "https://translate.googleapis.com/translate_a/single")

	v.SetDefault("speech.base_url", "https://translate.google.com/translate_tts")
	v.SetDefault("speech.language", "en")
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
