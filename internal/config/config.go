// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets YAML carry "60s" / "30m" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration. Values come from an optional
// YAML file; environment variables override the file for the secrets and
// endpoints that differ per deployment.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	MediaDir string `yaml:"media_dir"`

	AI struct {
		BaseURL         string   `yaml:"base_url"`
		APIKey          string   `yaml:"api_key"`
		Model           string   `yaml:"model"`
		AdviceModel     string   `yaml:"advice_model"`
		TranscribeModel string   `yaml:"transcribe_model"`
		Language        string   `yaml:"language"`
		Timeout         Duration `yaml:"timeout"`
	} `yaml:"ai"`

	SessionTTL Duration `yaml:"session_ttl"`
}

func defaults() *Config {
	c := &Config{
		Host:       "0.0.0.0",
		Port:       8011,
		DBPath:     "/data/fitbud.db",
		MediaDir:   "/data/media",
		SessionTTL: Duration(30 * time.Minute),
	}
	c.AI.BaseURL = "https://api.openai.com/v1"
	c.AI.Model = "gpt-4o-mini"
	c.AI.AdviceModel = "gpt-4o"
	c.AI.TranscribeModel = "whisper-1"
	c.AI.Language = "ru"
	c.AI.Timeout = Duration(60 * time.Second)
	return c
}

// Load reads the YAML file at path (optional: an empty path or missing file
// yields defaults) and applies environment overrides.
func Load(path string) (*Config, error) {
	c := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("FITBUD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("FITBUD_MEDIA_DIR"); v != "" {
		c.MediaDir = v
	}

	if c.AI.APIKey == "" {
		return nil, fmt.Errorf("AI api key is not set (config ai.api_key or OPENAI_API_KEY)")
	}
	return c, nil
}
