package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// TextGen contains connection settings for the text generation API used by
// the topic, research, writing, and editorial review stages.
type TextGen struct {
	APIKey           string `toml:"api_key"`
	Model            string `toml:"model"`
	MaxTokens        int    `toml:"max_tokens"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	RetryMaxAttempts int    `toml:"retry_max_attempts"`
}

// Images contains configuration for the stock photo API used to illustrate
// drafted articles.
type Images struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	PerPage        int    `toml:"per_page"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CMS contains configuration for the headless CMS that receives published
// articles.
type CMS struct {
	ProjectID      string `toml:"project_id"`
	Dataset        string `toml:"dataset"`
	Token          string `toml:"token"`
	APIVersion     string `toml:"api_version"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Mail contains configuration for the transactional mail provider that
// delivers approval requests.
type Mail struct {
	Endpoint       string `toml:"endpoint"`
	APIToken       string `toml:"api_token"`
	From           string `toml:"from"`
	To             string `toml:"to"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Research contains configuration for competitor content analysis.
type Research struct {
	CompetitorURLs []string `toml:"competitor_urls"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Topics contains configuration for the topic bank.
type Topics struct {
	BankPath string `toml:"bank_path"`
}

// Workflow contains daemon timing and pipeline tuning.
type Workflow struct {
	RunIntervalHours    int `toml:"run_interval_hours"`
	StaleTimeoutMinutes int `toml:"stale_timeout_minutes"`
	RecentArticleLimit  int `toml:"recent_article_limit"`
}

// Config encapsulates all configuration values for inkwell.
//
// Top-level fields cover storage paths, logging, and the daemon API surface.
// Sections by subsystem:
//   - TextGen: text generation API connection settings
//   - Images: stock photo sourcing
//   - CMS: headless CMS publish target
//   - Mail: transactional approval email delivery
//   - Research: competitor URLs scraped during research
//   - Topics: topic bank location
//   - Workflow: scheduler interval, stale sweep, recent article window
type Config struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
	PublicURL string `toml:"public_url"`

	TextGen  TextGen  `toml:"textgen"`
	Images   Images   `toml:"images"`
	CMS      CMS      `toml:"cms"`
	Mail     Mail     `toml:"mail"`
	Research Research `toml:"research"`
	Topics   Topics   `toml:"topics"`
	Workflow Workflow `toml:"workflow"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/inkwell/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inkwell.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "inkwell.db")
}

// MailEnabled reports whether approval email delivery is configured.
func (c *Config) MailEnabled() bool {
	return strings.TrimSpace(c.Mail.Endpoint) != "" && strings.TrimSpace(c.Mail.To) != ""
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
