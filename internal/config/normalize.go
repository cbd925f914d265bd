package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeTextGen()
	c.normalizeImages()
	c.normalizeCMS()
	c.normalizeMail()
	c.normalizeResearch()
	if err := c.normalizeTopics(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.DataDir, err = expandPath(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	c.APIBind = strings.TrimSpace(c.APIBind)
	if c.APIBind == "" {
		c.APIBind = defaultAPIBind
	}
	c.APIToken = strings.TrimSpace(c.APIToken)
	if c.APIToken == "" {
		if value, ok := os.LookupEnv("INKWELL_API_TOKEN"); ok {
			c.APIToken = strings.TrimSpace(value)
		}
	}
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	return nil
}

func (c *Config) normalizeLogging() {
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "", "text", "console":
		c.LogFormat = "text"
	case "json":
	default:
		c.LogFormat = "text"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

func (c *Config) normalizeTextGen() {
	c.TextGen.APIKey = strings.TrimSpace(c.TextGen.APIKey)
	if c.TextGen.APIKey == "" {
		if value, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			c.TextGen.APIKey = strings.TrimSpace(value)
		}
	}
	c.TextGen.Model = strings.TrimSpace(c.TextGen.Model)
	if c.TextGen.Model == "" {
		c.TextGen.Model = defaultTextGenModel
	}
	if c.TextGen.MaxTokens <= 0 {
		c.TextGen.MaxTokens = defaultTextGenMaxTokens
	}
	if c.TextGen.TimeoutSeconds <= 0 {
		c.TextGen.TimeoutSeconds = defaultTextGenTimeout
	}
	if c.TextGen.RetryMaxAttempts <= 0 {
		c.TextGen.RetryMaxAttempts = defaultTextGenRetries
	}
}

func (c *Config) normalizeImages() {
	c.Images.APIKey = strings.TrimSpace(c.Images.APIKey)
	if c.Images.APIKey == "" {
		if value, ok := os.LookupEnv("PEXELS_API_KEY"); ok {
			c.Images.APIKey = strings.TrimSpace(value)
		}
	}
	c.Images.BaseURL = strings.TrimRight(strings.TrimSpace(c.Images.BaseURL), "/")
	if c.Images.BaseURL == "" {
		c.Images.BaseURL = defaultImagesBaseURL
	}
	if c.Images.PerPage <= 0 {
		c.Images.PerPage = defaultImagesPerPage
	}
	if c.Images.TimeoutSeconds <= 0 {
		c.Images.TimeoutSeconds = defaultImagesTimeout
	}
}

func (c *Config) normalizeCMS() {
	c.CMS.ProjectID = strings.TrimSpace(c.CMS.ProjectID)
	c.CMS.Token = strings.TrimSpace(c.CMS.Token)
	if c.CMS.Token == "" {
		if value, ok := os.LookupEnv("SANITY_API_TOKEN"); ok {
			c.CMS.Token = strings.TrimSpace(value)
		}
	}
	c.CMS.Dataset = strings.TrimSpace(c.CMS.Dataset)
	if c.CMS.Dataset == "" {
		c.CMS.Dataset = defaultCMSDataset
	}
	c.CMS.APIVersion = strings.TrimSpace(c.CMS.APIVersion)
	if c.CMS.APIVersion == "" {
		c.CMS.APIVersion = defaultCMSAPIVersion
	}
	if c.CMS.TimeoutSeconds <= 0 {
		c.CMS.TimeoutSeconds = defaultCMSTimeout
	}
}

func (c *Config) normalizeMail() {
	c.Mail.Endpoint = strings.TrimSpace(c.Mail.Endpoint)
	c.Mail.APIToken = strings.TrimSpace(c.Mail.APIToken)
	if c.Mail.APIToken == "" {
		if value, ok := os.LookupEnv("INKWELL_MAIL_TOKEN"); ok {
			c.Mail.APIToken = strings.TrimSpace(value)
		}
	}
	c.Mail.From = strings.TrimSpace(c.Mail.From)
	c.Mail.To = strings.TrimSpace(c.Mail.To)
	if c.Mail.RequestTimeout <= 0 {
		c.Mail.RequestTimeout = defaultMailTimeout
	}
}

func (c *Config) normalizeResearch() {
	urls := make([]string, 0, len(c.Research.CompetitorURLs))
	seen := make(map[string]struct{}, len(c.Research.CompetitorURLs))
	for _, raw := range c.Research.CompetitorURLs {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		urls = append(urls, trimmed)
	}
	c.Research.CompetitorURLs = urls
	if c.Research.TimeoutSeconds <= 0 {
		c.Research.TimeoutSeconds = defaultResearchTimeout
	}
}

func (c *Config) normalizeTopics() error {
	c.Topics.BankPath = strings.TrimSpace(c.Topics.BankPath)
	if c.Topics.BankPath == "" {
		return nil
	}
	expanded, err := expandPath(c.Topics.BankPath)
	if err != nil {
		return fmt.Errorf("topics.bank_path: %w", err)
	}
	c.Topics.BankPath = expanded
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.RunIntervalHours <= 0 {
		c.Workflow.RunIntervalHours = defaultRunIntervalHours
	}
	if c.Workflow.StaleTimeoutMinutes <= 0 {
		c.Workflow.StaleTimeoutMinutes = defaultStaleTimeoutMinutes
	}
	if c.Workflow.RecentArticleLimit <= 0 {
		c.Workflow.RecentArticleLimit = defaultRecentArticleLimit
	}
}
