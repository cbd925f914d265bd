package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTextGen(); err != nil {
		return err
	}
	if err := c.validateCMS(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateResearch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTextGen() error {
	if c.TextGen.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/inkwell/config.toml"
		}
		return fmt.Errorf("textgen.api_key is required. Set ANTHROPIC_API_KEY env var or edit %s (create with 'inkwell config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateCMS() error {
	if c.CMS.Token != "" && c.CMS.ProjectID == "" {
		return errors.New("cms.project_id must be set when cms.token is configured")
	}
	return nil
}

func (c *Config) validateMail() error {
	if !c.MailEnabled() {
		return nil
	}
	if c.Mail.From == "" {
		return errors.New("mail.from must be set when mail.endpoint is configured")
	}
	if c.PublicURL == "" {
		return errors.New("public_url must be set when mail is configured so approval links resolve")
	}
	if _, err := url.ParseRequestURI(c.PublicURL); err != nil {
		return fmt.Errorf("public_url: %w", err)
	}
	return nil
}

func (c *Config) validateResearch() error {
	for _, raw := range c.Research.CompetitorURLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" || !strings.HasPrefix(parsed.Scheme, "http") {
			return fmt.Errorf("research.competitor_urls: invalid URL %q", raw)
		}
	}
	return nil
}
