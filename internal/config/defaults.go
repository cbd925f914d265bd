package config

const (
	defaultDataDir             = "~/.local/share/inkwell"
	defaultLogDir              = "~/.local/share/inkwell/logs"
	defaultLogFormat           = "text"
	defaultLogLevel            = "info"
	defaultAPIBind             = "127.0.0.1:7787"
	defaultTextGenModel        = "claude-sonnet-4-20250514"
	defaultTextGenMaxTokens    = 8192
	defaultTextGenTimeout      = 120
	defaultTextGenRetries      = 4
	defaultImagesBaseURL       = "https://api.pexels.com/v1"
	defaultImagesPerPage       = 3
	defaultImagesTimeout       = 30
	defaultCMSDataset          = "production"
	defaultCMSAPIVersion       = "2024-01-01"
	defaultCMSTimeout          = 30
	defaultMailTimeout         = 15
	defaultResearchTimeout     = 30
	defaultRunIntervalHours    = 24
	defaultStaleTimeoutMinutes = 60
	defaultRecentArticleLimit  = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		DataDir:   defaultDataDir,
		LogDir:    defaultLogDir,
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
		APIBind:   defaultAPIBind,
		TextGen: TextGen{
			Model:            defaultTextGenModel,
			MaxTokens:        defaultTextGenMaxTokens,
			TimeoutSeconds:   defaultTextGenTimeout,
			RetryMaxAttempts: defaultTextGenRetries,
		},
		Images: Images{
			BaseURL:        defaultImagesBaseURL,
			PerPage:        defaultImagesPerPage,
			TimeoutSeconds: defaultImagesTimeout,
		},
		CMS: CMS{
			Dataset:        defaultCMSDataset,
			APIVersion:     defaultCMSAPIVersion,
			TimeoutSeconds: defaultCMSTimeout,
		},
		Mail: Mail{
			RequestTimeout: defaultMailTimeout,
		},
		Research: Research{
			TimeoutSeconds: defaultResearchTimeout,
		},
		Workflow: Workflow{
			RunIntervalHours:    defaultRunIntervalHours,
			StaleTimeoutMinutes: defaultStaleTimeoutMinutes,
			RecentArticleLimit:  defaultRecentArticleLimit,
		},
	}
}
