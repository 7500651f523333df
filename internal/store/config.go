package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Market struct {
		Provider     string                    `yaml:"provider" validate:"oneof=YAHOO KITE STATIC"`
		Exchange     string                    `yaml:"exchange" validate:"required"`
		YahooBaseURL string                    `yaml:"yahoo_base_url" validate:"omitempty,url"`
		KiteBaseURL  string                    `yaml:"kite_base_url" validate:"omitempty,url"`
		Static       map[string]StaticSnapshot `yaml:"static"`
	} `yaml:"market"`
	News struct {
		Provider     string   `yaml:"provider" validate:"oneof=TAVILY RSS SCRAPER CHAIN NONE"`
		MaxResults   int      `yaml:"max_results" validate:"gte=1,lte=50"`
		RecencyDays  int      `yaml:"recency_days" validate:"gte=1"`
		CacheMinutes int      `yaml:"cache_minutes" validate:"gte=0"`
		TavilyURL    string   `yaml:"tavily_url" validate:"omitempty,url"`
		RSSURL       string   `yaml:"rss_url"`
		Sources      []string `yaml:"sources"`
	} `yaml:"news"`
	LLM struct {
		Provider    string  `yaml:"provider" validate:"oneof=OPENAI CLAUDE GEMINI NOOP"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
		Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
		System      string  `yaml:"system"`
		Endpoint    string  `yaml:"endpoint" validate:"omitempty,url"`
	} `yaml:"llm"`
	Screener struct {
		BaseURL string `yaml:"base_url" validate:"required,url"`
		Limit   int    `yaml:"limit" validate:"gte=1"`
		Suffix  string `yaml:"suffix"`
	} `yaml:"screener"`
	Listings struct {
		NSEPageURL   string `yaml:"nse_page_url" validate:"required,url"`
		BSECSVURL    string `yaml:"bse_csv_url" validate:"required,url"`
		RawDir       string `yaml:"raw_dir" validate:"required"`
		ProcessedDir string `yaml:"processed_dir" validate:"required"`
	} `yaml:"listings"`
	Server struct {
		Addr           string   `yaml:"addr" validate:"required"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Watch struct {
		Schedule string   `yaml:"schedule"`
		Symbols  []string `yaml:"symbols"`
	} `yaml:"watch"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	} `yaml:"journal"`
	Batch struct {
		Concurrency int `yaml:"concurrency" validate:"gte=0"`
	} `yaml:"batch"`
	HTTP struct {
		TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=0"`
		RatePerSecond  float64 `yaml:"rate_per_second" validate:"gte=0"`
		Burst          int     `yaml:"burst" validate:"gte=0"`
	} `yaml:"http"`
}

// StaticSnapshot is a fixed close pair used by the STATIC market provider.
type StaticSnapshot struct {
	Current  float64 `yaml:"current"`
	Previous float64 `yaml:"previous"`
	Volume   int64   `yaml:"volume"`
}

// Timeout returns the HTTP timeout applied to every provider client.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	return nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Market.Provider == "" {
		c.Market.Provider = "YAHOO"
	}
	if c.Market.Exchange == "" {
		c.Market.Exchange = "NSE"
	}
	if c.News.Provider == "" {
		c.News.Provider = "TAVILY"
	}
	if c.News.MaxResults == 0 {
		c.News.MaxResults = 5
	}
	if c.News.RecencyDays == 0 {
		c.News.RecencyDays = 2
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "GEMINI"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Screener.BaseURL == "" {
		c.Screener.BaseURL = "https://www.screener.in"
	}
	if c.Screener.Limit == 0 {
		c.Screener.Limit = 5
	}
	if c.Screener.Suffix == "" {
		c.Screener.Suffix = ".NS"
	}
	if c.Listings.NSEPageURL == "" {
		c.Listings.NSEPageURL = "https://www.nseindia.com/market-data/securities-available-for-trading"
	}
	if c.Listings.BSECSVURL == "" {
		c.Listings.BSECSVURL = "https://tradebrains-wp.s3.ap-south-1.amazonaws.com/wp-content/uploads/2017/12/BSE-list-of-companies.csv"
	}
	if c.Listings.RawDir == "" {
		c.Listings.RawDir = "data/raw"
	}
	if c.Listings.ProcessedDir == "" {
		c.Listings.ProcessedDir = "data/processed"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "@every 15m"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 1
	}
	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 20
	}
	if c.HTTP.RatePerSecond == 0 {
		c.HTTP.RatePerSecond = 5
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = 1
	}
}

// LoadConfig reads a YAML config. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
