package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HttpPort             int           `mapstructure:"http_port"`
	DbConnString         string        `mapstructure:"db_conn_string"`
	RedisAddr            string        `mapstructure:"redis_addr"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	UpstreamTimeout      time.Duration `mapstructure:"upstream_timeout"`
	YelpAPIKey           string        `mapstructure:"yelp_api_key"`
	YelpBaseURL          string        `mapstructure:"yelp_base_url"`
	GoogleAPIKey         string        `mapstructure:"google_api_key"`
	GoogleBaseURL        string        `mapstructure:"google_base_url"`
	YellowPagesAPIKey    string        `mapstructure:"yellowpages_api_key"`
	YellowPagesBaseURL   string        `mapstructure:"yellowpages_base_url"`
	MakeSearchWebhookURL string        `mapstructure:"make_search_webhook_url"`
	LeadWebhookURL       string        `mapstructure:"lead_webhook_url"`
	WebhookMaxRetry      int           `mapstructure:"webhook_max_retry"`
	WebhookTimeout       time.Duration `mapstructure:"webhook_timeout"`
}

// ReadConfig reads json formatted configuration from the given file. Every
// key can be overridden by an environment variable prefixed with LEADS_,
// e.g. LEADS_YELP_API_KEY. A missing file leaves defaults and environment.
func ReadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 6060)
	v.SetDefault("db_conn_string", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("upstream_timeout", "10s")
	v.SetDefault("yelp_api_key", "")
	v.SetDefault("yelp_base_url", "")
	v.SetDefault("google_api_key", "")
	v.SetDefault("google_base_url", "")
	v.SetDefault("yellowpages_api_key", "")
	v.SetDefault("yellowpages_base_url", "")
	v.SetDefault("make_search_webhook_url", "")
	v.SetDefault("lead_webhook_url", "")
	v.SetDefault("webhook_max_retry", 3)
	v.SetDefault("webhook_timeout", "5s")

	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configFile)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be positive, got %s", cfg.CacheTTL)
	}
	if cfg.WebhookMaxRetry < 1 {
		return nil, fmt.Errorf("webhook_max_retry must be at least 1, got %d", cfg.WebhookMaxRetry)
	}
	if cfg.DbConnString == "" {
		return nil, errors.New("db_conn_string is required")
	}

	return cfg, nil
}
