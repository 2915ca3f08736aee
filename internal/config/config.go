package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultPort        = "8080"
	defaultLogLevel    = "info"
)

// DefaultBigQueryDataset is used when BIGQUERY_DATASET is unset.
const DefaultBigQueryDataset = "finance"

type Config struct {
	MorningID          string
	MorningSecret      string
	MorningBaseURL     string
	MorningViewBaseURL string
	InvoiceRemark      string

	NotionAPIKey     string
	NotionDatabaseID string
	NotionBaseURL    string

	ClientCachePath   string
	ClientCacheBucket string

	BigQueryProject string
	BigQueryDataset string

	HTTPTimeout time.Duration
	LogLevel    string
	LogJSON     bool
	APIToken    string
	Port        string
}

// LoadEnvFile reads KEY=VALUE pairs from path into the environment. Variables
// already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		MorningID:          getenv("MORNING_ID"),
		MorningSecret:      getenv("MORNING_SECRET"),
		MorningBaseURL:     getenv("MORNING_BASE_URL"),
		MorningViewBaseURL: getenv("MORNING_VIEW_BASE_URL"),
		InvoiceRemark:      getenv("INVOICE_REMARK"),
		NotionAPIKey:       getenv("NOTION_API_KEY"),
		NotionDatabaseID:   getenv("NOTION_DATABASE_ID"),
		NotionBaseURL:      getenv("NOTION_BASE_URL"),
		ClientCachePath:    getenv("CLIENT_CACHE_PATH"),
		ClientCacheBucket:  getenv("CLIENT_CACHE_BUCKET"),
		BigQueryProject:    getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:    orDefault(getenv("BIGQUERY_DATASET"), DefaultBigQueryDataset),
		LogLevel:           orDefault(getenv("LOG_LEVEL"), defaultLogLevel),
		APIToken:           getenv("API_TOKEN"),
		Port:               orDefault(getenv("PORT"), defaultPort),
		HTTPTimeout:        defaultHTTPTimeout,
	}

	for _, req := range []struct{ key, val string }{
		{"MORNING_ID", cfg.MorningID},
		{"MORNING_SECRET", cfg.MorningSecret},
		{"NOTION_API_KEY", cfg.NotionAPIKey},
		{"NOTION_DATABASE_ID", cfg.NotionDatabaseID},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("%s is not set", req.key)
		}
	}

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("HTTP_TIMEOUT: invalid duration %q", v)
		}
		cfg.HTTPTimeout = d
	}

	if v := getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_JSON: invalid boolean %q", v)
		}
		cfg.LogJSON = b
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
