package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/alkotekaworker/logger"
	apperrors "sjsage522/alkotekaworker/pkg/errors"
)

const (
	// DefaultCity is used when CITY is not set
	DefaultCity = "Краснодар"
	// DefaultAPIBaseURL is the catalog web API root
	DefaultAPIBaseURL = "https://alkoteka.com/web-api/v1"
	// DefaultURLsFile is read when CATALOG_URLS is empty
	DefaultURLsFile = "urls.txt"
	// MinStartURLs is the minimum number of category start URLs a run needs
	MinStartURLs = 3
	// DefaultOutputPath is the feed file; {timestamp} is filled in per crawl
	DefaultOutputPath = "output/alkoteka_{timestamp}.jsonl"
	// OutputDisabled as OUTPUT_PATH turns the feed file off
	OutputDisabled = "none"
)

// DefaultStartURLs are crawled when neither CATALOG_URLS nor the URL file provide any
var DefaultStartURLs = []string{
	"https://alkoteka.com/catalog/slaboalkogolnye-napitki-2",
	"https://alkoteka.com/catalog/krepkiy-alkogol",
	"https://alkoteka.com/catalog/vino",
}

// Config represents the application configuration
type Config struct {
	// Traversal configuration
	City       string
	StartURLs  []string
	APIBaseURL string
	PerPage    int
	MaxPages   int

	// Engine configuration
	Concurrency    int
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	BlockTime      time.Duration
	JSONCodec      string

	// Output configuration, OutputDisabled turns the feed off
	OutputPath   string
	ErrorLogFile string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// PostgreSQL configuration
	DatabaseURL string

	// Metrics listener, empty disables it
	MetricsPort string

	// Zero runs a single crawl
	CrawlInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	city := os.Getenv("CITY")
	if city == "" {
		city = DefaultCity
		logger.Info("CITY is not set, falling back to %s", DefaultCity)
	}

	return &Config{
		City:                 city,
		StartURLs:            loadStartURLs(os.Getenv("CATALOG_URLS"), getEnv("URLS_FILE", DefaultURLsFile)),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", DefaultAPIBaseURL), "/"),
		PerPage:              getEnvAsInt("PER_PAGE", 200),
		MaxPages:             getEnvAsInt("MAX_PAGES", 500),
		Concurrency:          getEnvAsInt("CONCURRENCY", 8),
		RequestDelay:         time.Duration(getEnvAsInt("REQUEST_DELAY_MS", 0)) * time.Millisecond,
		RequestTimeout:       time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxRetries:           getEnvAsInt("MAX_RETRIES", 2),
		BlockTime:            time.Duration(getEnvAsInt("BLOCK_TIME_SECONDS", 30)) * time.Second,
		JSONCodec:            getEnv("JSON_CODEC", "fast"),
		OutputPath:           getEnv("OUTPUT_PATH", DefaultOutputPath),
		ErrorLogFile:         os.Getenv("ERROR_LOG_FILE"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "alkoteka"),
		RedisStreamCount:     getEnvAsInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvAsInt("REDIS_STREAM_MAX_LENGTH", 10000),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MetricsPort:          os.Getenv("METRICS_PORT"),
		CrawlInterval:        time.Duration(getEnvAsInt("CRAWL_INTERVAL_SECONDS", 0)) * time.Second,
		Environment:          getEnv("ALKOTEKA_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive a crawl
func (c *Config) Validate() error {
	if len(c.StartURLs) < MinStartURLs {
		return apperrors.NewConfiguration(
			fmt.Sprintf("at least %d urls must be provided, got %d", MinStartURLs, len(c.StartURLs)), nil)
	}
	if c.City == "" {
		return apperrors.NewConfiguration("city must not be empty", nil)
	}
	if c.PerPage <= 0 || c.MaxPages <= 0 || c.Concurrency <= 0 {
		return apperrors.NewConfiguration("PER_PAGE, MAX_PAGES and CONCURRENCY must be positive", nil)
	}
	if c.RedisAddr != "" && c.RedisStreamCount <= 0 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	switch c.JSONCodec {
	case "fast", "std":
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown JSON_CODEC %q", c.JSONCodec), nil)
	}
	return nil
}

// loadStartURLs resolves the category start URLs: an explicit comma-separated
// list wins, then the URL file, then DefaultStartURLs.
func loadStartURLs(list, file string) []string {
	if list != "" {
		return splitURLs(strings.Split(list, ","))
	}

	urls, err := readURLsFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("File with urls not found: %s, using default urls", file)
		} else {
			logger.Warn("Failed to read urls file %s: %v, using default urls", file, err)
		}
		return append([]string(nil), DefaultStartURLs...)
	}
	if len(urls) == 0 {
		logger.Info("File with urls %s is empty, using default urls", file)
		return append([]string(nil), DefaultStartURLs...)
	}
	return urls
}

func readURLsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.Split(line, ",")...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return splitURLs(lines), nil
}

func splitURLs(parts []string) []string {
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
