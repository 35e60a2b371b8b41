// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, cache sizing, analysis tuning, the
// scraper proxy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "review-insights")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// CacheConfig defines result cache sizing and lifetime.
type CacheConfig struct {
	MaxSize         int64         // CACHE_MAX_SIZE_BYTES
	TTL             time.Duration // CACHE_TTL
	PersistProgress bool          // CACHE_PERSIST_PROGRESS
}

// AnalysisConfig tunes the analyzer pipeline.
type AnalysisConfig struct {
	Version   string // ANALYSIS_VERSION, part of the cache key
	BatchSize int    // ANALYSIS_BATCH_SIZE
	MaxTopics int    // ANALYSIS_MAX_TOPICS
}

// ScraperConfig defines the review proxy client settings.
type ScraperConfig struct {
	BaseURL    string        // SCRAPER_BASE_URL
	BatchSize  int           // SCRAPER_BATCH_SIZE
	MaxReviews int           // SCRAPER_MAX_REVIEWS per analysis request
	MaxRetries int           // SCRAPER_MAX_RETRIES
	Backoff    time.Duration // SCRAPER_BACKOFF base delay
	Timeout    time.Duration // SCRAPER_TIMEOUT per request
	RPS        float64       // SCRAPER_RPS
	Burst      int           // SCRAPER_BURST
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath   string // SQLite path for the analysis cache
	Cache    CacheConfig
	Analysis AnalysisConfig
	Scraper  ScraperConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "cache.db"),
		Cache: CacheConfig{
			MaxSize:         getint64("CACHE_MAX_SIZE_BYTES", 50<<20),
			TTL:             getdur("CACHE_TTL", 7*24*time.Hour),
			PersistProgress: getbool("CACHE_PERSIST_PROGRESS", true),
		},
		Analysis: AnalysisConfig{
			Version:   getenv("ANALYSIS_VERSION", "1.0"),
			BatchSize: getint("ANALYSIS_BATCH_SIZE", 50),
			MaxTopics: getint("ANALYSIS_MAX_TOPICS", 10),
		},
		Scraper: ScraperConfig{
			BaseURL:    getenv("SCRAPER_BASE_URL", "http://localhost:3100"),
			BatchSize:  getint("SCRAPER_BATCH_SIZE", 150),
			MaxReviews: getint("SCRAPER_MAX_REVIEWS", 1500),
			MaxRetries: getint("SCRAPER_MAX_RETRIES", 3),
			Backoff:    getdur("SCRAPER_BACKOFF", 500*time.Millisecond),
			Timeout:    getdur("SCRAPER_TIMEOUT", 15*time.Second),
			RPS:        getfloat("SCRAPER_RPS", 5.0),
			Burst:      getint("SCRAPER_BURST", 5),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "review-insights"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Scraper.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Scraper.BaseURL), "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Cache.MaxSize <= 0 {
		return cfg, errors.New("CACHE_MAX_SIZE_BYTES must be > 0")
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, errors.New("CACHE_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Analysis.Version) == "" {
		return cfg, errors.New("ANALYSIS_VERSION must not be empty")
	}
	if cfg.Analysis.BatchSize < 1 {
		return cfg, errors.New("ANALYSIS_BATCH_SIZE must be >= 1")
	}
	if cfg.Analysis.MaxTopics < 1 {
		return cfg, errors.New("ANALYSIS_MAX_TOPICS must be >= 1")
	}
	if strings.TrimSpace(cfg.Scraper.BaseURL) == "" {
		return cfg, errors.New("SCRAPER_BASE_URL must not be empty")
	}
	if cfg.Scraper.BatchSize < 1 {
		return cfg, errors.New("SCRAPER_BATCH_SIZE must be >= 1")
	}
	if cfg.Scraper.MaxRetries < 0 {
		return cfg, errors.New("SCRAPER_MAX_RETRIES must be >= 0")
	}
	if cfg.Scraper.Backoff <= 0 || cfg.Scraper.Timeout <= 0 {
		return cfg, errors.New("scraper backoff and timeout must be positive durations")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
