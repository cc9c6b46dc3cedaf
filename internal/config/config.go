package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caresignal/recovery-engine/internal/models"
)

// Config captures the settings required to boot the recovery engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Clients  ClientsConfig  `yaml:"clients"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
	Learning LearningConfig `yaml:"learning"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
	RatePerSecond   float64       `yaml:"ratePerSecond"`
	RateBurst       int           `yaml:"rateBurst"`
}

// ClientsConfig groups the upstream integrations.
type ClientsConfig struct {
	Platform PlatformClientConfig `yaml:"platform"`
	Archive  ArchiveClientConfig  `yaml:"archive"`
}

// PlatformClientConfig configures the clinical platform error feed.
type PlatformClientConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
	SyncWindow time.Duration `yaml:"syncWindow"`
	SyncLimit  int           `yaml:"syncLimit"`
}

// ArchiveClientConfig configures the compliance archive.
type ArchiveClientConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig selects and tunes the cache backing the upstream clients.
// Mode is one of "none", "memory", or "valkey".
type CacheConfig struct {
	Mode         string        `yaml:"mode"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	SnapshotTTL  time.Duration `yaml:"snapshotTTL"`
	EventsTTL    time.Duration `yaml:"eventsTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// LearningConfig tunes the online learning behaviour. Zero values defer to
// the engine's built-in defaults.
type LearningConfig struct {
	SimilarityThreshold    float64       `yaml:"similarityThreshold"`
	LearningRate           float64       `yaml:"learningRate"`
	ConfidenceIncrement    float64       `yaml:"confidenceIncrement"`
	ConfidenceNudge        float64       `yaml:"confidenceNudge"`
	MinRecommendationScore float64       `yaml:"minRecommendationScore"`
	SuccessWeight          float64       `yaml:"successWeight"`
	CostWeight             float64       `yaml:"costWeight"`
	RiskWeight             float64       `yaml:"riskWeight"`
	SafetyBonus            float64       `yaml:"safetyBonus"`
	CriticalBonus          float64       `yaml:"criticalBonus"`
	MaxAlternates          int           `yaml:"maxAlternates"`
	Retention              time.Duration `yaml:"retention"`
	CleanupInterval        time.Duration `yaml:"cleanupInterval"`
}

// CatalogConfig points at the strategy catalog; an empty path selects the
// built-in playbook.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load initialises Config from a YAML file and optional environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("RECOVERY_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LearningParams converts the learning section into engine params.
func (c *Config) LearningParams() models.LearningParams {
	return models.LearningParams{
		SimilarityThreshold:    c.Learning.SimilarityThreshold,
		LearningRate:           c.Learning.LearningRate,
		ConfidenceIncrement:    c.Learning.ConfidenceIncrement,
		ConfidenceNudge:        c.Learning.ConfidenceNudge,
		MinRecommendationScore: c.Learning.MinRecommendationScore,
		SuccessWeight:          c.Learning.SuccessWeight,
		CostWeight:             c.Learning.CostWeight,
		RiskWeight:             c.Learning.RiskWeight,
		SafetyBonus:            c.Learning.SafetyBonus,
		CriticalBonus:          c.Learning.CriticalBonus,
		MaxAlternates:          c.Learning.MaxAlternates,
	}
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8085",
			MetricsAddress:  ":9095",
			GracefulTimeout: 10 * time.Second,
			RatePerSecond:   50,
			RateBurst:       100,
		},
		Clients: ClientsConfig{
			Platform: PlatformClientConfig{
				Timeout:    5 * time.Second,
				SyncWindow: 15 * time.Minute,
				SyncLimit:  200,
			},
			Archive: ArchiveClientConfig{
				Timeout: 5 * time.Second,
			},
		},
		Cache: CacheConfig{
			Mode:         "none",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			SnapshotTTL:  5 * time.Minute,
			EventsTTL:    30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Learning: LearningConfig{
			Retention:       720 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECOVERY_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_PLATFORM_URL"); v != "" {
		cfg.Clients.Platform.BaseURL = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_PLATFORM_API_KEY"); v != "" {
		cfg.Clients.Platform.APIKey = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_PLATFORM_SYNC_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Platform.SyncWindow = d
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_PLATFORM_SYNC_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Clients.Platform.SyncLimit = n
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_ARCHIVE_URL"); v != "" {
		cfg.Clients.Archive.Endpoint = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_ARCHIVE_API_KEY"); v != "" {
		cfg.Clients.Archive.APIKey = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("RECOVERY_ENGINE_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_MODE"); v != "" {
		cfg.Cache.Mode = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SnapshotTTL = d
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_CACHE_EVENTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.EventsTTL = d
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Learning.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_LEARNING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Learning.LearningRate = f
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Learning.Retention = d
		}
	}
	if v := os.Getenv("RECOVERY_ENGINE_CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Learning.CleanupInterval = d
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	switch c.Cache.Mode {
	case "", "none", "memory", "valkey":
	default:
		return fmt.Errorf("cache.mode %q is not one of none, memory, valkey", c.Cache.Mode)
	}
	if c.Cache.Mode == "valkey" && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when cache.mode is valkey")
	}
	if t := c.Learning.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("learning.similarityThreshold %.3f outside [0,1]", t)
	}
	if r := c.Learning.LearningRate; r < 0 || r > 1 {
		return fmt.Errorf("learning.learningRate %.3f outside [0,1]", r)
	}
	if s := c.Learning.MinRecommendationScore; s < 0 || s > 1 {
		return fmt.Errorf("learning.minRecommendationScore %.3f outside [0,1]", s)
	}
	return nil
}
