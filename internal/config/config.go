package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// DatabaseURL is optional: when empty the service runs on the in-memory
	// store, which is enough for local extraction testing.
	DatabaseURL string `yaml:"databaseURL"`

	DocAIProjectID   string `yaml:"docaiProjectId"`
	DocAILocation    string `yaml:"docaiLocation"`
	DocAIProcessorID string `yaml:"docaiProcessorId"`
	DocAIAccessToken string `yaml:"docaiAccessToken"`
	DocAIEndpoint    string `yaml:"docaiEndpoint"`

	RedisAddr           string `yaml:"redisAddr"`
	RedisPassword       string `yaml:"redisPassword"`
	CacheTTLSeconds     int    `yaml:"cacheTtlSeconds"`
	MinioEndpoint       string `yaml:"minioEndpoint"`
	MinioAccessKey      string `yaml:"minioAccessKey"`
	MinioSecretKey      string `yaml:"minioSecretKey"`
	MinioBucket         string `yaml:"minioBucket"`
	MinioUseSSL         bool   `yaml:"minioUseSsl"`
	AMQPURL             string `yaml:"amqpUrl"`
	APITokenSecret      string `yaml:"apiTokenSecret"`
	ReportsDir          string `yaml:"reportsDir"`
	MaxUploadBytes      int64  `yaml:"maxUploadBytes"`
	ExtractionListLimit int    `yaml:"extractionListLimit"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment variable overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("DOCAI_PROJECT_ID"); v != "" {
		cfg.DocAIProjectID = v
	}
	if v := os.Getenv("DOCAI_LOCATION"); v != "" {
		cfg.DocAILocation = v
	}
	if v := os.Getenv("DOCAI_PROCESSOR_ID"); v != "" {
		cfg.DocAIProcessorID = v
	}
	if v := os.Getenv("DOCAI_ACCESS_TOKEN"); v != "" {
		cfg.DocAIAccessToken = v
	}
	if v := os.Getenv("DOCAI_ENDPOINT"); v != "" {
		cfg.DocAIEndpoint = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTLSeconds = n
		}
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("API_TOKEN_SECRET"); v != "" {
		cfg.APITokenSecret = v
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DocAIProjectID == "" {
		return errors.New("config: docaiProjectId is required (set in config.yaml or DOCAI_PROJECT_ID)")
	}
	if cfg.DocAILocation == "" {
		return errors.New("config: docaiLocation is required (set in config.yaml or DOCAI_LOCATION)")
	}
	if cfg.DocAIProcessorID == "" {
		return errors.New("config: docaiProcessorId is required (set in config.yaml or DOCAI_PROCESSOR_ID)")
	}
	if cfg.CacheTTLSeconds < 0 {
		return errors.New("config: cacheTtlSeconds must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if cfg.MinioEndpoint != "" && cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required when minioEndpoint is set")
	}
	return nil
}
