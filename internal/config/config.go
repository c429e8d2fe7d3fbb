package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"
	"github.com/inkwell-hq/inkwell/pkg/logger"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logger     logger.Config    `yaml:"logger"`
	Worker     WorkerConfig     `yaml:"worker"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Generation GenerationConfig `yaml:"generation"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

type WorkerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	PollInterval string `yaml:"poll_interval"`
	BatchSize    int    `yaml:"batch_size"`
}

type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

type GenerationConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	ImageAPIKey string `yaml:"image_api_key"`
	ImageModel  string `yaml:"image_model"`
}

type CrawlerConfig struct {
	UserAgent    string `yaml:"user_agent"`
	DefaultDelay string `yaml:"default_delay"`
	Timeout      string `yaml:"timeout"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5840
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Worker.PollInterval == "" {
		cfg.Worker.PollInterval = "10s"
	}
	if cfg.Worker.BatchSize == 0 {
		cfg.Worker.BatchSize = 5
	}
	if cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = "0 * * * *"
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o"
	}
	if cfg.Generation.ImageModel == "" {
		cfg.Generation.ImageModel = "dall-e-3"
	}
	if cfg.Crawler.UserAgent == "" {
		cfg.Crawler.UserAgent = "InkwellBot/1.0 (+https://inkwell.dev/bot)"
	}
	if cfg.Crawler.DefaultDelay == "" {
		cfg.Crawler.DefaultDelay = "1s"
	}
	if cfg.Crawler.Timeout == "" {
		cfg.Crawler.Timeout = "15s"
	}

	return cfg, nil
}
