package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	// ReservationAPI points at a remote reservation service when the
	// reservation store is not local. Disabled means sqlite-backed storage.
	ReservationAPI struct {
		Enabled           bool    `yaml:"enabled"`
		BaseURL           string  `yaml:"base_url"`
		Username          string  `yaml:"username"`
		Password          string  `yaml:"password"`
		CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"reservation_api"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Admin struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/sarc.db"
	}
	if cfg.Admin.Email == "" {
		cfg.Admin.Email = "master@reservation.com"
	}
	if cfg.Admin.Name == "" {
		cfg.Admin.Name = "Master"
	}
	if cfg.Backup.StoragePath == "" {
		cfg.Backup.StoragePath = "data/backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CacheTTL returns the remote-client cache TTL; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.ReservationAPI.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReservationAPI.CacheTTLSeconds) * time.Second
}
