package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	// postgres | sqlite | memory
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	// DryRun — не отправлять письма, а логировать коды (режим разработки)
	DryRun bool `yaml:"dry_run"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type VerificationConfig struct {
	RegistrationTTLMin int `yaml:"registration_ttl_min"`
	RecoveryTTLMin     int `yaml:"recovery_ttl_min"`
	SweepIntervalMin   int `yaml:"sweep_interval_min"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Email        EmailConfig        `yaml:"email"`
	Auth         AuthConfig         `yaml:"auth"`
	Verification VerificationConfig `yaml:"verification"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

func (v VerificationConfig) RegistrationTTL() time.Duration {
	return time.Duration(v.RegistrationTTLMin) * time.Minute
}

func (v VerificationConfig) RecoveryTTL() time.Duration {
	return time.Duration(v.RecoveryTTLMin) * time.Minute
}

func (v VerificationConfig) SweepInterval() time.Duration {
	return time.Duration(v.SweepIntervalMin) * time.Minute
}

func LoadConfig() *Config {
	cfg, err := LoadConfigFrom("config/config.yaml")
	if err != nil {
		panic("Failed to load config.yaml: " + err.Error())
	}
	return cfg
}

func LoadConfigFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3333
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "malinoise.db"
	}
	if cfg.Auth.TokenTTLHours == 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	if cfg.Verification.RegistrationTTLMin == 0 {
		cfg.Verification.RegistrationTTLMin = 10
	}
	if cfg.Verification.RecoveryTTLMin == 0 {
		cfg.Verification.RecoveryTTLMin = 30
	}
	if cfg.Verification.SweepIntervalMin == 0 {
		cfg.Verification.SweepIntervalMin = 5
	}
}
