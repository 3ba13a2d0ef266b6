// Package config provides application configuration loaded from an optional
// YAML file and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // AUTOMATION_TIMEZONE must resolve on minimal images

	"gopkg.in/yaml.v3"
)

// DefaultDSN is a process-local SQLite database shared by all connections.
const DefaultDSN = "file:ca_practice?mode=memory&cache=shared"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	App        AppConfig        `yaml:"app"`
	Automation AutomationConfig `yaml:"automation"`
	Storage    StorageConfig    `yaml:"storage"`
	Mail       MailConfig       `yaml:"mail"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout"`  // seconds
}

// DatabaseConfig selects the record store. A postgres URL or key=value DSN
// uses PostgreSQL, anything else is handed to SQLite.
type DatabaseConfig struct {
	DSN        string `yaml:"dsn"`
	Debug      bool   `yaml:"debug"`
	Migrations bool   `yaml:"migrations"`
	Seed       bool   `yaml:"seed"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev         bool     `yaml:"dev"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`
	// Practice details printed on invoices.
	PracticeName    string `yaml:"practice_name"`
	PracticeAddress string `yaml:"practice_address"`
	// SessionSecret signs staff session cookies.
	SessionSecret string `yaml:"session_secret"`
}

// AutomationConfig drives the background scheduler. Times are HH:MM in
// Timezone.
type AutomationConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Timezone        string        `yaml:"timezone"`
	ReminderTime    string        `yaml:"reminder_time"`
	AssignTime      string        `yaml:"assign_time"`
	RecurringTime   string        `yaml:"recurring_time"`
	OverdueInterval time.Duration `yaml:"overdue_interval"`
}

// StorageConfig controls where uploaded files land.
type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

// Mail providers.
const (
	MailLog  = "log"
	MailSMTP = "smtp"
)

// MailConfig selects how reminders reach clients. The log provider only
// records them.
type MailConfig struct {
	Provider string `yaml:"provider"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15,
			WriteTimeout: 15,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{DSN: DefaultDSN},
		App: AppConfig{
			LogLevel:     "info",
			CORSOrigins:  []string{"*"},
			PracticeName: "CA Practice",
		},
		Automation: AutomationConfig{
			Timezone:        "Asia/Kolkata",
			ReminderTime:    "09:00",
			AssignTime:      "08:00",
			RecurringTime:   "00:00",
			OverdueInterval: time.Hour,
		},
		Storage: StorageConfig{UploadDir: "uploads"},
		Mail: MailConfig{
			Provider: MailLog,
			Port:     587,
			From:     "noreply@capractice.com",
			FromName: "CA Practice Pro",
		},
	}
}

// Load builds the configuration. Precedence: environment variable > YAML file
// at path (skipped when path is empty) > default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.DSN = getEnv("DATABASE_DSN", cfg.Database.DSN)
	cfg.Database.Debug = getEnvBool("DB_DEBUG", cfg.Database.Debug)
	cfg.Database.Migrations = getEnvBool("MIGRATIONS", cfg.Database.Migrations)
	cfg.Database.Seed = getEnvBool("DB_SEED", cfg.Database.Seed)

	cfg.App.Dev = getEnvBool("DEV", cfg.App.Dev)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.PracticeName = getEnv("PRACTICE_NAME", cfg.App.PracticeName)
	cfg.App.PracticeAddress = getEnv("PRACTICE_ADDRESS", cfg.App.PracticeAddress)
	cfg.App.SessionSecret = getEnv("SESSION_SECRET", cfg.App.SessionSecret)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.App.CORSOrigins = splitList(v)
	}

	cfg.Automation.Enabled = getEnvBool("AUTOMATION_ENABLED", cfg.Automation.Enabled)
	cfg.Automation.Timezone = getEnv("AUTOMATION_TIMEZONE", cfg.Automation.Timezone)
	cfg.Automation.ReminderTime = getEnv("REMINDER_TIME", cfg.Automation.ReminderTime)
	cfg.Automation.AssignTime = getEnv("ASSIGN_TIME", cfg.Automation.AssignTime)
	cfg.Automation.RecurringTime = getEnv("RECURRING_TIME", cfg.Automation.RecurringTime)
	if v := os.Getenv("OVERDUE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("OVERDUE_INTERVAL: %w", err)
		}
		cfg.Automation.OverdueInterval = d
	}

	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", cfg.Storage.UploadDir)

	cfg.Mail.Provider = getEnv("MAIL_PROVIDER", cfg.Mail.Provider)
	cfg.Mail.Host = getEnv("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvInt("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("SMTP_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("SENDER_EMAIL", cfg.Mail.From)
	cfg.Mail.FromName = getEnv("SENDER_NAME", cfg.Mail.FromName)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, inside the
// scheduler or the listener.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is empty")
	}
	if _, err := time.LoadLocation(c.Automation.Timezone); err != nil {
		return fmt.Errorf("automation timezone: %w", err)
	}
	for name, v := range map[string]string{
		"reminder_time":  c.Automation.ReminderTime,
		"assign_time":    c.Automation.AssignTime,
		"recurring_time": c.Automation.RecurringTime,
	} {
		if _, err := time.Parse("15:04", v); err != nil {
			return fmt.Errorf("automation %s %q: want HH:MM", name, v)
		}
	}
	if c.Automation.OverdueInterval <= 0 {
		return fmt.Errorf("automation overdue_interval must be positive")
	}
	switch c.Mail.Provider {
	case MailLog:
	case MailSMTP:
		if c.Mail.Host == "" || c.Mail.Port <= 0 || c.Mail.From == "" {
			return fmt.Errorf("smtp mail needs host, port and from")
		}
	default:
		return fmt.Errorf("mail provider %q: want %s or %s", c.Mail.Provider, MailLog, MailSMTP)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool accepts "1", "true", "yes" as true; any other non-empty value is
// false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
