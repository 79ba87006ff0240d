// Package config loads the orchestrator's external configuration surface:
// the environment variables documented for the process, with an optional
// orchestrator.toml file for local overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every externally-tunable value the orchestrator process
// reads at startup.
type Config struct {
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Fly          FlyConfig          `mapstructure:"fly"`
	ObjectStore  ObjectStoreConfig  `mapstructure:"object_store"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Retention    RetentionConfig    `mapstructure:"retention"`
	Store        StoreConfig        `mapstructure:"store"`
	Log          LogConfig          `mapstructure:"log"`
}

// OrchestratorConfig holds the alarm-loop and spawn-fan-out tunables.
type OrchestratorConfig struct {
	BatchSizePhase       int           `mapstructure:"batch_size_phase"`
	AlarmDelayPhase      time.Duration `mapstructure:"alarm_delay_phase"`
	AlarmDelayErrorRetry time.Duration `mapstructure:"alarm_delay_error_retry"`
	MaxRetryAttempts     int           `mapstructure:"max_retry_attempts"`
	MaxTaskRetries       int           `mapstructure:"max_task_retries"`
	URL                  string        `mapstructure:"url"`
}

// FlyConfig holds the remote machine API's application identity.
type FlyConfig struct {
	AppName     string `mapstructure:"app_name"`
	WorkerImage string `mapstructure:"worker_image"`
	Region      string `mapstructure:"region"`
	APIToken    string `mapstructure:"api_token"`
}

// ObjectStoreConfig holds the credentials handed to every spawned worker.
type ObjectStoreConfig struct {
	AccountID string `mapstructure:"account_id"`
	AccessKey string `mapstructure:"access_key"`
	Secret    string `mapstructure:"secret"`
	Bucket    string `mapstructure:"bucket"`
}

// HTTPConfig holds the status/admin HTTP surface's listen address.
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// AdminConfig holds the bearer secret required on /admin/reset.
type AdminConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// NotifyConfig holds the downstream notifier's target URL.
type NotifyConfig struct {
	URL string `mapstructure:"url"`
}

// RetentionConfig holds the terminal-batch eviction sweep's schedule and
// cutoff.
type RetentionConfig struct {
	CronSchedule string        `mapstructure:"cron_schedule"`
	TTL          time.Duration `mapstructure:"ttl"`
}

// StoreConfig holds the durable BatchStore backend selection and its DSN.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig holds the structured logger's output settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"`
	OutputPath string `mapstructure:"output_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from the environment (first priority) and an
// optional orchestrator.toml file in the working directory, applying
// documented defaults for anything left unset.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("orchestrator")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("orchestrator.batch_size_phase", 1000)
	v.SetDefault("orchestrator.alarm_delay_phase", 5*time.Second)
	v.SetDefault("orchestrator.alarm_delay_error_retry", 30*time.Second)
	v.SetDefault("orchestrator.max_retry_attempts", 5)
	v.SetDefault("orchestrator.max_task_retries", 5)

	v.SetDefault("http.listen_addr", ":8080")

	v.SetDefault("retention.cron_schedule", "*/15 * * * *")
	v.SetDefault("retention.ttl", 30*24*time.Hour)

	v.SetDefault("store.driver", "memory")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// bindEnv maps each documented environment variable to its mapstructure
// key, since the keys are nested (orchestrator.batch_size_phase) while the
// environment variables are flat (BATCH_SIZE_PHASE).
func bindEnv(v *viper.Viper) {
	binding := map[string]string{
		"orchestrator.batch_size_phase":        "BATCH_SIZE_PHASE",
		"orchestrator.alarm_delay_phase":       "ALARM_DELAY_PHASE",
		"orchestrator.alarm_delay_error_retry": "ALARM_DELAY_ERROR_RETRY",
		"orchestrator.max_retry_attempts":      "MAX_RETRY_ATTEMPTS",
		"orchestrator.max_task_retries":        "MAX_TASK_RETRIES",
		"orchestrator.url":                     "ORCHESTRATOR_URL",

		"fly.app_name":     "FLY_APP_NAME",
		"fly.worker_image": "FLY_WORKER_IMAGE",
		"fly.region":       "FLY_REGION",
		"fly.api_token":    "MACHINE_API_TOKEN",

		"object_store.account_id": "R2_ACCOUNT_ID",
		"object_store.access_key": "R2_ACCESS_KEY_ID",
		"object_store.secret":     "R2_SECRET_ACCESS_KEY",
		"object_store.bucket":     "R2_BUCKET",

		"http.listen_addr": "HTTP_LISTEN_ADDR",

		"admin.jwt_secret": "ADMIN_JWT_SECRET",

		"notify.url": "DOWNSTREAM_NOTIFY_URL",

		"retention.cron_schedule": "RETENTION_CRON_SCHEDULE",
		"retention.ttl":           "RETENTION_TTL",

		"store.driver": "STORE_DRIVER",
		"store.dsn":    "STORE_DSN",

		"log.level":       "LOG_LEVEL",
		"log.encoding":    "LOG_ENCODING",
		"log.output_path": "LOG_OUTPUT_PATH",
	}

	for key, env := range binding {
		_ = v.BindEnv(key, env)
	}
}

func validate(cfg *Config) error {
	if cfg.Orchestrator.URL == "" {
		return fmt.Errorf("ORCHESTRATOR_URL is required")
	}
	if cfg.Store.Driver != "memory" && cfg.Store.DSN == "" {
		return fmt.Errorf("STORE_DSN is required for store driver %q", cfg.Store.Driver)
	}
	return nil
}
