package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/types"
	"github.com/spf13/viper"
)

// Keys double as environment variable names once upper-cased by viper
const (
	ParamCitusHost        = "citus_host"
	ParamPostgresUser     = "postgres_user"
	ParamPostgresPassword = "postgres_password"
	ParamPostgresDB       = "postgres_db"
	ParamHostname         = "hostname"
	ParamReadinessFile    = "readiness_file"
	ParamLogLevel         = "log_level"
	ParamLogJSON          = "log_json"
	ParamMetricsAddr      = "metrics_addr"
	ParamRetryInterval    = "connect_retry_interval"

	DefaultCitusHost     = "master"
	DefaultPostgresUser  = "postgres"
	DefaultReadinessFile = "/healthcheck/manager-ready"
	DefaultLogLevel      = log.InfoLevel
	DefaultRetryInterval = 1 * time.Second
)

// ErrMissingHostname is returned when the container's own hostname is not set
var ErrMissingHostname = errors.New("HOSTNAME must be set to the container's own name or ID")

// Config is the immutable process configuration
type Config struct {
	Database      types.DatabaseTarget
	Hostname      string
	ReadinessFile string
	LogLevel      log.Level
	LogJSON       bool
	MetricsAddr   string // empty disables the diagnostics listener
	RetryInterval time.Duration
}

// NewViper returns a viper instance reading the process environment with
// every default applied
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(ParamCitusHost, DefaultCitusHost)
	v.SetDefault(ParamPostgresUser, DefaultPostgresUser)
	v.SetDefault(ParamPostgresPassword, "")
	v.SetDefault(ParamPostgresDB, "")
	v.SetDefault(ParamHostname, "")
	v.SetDefault(ParamReadinessFile, DefaultReadinessFile)
	v.SetDefault(ParamLogLevel, string(DefaultLogLevel))
	v.SetDefault(ParamLogJSON, false)
	v.SetDefault(ParamMetricsAddr, "")
	v.SetDefault(ParamRetryInterval, DefaultRetryInterval)
}

// Load builds a Config from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	user := v.GetString(ParamPostgresUser)
	database := v.GetString(ParamPostgresDB)
	if database == "" {
		database = user
	}

	cfg := &Config{
		Database: types.DatabaseTarget{
			Host:     v.GetString(ParamCitusHost),
			User:     user,
			Password: v.GetString(ParamPostgresPassword),
			Database: database,
		},
		Hostname:      v.GetString(ParamHostname),
		ReadinessFile: v.GetString(ParamReadinessFile),
		LogLevel:      log.Level(v.GetString(ParamLogLevel)),
		LogJSON:       v.GetBool(ParamLogJSON),
		MetricsAddr:   v.GetString(ParamMetricsAddr),
		RetryInterval: v.GetDuration(ParamRetryInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have no usable default
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return ErrMissingHostname
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", ParamRetryInterval, c.RetryInterval)
	}
	if c.ReadinessFile == "" {
		return fmt.Errorf("%s must not be empty", ParamReadinessFile)
	}
	return nil
}
