package config

import (
	"testing"
	"time"

	"github.com/citusdata/membership-manager/pkg/log"
	"github.com/citusdata/membership-manager/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOSTNAME", "abc123")
	t.Setenv("CITUS_HOST", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, types.DatabaseTarget{Host: "master", User: "postgres", Database: "postgres"}, cfg.Database)
	assert.Equal(t, "abc123", cfg.Hostname)
	assert.Equal(t, DefaultReadinessFile, cfg.ReadinessFile)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, time.Second, cfg.RetryInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOSTNAME", "abc123")
	t.Setenv("CITUS_HOST", "coordinator")
	t.Setenv("POSTGRES_USER", "citus")
	t.Setenv("POSTGRES_PASSWORD", "s3cret")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("CONNECT_RETRY_INTERVAL", "250ms")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "coordinator", cfg.Database.Host)
	assert.Equal(t, "citus", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "citus", cfg.Database.Database, "database defaults to the user name")
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval)

	t.Setenv("POSTGRES_DB", "analytics")
	cfg, err = Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "analytics", cfg.Database.Database)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		isErr error
	}{
		{
			name:  "missing hostname",
			env:   map[string]string{"HOSTNAME": ""},
			isErr: ErrMissingHostname,
		},
		{
			name: "non-positive retry interval",
			env:  map[string]string{"HOSTNAME": "abc123", "CONNECT_RETRY_INTERVAL": "-1s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}

			cfg, err := Load(NewViper())
			require.Error(t, err)
			assert.Nil(t, cfg)
			if tt.isErr != nil {
				assert.ErrorIs(t, err, tt.isErr)
			}
		})
	}
}
