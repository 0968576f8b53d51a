package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/justus")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "local")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.DefaultTimezone)
	assert.Equal(t, "authenticated", cfg.JWT.Audience)
	assert.Equal(t, 10*1024*1024, cfg.Upload.MaxBytes)
	assert.Equal(t, time.Minute, cfg.Upload.Timeout)
	assert.Equal(t, 2, cfg.Cleanup.Workers)
	assert.Equal(t, 256, cfg.Cleanup.QueueSize)
	assert.Equal(t, StorageDriverLocal, cfg.StorageDriver)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("UPLOAD_TIMEOUT", "15s")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Istanbul")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2048, cfg.Upload.MaxBytes)
	assert.Equal(t, 15*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "Europe/Istanbul", cfg.DefaultTimezone)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad integer",
			env:     map[string]string{"UPLOAD_MAX_BYTES": "ten"},
			wantErr: "UPLOAD_MAX_BYTES",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"UPLOAD_TIMEOUT": "forever"},
			wantErr: "UPLOAD_TIMEOUT",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORAGE_DRIVER": "ftp"},
			wantErr: "unknown STORAGE_DRIVER",
		},
		{
			name:    "r2 without bucket",
			env:     map[string]string{"STORAGE_DRIVER": "r2", "R2_ACCOUNT_ID": "acc"},
			wantErr: "R2_BUCKET",
		},
		{
			name:    "missing database url",
			env:     map[string]string{"DATABASE_URL": ""},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown timezone",
			env:     map[string]string{"DEFAULT_TIMEZONE": "Mars/Olympus"},
			wantErr: "DEFAULT_TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestR2Config_EndpointURL(t *testing.T) {
	assert.Equal(t, "https://acc.r2.cloudflarestorage.com", R2Config{AccountID: "acc"}.EndpointURL())
	assert.Equal(t, "http://minio:9000", R2Config{AccountID: "acc", Endpoint: "http://minio:9000"}.EndpointURL())
}
