package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "inventory-bridge", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.PurchaseWaitTimeout)
	assert.Equal(t, 1024, cfg.Outbox.QueueSize)
	assert.Empty(t, cfg.Memory.Catalog)
	assert.False(t, cfg.OTel.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PURCHASE_WAIT_TIMEOUT", "250ms")
	t.Setenv("OUTBOX_CONCURRENCY", "2")
	t.Setenv("MEMORY_CATALOG", "7,9,11")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.PurchaseWaitTimeout)
	assert.Equal(t, 2, cfg.Outbox.Concurrency)
	assert.Equal(t, []int32{7, 9, 11}, cfg.Memory.Catalog)
	assert.InDelta(t, 0.25, cfg.OTel.SamplingRatio, 1e-9)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-file\nMEMORY_PURCHASE_DELAY=1s\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SERVICE_NAME")
		_ = os.Unsetenv("MEMORY_PURCHASE_DELAY")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, time.Second, cfg.Memory.PurchaseDelay)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "zero wait", mutate: func(c *Config) { c.PurchaseWaitTimeout = 0 }},
		{name: "zero queue", mutate: func(c *Config) { c.Outbox.QueueSize = 0 }},
		{name: "negative delay", mutate: func(c *Config) { c.Memory.PurchaseDelay = -time.Second }},
		{name: "sampling above one", mutate: func(c *Config) { c.OTel.SamplingRatio = 1.5 }},
		{name: "export without endpoint", mutate: func(c *Config) { c.OTel.Enabled = true; c.OTel.Endpoint = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
