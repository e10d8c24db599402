//go:build unit

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dhcp-leasewatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("ValidConfig", func(t *testing.T) {
		configContent := `logging:
  level: debug
  format: simple

server:
  interface: eth1
  lease_time: 2m
  interface_address: 192.168.0.1/24
  stop_timeout: 3s
  sudo: false

monitor:
  source: leasefile
  reload_on_resume: false

metrics:
  enabled: true
  listen_address: 127.0.0.1:9200
`
		configFile := filepath.Join(tempDir, "valid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		config, err := Load(configFile)
		require.NoError(t, err)
		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "simple", config.Logging.Format)

		assert.Equal(t, "eth1", config.Server.Interface)
		assert.Equal(t, "2m", config.Server.LeaseTime)
		assert.Equal(t, "192.168.0.1/24", config.Server.InterfaceAddress)
		assert.Equal(t, 3*time.Second, config.Server.StopTimeout)
		assert.False(t, config.Server.Sudo)

		// Untouched keys keep their defaults
		assert.Equal(t, "/usr/sbin/dnsmasq", config.Server.Executable)
		assert.Equal(t, "192.168.0.128", config.Server.RangeStart)
		assert.Equal(t, "192.168.0.254", config.Server.RangeEnd)
		assert.Equal(t, "dnsmasq", config.Server.User)
		assert.Equal(t, "nogroup", config.Server.Group)

		assert.Equal(t, SourceLeaseFile, config.Monitor.Source)
		assert.False(t, config.Monitor.ReloadOnResume)
		assert.Equal(t, 5*time.Second, config.Monitor.BusWaitTimeout)

		assert.True(t, config.Metrics.Enabled)
		assert.Equal(t, "127.0.0.1:9200", config.Metrics.ListenAddress)
		assert.NoError(t, config.Validate())
	})

	t.Run("EmptyPath", func(t *testing.T) {
		config, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), config)
	})

	t.Run("NonExistentFile", func(t *testing.T) {
		_, err := Load("/nonexistent/config.yml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		configContent := `invalid: yaml: content: [
`
		configFile := filepath.Join(tempDir, "invalid.yml")
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		_, err = Load(configFile)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "compact", config.Logging.Format)
	assert.Equal(t, SourceDBus, config.Monitor.Source)
	assert.Equal(t, 4*time.Second, config.Monitor.VersionTimeout)
	assert.True(t, config.Monitor.ReloadOnResume)
	assert.True(t, config.Server.Sudo)
	assert.Equal(t, time.Second, config.Server.StopTimeout)
	assert.Equal(t, "/var/run/dnsmasq/dnsmasq.pid", config.Server.PIDFile)
	assert.False(t, config.Metrics.Enabled)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "UnknownSource",
			mutate:  func(c *Config) { c.Monitor.Source = "syslog" },
			wantErr: "unsupported monitor source",
		},
		{
			name: "LeaseFileSourceWithoutFile",
			mutate: func(c *Config) {
				c.Monitor.Source = SourceLeaseFile
				c.Server.LeaseFile = ""
			},
			wantErr: "requires server.lease_file",
		},
		{
			name:    "MissingExecutable",
			mutate:  func(c *Config) { c.Server.Executable = "" },
			wantErr: "server executable is required",
		},
		{
			name:    "InvalidRangeStart",
			mutate:  func(c *Config) { c.Server.RangeStart = "not-an-ip" },
			wantErr: "range_start",
		},
		{
			name:    "IPv6Range",
			mutate:  func(c *Config) { c.Server.RangeEnd = "fe80::1" },
			wantErr: "must be IPv4",
		},
		{
			name: "ReversedRange",
			mutate: func(c *Config) {
				c.Server.RangeStart = "192.168.0.200"
				c.Server.RangeEnd = "192.168.0.100"
			},
			wantErr: "is before range_start",
		},
		{
			name:    "InvalidLeaseTime",
			mutate:  func(c *Config) { c.Server.LeaseTime = "soon" },
			wantErr: "server lease_time",
		},
		{
			name:    "InvalidInterfaceAddress",
			mutate:  func(c *Config) { c.Server.InterfaceAddress = "192.168.0.1" },
			wantErr: "interface_address",
		},
		{
			name:    "NonPositiveStopTimeout",
			mutate:  func(c *Config) { c.Server.StopTimeout = 0 },
			wantErr: "stop_timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)

			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLeaseTime(t *testing.T) {
	tests := []struct {
		input        string
		wantDuration time.Duration
		wantInfinite bool
		wantErr      bool
	}{
		{input: "120", wantDuration: 120 * time.Second},
		{input: "60s", wantDuration: time.Minute},
		{input: "2m", wantDuration: 2 * time.Minute},
		{input: "12h", wantDuration: 12 * time.Hour},
		{input: "1d", wantDuration: 24 * time.Hour},
		{input: "1w", wantDuration: 7 * 24 * time.Hour},
		{input: " 5M ", wantDuration: 5 * time.Minute},
		{input: "infinite", wantInfinite: true},
		{input: "INFINITE", wantInfinite: true},
		{input: "", wantErr: true},
		{input: "0", wantErr: true},
		{input: "-5m", wantErr: true},
		{input: "m", wantErr: true},
		{input: "1.5h", wantErr: true},
		{input: "10y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, infinite, err := ParseLeaseTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrInvalidLeaseTime))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDuration, d)
			assert.Equal(t, tt.wantInfinite, infinite)
		})
	}
}
