package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Notification sources
const (
	SourceDBus      = "dbus"
	SourceLeaseFile = "leasefile"
)

// ServerConfig represents the DHCP server (dnsmasq) launch configuration
type ServerConfig struct {
	Executable       string        `yaml:"executable" default:"/usr/sbin/dnsmasq"`
	Interface        string        `yaml:"interface"`
	LeaseTime        string        `yaml:"lease_time"`
	RangeStart       string        `yaml:"range_start" default:"192.168.0.128"`
	RangeEnd         string        `yaml:"range_end" default:"192.168.0.254"`
	User             string        `yaml:"user" default:"dnsmasq"`
	Group            string        `yaml:"group" default:"nogroup"`
	PIDFile          string        `yaml:"pid_file" default:"/var/run/dnsmasq/dnsmasq.pid"`
	LeaseFile        string        `yaml:"lease_file" default:"/var/lib/misc/dnsmasq.leases"`
	InterfaceAddress string        `yaml:"interface_address"` // CIDR, e.g. 192.168.0.1/24
	StopTimeout      time.Duration `yaml:"stop_timeout" default:"1s"`
	Sudo             bool          `yaml:"sudo" default:"true"`
}

// MonitorConfig represents the lease notification configuration
type MonitorConfig struct {
	Source         string        `yaml:"source" default:"dbus"` // dbus or leasefile
	BusWaitTimeout time.Duration `yaml:"bus_wait_timeout" default:"5s"`
	VersionTimeout time.Duration `yaml:"version_timeout" default:"4s"`
	ReloadOnResume bool          `yaml:"reload_on_resume" default:"true"`
	DNSAddress     string        `yaml:"dns_address" default:"127.0.0.1:53"`
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address" default:":9100"`
}

// Config represents the main configuration structure
type Config struct {
	Logging logging.LogConfig `yaml:"logging"`
	Server  ServerConfig      `yaml:"server"`
	Monitor MonitorConfig     `yaml:"monitor"`
	Metrics MetricsConfig     `yaml:"metrics"`
}

// Default returns a configuration holding only default values
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load loads configuration from a YAML file. An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Monitor.Source {
	case SourceDBus:
	case SourceLeaseFile:
		if c.Server.LeaseFile == "" {
			return fmt.Errorf("monitor source %s requires server.lease_file", SourceLeaseFile)
		}
	default:
		return fmt.Errorf("unsupported monitor source: %s", c.Monitor.Source)
	}

	if c.Server.Executable == "" {
		return fmt.Errorf("server executable is required")
	}

	if err := validateRange(c.Server.RangeStart, c.Server.RangeEnd); err != nil {
		return err
	}

	if c.Server.LeaseTime != "" {
		if _, _, err := ParseLeaseTime(c.Server.LeaseTime); err != nil {
			return fmt.Errorf("server lease_time: %w", err)
		}
	}

	if c.Server.InterfaceAddress != "" {
		if _, err := netip.ParsePrefix(c.Server.InterfaceAddress); err != nil {
			return fmt.Errorf("server interface_address %s: %w", c.Server.InterfaceAddress, err)
		}
	}

	if c.Server.StopTimeout <= 0 {
		return fmt.Errorf("server stop_timeout must be positive")
	}

	return nil
}

func validateRange(start, end string) error {
	startIP, err := netip.ParseAddr(start)
	if err != nil {
		return fmt.Errorf("server range_start %q: %w", start, err)
	}
	endIP, err := netip.ParseAddr(end)
	if err != nil {
		return fmt.Errorf("server range_end %q: %w", end, err)
	}
	if !startIP.Is4() || !endIP.Is4() {
		return fmt.Errorf("server range must be IPv4")
	}
	if endIP.Less(startIP) {
		return fmt.Errorf("server range_end %s is before range_start %s", end, start)
	}
	return nil
}
