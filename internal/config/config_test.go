package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

const validConfig = `
[server]
bind_address = "192.168.1.1"
log_level = "debug"

[client]
mac = "00:0b:82:01:fc:42"
ip = "192.168.1.100"
subnet_mask = "255.255.255.0"
gateway = "192.168.1.254"
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if !cfg.Server.Trace {
		t.Error("Trace = false, want default true when key absent")
	}
	if got := cfg.TargetMAC().String(); got != "00:0b:82:01:fc:42" {
		t.Errorf("TargetMAC = %s", got)
	}
	if got := dhcpv4.FormatDottedQuad(cfg.ClientIP()); got != "192.168.1.100" {
		t.Errorf("ClientIP = %s", got)
	}
	if got := dhcpv4.FormatDottedQuad(cfg.BindIP()); got != "192.168.1.1" {
		t.Errorf("BindIP = %s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load of missing file: want error")
	}
}

func TestLoadBadTOML(t *testing.T) {
	if _, err := Load(writeTestConfig(t, "[[[[")); err == nil {
		t.Error("Load of invalid TOML: want error")
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *Config {
		c := New()
		c.Server.BindAddress = "192.168.1.1"
		c.Client.MAC = "00:0b:82:01:fc:42"
		c.Client.IP = "192.168.1.100"
		c.Client.SubnetMask = "255.255.255.0"
		c.Client.Gateway = "192.168.1.254"
		return c
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantAddress bool // error wraps ErrMalformedAddress
	}{
		{"missing MAC", func(c *Config) { c.Client.MAC = "" }, false},
		{"bad MAC", func(c *Config) { c.Client.MAC = "not-a-mac" }, false},
		{"infiniband MAC", func(c *Config) {
			c.Client.MAC = "00:00:00:00:fe:80:00:00:00:00:00:00:02:00:5e:10:00:00:00:01"
		}, false},
		{"missing bind address", func(c *Config) { c.Server.BindAddress = "" }, false},
		{"bad client IP", func(c *Config) { c.Client.IP = "192.168.1.300" }, true},
		{"hostname as gateway", func(c *Config) { c.Client.Gateway = "gw.local" }, true},
		{"three-octet subnet", func(c *Config) { c.Client.SubnetMask = "255.255.0" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate: want error")
			}
			if tt.wantAddress && !errors.Is(err, dhcpv4.ErrMalformedAddress) {
				t.Errorf("error %v does not wrap ErrMalformedAddress", err)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Server.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.Server.LogLevel, DefaultLogLevel)
	}
	if cfg.Server.Trace != DefaultTrace {
		t.Errorf("Trace = %v, want %v", cfg.Server.Trace, DefaultTrace)
	}
}
