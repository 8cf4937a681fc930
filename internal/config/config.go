// Package config handles TOML configuration parsing and validation for
// solodhcpd. All addresses are validated before the server is constructed;
// a malformed address is the one fatal error this program has.
package config

import (
	"fmt"
	"net"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/solodhcpd/solodhcpd/pkg/dhcpv4"
)

// Config is the top-level configuration for solodhcpd.
type Config struct {
	Server ServerConfig `toml:"server"`
	Client ClientConfig `toml:"client"`

	// Parsed forms, populated by Validate.
	targetMAC  net.HardwareAddr
	bindIP     net.IP
	clientIP   net.IP
	subnetMask net.IP
	gateway    net.IP
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	BindAddress   string `toml:"bind_address"`   // IPv4 to bind UDP port 67 on
	LogLevel      string `toml:"log_level"`      // debug, info, warn, error
	Trace         bool   `toml:"trace"`          // console hex dump of every packet
	MetricsListen string `toml:"metrics_listen"` // optional Prometheus listen address
	AuditDB       string `toml:"audit_db"`       // optional bbolt decision journal path
}

// ClientConfig identifies the one host this server answers, and what it
// is told.
type ClientConfig struct {
	MAC        string `toml:"mac"`         // colon-hex hardware address
	IP         string `toml:"ip"`          // address offered to the client
	SubnetMask string `toml:"subnet_mask"` // option 1
	Gateway    string `toml:"gateway"`     // option 3
}

// New returns a Config with defaults applied.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: DefaultLogLevel,
			Trace:    DefaultTrace,
		},
	}
}

// Load reads and parses a TOML config file. Defaults are applied first, so
// absent keys keep their default values. Call Validate before use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := New()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every operator-supplied address and caches the parsed
// forms. All four IP fields go through the strict dotted-decimal parser;
// the MAC must be a canonical 6-byte Ethernet address.
func (c *Config) Validate() error {
	if c.Client.MAC == "" {
		return fmt.Errorf("client MAC address not configured")
	}
	mac, err := net.ParseMAC(c.Client.MAC)
	if err != nil {
		return fmt.Errorf("client MAC address %q: %w", c.Client.MAC, err)
	}
	if len(mac) != dhcpv4.EthernetHLen {
		return fmt.Errorf("client MAC address %q: want a 6-byte Ethernet address, got %d bytes", c.Client.MAC, len(mac))
	}
	c.targetMAC = mac

	for _, f := range []struct {
		name  string
		value string
		dst   *net.IP
	}{
		{"bind_address", c.Server.BindAddress, &c.bindIP},
		{"client ip", c.Client.IP, &c.clientIP},
		{"subnet_mask", c.Client.SubnetMask, &c.subnetMask},
		{"gateway", c.Client.Gateway, &c.gateway},
	} {
		if f.value == "" {
			return fmt.Errorf("%s not configured", f.name)
		}
		ip, err := dhcpv4.ParseDottedQuad(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = ip
	}

	return nil
}

// TargetMAC returns the parsed hardware address of the served host.
func (c *Config) TargetMAC() net.HardwareAddr { return c.targetMAC }

// BindIP returns the parsed bind address.
func (c *Config) BindIP() net.IP { return c.bindIP }

// ClientIP returns the parsed offered address.
func (c *Config) ClientIP() net.IP { return c.clientIP }

// SubnetMask returns the parsed subnet mask.
func (c *Config) SubnetMask() net.IP { return c.subnetMask }

// Gateway returns the parsed gateway address.
func (c *Config) Gateway() net.IP { return c.gateway }
