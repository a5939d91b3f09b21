// Package config loads the daemon and client settings. Values come from an
// optional YAML file; command-line flags override them afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"devconsole/pkg/models"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr  = ":8080"
	defaultDBPath      = "build/devconsole.db"
	defaultDataDir     = "build"
	defaultServiceName = "devconsole"
	defaultPhyMode     = "MODE_11N"
	defaultAPChannel   = 11

	defaultServerURL    = "http://localhost:8080"
	defaultTimeout      = 10 * time.Second
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Device describes the identity the daemon reports. Empty fields are
// filled from the host at runtime.
type Device struct {
	Platform    string  `yaml:"platform"`
	Version     string  `yaml:"version"`
	MachineID   string  `yaml:"machine_id"`
	MachineFreq float64 `yaml:"machine_freq"`
	FlashID     int64   `yaml:"flash_id"`
	FlashSize   int64   `yaml:"flash_size"`
	// MemorySource selects "heap" (daemon heap, the default) or "host" (/proc/meminfo).
	MemorySource string `yaml:"memory_source"`
	PhyMode      string `yaml:"phy_mode"`
	// STAInterface names the station interface; empty picks the first
	// non-loopback interface with an IPv4 address.
	STAInterface string `yaml:"sta_interface"`
	// APInterface names the access point interface; empty reports it inactive.
	APInterface string `yaml:"ap_interface"`
}

// AccessPoint holds the AP config seeded into an empty database.
type AccessPoint struct {
	ESSID    string `yaml:"essid"`
	Channel  int    `yaml:"channel"`
	Hidden   bool   `yaml:"hidden"`
	AuthMode string `yaml:"authmode"`
	MAC      string `yaml:"mac"`
}

// MDNS controls LAN advertisement.
type MDNS struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// Server is the consoled configuration.
type Server struct {
	ListenAddr string      `yaml:"listen_addr"`
	DBPath     string      `yaml:"db_path"`
	DataDir    string      `yaml:"data_dir"`
	LogLevel   string      `yaml:"log_level"`
	Device     Device      `yaml:"device"`
	AP         AccessPoint `yaml:"access_point"`
	MDNS       MDNS        `yaml:"mdns"`
}

// Client is the console configuration.
type Client struct {
	ServerURL    string        `yaml:"server_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retry_max"`
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
	Watch        bool          `yaml:"watch"`
	LogFile      string        `yaml:"log_file"`
	LogLevel     string        `yaml:"log_level"`
}

// DefaultServer returns the daemon defaults.
func DefaultServer() Server {
	return Server{
		ListenAddr: defaultListenAddr,
		DBPath:     defaultDBPath,
		DataDir:    defaultDataDir,
		LogLevel:   "info",
		Device: Device{
			MemorySource: "heap",
			PhyMode:      defaultPhyMode,
		},
		AP: AccessPoint{
			ESSID:    defaultServiceName,
			Channel:  defaultAPChannel,
			AuthMode: models.AuthWPA2PSK,
		},
		MDNS: MDNS{
			Instance: defaultServiceName,
		},
	}
}

// DefaultClient returns the console defaults. Retries are off so a failed
// fetch simply leaves the view unrendered.
func DefaultClient() Client {
	return Client{
		ServerURL:    defaultServerURL,
		Timeout:      defaultTimeout,
		RetryWaitMin: defaultRetryWaitMin,
		RetryWaitMax: defaultRetryWaitMax,
		Watch:        true,
		LogLevel:     "info",
	}
}

// LoadServer reads path over the defaults. An empty path returns the defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadClient reads path over the defaults. An empty path returns the defaults.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadYAML(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks the daemon configuration.
func (c Server) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is required", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path is required", ErrInvalidConfig)
	}
	switch c.Device.MemorySource {
	case "", "heap", "host":
	default:
		return fmt.Errorf("%w: memory_source must be heap or host, got %q", ErrInvalidConfig, c.Device.MemorySource)
	}
	return nil
}

// SeedAPConfig converts the configured access point into its wire form.
func (c Server) SeedAPConfig() models.APConfig {
	return models.APConfig{
		AuthMode: c.AP.AuthMode,
		Hidden:   c.AP.Hidden,
		MAC:      c.AP.MAC,
		Channel:  c.AP.Channel,
		ESSID:    c.AP.ESSID,
	}
}

// Validate checks the console configuration.
func (c Client) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("%w: server_url must start with http:// or https://", ErrInvalidConfig)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("%w: retry_max must not be negative", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
