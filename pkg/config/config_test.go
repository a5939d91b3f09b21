package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"devconsole/pkg/models"
)

// ConfigTestSuite tests configuration loading
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

// SetupTest creates a scratch directory for config files
func (s *ConfigTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func (s *ConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.tempDir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestServerDefaults tests that an empty path yields the defaults
func (s *ConfigTestSuite) TestServerDefaults() {
	cfg, err := LoadServer("")
	s.Require().NoError(err)
	s.Equal(":8080", cfg.ListenAddr)
	s.Equal("heap", cfg.Device.MemorySource)
	s.Equal(models.AuthWPA2PSK, cfg.AP.AuthMode)
	s.Equal(11, cfg.AP.Channel)
	s.False(cfg.MDNS.Enabled)
}

// TestServerFromYAML tests overriding defaults from a file
func (s *ConfigTestSuite) TestServerFromYAML() {
	path := s.writeFile("consoled.yml", `
listen_addr: ":9090"
device:
  platform: esp8266
  version: "1.9.3"
  machine_freq: 80000000
  flash_id: 1458208
access_point:
  essid: lamp-ap
  channel: 6
  hidden: true
mdns:
  enabled: true
`)

	cfg, err := LoadServer(path)
	s.Require().NoError(err)
	s.Equal(":9090", cfg.ListenAddr)
	s.Equal("esp8266", cfg.Device.Platform)
	s.Equal(float64(80000000), cfg.Device.MachineFreq)
	s.Equal(int64(1458208), cfg.Device.FlashID)
	s.Equal("heap", cfg.Device.MemorySource, "unset keys keep defaults")
	s.True(cfg.MDNS.Enabled)
	s.Equal("devconsole", cfg.MDNS.Instance)

	seed := cfg.SeedAPConfig()
	s.Equal("lamp-ap", seed.ESSID)
	s.Equal(6, seed.Channel)
	s.True(seed.Hidden)
	s.Equal(models.AuthWPA2PSK, seed.AuthMode)
}

// TestServerInvalid tests validation failures
func (s *ConfigTestSuite) TestServerInvalid() {
	path := s.writeFile("bad.yml", "device:\n  memory_source: swap\n")
	_, err := LoadServer(path)
	s.ErrorIs(err, ErrInvalidConfig)

	path = s.writeFile("broken.yml", "listen_addr: [\n")
	_, err = LoadServer(path)
	s.ErrorIs(err, ErrInvalidConfig)

	_, err = LoadServer(filepath.Join(s.tempDir, "missing.yml"))
	s.Error(err)
}

// TestClientFromYAML tests client settings including durations
func (s *ConfigTestSuite) TestClientFromYAML() {
	path := s.writeFile("console.yml", `
server_url: http://192.168.4.1
timeout: 3s
retry_max: 2
watch: false
`)

	cfg, err := LoadClient(path)
	s.Require().NoError(err)
	s.Equal("http://192.168.4.1", cfg.ServerURL)
	s.Equal(3*time.Second, cfg.Timeout)
	s.Equal(2, cfg.RetryMax)
	s.False(cfg.Watch)
}

// TestClientDefaults tests that retries are disabled by default
func (s *ConfigTestSuite) TestClientDefaults() {
	cfg := DefaultClient()
	s.NoError(cfg.Validate())
	s.Equal(0, cfg.RetryMax)
	s.True(cfg.Watch)
}

// TestClientInvalid tests client validation
func (s *ConfigTestSuite) TestClientInvalid() {
	cfg := DefaultClient()
	cfg.ServerURL = "192.168.4.1"
	s.ErrorIs(cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultClient()
	cfg.RetryMax = -1
	s.ErrorIs(cfg.Validate(), ErrInvalidConfig)
}

// TestConfigSuite runs the config test suite
func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
