package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ajochain/crypto"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	Environment string `toml:"Environment"`
	// RPCReadHeaderTimeout and friends are expressed in seconds.
	RPCReadHeaderTimeout int `toml:"RPCReadHeaderTimeout"`
	RPCReadTimeout       int `toml:"RPCReadTimeout"`
	RPCWriteTimeout      int `toml:"RPCWriteTimeout"`
	RPCIdleTimeout       int `toml:"RPCIdleTimeout"`

	Ledger    Ledger    `toml:"ledger"`
	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"rate_limit"`
	Logging   Logging   `toml:"logging"`
	Telemetry Telemetry `toml:"telemetry"`
	Audit     Audit     `toml:"audit"`
	Webhook   Webhook   `toml:"webhook"`
}

// Ledger holds the platform administration defaults applied when the store is
// first initialised.
type Ledger struct {
	Owner        string   `toml:"Owner"`
	FeeCollector string   `toml:"FeeCollector"`
	FeeBps       uint32   `toml:"FeeBps"`
	Assets       []string `toml:"Assets"`
	AllowMigrate bool     `toml:"AllowMigrate"`
	EnableFaucet bool     `toml:"EnableFaucet"`
}

// Auth configures bearer-token verification for the RPC server.
type Auth struct {
	JWTSecretEnv  string `toml:"JWTSecretEnv"`
	JWTSecretFile string `toml:"JWTSecretFile"`
	Issuer        string `toml:"Issuer"`
	Audience      string `toml:"Audience"`
}

type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Audit selects the relational event index. An empty driver disables it.
type Audit struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}

// Webhook forwards committed events to an external endpoint. An empty URL
// disables delivery.
type Webhook struct {
	URL       string   `toml:"URL"`
	SecretEnv string   `toml:"SecretEnv"`
	Topics    []string `toml:"Topics"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh installation.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./ajo-data"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if c.RPCReadHeaderTimeout <= 0 {
		c.RPCReadHeaderTimeout = 5
	}
	if c.RPCReadTimeout <= 0 {
		c.RPCReadTimeout = 15
	}
	if c.RPCWriteTimeout <= 0 {
		c.RPCWriteTimeout = 15
	}
	if c.RPCIdleTimeout <= 0 {
		c.RPCIdleTimeout = 60
	}
	if len(c.Ledger.Assets) == 0 {
		c.Ledger.Assets = []string{"NGN"}
	}
	if strings.TrimSpace(c.Auth.JWTSecretEnv) == "" && strings.TrimSpace(c.Auth.JWTSecretFile) == "" {
		c.Auth.JWTSecretEnv = "AJO_JWT_SECRET"
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 40
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if strings.TrimSpace(c.Webhook.SecretEnv) == "" {
		c.Webhook.SecretEnv = "AJO_WEBHOOK_SECRET"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// OwnerAccount decodes the configured platform owner. An empty value yields
// the zero account, which authorises nobody.
func (c *Config) OwnerAccount() ([20]byte, error) {
	return parseOptionalAccount("ledger.Owner", c.Ledger.Owner)
}

// FeeCollectorAccount decodes the configured fee collector.
func (c *Config) FeeCollectorAccount() ([20]byte, error) {
	return parseOptionalAccount("ledger.FeeCollector", c.Ledger.FeeCollector)
}

func parseOptionalAccount(field, raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.ParseAccount(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

// JWTSecret resolves the HMAC secret used to verify bearer tokens. The
// environment variable wins over the file.
func (c *Config) JWTSecret() ([]byte, error) {
	if env := strings.TrimSpace(c.Auth.JWTSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return []byte(value), nil
		}
	}
	if path := strings.TrimSpace(c.Auth.JWTSecretFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret: %w", err)
		}
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return []byte(secret), nil
		}
	}
	return nil, fmt.Errorf("jwt secret not configured; set %s or auth.JWTSecretFile", c.Auth.JWTSecretEnv)
}

// WebhookSecret resolves the HMAC key used to sign webhook deliveries.
func (c *Config) WebhookSecret() ([]byte, error) {
	if value := strings.TrimSpace(os.Getenv(c.Webhook.SecretEnv)); value != "" {
		return []byte(value), nil
	}
	return nil, fmt.Errorf("webhook secret not configured; set %s", c.Webhook.SecretEnv)
}
