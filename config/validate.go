package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxFeeBps mirrors the ledger's fee ceiling.
const MaxFeeBps = 1_000

// Validate rejects configurations the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Ledger.FeeBps > MaxFeeBps {
		return fmt.Errorf("ledger: FeeBps %d exceeds %d", c.Ledger.FeeBps, MaxFeeBps)
	}
	if _, err := c.OwnerAccount(); err != nil {
		return err
	}
	if _, err := c.FeeCollectorAccount(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Ledger.Assets))
	for _, asset := range c.Ledger.Assets {
		symbol := strings.ToUpper(strings.TrimSpace(asset))
		if symbol == "" {
			return fmt.Errorf("ledger: empty asset symbol")
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("ledger: duplicate asset %s", symbol)
		}
		seen[symbol] = struct{}{}
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0,1]")
	}
	switch strings.ToLower(strings.TrimSpace(c.Audit.Driver)) {
	case "":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Audit.DSN) == "" {
			return fmt.Errorf("audit: DSN required for driver %s", c.Audit.Driver)
		}
	default:
		return fmt.Errorf("audit: unsupported driver %q", c.Audit.Driver)
	}
	if raw := strings.TrimSpace(c.Webhook.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("webhook: URL must be an absolute http(s) URL")
		}
	}
	return nil
}
