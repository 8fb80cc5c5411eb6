package guard

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nsxbet/sql-guard/internal/rules"
)

// RuleConfig is a per-rule override. Strategy of Inherit means "use the
// global strategy"; Disabled skips the rule outright.
type RuleConfig struct {
	Disabled bool     `yaml:"disabled" json:"disabled"`
	Strategy Strategy `yaml:"-" json:"-"`
	// StrategyName is the YAML/JSON-facing string form of Strategy (BLOCK,
	// WARN, LOG, INHERIT); Strategy is populated from it after load.
	StrategyName string `yaml:"strategy" json:"strategy"`
}

// Config is the top-level, loadable configuration for a Validator: the
// default disposition for any violation that doesn't override it, the
// access-control policy, per-rule overrides, and the dedup/parse-cache
// tuning knobs. Dialect is loaded but not read by the Validator, which
// parses each statement with the Dialect on its SqlContext.
type Config struct {
	Dialect  string                `yaml:"dialect" json:"dialect"`
	Strategy string                `yaml:"strategy" json:"strategy"`
	Policy   Policy                `yaml:"policy" json:"policy"`
	Rules    map[string]RuleConfig `yaml:"rules" json:"rules"`

	// EnforceForAllQueries makes pagination.missing-limit fire at MEDIUM
	// even for an ordinary selective WHERE that isn't blacklist-only, per
	// the global config shape.
	EnforceForAllQueries bool `yaml:"enforceForAllQueries" json:"enforceForAllQueries"`

	DedupTTLMillis     int64 `yaml:"dedupTtlMillis" json:"dedupTtlMillis"`
	DedupCapacity      int   `yaml:"dedupCapacity" json:"dedupCapacity"`
	ParseCacheTTLMillis int64 `yaml:"parseCacheTtlMillis" json:"parseCacheTtlMillis"`
	ParseCacheCapacity  int   `yaml:"parseCacheCapacity" json:"parseCacheCapacity"`

	globalStrategy Strategy
}

// DefaultConfig returns a Config with the safest defaults: BLOCK globally,
// MySQL dialect, no policy restrictions beyond the built-in rule
// thresholds, dedup and parse caching both enabled at their package
// defaults.
func DefaultConfig() *Config {
	return &Config{
		Dialect:        "mysql",
		Strategy:       "BLOCK",
		Rules:          map[string]RuleConfig{},
		globalStrategy: Block,
	}
}

// LoadFromFile reads a Config from filename, trying YAML first and falling
// back to JSON, since either is a reasonable way to hand this guard a
// policy file.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", filename)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Debug("yaml parse failed, trying json", "file", filename, "error", err)
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, errors.Wrapf(err, "parse config file %s as yaml or json", filename)
		}
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	slog.Debug("loaded guard config", "file", filename, "dialect", cfg.Dialect, "strategy", cfg.Strategy, "rules", len(cfg.Rules))
	return cfg, nil
}

// resolve turns the string-typed Strategy fields into their Strategy enum
// values, validating them along the way.
func (c *Config) resolve() error {
	strategy, ok := ParseStrategy(c.Strategy)
	if !ok {
		return errors.Errorf("unknown strategy %q", c.Strategy)
	}
	c.globalStrategy = strategy

	if err := rules.ValidatePolicy(&c.Policy); err != nil {
		return err
	}

	for name, rc := range c.Rules {
		s, ok := ParseStrategy(rc.StrategyName)
		if !ok {
			return errors.Errorf("rule %q: unknown strategy %q", name, rc.StrategyName)
		}
		rc.Strategy = s
		c.Rules[name] = rc
	}
	return nil
}

func (c *Config) dedupTTL() time.Duration {
	if c.DedupTTLMillis <= 0 {
		return 0
	}
	return time.Duration(c.DedupTTLMillis) * time.Millisecond
}

func (c *Config) parseCacheTTL() time.Duration {
	if c.ParseCacheTTLMillis <= 0 {
		return 0
	}
	return time.Duration(c.ParseCacheTTLMillis) * time.Millisecond
}
