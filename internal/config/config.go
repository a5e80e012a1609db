package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Files       FilesConfig       `yaml:"files"`
	Escrow      EscrowConfig      `yaml:"escrow"`
	Approvals   ApprovalsConfig   `yaml:"approvals"`
	Performance PerformanceConfig `yaml:"performance"`
	Networks    []NetworkNode     `yaml:"networks"`
	Server      ServerConfig      `yaml:"server"`
	Cache       CacheConfig       `yaml:"cache"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// FilesConfig holds input and output paths.
type FilesConfig struct {
	Input     string `yaml:"input"`
	ABI       string `yaml:"abi"` // local path or http(s) URL; empty uses the built-in ERC-20 ABI
	TokenList string `yaml:"tokenList"`
	Report    string `yaml:"report"`
}

// EscrowConfig identifies the custodial account approvals are submitted for.
type EscrowConfig struct {
	Address       string `yaml:"address"`
	PrivateKeyEnv string `yaml:"privateKeyEnv"`
}

// ApprovalsConfig controls the allowance workflow.
type ApprovalsConfig struct {
	Mode                       entity.RunMode `yaml:"mode"`
	ConfirmationTimeoutSeconds int            `yaml:"confirmationTimeoutSeconds"`
	PollIntervalMillis         int            `yaml:"pollIntervalMillis"`
}

// PerformanceConfig holds concurrency and timeout settings.
type PerformanceConfig struct {
	MaxConcurrentRoutines    int `yaml:"maxConcurrentRoutines"`
	RPCCallTimeoutSeconds    int `yaml:"rpcCallTimeoutSeconds"`
	ConnectionTimeoutSeconds int `yaml:"connectionTimeoutSeconds"`
}

// NetworkNode holds the configuration for a specific chain. Fields left empty are
// taken from the predefined definition of the same name, if any.
type NetworkNode struct {
	Name          string          `yaml:"name"`
	ChainID       uint64          `yaml:"chainID"`
	Endpoint      string          `yaml:"endpoint"`
	RPCTimeoutMs  int64           `yaml:"rpcTimeoutMs"`
	LimiterPeriod string          `yaml:"limiterPeriod"`
	LimiterBurst  int             `yaml:"limiterBurst"`
	Routers       []entity.Router `yaml:"routers"`
}

// ServerConfig holds the report API configuration.
type ServerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// CacheConfig holds retention settings for stored reports.
type CacheConfig struct {
	DefaultExpirationMinutes int `yaml:"defaultExpirationMinutes"`
	CleanupIntervalMinutes   int `yaml:"cleanupIntervalMinutes"`
}

// ConfirmationTimeout returns the bounded wait for an approval receipt.
func (c ApprovalsConfig) ConfirmationTimeout() time.Duration {
	return time.Duration(c.ConfirmationTimeoutSeconds) * time.Second
}

// PollInterval returns the delay between receipt polls.
func (c ApprovalsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Limiter returns the parsed request period for the network's rate limiter.
// A zero period disables limiting.
func (n NetworkNode) Limiter() (time.Duration, int, error) {
	if n.LimiterPeriod == "" {
		return 0, 0, nil
	}
	period, err := time.ParseDuration(n.LimiterPeriod)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid limiterPeriod %q for network %s: %w", n.LimiterPeriod, n.Name, err)
	}
	burst := n.LimiterBurst
	if burst <= 0 {
		burst = 1
	}
	return period, burst, nil
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		logrus.Errorf("Failed to load config from %s: %v", path, err)
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	logrus.Info("Configuration loaded successfully.")
	return cfg, nil
}

// Parse unmarshals YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Files.Input == "" {
		c.Files.Input = "unformatted_token_list.txt"
		logrus.Infof("files.input not set, defaulting to %s", c.Files.Input)
	}
	if c.Files.TokenList == "" {
		c.Files.TokenList = "token_list.json"
	}
	if c.Escrow.PrivateKeyEnv == "" {
		c.Escrow.PrivateKeyEnv = "ESCROW_PRIVATE_KEY"
	}
	if c.Approvals.Mode == "" {
		c.Approvals.Mode = entity.ModeList
		logrus.Infof("approvals.mode not set, defaulting to %s", c.Approvals.Mode)
	}
	c.Approvals.Mode = entity.RunMode(strings.ToLower(string(c.Approvals.Mode)))
	if c.Approvals.ConfirmationTimeoutSeconds <= 0 {
		c.Approvals.ConfirmationTimeoutSeconds = 120
	}
	if c.Approvals.PollIntervalMillis <= 0 {
		c.Approvals.PollIntervalMillis = 2000
	}
	if c.Performance.MaxConcurrentRoutines <= 0 {
		c.Performance.MaxConcurrentRoutines = 8
	}
	if c.Performance.RPCCallTimeoutSeconds <= 0 {
		c.Performance.RPCCallTimeoutSeconds = 15
	}
	if c.Performance.ConnectionTimeoutSeconds <= 0 {
		c.Performance.ConnectionTimeoutSeconds = 10
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Cache.DefaultExpirationMinutes <= 0 {
		c.Cache.DefaultExpirationMinutes = 24 * 60
	}
	if c.Cache.CleanupIntervalMinutes <= 0 {
		c.Cache.CleanupIntervalMinutes = 60
	}
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	switch c.Approvals.Mode {
	case entity.ModeList, entity.ModeCheck, entity.ModeApprove:
	default:
		return fmt.Errorf("approvals.mode must be one of list, check, approve; got %q", c.Approvals.Mode)
	}

	if c.Approvals.Mode != entity.ModeList && c.Escrow.Address == "" {
		return fmt.Errorf("escrow.address is required in %s mode", c.Approvals.Mode)
	}
	if c.Escrow.Address != "" && !isHexAddress(c.Escrow.Address) {
		return fmt.Errorf("escrow.address %q is not a valid address", c.Escrow.Address)
	}

	seen := make(map[string]struct{}, len(c.Networks))
	for _, n := range c.Networks {
		if n.Name == "" {
			return fmt.Errorf("network without a name in config")
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("network %s configured twice", n.Name)
		}
		seen[n.Name] = struct{}{}
		if _, _, err := n.Limiter(); err != nil {
			return err
		}
		for _, r := range n.Routers {
			if !isHexAddress(r.Address) {
				return fmt.Errorf("router %q on network %s has invalid address %q", r.Label, n.Name, r.Address)
			}
		}
		if n.Endpoint == "" {
			logrus.Warnf("Network '%s' has no endpoint in config, the predefined endpoint will be used if one exists.", n.Name)
		}
	}
	return nil
}

func isHexAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) == 42 && common.IsHexAddress(s)
}
