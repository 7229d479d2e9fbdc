// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/powcore/consensus"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging  LoggingConfig `yaml:"logging"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Debug    DebugConfig   `yaml:"debug"`
	Indexer  IndexerConfig `yaml:"indexer"`
	State    StateConfig   `yaml:"state"`
	Network  NetworkConfig `yaml:"network"`
	Profiles []string      `yaml:"profiles" envconfig:"PROFILES"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"      envconfig:"LOGGING_LEVEL"`
	File       string `yaml:"file"       envconfig:"LOGGING_FILE"`
	MaxSize    int    `yaml:"maxSize"    envconfig:"LOGGING_MAX_SIZE"`
	MaxBackups int    `yaml:"maxBackups" envconfig:"LOGGING_MAX_BACKUPS"`
	MaxAge     int    `yaml:"maxAge"     envconfig:"LOGGING_MAX_AGE"`
	Compress   bool   `yaml:"compress"   envconfig:"LOGGING_COMPRESS"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"DEBUG_PORT"`
}

type MetricsConfig struct {
	ListenAddress string `yaml:"address" envconfig:"METRICS_LISTEN_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"METRICS_LISTEN_PORT"`
}

type IndexerConfig struct {
	// Check proof of work on incoming headers
	Verify bool `yaml:"verify"    envconfig:"INDEXER_VERIFY"`
	// Number of headers checked in parallel before they are connected
	BatchSize int `yaml:"batchSize" envconfig:"INDEXER_BATCH_SIZE"`
	Workers   int `yaml:"workers"   envconfig:"INDEXER_WORKERS"`
}

type StateConfig struct {
	Directory string `yaml:"dir"       envconfig:"STATE_DIR"`
	// Size of the decoded header cache, in MB
	CacheSize int `yaml:"cacheSize" envconfig:"STATE_CACHE_SIZE"`
}

// NetworkConfig selects the consensus parameters. The overrides are only
// accepted on regtest.
type NetworkConfig struct {
	Name              string           `yaml:"name"              envconfig:"NETWORK"`
	ActivationHeights map[string]int64 `yaml:"activationHeights" envconfig:"NETWORK_ACTIVATION_HEIGHTS"`
	PowLimit          string           `yaml:"powLimit"          envconfig:"NETWORK_POW_LIMIT"`
	PowMaxAdjustUp    *int64           `yaml:"powMaxAdjustUp"    envconfig:"NETWORK_POW_MAX_ADJUST_UP"`
	PowMaxAdjustDown  *int64           `yaml:"powMaxAdjustDown"  envconfig:"NETWORK_POW_MAX_ADJUST_DOWN"`
	NoRetargeting     *bool            `yaml:"noRetargeting"     envconfig:"NETWORK_NO_RETARGETING"`
	LWMAHeight        *int64           `yaml:"lwmaHeight"        envconfig:"NETWORK_LWMA_HEIGHT"`
}

func (n NetworkConfig) hasOverrides() bool {
	return len(n.ActivationHeights) > 0 ||
		n.PowLimit != "" ||
		n.PowMaxAdjustUp != nil ||
		n.PowMaxAdjustDown != nil ||
		n.NoRetargeting != nil ||
		n.LWMAHeight != nil
}

// Singleton config instance with default values
var globalConfig = &Config{
	Logging: LoggingConfig{
		Level:      "info",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Metrics: MetricsConfig{
		ListenAddress: "",
		ListenPort:    8081,
	},
	Indexer: IndexerConfig{
		Verify:    true,
		BatchSize: 2000,
	},
	State: StateConfig{
		Directory: "./.state",
		CacheSize: 64,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Check profiles
	availableProfiles := GetAvailableProfiles()
	for _, profile := range globalConfig.Profiles {
		profileData, ok := Profiles[profile]
		if !ok {
			return nil, fmt.Errorf(
				"unknown profile: %s: available profiles: %s",
				profile,
				strings.Join(availableProfiles, ","),
			)
		}
		// Provide default network
		if globalConfig.Network.Name == "" {
			globalConfig.Network.Name = profileData.Network
		} else if globalConfig.Network.Name != profileData.Network {
			return nil, fmt.Errorf("conflicting networks configured: %s and %s", globalConfig.Network.Name, profileData.Network)
		}
		profileData.applyDefaults(&globalConfig.Network)
	}
	if globalConfig.Network.Name == "" {
		globalConfig.Network.Name = consensus.NetworkMainnet
	}
	if _, err := globalConfig.ConsensusParams(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

// ConsensusParams builds the consensus parameters for the configured network,
// applying any regtest overrides
func (c *Config) ConsensusParams() (*consensus.Params, error) {
	params, ok := consensus.NetworkParams(c.Network.Name)
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", c.Network.Name)
	}
	if c.Network.hasOverrides() {
		if params.Network != consensus.NetworkRegtest {
			return nil, errors.New("network parameter overrides are only supported on regtest")
		}
		if err := c.Network.apply(params); err != nil {
			return nil, err
		}
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consensus parameters for %s: %w", params.Network, err)
	}
	return params, nil
}

func (n NetworkConfig) apply(params *consensus.Params) error {
	for name, height := range n.ActivationHeights {
		idx, err := consensus.UpgradeIndexFromString(name)
		if err != nil {
			return err
		}
		params.Upgrades[idx].ActivationHeight = height
	}
	if n.PowLimit != "" {
		limit, err := consensus.ParseTarget(n.PowLimit)
		if err != nil {
			return fmt.Errorf("invalid pow limit: %w", err)
		}
		params.PowLimit = *limit
	}
	if n.PowMaxAdjustUp != nil {
		params.PowMaxAdjustUp = *n.PowMaxAdjustUp
	}
	if n.PowMaxAdjustDown != nil {
		params.PowMaxAdjustDown = *n.PowMaxAdjustDown
	}
	if n.NoRetargeting != nil {
		params.PowNoRetargeting = *n.NoRetargeting
	}
	if n.LWMAHeight != nil {
		params.LWMAHeight = *n.LWMAHeight
	}
	return nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
