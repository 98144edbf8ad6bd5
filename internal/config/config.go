// Package config implements the node's configuration (C9, ambient
// stack): defaults, an optional config.json file, and BTCNODE_* env var
// overrides, following the teacher's database.LoadConfig layering.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config enumerates every tunable spec.md §6 names.
type Config struct {
	ProtocolVersion       int32         `json:"protocol_version"`
	UserAgent             string        `json:"user_agent"`
	Services              uint64        `json:"services"`
	Port                  uint16        `json:"port"`
	Backlog               int           `json:"backlog"`
	MaxOutgoing           int           `json:"max_outgoing"`
	MinPeerVersion        int32         `json:"min_peer_version"`
	HandshakeTimeout      time.Duration `json:"-"`
	HandshakeTimeoutSecs  int           `json:"handshake_timeout_secs"`
	AddrLife              time.Duration `json:"-"`
	AddrLifeSecs          int           `json:"addr_life_secs"`
	ClearOldAddrThreshold time.Duration `json:"-"`
	ClearOldAddrThresholdSecs int       `json:"clear_old_addr_threshold_secs"`
	MaxMessageLength      uint32        `json:"max_message_length"`
	BlockMaxForwardTimestamp time.Duration `json:"-"`
	BlockMaxForwardTimestampSecs int     `json:"block_max_forward_timestamp_secs"`
	RetargetPeriod        int           `json:"retarget_period"`
	DesiredRetargetPeriod int           `json:"desired_retarget_period"`
	RetargetBound         int           `json:"retarget_bound"`
	ScriptSigSizeLower    int           `json:"script_sig_size_lower"`
	ScriptSigSizeUpper    int           `json:"script_sig_size_upper"`

	DataDir    string `json:"data_dir"`
	Network    string `json:"network"`
	MetricsAddr string `json:"metrics_addr"`

	Postgres *PostgresConfig `json:"postgres,omitempty"`
}

// PostgresConfig configures the optional remote block-index cache (§4.15).
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}

// Default returns the spec's stated defaults.
func Default() Config {
	return Config{
		ProtocolVersion:              70015,
		UserAgent:                    "/btcnode:0.1.0/",
		Services:                     0,
		Port:                         8333,
		Backlog:                      16,
		MaxOutgoing:                  8,
		MinPeerVersion:               70001,
		HandshakeTimeoutSecs:         60,
		AddrLifeSecs:                 30 * 24 * 3600,
		ClearOldAddrThresholdSecs:    30 * 24 * 3600,
		MaxMessageLength:             32 * 1024 * 1024,
		BlockMaxForwardTimestampSecs: 2 * 3600,
		RetargetPeriod:               2016,
		DesiredRetargetPeriod:        14 * 24 * 3600,
		RetargetBound:                4,
		ScriptSigSizeLower:           2,
		ScriptSigSizeUpper:           100,
		DataDir:                      "./data",
		Network:                      "mainnet",
		MetricsAddr:                  ":9090",
	}
}

// Load reads config.json (if present) over the defaults, then applies
// BTCNODE_* environment variable overrides, mirroring the teacher's
// "file then env" layering.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	resolveDurations(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BTCNODE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = uint16(n)
		}
	}
	if v := os.Getenv("BTCNODE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BTCNODE_NETWORK"); v != "" {
		cfg.Network = v
	}
	if v := os.Getenv("BTCNODE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("BTCNODE_MAX_OUTGOING"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxOutgoing = n
		}
	}
	if v := os.Getenv("BTCNODE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("BTCNODE_MIN_PEER_VERSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinPeerVersion = int32(n)
		}
	}
	if v := os.Getenv("BTCNODE_DB_HOST"); v != "" {
		if cfg.Postgres == nil {
			cfg.Postgres = &PostgresConfig{}
		}
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BTCNODE_DB_PASSWORD"); v != "" {
		if cfg.Postgres == nil {
			cfg.Postgres = &PostgresConfig{}
		}
		cfg.Postgres.Password = v
	}
}

func resolveDurations(cfg *Config) {
	cfg.HandshakeTimeout = time.Duration(cfg.HandshakeTimeoutSecs) * time.Second
	cfg.AddrLife = time.Duration(cfg.AddrLifeSecs) * time.Second
	cfg.ClearOldAddrThreshold = time.Duration(cfg.ClearOldAddrThresholdSecs) * time.Second
	cfg.BlockMaxForwardTimestamp = time.Duration(cfg.BlockMaxForwardTimestampSecs) * time.Second
}

// Validate checks the configuration is internally consistent, returning
// a ConfigError-class failure (fatal at startup per spec §7).
func Validate(cfg Config) error {
	if cfg.Port == 0 {
		return fmt.Errorf("config: port must be nonzero")
	}
	if cfg.MaxOutgoing < 1 {
		return fmt.Errorf("config: max_outgoing must be >= 1")
	}
	if cfg.MaxMessageLength == 0 {
		return fmt.Errorf("config: max_message_length must be nonzero")
	}
	if cfg.ScriptSigSizeLower < 0 || cfg.ScriptSigSizeUpper < cfg.ScriptSigSizeLower {
		return fmt.Errorf("config: script_sig_size bounds invalid: [%d,%d]", cfg.ScriptSigSizeLower, cfg.ScriptSigSizeUpper)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("config: data_dir must be set")
	}
	return nil
}
