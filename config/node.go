package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// DBConfig selects and locates the key-value backend.
type DBConfig struct {
	Backend string `ini:"backend"` // "leveldb" or "bolt"
	Path    string `ini:"path"`
}

// LogConfig controls log file rotation.
type LogConfig struct {
	File      string `ini:"file"`
	MaxSizeMB int    `ini:"max_size_mb"`
	MaxAgeDay int    `ini:"max_age_days"`
}

// SQLConfig locates the optional Postgres transaction archive.
type SQLConfig struct {
	DSN string `ini:"dsn"`
}

// NodeConfig is the node-local (non-consensus) configuration.
type NodeConfig struct {
	DB  DBConfig
	Log LogConfig
	SQL SQLConfig
}

// LoadNodeConfig reads node settings from an .ini file.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load node config: %w", err)
	}

	nodeCfg := &NodeConfig{}
	if err := cfg.Section("db").MapTo(&nodeCfg.DB); err != nil {
		return nil, err
	}
	if err := cfg.Section("log").MapTo(&nodeCfg.Log); err != nil {
		return nil, err
	}
	if err := cfg.Section("sql").MapTo(&nodeCfg.SQL); err != nil {
		return nil, err
	}
	if nodeCfg.DB.Backend == "" {
		nodeCfg.DB.Backend = "leveldb"
	}
	if nodeCfg.DB.Path == "" {
		nodeCfg.DB.Path = "./data"
	}
	return nodeCfg, nil
}
