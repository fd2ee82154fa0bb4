package db

import (
	"fmt"
	"path/filepath"

	"github.com/meridianchain/mrdn/config"
)

// NewProvider opens the backend selected by node config.
func NewProvider(cfg config.DBConfig) (DatabaseProvider, error) {
	switch cfg.Backend {
	case "leveldb":
		return NewLevelDBProvider(filepath.Join(cfg.Path, "chain"))
	case "bolt":
		return NewBoltProvider(filepath.Join(cfg.Path, "chain.db"))
	case "memory":
		return NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unknown db backend %q", cfg.Backend)
	}
}
