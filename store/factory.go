package store

import (
	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/db"
)

// NewTxLedger selects the transaction archive: Postgres when a DSN is
// configured, the node's key-value backend otherwise.
func NewTxLedger(provider db.DatabaseProvider, cfg config.SQLConfig) (TxLedger, error) {
	if cfg.DSN != "" {
		return NewSQLTxLedger(cfg.DSN)
	}
	return NewKVTxLedger(provider)
}
