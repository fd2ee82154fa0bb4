package store

import (
	"context"
	"fmt"

	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/jsonx"
	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/types"
)

// TxLedger is the persisted transaction archive. CountByID backs replay
// detection during Process; SaveRows persists the row set produced by the
// persistence adapter on block acceptance.
type TxLedger interface {
	CountByID(ctx context.Context, id string) (uint64, error)
	SaveRows(ctx context.Context, rows []types.Row) error
	MustClose()
}

// KVTxLedger keeps transaction rows in the node's key-value backend, keyed
// "<table>:<row key>". Row key is Values[0] (the transaction id for trs,
// the transactionId for handler tables).
type KVTxLedger struct {
	dbProvider db.DatabaseProvider
}

func NewKVTxLedger(dbProvider db.DatabaseProvider) (*KVTxLedger, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &KVTxLedger{dbProvider: dbProvider}, nil
}

func (l *KVTxLedger) CountByID(ctx context.Context, id string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	found, err := l.dbProvider.Has(rowKey("trs", id))
	if err != nil {
		return 0, fmt.Errorf("could not look up transaction %s: %w", id, err)
	}
	if found {
		return 1, nil
	}
	return 0, nil
}

func (l *KVTxLedger) SaveRows(ctx context.Context, rows []types.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := l.dbProvider.Batch()
	for _, row := range rows {
		if len(row.Values) == 0 {
			return fmt.Errorf("row for table %s has no values", row.Table)
		}
		record := make(map[string]interface{}, len(row.Columns))
		for i, col := range row.Columns {
			record[col] = row.Values[i]
		}
		data, err := jsonx.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal row for table %s: %w", row.Table, err)
		}
		batch.Put(rowKey(row.Table, fmt.Sprintf("%v", row.Values[0])), data)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write transaction rows: %w", err)
	}
	return nil
}

func (l *KVTxLedger) MustClose() {
	if err := l.dbProvider.Close(); err != nil {
		logx.Error("TX_LEDGER", "Failed to close db provider: ", err.Error())
	}
}

func rowKey(table, key string) []byte {
	return []byte(table + ":" + key)
}
