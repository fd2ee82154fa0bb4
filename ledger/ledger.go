package ledger

import (
	"context"
	"fmt"

	"github.com/meridianchain/mrdn/events"
	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/monitoring"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Ledger drives the confirmed side of the transaction lifecycle: applying a
// block's transactions to account state and archiving their rows, and the
// reverse walk on rollback.
type Ledger struct {
	engine   *transaction.Engine
	accounts store.AccountStore
	archive  store.TxLedger
	bus      *events.EventBus
}

func NewLedger(engine *transaction.Engine, archive store.TxLedger, bus *events.EventBus) *Ledger {
	return &Ledger{
		engine:   engine,
		accounts: engine.Accounts(),
		archive:  archive,
		bus:      bus,
	}
}

// ApplyBlock applies every transaction of an accepted block in order and
// archives the produced rows. The first failing transaction aborts the
// block; transactions already applied are undone in reverse so the caller
// observes no partial block.
func (l *Ledger) ApplyBlock(ctx context.Context, block *types.Block, txs []*types.Transaction) error {
	logx.Info("LEDGER", fmt.Sprintf("applying block %s at height %d (%d txs)", block.ID, block.Height, len(txs)))

	var rows []types.Row
	for i, trs := range txs {
		sender, err := l.senderOf(trs)
		if err == nil {
			trs.BlockID = block.ID
			trs.Height = block.Height
			err = l.engine.Apply(ctx, trs, block, sender)
		}
		if err != nil {
			logx.Warn("LEDGER", fmt.Sprintf("apply failed for tx %s: %v", trs.ID, err))
			l.unwind(ctx, block, txs[:i])
			return err
		}

		txRows, err := l.engine.DBSave(trs)
		if err != nil {
			l.unwind(ctx, block, txs[:i+1])
			return err
		}
		rows = append(rows, txRows...)
	}

	if err := l.archive.SaveRows(ctx, rows); err != nil {
		l.unwind(ctx, block, txs)
		return txerror.Wrap(txerror.CodeStoreError, "failed to archive block transactions", err)
	}
	for _, trs := range txs {
		if err := l.engine.AfterSave(trs); err != nil {
			logx.Error("LEDGER", "after-save hook failed for tx ", trs.ID, ": ", err.Error())
		}
		monitoring.IncreaseTxApplied()
		l.publish(events.NewTransactionEvent(events.TxApplied, trs.ID, trs.SenderID))
	}

	logx.Info("LEDGER", fmt.Sprintf("block %s applied", block.ID))
	return nil
}

// RollbackBlock undoes a block's transactions in reverse order.
func (l *Ledger) RollbackBlock(ctx context.Context, block *types.Block, txs []*types.Transaction) error {
	for i := len(txs) - 1; i >= 0; i-- {
		trs := txs[i]
		sender, err := l.senderOf(trs)
		if err != nil {
			return err
		}
		if err := l.engine.Undo(ctx, trs, block, sender); err != nil {
			return err
		}
		monitoring.IncreaseTxReverted()
		l.publish(events.NewTransactionEvent(events.TxReverted, trs.ID, trs.SenderID))
	}
	return nil
}

// unwind reverses the already-applied prefix after a mid-block failure.
// Best effort: a failing undo is logged and the walk continues, since the
// alternative is leaving even more state behind.
func (l *Ledger) unwind(ctx context.Context, block *types.Block, applied []*types.Transaction) {
	for i := len(applied) - 1; i >= 0; i-- {
		trs := applied[i]
		sender, err := l.senderOf(trs)
		if err == nil {
			err = l.engine.Undo(ctx, trs, block, sender)
		}
		if err != nil {
			logx.Error("LEDGER", "failed to unwind tx ", trs.ID, ": ", err.Error())
		}
	}
}

func (l *Ledger) senderOf(trs *types.Transaction) (*types.Account, error) {
	sender, err := l.accounts.Get(trs.SenderID)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeStoreError, "failed to load sender account", err)
	}
	if sender == nil {
		return nil, txerror.Newf(txerror.CodeMissingSender, "missing sender account: %s", trs.SenderID)
	}
	return sender, nil
}

func (l *Ledger) publish(event events.TransactionEvent) {
	if l.bus != nil {
		l.bus.Publish(event)
	}
}
