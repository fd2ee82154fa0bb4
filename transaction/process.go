package transaction

import (
	"context"

	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Process admits a transaction for verification: the id is recomputed from
// the canonical bytes (never trusted from input), the sender address is
// attached, the archive is consulted for replays, and the handler runs its
// own admission step. Readiness is deliberately not checked here: a
// not-yet-ready multisignature transaction is accepted into the pool and
// only rejected at block apply.
func (e *Engine) Process(ctx context.Context, trs *types.Transaction, sender *types.Account) (*types.Transaction, error) {
	id, err := e.GetID(trs)
	if err != nil {
		return nil, err
	}
	trs.ID = id

	if sender == nil {
		return nil, txerror.New(txerror.CodeMissingSender, "missing sender account")
	}
	trs.SenderID = sender.Address

	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return nil, err
	}

	count, err := e.ledger.CountByID(ctx, id)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeStoreError, "failed to check confirmed transactions", err)
	}
	if count > 0 {
		return nil, txerror.Newf(txerror.CodeAlreadyConfirmed, "transaction is already confirmed: %s", id)
	}

	if err := handler.Process(ctx, trs, sender); err != nil {
		return nil, err
	}
	return trs, nil
}
