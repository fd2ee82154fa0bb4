package transaction

import (
	"context"
	"fmt"
	"math"

	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// The four state mutations share one shape: merge a balance delta, run the
// handler's own state change, and on handler failure merge the negated
// balance delta before surfacing the error. The caller observes no net
// balance change when the handler fails; the blockId and round stamped by a
// confirmed-state delta are not restored. If the compensating merge itself
// fails, that error takes precedence because balance integrity beats error
// fidelity.

// Apply debits the sender's confirmed balance and applies the handler's
// confirmed effects for a transaction inside an accepted block.
func (e *Engine) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}
	if !handler.Ready(trs, sender) {
		return txerror.Newf(txerror.CodeNotReady, "transaction is not ready: %s", trs.ID)
	}

	total, err := totalSpend(trs)
	if err != nil {
		return err
	}
	if block.ID != e.params.GenesisBlockID && sender.Balance < total {
		return txerror.Newf(txerror.CodeInsufficientBalance,
			"account does not have enough funds: %s balance: %d", sender.Address, sender.Balance)
	}

	delta := &types.AccountDelta{
		Balance: -total,
		BlockID: block.ID,
		Round:   e.cal.RoundFromHeight(block.Height),
	}
	return e.mergeThen(ctx, sender.Address, delta, func(updated *types.Account) error {
		return handler.Apply(ctx, trs, block, updated)
	})
}

// Undo credits the spend back and reverts the handler's confirmed effects,
// in reverse order of Apply, during block rollback.
func (e *Engine) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}
	total, err := totalSpend(trs)
	if err != nil {
		return err
	}

	delta := &types.AccountDelta{
		Balance: total,
		BlockID: block.ID,
		Round:   e.cal.RoundFromHeight(block.Height),
	}
	return e.mergeThen(ctx, sender.Address, delta, func(updated *types.Account) error {
		return handler.Undo(ctx, trs, block, updated)
	})
}

// ApplyUnconfirmed reserves the spend against the unconfirmed balance when a
// transaction enters the pool.
func (e *Engine) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender, requester *types.Account) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}

	if trs.RequesterPublicKey == "" {
		if sender.SecondSignature && trs.SignSignature == "" && trs.BlockID != e.params.GenesisBlockID {
			return txerror.New(txerror.CodeFailedSecondSignature, "missing sender second signature")
		}
		if !sender.SecondSignature && trs.SignSignature != "" {
			return txerror.New(txerror.CodeFailedSecondSignature, "sender does not have a second signature")
		}
	} else {
		requesterHasSecond := requester != nil && requester.SecondSignature
		if requesterHasSecond && trs.SignSignature == "" {
			return txerror.New(txerror.CodeFailedSecondSignature, "missing requester second signature")
		}
		if !requesterHasSecond && trs.SignSignature != "" {
			return txerror.New(txerror.CodeFailedSecondSignature, "requester does not have a second signature")
		}
	}

	total, err := totalSpend(trs)
	if err != nil {
		return err
	}
	if sender.UBalance < total {
		return txerror.Newf(txerror.CodeInsufficientBalance,
			"account does not have enough unconfirmed funds: %s balance: %d", sender.Address, sender.UBalance)
	}

	delta := &types.AccountDelta{UBalance: -total}
	return e.mergeThen(ctx, sender.Address, delta, func(updated *types.Account) error {
		return handler.ApplyUnconfirmed(ctx, trs, updated)
	})
}

// UndoUnconfirmed releases the unconfirmed reservation when a transaction
// leaves the pool without confirming.
func (e *Engine) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}
	total, err := totalSpend(trs)
	if err != nil {
		return err
	}

	delta := &types.AccountDelta{UBalance: total}
	return e.mergeThen(ctx, sender.Address, delta, func(updated *types.Account) error {
		return handler.UndoUnconfirmed(ctx, trs, updated)
	})
}

// mergeThen performs the two-phase merge: apply delta, run the handler step,
// and merge the inverse delta when the step fails.
func (e *Engine) mergeThen(ctx context.Context, addr string, delta *types.AccountDelta, step func(*types.Account) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	updated, err := e.accounts.Merge(addr, delta)
	if err != nil {
		return txerror.Wrap(txerror.CodeStoreError, "failed to merge account", err)
	}

	if err := step(updated); err != nil {
		inverse := invertDelta(delta)
		if _, rerr := e.accounts.Merge(addr, inverse); rerr != nil {
			// Balance integrity beats error fidelity: the failed reversal
			// wins, with the handler error carried in the message.
			logx.Error("TRANSACTION", "failed to roll back account merge for ", addr, ": ", rerr.Error())
			return txerror.Wrap(txerror.CodeStoreError,
				fmt.Sprintf("failed to roll back account merge (handler error: %v)", err), rerr)
		}
		return err
	}
	return nil
}

func invertDelta(delta *types.AccountDelta) *types.AccountDelta {
	return &types.AccountDelta{
		Balance:  -delta.Balance,
		UBalance: -delta.UBalance,
		BlockID:  delta.BlockID,
		Round:    delta.Round,
	}
}

// totalSpend returns amount+fee with an explicit overflow check. Both terms
// are bounded by the total supply on a healthy chain, so an overflow here
// means a forged transaction.
func totalSpend(trs *types.Transaction) (int64, error) {
	if trs.Amount > math.MaxInt64-trs.Fee || trs.Fee > math.MaxInt64 {
		return 0, txerror.Newf(txerror.CodeInvalidAmount,
			"amount plus fee overflows: %d + %d", trs.Amount, trs.Fee)
	}
	return int64(trs.Amount + trs.Fee), nil
}
