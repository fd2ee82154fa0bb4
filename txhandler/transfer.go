package txhandler

import (
	"context"
	"fmt"

	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

// TransferHandler implements type 0: a plain balance transfer. The asset is
// empty; the canonical bytes carry only the shared fields.
type TransferHandler struct {
	base
}

func (h *TransferHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	if data.RecipientID == "" {
		return fmt.Errorf("missing recipient")
	}
	trs.RecipientID = data.RecipientID
	trs.Amount = data.Amount
	return nil
}

func (h *TransferHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	return h.params.Fees.Transfer
}

func (h *TransferHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if trs.RecipientID == "" {
		return fmt.Errorf("missing recipient")
	}
	if trs.Amount == 0 {
		return fmt.Errorf("invalid transaction amount")
	}
	return nil
}

func (h *TransferHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	return nil, nil
}

func (h *TransferHandler) ObjectNormalize(trs *types.Transaction) error {
	return nil
}

func (h *TransferHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	delta := &types.AccountDelta{
		Balance:  int64(trs.Amount),
		UBalance: int64(trs.Amount),
		BlockID:  block.ID,
		Round:    roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(trs.RecipientID, delta); err != nil {
		return fmt.Errorf("failed to credit recipient %s: %w", trs.RecipientID, err)
	}
	return nil
}

func (h *TransferHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	delta := &types.AccountDelta{
		Balance:  -int64(trs.Amount),
		UBalance: -int64(trs.Amount),
		BlockID:  block.ID,
		Round:    roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(trs.RecipientID, delta); err != nil {
		return fmt.Errorf("failed to debit recipient %s: %w", trs.RecipientID, err)
	}
	return nil
}

func (h *TransferHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}

func (h *TransferHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}
