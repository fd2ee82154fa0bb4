package txhandler

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

// SecondSignatureHandler implements type 1: registration of a second
// signing key on the sender account. Asset bytes are the raw 32-byte key.
type SecondSignatureHandler struct {
	base
}

func (h *SecondSignatureHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	if !common.IsHex(data.SecondPublicKey, 64) {
		return fmt.Errorf("invalid second public key: %q", data.SecondPublicKey)
	}
	trs.RecipientID = ""
	trs.Amount = 0
	trs.Asset.Signature = &types.SignatureAsset{PublicKey: data.SecondPublicKey}
	return nil
}

func (h *SecondSignatureHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	return h.params.Fees.SecondSignature
}

func (h *SecondSignatureHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if trs.RecipientID != "" {
		return fmt.Errorf("invalid recipient")
	}
	if trs.Amount != 0 {
		return fmt.Errorf("invalid transaction amount")
	}
	return nil
}

func (h *SecondSignatureHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	if trs.Asset.Signature == nil {
		return nil, fmt.Errorf("missing signature asset")
	}
	pk, err := hex.DecodeString(trs.Asset.Signature.PublicKey)
	if err != nil || len(pk) != 32 {
		return nil, fmt.Errorf("invalid second public key: %q", trs.Asset.Signature.PublicKey)
	}
	return pk, nil
}

func (h *SecondSignatureHandler) ObjectNormalize(trs *types.Transaction) error {
	if trs.Asset.Signature == nil {
		return fmt.Errorf("missing signature asset")
	}
	if !common.IsHex(trs.Asset.Signature.PublicKey, 64) {
		return fmt.Errorf("invalid second public key: %q", trs.Asset.Signature.PublicKey)
	}
	return nil
}

func (h *SecondSignatureHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	enabled, pending := true, false
	delta := &types.AccountDelta{
		SecondSignature:  &enabled,
		USecondSignature: &pending,
		SecondPublicKey:  &trs.Asset.Signature.PublicKey,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to register second signature: %w", err)
	}
	return nil
}

func (h *SecondSignatureHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	disabled, pending := false, true
	empty := ""
	delta := &types.AccountDelta{
		SecondSignature:  &disabled,
		USecondSignature: &pending,
		SecondPublicKey:  &empty,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to revert second signature: %w", err)
	}
	return nil
}

func (h *SecondSignatureHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if sender.USecondSignature || sender.SecondSignature {
		return fmt.Errorf("second signature already enabled")
	}
	pending := true
	if _, err := h.accounts.Merge(sender.Address, &types.AccountDelta{USecondSignature: &pending}); err != nil {
		return fmt.Errorf("failed to reserve second signature: %w", err)
	}
	return nil
}

func (h *SecondSignatureHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	pending := false
	if _, err := h.accounts.Merge(sender.Address, &types.AccountDelta{USecondSignature: &pending}); err != nil {
		return fmt.Errorf("failed to release second signature: %w", err)
	}
	return nil
}

func (h *SecondSignatureHandler) DBSave(trs *types.Transaction) []types.Row {
	pk, err := hex.DecodeString(trs.Asset.Signature.PublicKey)
	if err != nil {
		return nil
	}
	return []types.Row{{
		Table:   "signatures",
		Columns: []string{"transactionId", "publicKey"},
		Values:  []interface{}{trs.ID, pk},
	}}
}

func (h *SecondSignatureHandler) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	pk := rowHex(raw, "s_publicKey")
	if pk == "" {
		return nil, nil
	}
	return &types.Asset{Signature: &types.SignatureAsset{PublicKey: pk}}, nil
}
