package txhandler

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

const (
	minMultisigMin      = 1
	maxMultisigMin      = 16
	minMultisigLifetime = 1
	maxMultisigLifetime = 72
	maxKeysgroupSize    = 15
)

// MultisignatureHandler implements type 4: installing a co-signer group on
// the sender account. Asset bytes are min, lifetime, then the keysgroup
// strings joined in order (action prefixes included).
type MultisignatureHandler struct {
	base
}

func (h *MultisignatureHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	if data.Multisignature == nil {
		return fmt.Errorf("missing multisignature asset")
	}
	trs.RecipientID = ""
	trs.Amount = 0
	ms := *data.Multisignature
	ms.Keysgroup = append([]string(nil), data.Multisignature.Keysgroup...)
	trs.Asset.Multisignature = &ms
	return nil
}

func (h *MultisignatureHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	if trs.Asset.Multisignature == nil {
		return h.params.Fees.Multisignature
	}
	return uint64(len(trs.Asset.Multisignature.Keysgroup)+1) * h.params.Fees.Multisignature
}

func (h *MultisignatureHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if trs.RecipientID != "" {
		return fmt.Errorf("invalid recipient")
	}
	if trs.Amount != 0 {
		return fmt.Errorf("invalid transaction amount")
	}
	ms := trs.Asset.Multisignature
	if err := h.validateAsset(ms); err != nil {
		return err
	}
	for _, key := range ms.Keysgroup {
		if key[1:] == trs.SenderPublicKey {
			return fmt.Errorf("keysgroup must not contain the sender key")
		}
	}
	return nil
}

func (h *MultisignatureHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	ms := trs.Asset.Multisignature
	if ms == nil {
		return nil, fmt.Errorf("missing multisignature asset")
	}
	keys := strings.Join(ms.Keysgroup, "")
	buf := make([]byte, 0, 2+len(keys))
	buf = append(buf, byte(ms.Min), byte(ms.Lifetime))
	return append(buf, keys...), nil
}

func (h *MultisignatureHandler) ObjectNormalize(trs *types.Transaction) error {
	return h.validateAsset(trs.Asset.Multisignature)
}

func (h *MultisignatureHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	ms := trs.Asset.Multisignature
	delta := &types.AccountDelta{
		Multisignatures: &types.StringSetDelta{Add: strippedKeys(ms.Keysgroup)},
		Multimin:        &ms.Min,
		Multilifetime:   &ms.Lifetime,
		BlockID:         block.ID,
		Round:           roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to install multisignature group: %w", err)
	}
	return nil
}

func (h *MultisignatureHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	ms := trs.Asset.Multisignature
	var zero uint32
	delta := &types.AccountDelta{
		Multisignatures: &types.StringSetDelta{Remove: strippedKeys(ms.Keysgroup)},
		Multimin:        &zero,
		Multilifetime:   &zero,
		BlockID:         block.ID,
		Round:           roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to remove multisignature group: %w", err)
	}
	return nil
}

func (h *MultisignatureHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if len(sender.UMultisignatures) > 0 {
		return fmt.Errorf("multisignature group registration already pending")
	}
	ms := trs.Asset.Multisignature
	delta := &types.AccountDelta{
		UMultisignatures: &types.StringSetDelta{Add: strippedKeys(ms.Keysgroup)},
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to reserve multisignature group: %w", err)
	}
	return nil
}

func (h *MultisignatureHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	ms := trs.Asset.Multisignature
	delta := &types.AccountDelta{
		UMultisignatures: &types.StringSetDelta{Remove: strippedKeys(ms.Keysgroup)},
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to release multisignature group: %w", err)
	}
	return nil
}

// Ready overrides the shared rule: a registration installing the first
// group needs every member's co-signature; a re-registration under an
// existing group follows the account's multimin.
func (h *MultisignatureHandler) Ready(trs *types.Transaction, sender *types.Account) bool {
	if trs.Signatures == nil {
		return false
	}
	if len(sender.Multisignatures) == 0 {
		return len(trs.Signatures) == len(trs.Asset.Multisignature.Keysgroup)
	}
	return len(trs.Signatures) >= int(sender.Multimin)
}

func (h *MultisignatureHandler) DBSave(trs *types.Transaction) []types.Row {
	ms := trs.Asset.Multisignature
	return []types.Row{{
		Table:   "multisignatures",
		Columns: []string{"transactionId", "min", "lifetime", "keysgroup"},
		Values:  []interface{}{trs.ID, ms.Min, ms.Lifetime, strings.Join(ms.Keysgroup, ",")},
	}}
}

func (h *MultisignatureHandler) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	joined := rowString(raw, "m_keysgroup")
	if joined == "" {
		return nil, nil
	}
	min, err := rowUint32(raw, "m_min")
	if err != nil {
		return nil, err
	}
	lifetime, err := rowUint32(raw, "m_lifetime")
	if err != nil {
		return nil, err
	}
	return &types.Asset{Multisignature: &types.MultisignatureAsset{
		Min:       min,
		Lifetime:  lifetime,
		Keysgroup: strings.Split(joined, ","),
	}}, nil
}

func (h *MultisignatureHandler) validateAsset(ms *types.MultisignatureAsset) error {
	if ms == nil {
		return fmt.Errorf("missing multisignature asset")
	}
	if len(ms.Keysgroup) == 0 || len(ms.Keysgroup) > maxKeysgroupSize {
		return fmt.Errorf("invalid keysgroup size: %d", len(ms.Keysgroup))
	}
	if ms.Min < minMultisigMin || ms.Min > maxMultisigMin {
		return fmt.Errorf("invalid multisignature min: %d", ms.Min)
	}
	if int(ms.Min) > len(ms.Keysgroup)+1 {
		return fmt.Errorf("multisignature min exceeds group size: %d", ms.Min)
	}
	if ms.Lifetime < minMultisigLifetime || ms.Lifetime > maxMultisigLifetime {
		return fmt.Errorf("invalid multisignature lifetime: %d", ms.Lifetime)
	}
	seen := make(map[string]struct{}, len(ms.Keysgroup))
	for _, key := range ms.Keysgroup {
		if len(key) != 65 || key[0] != '+' {
			return fmt.Errorf("invalid keysgroup entry: %q", key)
		}
		stripped := key[1:]
		if !common.IsHex(stripped, 64) {
			return fmt.Errorf("invalid keysgroup public key: %q", stripped)
		}
		if _, dup := seen[stripped]; dup {
			return fmt.Errorf("duplicate keysgroup entry: %s", stripped)
		}
		seen[stripped] = struct{}{}
	}
	return nil
}

func strippedKeys(keysgroup []string) []string {
	keys := make([]string, 0, len(keysgroup))
	for _, key := range keysgroup {
		if len(key) > 1 {
			keys = append(keys, key[1:])
		}
	}
	return keys
}
