// Package txhandler carries the built-in transaction type handlers. Each
// handler owns one asset layout: its canonical bytes, its fee, its
// verification rules and its account effects.
package txhandler

import (
	"context"

	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

// Transaction type tags. Wire values; never renumber.
const (
	TypeTransfer        uint8 = 0
	TypeSecondSignature uint8 = 1
	TypeDelegate        uint8 = 2
	TypeVote            uint8 = 3
	TypeMultisignature  uint8 = 4
)

// Register wires every built-in handler into the registry and seals it.
func Register(registry *transaction.Registry, params *config.ChainParams, accounts store.AccountStore) error {
	base := base{params: params, accounts: accounts}
	for txType, h := range map[uint8]transaction.Handler{
		TypeTransfer:        &TransferHandler{base},
		TypeSecondSignature: &SecondSignatureHandler{base},
		TypeDelegate:        &DelegateHandler{base},
		TypeVote:            &VoteHandler{base},
		TypeMultisignature:  &MultisignatureHandler{base},
	} {
		if err := registry.Register(txType, h); err != nil {
			return err
		}
	}
	registry.Seal()
	return nil
}

// roundFromHeight mirrors the mutator's round accounting for the deltas the
// handlers merge themselves: ceil(height / delegatesPerRound).
func roundFromHeight(params *config.ChainParams, height uint64) uint64 {
	if height == 0 {
		return 0
	}
	return (height + params.DelegatesPerRound - 1) / params.DelegatesPerRound
}

// base holds the dependencies shared by every handler and the default
// implementations of the optional capabilities.
type base struct {
	params   *config.ChainParams
	accounts store.AccountStore
}

func (b *base) Process(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}

func (b *base) DBSave(trs *types.Transaction) []types.Row {
	return nil
}

func (b *base) AfterSave(trs *types.Transaction) error {
	return nil
}

func (b *base) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	return nil, nil
}

// Ready implements the shared readiness rule: an account with a co-signer
// group needs at least multimin co-signatures before block inclusion.
func (b *base) Ready(trs *types.Transaction, sender *types.Account) bool {
	if len(sender.Multisignatures) == 0 {
		return true
	}
	if trs.Signatures == nil {
		return false
	}
	return len(trs.Signatures) >= int(sender.Multimin)
}
