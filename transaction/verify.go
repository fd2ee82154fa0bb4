package transaction

import (
	"context"
	"strings"

	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Verify runs the full verification pipeline against trs. Checks run in a
// fixed order and the first failure is returned; the type handler's own
// verification runs last and its error surfaces verbatim.
func (e *Engine) Verify(ctx context.Context, trs *types.Transaction, sender, requester *types.Account) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}

	if sender == nil {
		return txerror.New(txerror.CodeMissingSender, "missing sender account")
	}

	if sender.PublicKey != "" && sender.PublicKey != trs.SenderPublicKey {
		if e.params.IsSenderPublicKeyException(trs.ID) {
			logx.Debug("TRANSACTION", "accepting grandfathered sender public key mismatch for tx ", trs.ID)
		} else {
			return txerror.Newf(txerror.CodeInvalidSenderPublicKey,
				"invalid sender public key: %s expected: %s", trs.SenderPublicKey, sender.PublicKey)
		}
	}

	if !strings.EqualFold(trs.SenderID, sender.Address) {
		return txerror.New(txerror.CodeInvalidSenderAddress, "invalid sender address")
	}

	if trs.RequesterPublicKey != "" && !containsKey(multisigGroup(sender), trs.RequesterPublicKey) {
		return txerror.New(txerror.CodeInvalidRequesterPublicKey, "invalid requester public key")
	}

	primaryKey := trs.SenderPublicKey
	if trs.RequesterPublicKey != "" {
		primaryKey = trs.RequesterPublicKey
	}
	if !e.VerifySignature(trs, primaryKey, trs.Signature) {
		return txerror.New(txerror.CodeFailedSignature, "failed to verify signature")
	}

	if err := e.verifySecondFactor(trs, sender, requester); err != nil {
		return err
	}

	if dup := firstDuplicate(trs.Signatures); dup != "" {
		return txerror.Newf(txerror.CodeDuplicateSignature, "duplicate signature in transaction: %s", dup)
	}

	if err := e.verifyMultisignatures(trs, sender); err != nil {
		return err
	}

	if fee := handler.CalculateFee(trs, sender); trs.Fee != fee {
		return txerror.Newf(txerror.CodeInvalidFee, "invalid transaction fee: %d expected: %d", trs.Fee, fee)
	}

	if trs.Amount > e.params.TotalSupply {
		return txerror.Newf(txerror.CodeInvalidAmount, "invalid transaction amount: %d", trs.Amount)
	}

	if e.cal.SlotNumber(trs.Timestamp) > e.cal.CurrentSlot() {
		return txerror.New(txerror.CodeInvalidTimestamp,
			"invalid transaction timestamp: slot is in the future")
	}

	return handler.Verify(ctx, trs, sender)
}

// verifySecondFactor enforces the second-signature rules: the sender's (or,
// when a requester submits, the requester's) registered second key must have
// countersigned. Genesis block transactions predate second signatures and
// are exempt.
func (e *Engine) verifySecondFactor(trs *types.Transaction, sender, requester *types.Account) error {
	if trs.RequesterPublicKey == "" {
		if !sender.SecondSignature {
			return nil
		}
		if trs.BlockID == e.params.GenesisBlockID {
			return nil
		}
		if trs.SignSignature == "" {
			return txerror.New(txerror.CodeFailedSecondSignature, "missing sender second signature")
		}
		if !e.VerifySecondSignature(trs, sender.SecondPublicKey, trs.SignSignature) {
			return txerror.New(txerror.CodeFailedSecondSignature, "failed to verify second signature")
		}
		return nil
	}

	if requester == nil || !requester.SecondSignature {
		return nil
	}
	if trs.SignSignature == "" {
		return txerror.New(txerror.CodeFailedSecondSignature, "missing requester second signature")
	}
	if !e.VerifySecondSignature(trs, requester.SecondPublicKey, trs.SignSignature) {
		return txerror.New(txerror.CodeFailedSecondSignature, "failed to verify requester second signature")
	}
	return nil
}

// verifyMultisignatures checks every co-signer signature against the
// account's group. Each signature must verify against some group key other
// than the requester.
func (e *Engine) verifyMultisignatures(trs *types.Transaction, sender *types.Account) error {
	if len(trs.Signatures) == 0 {
		return nil
	}

	group := append([]string(nil), multisigGroup(sender)...)
	if len(group) == 0 && trs.Asset.Multisignature != nil {
		// A pending group registration is co-signed by the keys it installs.
		for _, key := range trs.Asset.Multisignature.Keysgroup {
			if len(key) > 1 {
				group = append(group, key[1:])
			}
		}
	}
	if trs.RequesterPublicKey != "" {
		group = append(group, trs.SenderPublicKey)
	}

	for _, signature := range trs.Signatures {
		verified := false
		for _, key := range group {
			if trs.RequesterPublicKey != "" && key == trs.RequesterPublicKey {
				continue
			}
			if e.VerifySignature(trs, key, signature) {
				verified = true
				break
			}
		}
		if !verified {
			return txerror.New(txerror.CodeFailedMultisignature, "failed to verify multisignature")
		}
	}
	return nil
}

// multisigGroup returns the account's co-signer set, preferring the
// confirmed group and falling back to the pending one.
func multisigGroup(account *types.Account) []string {
	if len(account.Multisignatures) > 0 {
		return account.Multisignatures
	}
	return account.UMultisignatures
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func firstDuplicate(signatures []string) string {
	seen := make(map[string]struct{}, len(signatures))
	for _, s := range signatures {
		if _, dup := seen[s]; dup {
			return s
		}
		seen[s] = struct{}{}
	}
	return ""
}
