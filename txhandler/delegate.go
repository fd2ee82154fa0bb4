package txhandler

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

const maxUsernameLength = 20

// DelegateHandler implements type 2: registration of the sender as a
// forging delegate. Asset bytes are the username UTF-8 bytes.
type DelegateHandler struct {
	base
}

func (h *DelegateHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	username := strings.TrimSpace(data.Username)
	if err := validateUsername(username); err != nil {
		return err
	}
	trs.RecipientID = ""
	trs.Amount = 0
	trs.Asset.Delegate = &types.DelegateAsset{Username: username}
	return nil
}

func (h *DelegateHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	return h.params.Fees.Delegate
}

func (h *DelegateHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if trs.RecipientID != "" {
		return fmt.Errorf("invalid recipient")
	}
	if trs.Amount != 0 {
		return fmt.Errorf("invalid transaction amount")
	}
	if sender.IsDelegate {
		return fmt.Errorf("account is already a delegate")
	}
	return validateUsername(trs.Asset.Delegate.Username)
}

func (h *DelegateHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	if trs.Asset.Delegate == nil {
		return nil, fmt.Errorf("missing delegate asset")
	}
	if trs.Asset.Delegate.Username == "" {
		return nil, nil
	}
	return []byte(trs.Asset.Delegate.Username), nil
}

func (h *DelegateHandler) ObjectNormalize(trs *types.Transaction) error {
	if trs.Asset.Delegate == nil {
		return fmt.Errorf("missing delegate asset")
	}
	return validateUsername(trs.Asset.Delegate.Username)
}

func (h *DelegateHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	registered, pending := true, false
	empty := ""
	delta := &types.AccountDelta{
		IsDelegate:  &registered,
		UIsDelegate: &pending,
		Username:    &trs.Asset.Delegate.Username,
		UUsername:   &empty,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to register delegate: %w", err)
	}
	return nil
}

func (h *DelegateHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	unregistered, pending := false, true
	empty := ""
	delta := &types.AccountDelta{
		IsDelegate:  &unregistered,
		UIsDelegate: &pending,
		Username:    &empty,
		UUsername:   &trs.Asset.Delegate.Username,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to revert delegate registration: %w", err)
	}
	return nil
}

func (h *DelegateHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if sender.UIsDelegate || sender.IsDelegate {
		return fmt.Errorf("account is already a delegate")
	}
	pending := true
	delta := &types.AccountDelta{
		UIsDelegate: &pending,
		UUsername:   &trs.Asset.Delegate.Username,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to reserve delegate registration: %w", err)
	}
	return nil
}

func (h *DelegateHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	pending := false
	empty := ""
	delta := &types.AccountDelta{
		UIsDelegate: &pending,
		UUsername:   &empty,
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to release delegate registration: %w", err)
	}
	return nil
}

func (h *DelegateHandler) DBSave(trs *types.Transaction) []types.Row {
	return []types.Row{{
		Table:   "delegates",
		Columns: []string{"transactionId", "username"},
		Values:  []interface{}{trs.ID, trs.Asset.Delegate.Username},
	}}
}

func (h *DelegateHandler) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	username := rowString(raw, "d_username")
	if username == "" {
		return nil, nil
	}
	return &types.Asset{Delegate: &types.DelegateAsset{Username: username}}, nil
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("missing username")
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("username is too long: %d chars", len(username))
	}
	if username != strings.ToLower(username) {
		return fmt.Errorf("username must be lowercase")
	}
	allDigits := true
	for i := 0; i < len(username); i++ {
		c := username[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
			allDigits = false
		case c == '!' || c == '@' || c == '$' || c == '&' || c == '_' || c == '.':
			allDigits = false
		default:
			return fmt.Errorf("username contains invalid character: %q", string(c))
		}
	}
	if allDigits {
		return fmt.Errorf("username must not consist only of digits")
	}
	if len(username) > 1 && digitsOnly(username[:len(username)-1]) {
		return fmt.Errorf("username must not resemble an address")
	}
	return nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
