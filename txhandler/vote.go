package txhandler

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/types"
)

// VoteHandler implements type 3: casting or withdrawing delegate votes.
// Asset bytes are the vote strings joined in order, action prefixes
// included.
type VoteHandler struct {
	base
}

func (h *VoteHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	if len(data.Votes) == 0 {
		return fmt.Errorf("missing votes")
	}
	trs.RecipientID = data.Sender.Address
	trs.Amount = 0
	trs.Asset.Votes = append([]string(nil), data.Votes...)
	return nil
}

func (h *VoteHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	return h.params.Fees.Vote
}

func (h *VoteHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if trs.RecipientID != trs.SenderID {
		return fmt.Errorf("recipient must equal sender")
	}
	if trs.Amount != 0 {
		return fmt.Errorf("invalid transaction amount")
	}
	if err := h.validateVotes(trs.Asset.Votes); err != nil {
		return err
	}
	for _, vote := range trs.Asset.Votes {
		action, key := vote[0], vote[1:]
		voted := containsString(sender.Delegates, key)
		if action == '+' && voted {
			return fmt.Errorf("already voted for delegate %s", key)
		}
		if action == '-' && !voted {
			return fmt.Errorf("not voted for delegate %s", key)
		}
	}
	return nil
}

func (h *VoteHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	if len(trs.Asset.Votes) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(trs.Asset.Votes, "")), nil
}

func (h *VoteHandler) ObjectNormalize(trs *types.Transaction) error {
	return h.validateVotes(trs.Asset.Votes)
}

func (h *VoteHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	delta := &types.AccountDelta{
		Delegates: votesToSetDelta(trs.Asset.Votes),
		BlockID:   block.ID,
		Round:     roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to apply votes: %w", err)
	}
	return nil
}

func (h *VoteHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	delta := &types.AccountDelta{
		Delegates: votesToSetDelta(trs.Asset.Votes).Invert(),
		BlockID:   block.ID,
		Round:     roundFromHeight(h.params, block.Height),
	}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to revert votes: %w", err)
	}
	return nil
}

func (h *VoteHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	delta := &types.AccountDelta{UDelegates: votesToSetDelta(trs.Asset.Votes)}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to reserve votes: %w", err)
	}
	return nil
}

func (h *VoteHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	delta := &types.AccountDelta{UDelegates: votesToSetDelta(trs.Asset.Votes).Invert()}
	if _, err := h.accounts.Merge(sender.Address, delta); err != nil {
		return fmt.Errorf("failed to release votes: %w", err)
	}
	return nil
}

func (h *VoteHandler) DBSave(trs *types.Transaction) []types.Row {
	return []types.Row{{
		Table:   "votes",
		Columns: []string{"transactionId", "votes"},
		Values:  []interface{}{trs.ID, strings.Join(trs.Asset.Votes, ",")},
	}}
}

func (h *VoteHandler) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	joined := rowString(raw, "v_votes")
	if joined == "" {
		return nil, nil
	}
	return &types.Asset{Votes: strings.Split(joined, ",")}, nil
}

func (h *VoteHandler) validateVotes(votes []string) error {
	if len(votes) == 0 {
		return fmt.Errorf("missing votes")
	}
	if len(votes) > h.params.MaxVotesPerTransaction {
		return fmt.Errorf("too many votes: %d", len(votes))
	}
	seen := make(map[string]struct{}, len(votes))
	for _, vote := range votes {
		if len(vote) != 65 || (vote[0] != '+' && vote[0] != '-') {
			return fmt.Errorf("invalid vote format: %q", vote)
		}
		key := vote[1:]
		if !common.IsHex(key, 64) {
			return fmt.Errorf("invalid vote public key: %q", key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate vote for delegate %s", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// votesToSetDelta translates vote strings into a delegates-set delta.
func votesToSetDelta(votes []string) *types.StringSetDelta {
	delta := &types.StringSetDelta{}
	for _, vote := range votes {
		switch vote[0] {
		case '+':
			delta.Add = append(delta.Add, vote[1:])
		case '-':
			delta.Remove = append(delta.Remove, vote[1:])
		}
	}
	return delta
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
