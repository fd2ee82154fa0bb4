package store

import (
	"fmt"
	"math"
	"sync"

	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/jsonx"
	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/types"
)

// AccountStore is the account state store consumed by the transaction core.
// Merge is the only mutation path: it applies an additive delta atomically
// with respect to other operations on the same store, which gives the
// per-sender check-then-merge sequence its serialization point.
type AccountStore interface {
	Get(addr string) (*types.Account, error)
	GetByPublicKey(pkHex string) (*types.Account, error)
	Set(account *types.Account) error
	Merge(addr string, delta *types.AccountDelta) (*types.Account, error)
	MustClose()
}

type GenericAccountStore struct {
	mu         sync.Mutex
	dbProvider db.DatabaseProvider
}

func NewGenericAccountStore(dbProvider db.DatabaseProvider) (*GenericAccountStore, error) {
	if dbProvider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	return &GenericAccountStore{dbProvider: dbProvider}, nil
}

// Get returns the account for addr, or nil when it does not exist.
func (as *GenericAccountStore) Get(addr string) (*types.Account, error) {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.load(addr)
}

// GetByPublicKey scans for the account holding pkHex. Account lookups in the
// core are address-based; this path only serves the pool's requester
// lookup.
func (as *GenericAccountStore) GetByPublicKey(pkHex string) (*types.Account, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	var found *types.Account
	err := as.dbProvider.IteratePrefix([]byte(PrefixAccount), func(_, value []byte) bool {
		var acc types.Account
		if err := jsonx.Unmarshal(value, &acc); err != nil {
			return true
		}
		if acc.PublicKey == pkHex {
			found = &acc
			return false
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan accounts: %w", err)
	}
	return found, nil
}

// Set writes an account record verbatim. Used for genesis seeding and tests;
// everything else goes through Merge.
func (as *GenericAccountStore) Set(account *types.Account) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.save(account)
}

// Merge loads (or creates) the account at addr, applies the delta and writes
// the result back, all under the store lock.
func (as *GenericAccountStore) Merge(addr string, delta *types.AccountDelta) (*types.Account, error) {
	as.mu.Lock()
	defer as.mu.Unlock()

	acc, err := as.load(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{Address: addr}
	}

	if err := applyDelta(acc, delta); err != nil {
		return nil, err
	}
	if err := as.save(acc); err != nil {
		return nil, err
	}
	return acc.Clone(), nil
}

func (as *GenericAccountStore) MustClose() {
	if err := as.dbProvider.Close(); err != nil {
		logx.Error("ACCOUNT_STORE", "Failed to close db provider: ", err.Error())
	}
}

func (as *GenericAccountStore) load(addr string) (*types.Account, error) {
	data, err := as.dbProvider.Get(accountKey(addr))
	if err != nil {
		return nil, fmt.Errorf("could not get account %s from db: %w", addr, err)
	}
	if data == nil {
		return nil, nil
	}
	var acc types.Account
	if err := jsonx.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", addr, err)
	}
	return &acc, nil
}

func (as *GenericAccountStore) save(acc *types.Account) error {
	data, err := jsonx.Marshal(acc)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := as.dbProvider.Put(accountKey(acc.Address), data); err != nil {
		return fmt.Errorf("failed to write account to db: %w", err)
	}
	return nil
}

func accountKey(addr string) []byte {
	return []byte(PrefixAccount + addr)
}

// applyDelta folds an additive delta into acc. Balance arithmetic is
// checked: a delta that would overflow int64 is refused, which keeps the
// merge reversible.
func applyDelta(acc *types.Account, delta *types.AccountDelta) error {
	balance, err := checkedAdd(acc.Balance, delta.Balance)
	if err != nil {
		return fmt.Errorf("balance merge for %s: %w", acc.Address, err)
	}
	uBalance, err := checkedAdd(acc.UBalance, delta.UBalance)
	if err != nil {
		return fmt.Errorf("u_balance merge for %s: %w", acc.Address, err)
	}
	acc.Balance = balance
	acc.UBalance = uBalance

	if delta.BlockID != "" {
		acc.BlockID = delta.BlockID
	}
	if delta.Round != 0 {
		acc.Round = delta.Round
	}
	if delta.PublicKey != "" && acc.PublicKey == "" {
		acc.PublicKey = delta.PublicKey
	}

	if delta.SecondSignature != nil {
		acc.SecondSignature = *delta.SecondSignature
	}
	if delta.USecondSignature != nil {
		acc.USecondSignature = *delta.USecondSignature
	}
	if delta.SecondPublicKey != nil {
		acc.SecondPublicKey = *delta.SecondPublicKey
	}
	if delta.IsDelegate != nil {
		acc.IsDelegate = *delta.IsDelegate
	}
	if delta.UIsDelegate != nil {
		acc.UIsDelegate = *delta.UIsDelegate
	}
	if delta.Username != nil {
		acc.Username = *delta.Username
	}
	if delta.UUsername != nil {
		acc.UUsername = *delta.UUsername
	}
	if delta.Multimin != nil {
		acc.Multimin = *delta.Multimin
	}
	if delta.Multilifetime != nil {
		acc.Multilifetime = *delta.Multilifetime
	}

	acc.Multisignatures = applySetDelta(acc.Multisignatures, delta.Multisignatures)
	acc.UMultisignatures = applySetDelta(acc.UMultisignatures, delta.UMultisignatures)
	acc.Delegates = applySetDelta(acc.Delegates, delta.Delegates)
	acc.UDelegates = applySetDelta(acc.UDelegates, delta.UDelegates)
	return nil
}

func applySetDelta(set []string, delta *types.StringSetDelta) []string {
	if delta == nil {
		return set
	}
	for _, rm := range delta.Remove {
		for i, v := range set {
			if v == rm {
				set = append(set[:i], set[i+1:]...)
				break
			}
		}
	}
	for _, add := range delta.Add {
		dup := false
		for _, v := range set {
			if v == add {
				dup = true
				break
			}
		}
		if !dup {
			set = append(set, add)
		}
	}
	return set
}

func checkedAdd(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, fmt.Errorf("integer overflow: %d + %d", a, b)
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, fmt.Errorf("integer underflow: %d + %d", a, b)
	}
	return a + b, nil
}
