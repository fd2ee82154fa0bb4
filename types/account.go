package types

// Account is the ledger-side account state. Balances are signed: the genesis
// sender legitimately goes negative when it distributes the initial supply.
// Fields prefixed with U track the unconfirmed (pool) view of the confirmed
// field next to them.
type Account struct {
	Address          string   `json:"address"`
	PublicKey        string   `json:"publicKey,omitempty"`
	Balance          int64    `json:"balance"`
	UBalance         int64    `json:"u_balance"`
	SecondSignature  bool     `json:"secondSignature,omitempty"`
	USecondSignature bool     `json:"u_secondSignature,omitempty"`
	SecondPublicKey  string   `json:"secondPublicKey,omitempty"`
	Multisignatures  []string `json:"multisignatures,omitempty"`
	UMultisignatures []string `json:"u_multisignatures,omitempty"`
	Multimin         uint32   `json:"multimin,omitempty"`
	Multilifetime    uint32   `json:"multilifetime,omitempty"`
	IsDelegate       bool     `json:"isDelegate,omitempty"`
	UIsDelegate      bool     `json:"u_isDelegate,omitempty"`
	Username         string   `json:"username,omitempty"`
	UUsername        string   `json:"u_username,omitempty"`
	Delegates        []string `json:"delegates,omitempty"`
	UDelegates       []string `json:"u_delegates,omitempty"`
	BlockID          string   `json:"blockId,omitempty"`
	Round            uint64   `json:"round,omitempty"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Multisignatures = append([]string(nil), a.Multisignatures...)
	cp.UMultisignatures = append([]string(nil), a.UMultisignatures...)
	cp.Delegates = append([]string(nil), a.Delegates...)
	cp.UDelegates = append([]string(nil), a.UDelegates...)
	return &cp
}

// StringSetDelta is an additive update to a string-set account field.
// Entries in Add are appended (duplicates ignored), entries in Remove are
// deleted. Applying the swapped delta restores the original set.
type StringSetDelta struct {
	Add    []string
	Remove []string
}

// Invert returns the delta that undoes d.
func (d *StringSetDelta) Invert() *StringSetDelta {
	if d == nil {
		return nil
	}
	return &StringSetDelta{Add: d.Remove, Remove: d.Add}
}

// AccountDelta is an additive update merged into an account by
// AccountStore.Merge. Balance fields add; pointer fields overwrite when
// non-nil; set deltas mutate in place. A delta built by a handler must have
// a well-defined inverse so the mutator can roll it back.
type AccountDelta struct {
	Balance  int64
	UBalance int64
	BlockID  string
	Round    uint64

	PublicKey string // set only when the account has none yet

	SecondSignature  *bool
	USecondSignature *bool
	SecondPublicKey  *string

	IsDelegate  *bool
	UIsDelegate *bool
	Username    *string
	UUsername   *string

	Multimin      *uint32
	Multilifetime *uint32

	Multisignatures  *StringSetDelta
	UMultisignatures *StringSetDelta
	Delegates        *StringSetDelta
	UDelegates       *StringSetDelta
}
