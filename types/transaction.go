package types

// Transaction is the node-side representation of a transaction. Byte fields
// travel as hex strings, exactly as they appear on the wire; the codec
// decodes them when building the canonical pre-image. A transaction is never
// mutated after signing except for the fields attached on block inclusion
// (BlockID, Height, Confirmations) and the derived ID/SenderID.
type Transaction struct {
	ID                 string   `json:"id,omitempty"`
	BlockID            string   `json:"blockId,omitempty"`
	Height             uint64   `json:"height,omitempty"`
	Type               uint8    `json:"type"`
	Timestamp          int32    `json:"timestamp"`
	SenderPublicKey    string   `json:"senderPublicKey"`
	RequesterPublicKey string   `json:"requesterPublicKey,omitempty"`
	SenderID           string   `json:"senderId,omitempty"`
	RecipientID        string   `json:"recipientId,omitempty"`
	Amount             uint64   `json:"amount"`
	Fee                uint64   `json:"fee"`
	Signature          string   `json:"signature,omitempty"`
	SignSignature      string   `json:"signSignature,omitempty"`
	Signatures         []string `json:"signatures,omitempty"`
	Asset              Asset    `json:"asset"`
	Confirmations      uint64   `json:"confirmations,omitempty"`
}

// Asset carries the type-specific payload. Exactly one group is populated
// for a given transaction type; typed fields keep the canonical asset bytes
// independent of any map insertion order.
type Asset struct {
	Signature      *SignatureAsset      `json:"signature,omitempty"`
	Delegate       *DelegateAsset       `json:"delegate,omitempty"`
	Votes          []string             `json:"votes,omitempty"`
	Multisignature *MultisignatureAsset `json:"multisignature,omitempty"`
}

// SignatureAsset registers a second signing key on the sender account.
type SignatureAsset struct {
	PublicKey string `json:"publicKey"`
}

// DelegateAsset registers the sender as a forging delegate.
type DelegateAsset struct {
	Username string `json:"username"`
}

// MultisignatureAsset installs a co-signer group on the sender account.
// Keysgroup entries carry a leading action byte ('+' to add).
type MultisignatureAsset struct {
	Min       uint32   `json:"min"`
	Lifetime  uint32   `json:"lifetime"`
	Keysgroup []string `json:"keysgroup"`
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	if t.Signatures != nil {
		cp.Signatures = append([]string(nil), t.Signatures...)
	}
	if t.Asset.Signature != nil {
		sig := *t.Asset.Signature
		cp.Asset.Signature = &sig
	}
	if t.Asset.Delegate != nil {
		d := *t.Asset.Delegate
		cp.Asset.Delegate = &d
	}
	if t.Asset.Votes != nil {
		cp.Asset.Votes = append([]string(nil), t.Asset.Votes...)
	}
	if t.Asset.Multisignature != nil {
		ms := *t.Asset.Multisignature
		ms.Keysgroup = append([]string(nil), t.Asset.Multisignature.Keysgroup...)
		cp.Asset.Multisignature = &ms
	}
	return &cp
}
