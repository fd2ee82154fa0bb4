package transaction

import (
	"context"
	"fmt"

	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// CreateData carries the inputs a handler consumes when building a new
// transaction. Type-specific fields are only read by the matching handler.
type CreateData struct {
	Keypair       types.Keypair
	SecondKeypair *types.Keypair
	Sender        *types.Account
	Requester     *types.Account
	RecipientID   string
	Amount        uint64

	SecondPublicKey string
	Username        string
	Votes           []string
	Multisignature  *types.MultisignatureAsset
}

// Handler is the capability set a transaction type plugs into the registry.
// DBSave and AfterSave may return nil work for types that persist nothing
// beyond the trs row.
type Handler interface {
	// Create fills the type-specific fields of a transaction being built.
	Create(trs *types.Transaction, data *CreateData) error

	// CalculateFee returns the only fee the verifier accepts for trs.
	CalculateFee(trs *types.Transaction, sender *types.Account) uint64

	// Verify runs type-specific checks; it is the last verification step and
	// its error is surfaced verbatim.
	Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error

	// Process runs type-specific admission work before verification.
	Process(ctx context.Context, trs *types.Transaction, sender *types.Account) error

	// GetBytes returns the asset's contribution to the canonical pre-image.
	// Must be deterministic; may be empty.
	GetBytes(trs *types.Transaction) ([]byte, error)

	// ObjectNormalize validates the asset payload of an inbound transaction.
	ObjectNormalize(trs *types.Transaction) error

	// DBRead extends a transaction's asset from an archive row.
	DBRead(raw map[string]interface{}) (*types.Asset, error)

	// DBSave returns the handler's extra archive rows for trs.
	DBSave(trs *types.Transaction) []types.Row

	// AfterSave runs once the row set has been persisted.
	AfterSave(trs *types.Transaction) error

	// Apply / Undo mutate confirmed handler-owned state.
	Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error
	Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error

	// ApplyUnconfirmed / UndoUnconfirmed mutate the unconfirmed view.
	ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error
	UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error

	// Ready reports whether trs has gathered enough signatures to be
	// included in a block.
	Ready(trs *types.Transaction, sender *types.Account) bool
}

// Registry maps a transaction type tag to its handler. It is populated once
// at startup and read-only afterwards, so lookups take no lock.
type Registry struct {
	handlers map[uint8]Handler
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[uint8]Handler)}
}

// Register attaches a handler to a type tag. Registering a nil handler, a
// duplicate tag, or registering after Seal is a programming error.
func (r *Registry) Register(txType uint8, h Handler) error {
	if r.sealed {
		return fmt.Errorf("registry is sealed")
	}
	if h == nil {
		return fmt.Errorf("nil handler for type %d", txType)
	}
	if _, dup := r.handlers[txType]; dup {
		return fmt.Errorf("handler already registered for type %d", txType)
	}
	r.handlers[txType] = h
	return nil
}

// Seal freezes the registry. Called once startup wiring is done.
func (r *Registry) Seal() {
	r.sealed = true
}

// Get returns the handler for txType.
func (r *Registry) Get(txType uint8) (Handler, error) {
	h, ok := r.handlers[txType]
	if !ok {
		return nil, txerror.Newf(txerror.CodeUnknownType, "unknown transaction type %d", txType)
	}
	return h, nil
}
