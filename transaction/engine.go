package transaction

import (
	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/slot"
	"github.com/meridianchain/mrdn/store"
)

// Engine is the transaction core: codec, id derivation, signature engine,
// verification pipeline and state mutator behind one immutable value.
// Construct it once at startup and pass it around explicitly.
type Engine struct {
	params   *config.ChainParams
	cal      *slot.Calendar
	registry *Registry
	accounts store.AccountStore
	ledger   store.TxLedger
}

func NewEngine(
	params *config.ChainParams,
	cal *slot.Calendar,
	registry *Registry,
	accounts store.AccountStore,
	ledger store.TxLedger,
) *Engine {
	return &Engine{
		params:   params,
		cal:      cal,
		registry: registry,
		accounts: accounts,
		ledger:   ledger,
	}
}

// Params returns the chain constants the engine runs with.
func (e *Engine) Params() *config.ChainParams {
	return e.params
}

// Calendar returns the slot calendar.
func (e *Engine) Calendar() *slot.Calendar {
	return e.cal
}

// Accounts returns the account store.
func (e *Engine) Accounts() store.AccountStore {
	return e.accounts
}
