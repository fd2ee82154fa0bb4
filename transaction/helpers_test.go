package transaction_test

import (
	"context"
	"testing"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/slot"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/txhandler"
	"github.com/meridianchain/mrdn/types"
)

type testEnv struct {
	engine   *transaction.Engine
	accounts *store.GenericAccountStore
	archive  *store.KVTxLedger
	params   *config.ChainParams
	cal      *slot.Calendar
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	params := config.DefaultChainParams()
	provider := db.NewMemoryProvider()
	accounts, err := store.NewGenericAccountStore(provider)
	if err != nil {
		t.Fatalf("account store: %v", err)
	}
	archive, err := store.NewKVTxLedger(provider)
	if err != nil {
		t.Fatalf("tx ledger: %v", err)
	}
	cal := slot.NewCalendar(params.Epoch, params.SlotInterval(), params.DelegatesPerRound)
	registry := transaction.NewRegistry()
	if err := txhandler.Register(registry, params, accounts); err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	return &testEnv{
		engine:   transaction.NewEngine(params, cal, registry, accounts, archive),
		accounts: accounts,
		archive:  archive,
		params:   params,
		cal:      cal,
	}
}

// seedAccount stores a funded account for the keypair and returns it.
func (env *testEnv) seedAccount(t *testing.T, keypair types.Keypair, balance int64) *types.Account {
	t.Helper()
	addr, err := common.AddressFromPublicKeyHex(keypair.PublicKeyHex(), env.params.Suffix())
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	acc := &types.Account{
		Address:   addr,
		PublicKey: keypair.PublicKeyHex(),
		Balance:   balance,
		UBalance:  balance,
	}
	if err := env.accounts.Set(acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

// signedTransfer builds a signed type-0 transfer from the keypair.
func (env *testEnv) signedTransfer(t *testing.T, keypair types.Keypair, sender *types.Account, recipient string, amount uint64) *types.Transaction {
	t.Helper()
	trs := &types.Transaction{
		Type:            txhandler.TypeTransfer,
		Timestamp:       env.cal.TimestampNow(),
		SenderPublicKey: keypair.PublicKeyHex(),
		SenderID:        sender.Address,
		RecipientID:     recipient,
		Amount:          amount,
		Fee:             env.params.Fees.Transfer,
	}
	sig, err := env.engine.Sign(keypair, trs)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	trs.Signature = sig
	id, err := env.engine.GetID(trs)
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	trs.ID = id
	return trs
}

// signedSecondSignature builds a signed type-1 registration for the keypair.
func (env *testEnv) signedSecondSignature(t *testing.T, keypair types.Keypair) *types.Transaction {
	t.Helper()
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	secondPair := keypairFor("registered second key")
	trs := &types.Transaction{
		Type:            txhandler.TypeSecondSignature,
		Timestamp:       env.cal.TimestampNow(),
		SenderPublicKey: keypair.PublicKeyHex(),
		SenderID:        sender.Address,
		Fee:             env.params.Fees.SecondSignature,
		Asset: types.Asset{
			Signature: &types.SignatureAsset{PublicKey: secondPair.PublicKeyHex()},
		},
	}
	sig, err := env.engine.Sign(keypair, trs)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	trs.Signature = sig
	id, err := env.engine.GetID(trs)
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	trs.ID = id
	return trs
}

func keypairFor(passphrase string) types.Keypair {
	return types.KeypairFromPassphrase(passphrase)
}

func ctxb() context.Context {
	return context.Background()
}
