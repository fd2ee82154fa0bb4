package transaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/slot"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// stubHandler is a minimal handler whose state steps can be rigged to fail,
// for exercising the compensating rollback.
type stubHandler struct {
	failApply            bool
	failApplyUnconfirmed bool
	applyCalls           int
}

var errStub = errors.New("stub handler failure")

func (h *stubHandler) Create(trs *types.Transaction, data *transaction.CreateData) error {
	return nil
}
func (h *stubHandler) CalculateFee(trs *types.Transaction, sender *types.Account) uint64 {
	return 10_000_000
}
func (h *stubHandler) Verify(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}
func (h *stubHandler) Process(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}
func (h *stubHandler) GetBytes(trs *types.Transaction) ([]byte, error) {
	return nil, nil
}
func (h *stubHandler) ObjectNormalize(trs *types.Transaction) error {
	return nil
}
func (h *stubHandler) DBRead(raw map[string]interface{}) (*types.Asset, error) {
	return nil, nil
}
func (h *stubHandler) DBSave(trs *types.Transaction) []types.Row {
	return nil
}
func (h *stubHandler) AfterSave(trs *types.Transaction) error {
	return nil
}
func (h *stubHandler) Apply(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	h.applyCalls++
	if h.failApply {
		return errStub
	}
	return nil
}
func (h *stubHandler) Undo(ctx context.Context, trs *types.Transaction, block *types.Block, sender *types.Account) error {
	return nil
}
func (h *stubHandler) ApplyUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	if h.failApplyUnconfirmed {
		return errStub
	}
	return nil
}
func (h *stubHandler) UndoUnconfirmed(ctx context.Context, trs *types.Transaction, sender *types.Account) error {
	return nil
}
func (h *stubHandler) Ready(trs *types.Transaction, sender *types.Account) bool {
	return true
}

// newStubEnv builds an engine with only the stub handler registered under
// type 0.
func newStubEnv(t *testing.T, stub transaction.Handler) (*transaction.Engine, *store.GenericAccountStore, *config.ChainParams) {
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
	registry := transaction.NewRegistry()
	if err := registry.Register(0, stub); err != nil {
		t.Fatalf("register stub: %v", err)
	}
	registry.Seal()
	cal := slot.NewCalendar(params.Epoch, params.SlotInterval(), params.DelegatesPerRound)
	return transaction.NewEngine(params, cal, registry, accounts, archive), accounts, params
}

func seedStub(t *testing.T, accounts *store.GenericAccountStore, balance int64) *types.Account {
	t.Helper()
	acc := &types.Account{Address: "1000M", Balance: balance, UBalance: balance}
	if err := accounts.Set(acc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return acc
}

func TestApplyDebitsSender(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 100_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1000, Fee: 10_000_000}
	block := &types.Block{ID: "b1", Height: 5}

	if err := engine.Apply(ctxb(), trs, block, sender); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	updated, err := accounts.Get(sender.Address)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if updated.Balance != 100_000_000-1000-10_000_000 {
		t.Errorf("balance = %d", updated.Balance)
	}
	if updated.BlockID != "b1" || updated.Round != 1 {
		t.Errorf("blockId/round = %s/%d", updated.BlockID, updated.Round)
	}
}

func TestApplyInsufficientBalance(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 100)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1000, Fee: 10_000_000}

	err := engine.Apply(ctxb(), trs, &types.Block{ID: "b1", Height: 1}, sender)
	if !txerror.Is(err, txerror.CodeInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}
}

func TestApplyGenesisSkipsBalanceCheck(t *testing.T) {
	engine, accounts, params := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 0)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1000, Fee: 0}
	block := &types.Block{ID: params.GenesisBlockID, Height: 1}

	if err := engine.Apply(ctxb(), trs, block, sender); err != nil {
		t.Fatalf("Apply genesis: %v", err)
	}
	updated, _ := accounts.Get(sender.Address)
	if updated.Balance != -1000 {
		t.Errorf("genesis sender balance = %d, want -1000", updated.Balance)
	}
}

func TestApplyRollsBackOnHandlerFailure(t *testing.T) {
	stub := &stubHandler{failApply: true}
	engine, accounts, _ := newStubEnv(t, stub)
	sender := seedStub(t, accounts, 100_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1000, Fee: 10_000_000}

	err := engine.Apply(ctxb(), trs, &types.Block{ID: "b1", Height: 1}, sender)
	if !errors.Is(err, errStub) {
		t.Fatalf("err = %v, want stub error", err)
	}
	if stub.applyCalls != 1 {
		t.Fatalf("handler.Apply calls = %d", stub.applyCalls)
	}

	updated, _ := accounts.Get(sender.Address)
	if updated.Balance != 100_000_000 {
		t.Errorf("balance after rollback = %d, want 100000000", updated.Balance)
	}
}

func TestApplyUndoRoundTrip(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 500_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 123, Fee: 10_000_000}
	block := &types.Block{ID: "b9", Height: 300}

	if err := engine.Apply(ctxb(), trs, block, sender); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mid, _ := accounts.Get(sender.Address)
	if err := engine.Undo(ctxb(), trs, block, mid); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	restored, _ := accounts.Get(sender.Address)
	if restored.Balance != 500_000_000 {
		t.Errorf("balance after undo = %d, want 500000000", restored.Balance)
	}
}

func TestApplyUnconfirmedRoundTrip(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 500_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 77, Fee: 10_000_000}

	if err := engine.ApplyUnconfirmed(ctxb(), trs, sender, nil); err != nil {
		t.Fatalf("ApplyUnconfirmed: %v", err)
	}
	mid, _ := accounts.Get(sender.Address)
	if mid.UBalance != 500_000_000-77-10_000_000 {
		t.Errorf("u_balance = %d", mid.UBalance)
	}
	if mid.Balance != 500_000_000 {
		t.Errorf("confirmed balance touched: %d", mid.Balance)
	}

	if err := engine.UndoUnconfirmed(ctxb(), trs, mid); err != nil {
		t.Fatalf("UndoUnconfirmed: %v", err)
	}
	restored, _ := accounts.Get(sender.Address)
	if restored.UBalance != 500_000_000 {
		t.Errorf("u_balance after undo = %d", restored.UBalance)
	}
}

func TestApplyUnconfirmedSecondSignatureRules(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &stubHandler{})
	sender := seedStub(t, accounts, 500_000_000)
	sender.SecondSignature = true

	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1, Fee: 10_000_000}
	err := engine.ApplyUnconfirmed(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeFailedSecondSignature) {
		t.Fatalf("err = %v, want failed second signature", err)
	}

	// And the inverse: a sign_signature without a registered second key.
	sender.SecondSignature = false
	trs.SignSignature = "00"
	err = engine.ApplyUnconfirmed(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeFailedSecondSignature) {
		t.Fatalf("err = %v, want failed second signature", err)
	}
}

func TestApplyUnconfirmedRollsBackOnHandlerFailure(t *testing.T) {
	stub := &stubHandler{failApplyUnconfirmed: true}
	engine, accounts, _ := newStubEnv(t, stub)
	sender := seedStub(t, accounts, 500_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 5, Fee: 10_000_000}

	err := engine.ApplyUnconfirmed(ctxb(), trs, sender, nil)
	if !errors.Is(err, errStub) {
		t.Fatalf("err = %v, want stub error", err)
	}
	restored, _ := accounts.Get(sender.Address)
	if restored.UBalance != 500_000_000 {
		t.Errorf("u_balance after rollback = %d", restored.UBalance)
	}
}

func TestApplyNotReady(t *testing.T) {
	engine, accounts, _ := newStubEnv(t, &notReadyHandler{})
	sender := seedStub(t, accounts, 500_000_000)
	trs := &types.Transaction{ID: "1", Type: 0, SenderID: sender.Address, Amount: 1, Fee: 10_000_000}

	err := engine.Apply(ctxb(), trs, &types.Block{ID: "b", Height: 1}, sender)
	if !txerror.Is(err, txerror.CodeNotReady) {
		t.Fatalf("err = %v, want not ready", err)
	}
}

type notReadyHandler struct {
	stubHandler
}

func (h *notReadyHandler) Ready(trs *types.Transaction, sender *types.Account) bool {
	return false
}
