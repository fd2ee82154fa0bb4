package mempool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/events"
	"github.com/meridianchain/mrdn/exception"
	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/monitoring"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Pool is the unconfirmed transaction pool. Admission runs the full ingress
// pipeline (normalize, process, verify, apply-unconfirmed) under one lock,
// which serializes per-sender admission as the state mutator requires.
type Pool struct {
	mu       sync.Mutex
	engine   *transaction.Engine
	accounts store.AccountStore
	bus      *events.EventBus
	maxTxs   int

	byID  map[string]*entry
	order []string
}

type entry struct {
	trs        *types.Transaction
	sender     *types.Account
	admittedAt time.Time
}

func NewPool(engine *transaction.Engine, bus *events.EventBus, maxTxs int) *Pool {
	return &Pool{
		engine:   engine,
		accounts: engine.Accounts(),
		bus:      bus,
		maxTxs:   maxTxs,
		byID:     make(map[string]*entry),
	}
}

// Add ingests a raw transaction object. On success the transaction is
// normalized, verified, reserved against the sender's unconfirmed balance
// and queued for block inclusion.
func (p *Pool) Add(ctx context.Context, raw []byte) (*types.Transaction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	trs, err := p.admit(ctx, raw)
	if err != nil {
		code := string(txerror.CodeOf(err))
		monitoring.IncreaseTxRejected(code)
		id, sender := "", ""
		if trs != nil {
			id, sender = trs.ID, trs.SenderID
		}
		p.publish(events.NewTransactionRejected(id, sender, code, err.Error()))
		return nil, err
	}

	monitoring.IncreaseTxAdmitted()
	p.publish(events.NewTransactionEvent(events.TxAdmitted, trs.ID, trs.SenderID))
	return trs, nil
}

func (p *Pool) admit(ctx context.Context, raw []byte) (*types.Transaction, error) {
	if p.maxTxs > 0 && len(p.byID) >= p.maxTxs {
		return nil, fmt.Errorf("mempool is full: %d transactions", len(p.byID))
	}

	trs, err := p.engine.Normalize(raw)
	if err != nil {
		return nil, err
	}

	sender, err := p.resolveSender(trs)
	if err != nil {
		return trs, err
	}
	requester, err := p.resolveRequester(trs)
	if err != nil {
		return trs, err
	}

	if trs, err = p.engine.Process(ctx, trs, sender); err != nil {
		return trs, err
	}
	if _, dup := p.byID[trs.ID]; dup {
		return trs, txerror.Newf(txerror.CodeAlreadyConfirmed, "transaction already in pool: %s", trs.ID)
	}

	if err := p.engine.Verify(ctx, trs, sender, requester); err != nil {
		return trs, err
	}
	if err := p.engine.ApplyUnconfirmed(ctx, trs, sender, requester); err != nil {
		return trs, err
	}

	p.byID[trs.ID] = &entry{trs: trs, sender: sender, admittedAt: time.Now()}
	p.order = append(p.order, trs.ID)
	return trs, nil
}

// StartExpiry sweeps the pool on the given interval, evicting transactions
// that sat unconfirmed longer than maxAge. Runs until ctx is done.
func (p *Pool) StartExpiry(ctx context.Context, interval, maxAge time.Duration) {
	exception.SafeGo("mempool-expiry", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.evictExpired(ctx, maxAge)
			}
		}
	})
}

func (p *Pool) evictExpired(ctx context.Context, maxAge time.Duration) {
	p.mu.Lock()
	expired := make([]string, 0)
	for id, e := range p.byID {
		if time.Since(e.admittedAt) > maxAge {
			expired = append(expired, id)
		}
	}
	p.mu.Unlock()

	for _, id := range expired {
		if err := p.Evict(ctx, id); err != nil {
			logx.Warn("MEMPOOL", "failed to evict expired tx ", id, ": ", err.Error())
		}
	}
}

// resolveSender loads or creates the account owning the sender public key.
// First contact with an address pins the public key onto the account.
func (p *Pool) resolveSender(trs *types.Transaction) (*types.Account, error) {
	addr, err := common.AddressFromPublicKeyHex(trs.SenderPublicKey, p.engine.Params().Suffix())
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid sender public key", err)
	}
	sender, err := p.accounts.Merge(addr, &types.AccountDelta{PublicKey: trs.SenderPublicKey})
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeStoreError, "failed to resolve sender account", err)
	}
	return sender, nil
}

func (p *Pool) resolveRequester(trs *types.Transaction) (*types.Account, error) {
	if trs.RequesterPublicKey == "" {
		return nil, nil
	}
	requester, err := p.accounts.GetByPublicKey(trs.RequesterPublicKey)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeStoreError, "failed to resolve requester account", err)
	}
	return requester, nil
}

// Len returns the number of pooled transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byID)
}

// Get returns the pooled transaction with the given id, or nil.
func (p *Pool) Get(id string) *types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.byID[id]; ok {
		return e.trs
	}
	return nil
}

// Batch returns up to max pooled transactions in admission order.
func (p *Pool) Batch(max int) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := make([]*types.Transaction, 0, max)
	for _, id := range p.order {
		if len(batch) == max {
			break
		}
		if e, ok := p.byID[id]; ok {
			batch = append(batch, e.trs)
		}
	}
	return batch
}

// RemoveConfirmed drops transactions that made it into an accepted block.
// Their unconfirmed reservation stands until the confirmed apply replaces
// it, so no undo runs here.
func (p *Pool) RemoveConfirmed(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.remove(id)
	}
}

// Evict removes a transaction that will not confirm and releases its
// unconfirmed reservation.
func (p *Pool) Evict(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("transaction not in pool: %s", id)
	}
	sender, err := p.accounts.Get(e.sender.Address)
	if err != nil {
		return txerror.Wrap(txerror.CodeStoreError, "failed to load sender account", err)
	}
	if err := p.engine.UndoUnconfirmed(ctx, e.trs, sender); err != nil {
		logx.Error("MEMPOOL", "failed to undo unconfirmed tx ", id, ": ", err.Error())
		return err
	}
	p.remove(id)
	p.publish(events.NewTransactionEvent(events.TxReverted, id, e.trs.SenderID))
	return nil
}

func (p *Pool) remove(id string) {
	if _, ok := p.byID[id]; !ok {
		return
	}
	delete(p.byID, id)
	for i, queued := range p.order {
		if queued == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Pool) publish(event events.TransactionEvent) {
	if p.bus != nil {
		p.bus.Publish(event)
	}
}
