package transaction_test

import (
	"testing"

	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

func TestProcessAttachesIDAndSender(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("process sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	trs.ID = "bogus"
	trs.SenderID = ""

	processed, err := env.engine.Process(ctxb(), trs, sender)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if processed.ID == "bogus" || processed.ID == "" {
		t.Errorf("id not recomputed: %q", processed.ID)
	}
	if processed.SenderID != sender.Address {
		t.Errorf("senderId = %q, want %q", processed.SenderID, sender.Address)
	}
}

func TestProcessRejectsReplay(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("replay sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)

	// Archive the transaction, then process it again.
	rows, err := env.engine.DBSave(trs)
	if err != nil {
		t.Fatalf("DBSave: %v", err)
	}
	if err := env.archive.SaveRows(ctxb(), rows); err != nil {
		t.Fatalf("SaveRows: %v", err)
	}

	_, perr := env.engine.Process(ctxb(), trs, sender)
	if !txerror.Is(perr, txerror.CodeAlreadyConfirmed) {
		t.Fatalf("err = %v, want already confirmed", perr)
	}
}

func TestProcessMissingSender(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("process no sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)

	_, err := env.engine.Process(ctxb(), trs, nil)
	if !txerror.Is(err, txerror.CodeMissingSender) {
		t.Fatalf("err = %v, want missing sender", err)
	}
}

// Readiness is deliberately not gated in Process: a pending multisignature
// transaction enters the pool and is only refused at block apply.
func TestProcessAcceptsNotReadyTransaction(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("pending group sender")
	member := keypairFor("pending group member")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	sender.Multisignatures = []string{member.PublicKeyHex()}
	sender.Multimin = 1

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	// no co-signatures gathered yet

	if _, err := env.engine.Process(ctxb(), trs, sender); err != nil {
		t.Fatalf("Process: %v", err)
	}
	err := env.engine.Apply(ctxb(), trs, &types.Block{ID: "b", Height: 1}, sender)
	if !txerror.Is(err, txerror.CodeNotReady) {
		t.Fatalf("Apply err = %v, want not ready", err)
	}
}
