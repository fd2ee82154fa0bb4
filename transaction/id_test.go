package transaction_test

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"testing"
)

func TestGetIDMatchesDigest(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("id digest passphrase")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "58191285901858109L", 1000)

	b, err := env.engine.ToBytes(trs, false, false)
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	digest := sha256.Sum256(b)
	want := strconv.FormatUint(binary.LittleEndian.Uint64(digest[:8]), 10)

	got, err := env.engine.GetID(trs)
	if err != nil {
		t.Fatalf("GetID: %v", err)
	}
	if got != want {
		t.Errorf("id = %s, want %s", got, want)
	}
}

func TestGetIDPureFunctionOfBytes(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("id clone passphrase")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "123L", 42)

	id1, err := env.engine.GetID(trs)
	if err != nil {
		t.Fatalf("GetID: %v", err)
	}
	id2, err := env.engine.GetID(trs.Clone())
	if err != nil {
		t.Fatalf("GetID clone: %v", err)
	}
	if id1 != id2 {
		t.Errorf("clone id differs: %s vs %s", id1, id2)
	}
}
