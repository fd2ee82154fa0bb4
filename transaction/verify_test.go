package transaction_test

import (
	"testing"

	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

func TestVerifyAcceptsValidTransfer(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("valid transfer sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "58191285901858109L", 1000)

	if err := env.engine.Verify(ctxb(), trs, sender, nil); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyMissingSender(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("missing sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)

	err := env.engine.Verify(ctxb(), trs, nil, nil)
	if !txerror.Is(err, txerror.CodeMissingSender) {
		t.Fatalf("err = %v, want missing sender", err)
	}
}

func TestVerifySenderPublicKeyMismatch(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("pk mismatch sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)

	imposter := sender.Clone()
	imposter.PublicKey = keypairFor("other account").PublicKeyHex()

	err := env.engine.Verify(ctxb(), trs, imposter, nil)
	if !txerror.Is(err, txerror.CodeInvalidSenderPublicKey) {
		t.Fatalf("err = %v, want invalid sender public key", err)
	}
}

func TestVerifySenderAddressCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("case insensitive sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)

	// Same address, different suffix case: still the same account.
	relaxed := sender.Clone()
	relaxed.Address = lowerSuffix(sender.Address)
	if err := env.engine.Verify(ctxb(), trs, relaxed, nil); err != nil {
		t.Fatalf("Verify with case-folded address: %v", err)
	}

	wrong := sender.Clone()
	wrong.Address = "42" + string(env.params.Suffix())
	err := env.engine.Verify(ctxb(), trs, wrong, nil)
	if !txerror.Is(err, txerror.CodeInvalidSenderAddress) {
		t.Fatalf("err = %v, want invalid sender address", err)
	}
}

func TestVerifyRequesterNotInGroup(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("requester sender")
	requesterPair := keypairFor("requester itself")
	sender := env.seedAccount(t, keypair, 1_000_000_000)

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	trs.RequesterPublicKey = requesterPair.PublicKeyHex()

	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeInvalidRequesterPublicKey) {
		t.Fatalf("err = %v, want invalid requester public key", err)
	}
}

func TestVerifyFailedSignature(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("tampered sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	trs.Amount = 2 // tamper after signing

	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeFailedSignature) {
		t.Fatalf("err = %v, want failed signature", err)
	}
}

func TestVerifyMissingSecondSignature(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("second sig sender")
	secondPair := keypairFor("second sig key")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	sender.SecondSignature = true
	sender.SecondPublicKey = secondPair.PublicKeyHex()

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeFailedSecondSignature) {
		t.Fatalf("err = %v, want failed second signature", err)
	}

	signSig, err := env.engine.Sign(secondPair, trs)
	if err != nil {
		t.Fatalf("second sign: %v", err)
	}
	trs.SignSignature = signSig
	if err := env.engine.Verify(ctxb(), trs, sender, nil); err != nil {
		t.Fatalf("Verify with second signature: %v", err)
	}
}

func TestVerifyDuplicateSignatures(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("duplicate sig sender")
	cosigner := keypairFor("duplicate cosigner")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	sender.Multisignatures = []string{cosigner.PublicKeyHex()}
	sender.Multimin = 1

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	cosig, err := env.engine.Multisign(cosigner, trs)
	if err != nil {
		t.Fatalf("multisign: %v", err)
	}
	trs.Signatures = []string{cosig, cosig}

	verr := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(verr, txerror.CodeDuplicateSignature) {
		t.Fatalf("err = %v, want duplicate signature", verr)
	}
}

func TestVerifyMultisignatureAgainstGroup(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("group tx sender")
	member := keypairFor("group tx member")
	stranger := keypairFor("group tx stranger")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	sender.Multisignatures = []string{member.PublicKeyHex()}
	sender.Multimin = 1

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	good, err := env.engine.Multisign(member, trs)
	if err != nil {
		t.Fatalf("multisign: %v", err)
	}
	trs.Signatures = []string{good}
	if err := env.engine.Verify(ctxb(), trs, sender, nil); err != nil {
		t.Fatalf("Verify with member co-signature: %v", err)
	}

	bad, err := env.engine.Multisign(stranger, trs)
	if err != nil {
		t.Fatalf("multisign: %v", err)
	}
	trs.Signatures = []string{bad}
	verr := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(verr, txerror.CodeFailedMultisignature) {
		t.Fatalf("err = %v, want failed multisignature", verr)
	}
}

func TestVerifyFeeMismatch(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("fee mismatch sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	trs.Fee = 0
	resign(t, env, keypair, trs)

	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeInvalidFee) {
		t.Fatalf("err = %v, want invalid fee", err)
	}
}

func TestVerifyAmountBounds(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("amount bounds sender")
	sender := env.seedAccount(t, keypair, int64(env.params.TotalSupply))

	// TotalSupply itself passes the bound check (the transfer handler then
	// owns the zero-amount rule).
	trs := env.signedTransfer(t, keypair, sender, "1L", env.params.TotalSupply)
	if err := env.engine.Verify(ctxb(), trs, sender, nil); err != nil {
		t.Fatalf("Verify at TOTAL_SUPPLY: %v", err)
	}

	trs.Amount = env.params.TotalSupply + 1
	resign(t, env, keypair, trs)
	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeInvalidAmount) {
		t.Fatalf("err = %v, want invalid amount", err)
	}
}

func TestVerifyTimestampFromFuture(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("future timestamp sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)

	trs := env.signedTransfer(t, keypair, sender, "1L", 1)
	trs.Timestamp = env.cal.TimestampNow() + int32(env.params.SlotIntervalSeconds)*10
	resign(t, env, keypair, trs)

	err := env.engine.Verify(ctxb(), trs, sender, nil)
	if !txerror.Is(err, txerror.CodeInvalidTimestamp) {
		t.Fatalf("err = %v, want invalid timestamp", err)
	}
}

func TestVerifyUnknownType(t *testing.T) {
	env := newTestEnv(t)
	trs := &types.Transaction{Type: 99}
	err := env.engine.Verify(ctxb(), trs, &types.Account{}, nil)
	if !txerror.Is(err, txerror.CodeUnknownType) {
		t.Fatalf("err = %v, want unknown type", err)
	}
}

// resign refreshes signature and id after a test mutated signed fields.
func resign(t *testing.T, env *testEnv, keypair types.Keypair, trs *types.Transaction) {
	t.Helper()
	trs.Signature = ""
	trs.SignSignature = ""
	sig, err := env.engine.Sign(keypair, trs)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	trs.Signature = sig
	id, err := env.engine.GetID(trs)
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	trs.ID = id
}

func lowerSuffix(addr string) string {
	last := addr[len(addr)-1]
	if last >= 'A' && last <= 'Z' {
		last += 'a' - 'A'
	}
	return addr[:len(addr)-1] + string(last)
}
