package transaction

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/types"
)

// Sign produces the primary (or second-passphrase) signature: Ed25519 over
// SHA-256 of the canonical bytes as they stand. Called before the signature
// being produced is attached, so the pre-image excludes it naturally.
func (e *Engine) Sign(keypair types.Keypair, trs *types.Transaction) (string, error) {
	b, err := e.ToBytes(trs, false, false)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(b)
	return hex.EncodeToString(ed25519.Sign(keypair.Private, hash[:])), nil
}

// Multisign produces a co-signer signature over the signature-free
// pre-image.
func (e *Engine) Multisign(keypair types.Keypair, trs *types.Transaction) (string, error) {
	b, err := e.ToBytes(trs, true, true)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(b)
	return hex.EncodeToString(ed25519.Sign(keypair.Private, hash[:])), nil
}

// VerifySignature checks a primary or co-signer signature against the
// signature-free pre-image. A missing or malformed signature or key is
// false, never an error.
func (e *Engine) VerifySignature(trs *types.Transaction, pkHex, sigHex string) bool {
	return e.verifyOver(trs, pkHex, sigHex, true, true)
}

// VerifySecondSignature checks the second-factor signature, which covers
// the primary signature but not itself.
func (e *Engine) VerifySecondSignature(trs *types.Transaction, pkHex, sigHex string) bool {
	return e.verifyOver(trs, pkHex, sigHex, false, true)
}

func (e *Engine) verifyOver(trs *types.Transaction, pkHex, sigHex string, skipSig, skipSig2 bool) bool {
	if sigHex == "" || pkHex == "" {
		return false
	}
	sig, err := common.DecodeSignature(sigHex)
	if err != nil {
		return false
	}
	pk, err := common.DecodePublicKey(pkHex)
	if err != nil {
		return false
	}
	b, err := e.ToBytes(trs, skipSig, skipSig2)
	if err != nil {
		return false
	}
	hash := sha256.Sum256(b)
	return ed25519.Verify(pk, hash[:], sig)
}
