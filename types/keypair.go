package types

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Keypair is an Ed25519 signing pair.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// KeypairFromPassphrase derives a deterministic keypair from a BIP39-style
// passphrase: the seed is the SHA-256 of the passphrase bytes.
func KeypairFromPassphrase(passphrase string) Keypair {
	seed := sha256.Sum256([]byte(passphrase))
	priv := ed25519.NewKeyFromSeed(seed[:])
	return Keypair{
		Public:  priv.Public().(ed25519.PublicKey),
		Private: priv,
	}
}

// KeypairFromSeedHex builds a keypair from a 32-byte hex-encoded seed.
func KeypairFromSeedHex(seedHex string) (Keypair, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return Keypair{}, fmt.Errorf("failed to decode seed hex: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("invalid seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keypair{
		Public:  priv.Public().(ed25519.PublicKey),
		Private: priv,
	}, nil
}

// PublicKeyHex returns the public key in its wire encoding.
func (k Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.Public)
}
