package common

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

const (
	// SignatureSize is the length of an Ed25519 signature in bytes.
	SignatureSize = ed25519.SignatureSize
)

// DecodePublicKey decodes a 64-hex-char public key string.
func DecodePublicKey(pkHex string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(pkHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: %d", len(b))
	}
	return ed25519.PublicKey(b), nil
}

// DecodeSignature decodes a 128-hex-char signature string.
func DecodeSignature(sigHex string) ([]byte, error) {
	b, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature hex: %w", err)
	}
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("invalid signature length: %d", len(b))
	}
	return b, nil
}

// IsHex reports whether s is a well-formed lowercase hex string of n chars.
func IsHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
