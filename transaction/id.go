package transaction

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"github.com/meridianchain/mrdn/types"
)

// GetHash returns SHA-256 over the full canonical bytes of trs.
func (e *Engine) GetHash(trs *types.Transaction) ([32]byte, error) {
	b, err := e.ToBytes(trs, false, false)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(b), nil
}

// GetID derives the transaction identifier: the first 8 bytes of the hash
// taken in reverse, i.e. read little-endian, rendered in decimal. The id is
// never trusted from input; callers recompute it through this function.
func (e *Engine) GetID(trs *types.Transaction) (string, error) {
	hash, err := e.GetHash(trs)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(binary.LittleEndian.Uint64(hash[:8]), 10), nil
}
