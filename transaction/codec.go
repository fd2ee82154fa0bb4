package transaction

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Canonical layout:
//
//	type                1  byte
//	timestamp           4  bytes, big-endian signed
//	senderPublicKey     32 bytes
//	requesterPublicKey  32 bytes, omitted entirely when absent
//	recipient           8  bytes, big-endian; all-zero when absent
//	amount              8  bytes, big-endian
//	asset bytes         handler-defined, may be empty
//	signature           64 bytes, unless skipSignature
//	signSignature       64 bytes, only when present and not skipSecondSignature
//
// This is the consensus pre-image for hashing and signing. Any deviation
// forks the chain.

// ToBytes builds the canonical byte sequence of trs. The buffer is
// allocated once at the exact final length.
func (e *Engine) ToBytes(trs *types.Transaction, skipSignature, skipSecondSignature bool) ([]byte, error) {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return nil, err
	}

	assetBytes, err := handler.GetBytes(trs)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "failed to encode asset", err)
	}

	senderPK, err := hex.DecodeString(trs.SenderPublicKey)
	if err != nil || len(senderPK) != 32 {
		return nil, txerror.Newf(txerror.CodeMalformedTransaction, "invalid sender public key: %q", trs.SenderPublicKey)
	}

	var requesterPK []byte
	if trs.RequesterPublicKey != "" {
		requesterPK, err = hex.DecodeString(trs.RequesterPublicKey)
		if err != nil || len(requesterPK) != 32 {
			return nil, txerror.Newf(txerror.CodeMalformedTransaction, "invalid requester public key: %q", trs.RequesterPublicKey)
		}
	}

	var recipient uint64
	if trs.RecipientID != "" {
		recipient, err = common.ParseAddress(trs.RecipientID)
		if err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid recipient", err)
		}
	}

	var signature, signSignature []byte
	if !skipSignature && trs.Signature != "" {
		signature, err = common.DecodeSignature(trs.Signature)
		if err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid signature", err)
		}
	}
	if !skipSecondSignature && trs.SignSignature != "" {
		signSignature, err = common.DecodeSignature(trs.SignSignature)
		if err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid second signature", err)
		}
	}

	size := 1 + 4 + 32 + len(requesterPK) + 8 + 8 + len(assetBytes) + len(signature) + len(signSignature)
	buf := make([]byte, size)

	offset := 0
	buf[offset] = trs.Type
	offset++
	binary.BigEndian.PutUint32(buf[offset:], uint32(trs.Timestamp))
	offset += 4
	offset += copy(buf[offset:], senderPK)
	offset += copy(buf[offset:], requesterPK)
	binary.BigEndian.PutUint64(buf[offset:], recipient)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], trs.Amount)
	offset += 8
	offset += copy(buf[offset:], assetBytes)
	offset += copy(buf[offset:], signature)
	copy(buf[offset:], signSignature)

	return buf, nil
}
