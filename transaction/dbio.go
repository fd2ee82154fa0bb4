package transaction

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// trsColumns is the canonical column list of the trs table.
var trsColumns = []string{
	"id", "blockId", "type", "timestamp", "senderPublicKey",
	"requesterPublicKey", "senderId", "recipientId", "amount", "fee",
	"signature", "signSignature", "signatures",
}

// DBSave produces the row set persisted for trs: the trs insert first, then
// whatever rows the type handler contributes. Key material is stored as raw
// bytes; the co-signer signatures as one comma-joined string.
func (e *Engine) DBSave(trs *types.Transaction) ([]types.Row, error) {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return nil, err
	}

	senderPK, err := hex.DecodeString(trs.SenderPublicKey)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid sender public key", err)
	}
	var requesterPK, signature, signSignature []byte
	if trs.RequesterPublicKey != "" {
		if requesterPK, err = hex.DecodeString(trs.RequesterPublicKey); err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid requester public key", err)
		}
	}
	if trs.Signature != "" {
		if signature, err = hex.DecodeString(trs.Signature); err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid signature", err)
		}
	}
	if trs.SignSignature != "" {
		if signSignature, err = hex.DecodeString(trs.SignSignature); err != nil {
			return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid second signature", err)
		}
	}

	var signatures interface{}
	if len(trs.Signatures) > 0 {
		signatures = strings.Join(trs.Signatures, ",")
	}

	rows := []types.Row{{
		Table:   "trs",
		Columns: trsColumns,
		Values: []interface{}{
			trs.ID, trs.BlockID, trs.Type, trs.Timestamp, senderPK,
			requesterPK, trs.SenderID, trs.RecipientID, trs.Amount, trs.Fee,
			signature, signSignature, signatures,
		},
	}}
	return append(rows, handler.DBSave(trs)...), nil
}

// DBRead materializes a transaction from an archive row, or nil when the
// row carries no transaction (outer joins produce such rows). Numeric
// columns arrive as text and are parsed; the asset is extended from the
// handler's own columns.
func (e *Engine) DBRead(raw map[string]interface{}) (*types.Transaction, error) {
	id := rowString(raw, "t_id")
	if id == "" {
		return nil, nil
	}

	txType, err := rowUint(raw, "t_type", 8)
	if err != nil {
		return nil, err
	}
	timestamp, err := rowInt(raw, "t_timestamp")
	if err != nil {
		return nil, err
	}
	height, err := rowUint(raw, "b_height", 64)
	if err != nil {
		return nil, err
	}
	amount, err := rowUint(raw, "t_amount", 64)
	if err != nil {
		return nil, err
	}
	fee, err := rowUint(raw, "t_fee", 64)
	if err != nil {
		return nil, err
	}
	confirmations, err := rowUint(raw, "confirmations", 64)
	if err != nil {
		return nil, err
	}

	trs := &types.Transaction{
		ID:                 id,
		BlockID:            rowString(raw, "t_blockId"),
		Height:             height,
		Type:               uint8(txType),
		Timestamp:          int32(timestamp),
		SenderPublicKey:    rowHex(raw, "t_senderPublicKey"),
		RequesterPublicKey: rowHex(raw, "t_requesterPublicKey"),
		SenderID:           rowString(raw, "t_senderId"),
		RecipientID:        rowString(raw, "t_recipientId"),
		Amount:             amount,
		Fee:                fee,
		Signature:          rowHex(raw, "t_signature"),
		SignSignature:      rowHex(raw, "t_signSignature"),
		Confirmations:      confirmations,
	}
	if joined := rowString(raw, "t_signatures"); joined != "" {
		trs.Signatures = strings.Split(joined, ",")
	}

	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return nil, err
	}
	asset, err := handler.DBRead(raw)
	if err != nil {
		return nil, err
	}
	if asset != nil {
		trs.Asset = *asset
	}
	return trs, nil
}

// AfterSave runs the handler's post-persist hook.
func (e *Engine) AfterSave(trs *types.Transaction) error {
	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return err
	}
	return handler.AfterSave(trs)
}

func rowString(raw map[string]interface{}, column string) string {
	switch v := raw[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// rowHex renders a byte-valued column as hex; a string value is assumed to
// be hex already.
func rowHex(raw map[string]interface{}, column string) string {
	switch v := raw[column].(type) {
	case []byte:
		return hex.EncodeToString(v)
	case string:
		return v
	default:
		return ""
	}
}

func rowUint(raw map[string]interface{}, column string, bits int) (uint64, error) {
	v, ok := raw[column]
	if !ok || v == nil {
		return 0, nil
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, txerror.Newf(txerror.CodeMalformedTransaction, "invalid %s value: %q", column, s)
	}
	return n, nil
}

func rowInt(raw map[string]interface{}, column string) (int64, error) {
	v, ok := raw[column]
	if !ok || v == nil {
		return 0, nil
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, txerror.Newf(txerror.CodeMalformedTransaction, "invalid %s value: %q", column, s)
	}
	return n, nil
}
