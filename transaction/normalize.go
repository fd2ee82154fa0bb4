package transaction

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/jsonx"
	"github.com/meridianchain/mrdn/txerror"
	"github.com/meridianchain/mrdn/types"
)

// Normalize validates the shape of an inbound raw transaction and hands the
// asset to the type handler for normalization. Null-valued fields are
// stripped before validation, mirroring the wire protocol where absent and
// null are equivalent.
func (e *Engine) Normalize(raw []byte) (*types.Transaction, error) {
	dec := jsonx.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid transaction object", err)
	}

	for key, value := range obj {
		if value == nil {
			delete(obj, key)
		}
	}

	if err := e.validateShape(obj); err != nil {
		return nil, err
	}

	cleaned, err := jsonx.Marshal(obj)
	if err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "failed to re-encode transaction", err)
	}
	trs := &types.Transaction{}
	if err := jsonx.Unmarshal(cleaned, trs); err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "failed to materialize transaction", err)
	}

	handler, err := e.registry.Get(trs.Type)
	if err != nil {
		return nil, err
	}
	if err := handler.ObjectNormalize(trs); err != nil {
		return nil, txerror.Wrap(txerror.CodeMalformedTransaction, "invalid asset", err)
	}
	return trs, nil
}

func (e *Engine) validateShape(obj map[string]interface{}) error {
	for _, field := range []string{"type", "timestamp", "senderPublicKey", "signature"} {
		if _, ok := obj[field]; !ok {
			return txerror.Newf(txerror.CodeMalformedTransaction, "missing required field %q", field)
		}
	}

	for _, field := range []string{"id", "blockId", "senderId", "recipientId"} {
		if v, ok := obj[field]; ok {
			if _, isString := v.(string); !isString {
				return txerror.Newf(txerror.CodeMalformedTransaction, "field %q must be a string", field)
			}
		}
	}

	if err := requireUint(obj, "type", math.MaxUint8); err != nil {
		return err
	}
	if err := requireUint(obj, "timestamp", math.MaxInt32); err != nil {
		return err
	}
	if err := requireUint(obj, "height", math.MaxInt64); err != nil {
		return err
	}
	if err := requireUint(obj, "amount", e.params.TotalSupply); err != nil {
		return err
	}
	if err := requireUint(obj, "fee", e.params.TotalSupply); err != nil {
		return err
	}

	if err := requireHex(obj, "senderPublicKey", 64); err != nil {
		return err
	}
	if err := requireHex(obj, "requesterPublicKey", 64); err != nil {
		return err
	}
	if err := requireHex(obj, "signature", 128); err != nil {
		return err
	}
	if err := requireHex(obj, "signSignature", 128); err != nil {
		return err
	}

	if v, ok := obj["signatures"]; ok {
		list, isList := v.([]interface{})
		if !isList {
			return txerror.New(txerror.CodeMalformedTransaction, "field \"signatures\" must be an array")
		}
		for _, entry := range list {
			s, isString := entry.(string)
			if !isString || !common.IsHex(s, 128) {
				return txerror.New(txerror.CodeMalformedTransaction, "signatures entries must be 128-char hex strings")
			}
		}
	}

	if v, ok := obj["asset"]; ok {
		if _, isObject := v.(map[string]interface{}); !isObject {
			return txerror.New(txerror.CodeMalformedTransaction, "field \"asset\" must be an object")
		}
	}
	return nil
}

// requireUint enforces that a present numeric field is a plain non-negative
// integer no greater than max. Fractional and scientific-notation renderings
// are rejected even when their value would be integral.
func requireUint(obj map[string]interface{}, field string, max uint64) error {
	v, ok := obj[field]
	if !ok {
		return nil
	}
	num, isNumber := v.(json.Number)
	if !isNumber {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q must be a number", field)
	}
	s := num.String()
	if strings.ContainsAny(s, ".eE+") {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q must be a plain integer: %s", field, s)
	}
	if strings.HasPrefix(s, "-") {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q must be non-negative: %s", field, s)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q out of range: %s", field, s)
	}
	if n > max {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q exceeds maximum %d: %s", field, max, s)
	}
	return nil
}

func requireHex(obj map[string]interface{}, field string, length int) error {
	v, ok := obj[field]
	if !ok {
		return nil
	}
	s, isString := v.(string)
	if !isString || !common.IsHex(s, length) {
		return txerror.Newf(txerror.CodeMalformedTransaction, "field %q must be a %d-char hex string", field, length)
	}
	return nil
}
