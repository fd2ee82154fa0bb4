package txhandler

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// Archive row values arrive either as raw bytes (SQL drivers) or as the
// strings the key-value ledger stored.

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

func rowUint32(raw map[string]interface{}, column string) (uint32, error) {
	v, ok := raw[column]
	if !ok || v == nil {
		return 0, nil
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %q", column, s)
	}
	return uint32(n), nil
}
