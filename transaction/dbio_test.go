package transaction_test

import (
	"strings"
	"testing"
)

func TestDBSaveProducesTrsRowFirst(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("dbsave sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "55L", 7)
	trs.BlockID = "b42"
	trs.Signatures = []string{strings.Repeat("aa", 64), strings.Repeat("bb", 64)}

	rows, err := env.engine.DBSave(trs)
	if err != nil {
		t.Fatalf("DBSave: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("row count = %d, want 1 for a transfer", len(rows))
	}
	row := rows[0]
	if row.Table != "trs" {
		t.Errorf("table = %q", row.Table)
	}
	if row.Values[0] != trs.ID {
		t.Errorf("first value = %v, want id", row.Values[0])
	}

	// sender public key persists as raw bytes
	pk, ok := row.Values[4].([]byte)
	if !ok || len(pk) != 32 {
		t.Errorf("senderPublicKey value = %T", row.Values[4])
	}
	// signatures persist comma-joined
	joined, ok := row.Values[len(row.Values)-1].(string)
	if !ok || !strings.Contains(joined, ",") {
		t.Errorf("signatures value = %v", row.Values[len(row.Values)-1])
	}
}

func TestDBSaveIncludesHandlerRows(t *testing.T) {
	env := newTestEnv(t)
	trs := env.signedSecondSignature(t, keypairFor("dbsave second sig"))

	rows, err := env.engine.DBSave(trs)
	if err != nil {
		t.Fatalf("DBSave: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want trs + signatures", len(rows))
	}
	if rows[1].Table != "signatures" {
		t.Errorf("handler row table = %q", rows[1].Table)
	}
}

func TestDBReadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	keypair := keypairFor("dbread sender")
	sender := env.seedAccount(t, keypair, 1_000_000_000)
	trs := env.signedTransfer(t, keypair, sender, "55L", 7)
	trs.BlockID = "b42"

	raw := map[string]interface{}{
		"t_id":              trs.ID,
		"t_blockId":         trs.BlockID,
		"b_height":          "12",
		"t_type":            "0",
		"t_timestamp":       "141738",
		"t_senderPublicKey": trs.SenderPublicKey,
		"t_senderId":        trs.SenderID,
		"t_recipientId":     trs.RecipientID,
		"t_amount":          "7",
		"t_fee":             "10000000",
		"t_signature":       trs.Signature,
		"confirmations":     "3",
	}
	got, err := env.engine.DBRead(raw)
	if err != nil {
		t.Fatalf("DBRead: %v", err)
	}
	if got == nil {
		t.Fatal("DBRead returned nil for a present row")
	}
	if got.ID != trs.ID || got.Amount != 7 || got.Timestamp != 141738 || got.Height != 12 {
		t.Errorf("materialized tx: %+v", got)
	}
	if got.Confirmations != 3 {
		t.Errorf("confirmations = %d", got.Confirmations)
	}
}

func TestDBReadNilWithoutID(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.engine.DBRead(map[string]interface{}{"b_height": "7"})
	if err != nil {
		t.Fatalf("DBRead: %v", err)
	}
	if got != nil {
		t.Fatalf("DBRead = %+v, want nil", got)
	}
}

func TestDBReadSplitsSignatures(t *testing.T) {
	env := newTestEnv(t)
	sigA, sigB := strings.Repeat("aa", 64), strings.Repeat("bb", 64)
	raw := map[string]interface{}{
		"t_id":              "123",
		"t_type":            "0",
		"t_senderPublicKey": strings.Repeat("11", 32),
		"t_signatures":      sigA + "," + sigB,
	}
	got, err := env.engine.DBRead(raw)
	if err != nil {
		t.Fatalf("DBRead: %v", err)
	}
	if len(got.Signatures) != 2 || got.Signatures[0] != sigA || got.Signatures[1] != sigB {
		t.Errorf("signatures = %v", got.Signatures)
	}
}
