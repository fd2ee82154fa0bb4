package types

// Row is a single insert produced by the persistence adapter. Columns and
// Values are index-aligned; Values[0] is the row key (the transaction id for
// the trs table, the transactionId for handler-contributed tables).
type Row struct {
	Table   string
	Columns []string
	Values  []interface{}
}
