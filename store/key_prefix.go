package store

// Database key prefixes for persisted objects
const (
	PrefixAccount = "account:"

	// transaction rows are keyed "<table>:<row key>"; the main table is trs
	PrefixTrs = "trs:"
)
