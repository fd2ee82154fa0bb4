package types

// Block is the minimal view of a containing block the transaction core
// consumes. Assembly and validation of full blocks live outside the core.
type Block struct {
	ID                 string `json:"id"`
	Height             uint64 `json:"height"`
	Timestamp          int32  `json:"timestamp"`
	GeneratorPublicKey string `json:"generatorPublicKey,omitempty"`
}
