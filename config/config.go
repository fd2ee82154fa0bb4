package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fees is the chain fee table in base units. Fees are computed by the type
// handlers, never chosen by the client.
type Fees struct {
	Transfer        uint64 `yaml:"transfer"`
	SecondSignature uint64 `yaml:"second_signature"`
	Delegate        uint64 `yaml:"delegate"`
	Vote            uint64 `yaml:"vote"`
	Multisignature  uint64 `yaml:"multisignature"` // per keysgroup member + 1
}

// ChainParams are the consensus constants. Immutable after load; every
// component receives them explicitly.
type ChainParams struct {
	TotalSupply               uint64    `yaml:"total_supply"`
	DelegatesPerRound         uint64    `yaml:"delegates_per_round"`
	SlotIntervalSeconds       uint64    `yaml:"slot_interval_seconds"`
	Epoch                     time.Time `yaml:"epoch"`
	AddressSuffix             string    `yaml:"address_suffix"`
	GenesisBlockID            string    `yaml:"genesis_block_id"`
	MaxVotesPerTransaction    int       `yaml:"max_votes_per_transaction"`
	Fees                      Fees      `yaml:"fees"`
	SenderPublicKeyExceptions []string  `yaml:"sender_public_key_exceptions"`

	GenesisAccounts []GenesisAccount `yaml:"genesis_accounts"`
}

// GenesisAccount is an initial balance allocation seeded at chain init.
type GenesisAccount struct {
	Address string `yaml:"address"`
	Balance int64  `yaml:"balance"`
}

// SlotInterval returns the slot duration.
func (p *ChainParams) SlotInterval() time.Duration {
	return time.Duration(p.SlotIntervalSeconds) * time.Second
}

// Suffix returns the address suffix character.
func (p *ChainParams) Suffix() byte {
	return p.AddressSuffix[0]
}

// IsSenderPublicKeyException reports whether a transaction id is
// grandfathered from the sender-public-key check.
func (p *ChainParams) IsSenderPublicKeyException(txID string) bool {
	for _, id := range p.SenderPublicKeyExceptions {
		if id == txID {
			return true
		}
	}
	return false
}

// Validate rejects parameter sets that cannot drive the core.
func (p *ChainParams) Validate() error {
	if p.TotalSupply == 0 {
		return fmt.Errorf("total_supply must be positive")
	}
	if p.DelegatesPerRound == 0 {
		return fmt.Errorf("delegates_per_round must be positive")
	}
	if p.SlotIntervalSeconds == 0 {
		return fmt.Errorf("slot_interval_seconds must be positive")
	}
	if len(p.AddressSuffix) != 1 || (p.AddressSuffix[0] >= '0' && p.AddressSuffix[0] <= '9') {
		return fmt.Errorf("address_suffix must be a single non-digit character")
	}
	if p.GenesisBlockID == "" {
		return fmt.Errorf("genesis_block_id must be set")
	}
	return nil
}

type chainFile struct {
	Chain ChainParams `yaml:"chain"`
}

// LoadChainParams reads and validates chain.yml.
func LoadChainParams(path string) (*ChainParams, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain config: %w", err)
	}
	defer file.Close()

	var cf chainFile
	if err := yaml.NewDecoder(file).Decode(&cf); err != nil {
		return nil, fmt.Errorf("failed to decode chain config: %w", err)
	}
	applyDefaults(&cf.Chain)
	if err := cf.Chain.Validate(); err != nil {
		return nil, err
	}
	return &cf.Chain, nil
}

func applyDefaults(p *ChainParams) {
	d := DefaultChainParams()
	if p.DelegatesPerRound == 0 {
		p.DelegatesPerRound = d.DelegatesPerRound
	}
	if p.SlotIntervalSeconds == 0 {
		p.SlotIntervalSeconds = d.SlotIntervalSeconds
	}
	if p.Epoch.IsZero() {
		p.Epoch = d.Epoch
	}
	if p.AddressSuffix == "" {
		p.AddressSuffix = d.AddressSuffix
	}
	if p.MaxVotesPerTransaction == 0 {
		p.MaxVotesPerTransaction = d.MaxVotesPerTransaction
	}
	if p.Fees == (Fees{}) {
		p.Fees = d.Fees
	}
}

// DefaultChainParams returns the mainnet constants. Tests and the offline
// CLI run against these when no chain.yml is given.
func DefaultChainParams() *ChainParams {
	return &ChainParams{
		TotalSupply:            10_000_000_000_000_000,
		DelegatesPerRound:      101,
		SlotIntervalSeconds:    10,
		Epoch:                  time.Date(2020, time.March, 10, 12, 0, 0, 0, time.UTC),
		AddressSuffix:          "M",
		GenesisBlockID:         "6524861224470851795",
		MaxVotesPerTransaction: 33,
		Fees: Fees{
			Transfer:        10_000_000,
			SecondSignature: 500_000_000,
			Delegate:        2_500_000_000,
			Vote:            100_000_000,
			Multisignature:  500_000_000,
		},
	}
}
