package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianchain/mrdn/common"
	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/jsonx"
	"github.com/meridianchain/mrdn/slot"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/transaction"
	"github.com/meridianchain/mrdn/txhandler"
	"github.com/meridianchain/mrdn/types"
)

var (
	chainConfigPath string
	passphrase      string
	secondPass      string
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Build, sign and inspect transactions offline",
}

var txIDCmd = &cobra.Command{
	Use:   "id <file>",
	Short: "Compute the canonical id of a transaction JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := offlineEngine()
		if err != nil {
			return err
		}
		trs, err := readTransaction(args[0])
		if err != nil {
			return err
		}
		id, err := engine.GetID(trs)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var txSignCmd = &cobra.Command{
	Use:   "sign <file>",
	Short: "Sign a transaction JSON file with a passphrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if passphrase == "" {
			return fmt.Errorf("--passphrase is required")
		}
		engine, err := offlineEngine()
		if err != nil {
			return err
		}
		trs, err := readTransaction(args[0])
		if err != nil {
			return err
		}

		keypair := types.KeypairFromPassphrase(passphrase)
		trs.SenderPublicKey = keypair.PublicKeyHex()
		trs.Signature = ""
		trs.SignSignature = ""
		if trs.Signature, err = engine.Sign(keypair, trs); err != nil {
			return err
		}
		if secondPass != "" {
			second := types.KeypairFromPassphrase(secondPass)
			if trs.SignSignature, err = engine.Sign(second, trs); err != nil {
				return err
			}
		}
		if trs.ID, err = engine.GetID(trs); err != nil {
			return err
		}

		out, err := jsonx.MarshalIndent(trs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var txVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check the primary signature of a signed transaction (the second signature is not checked)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := offlineEngine()
		if err != nil {
			return err
		}
		trs, err := readTransaction(args[0])
		if err != nil {
			return err
		}

		primaryKey := trs.SenderPublicKey
		if trs.RequesterPublicKey != "" {
			primaryKey = trs.RequesterPublicKey
		}
		if !engine.VerifySignature(trs, primaryKey, trs.Signature) {
			return fmt.Errorf("signature verification failed")
		}
		fmt.Println("signature ok")
		return nil
	},
}

var txAddressCmd = &cobra.Command{
	Use:   "address <publicKeyHex>",
	Short: "Derive the account address of a public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParams()
		if err != nil {
			return err
		}
		addr, err := common.AddressFromPublicKeyHex(args[0], params.Suffix())
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

func init() {
	txCmd.PersistentFlags().StringVar(&chainConfigPath, "chain-config", "", "chain.yml path (defaults to mainnet constants)")
	txSignCmd.Flags().StringVar(&passphrase, "passphrase", "", "sender passphrase")
	txSignCmd.Flags().StringVar(&secondPass, "second-passphrase", "", "optional second passphrase")
	txCmd.AddCommand(txIDCmd, txSignCmd, txVerifyCmd, txAddressCmd)
	rootCmd.AddCommand(txCmd)
}

func loadParams() (*config.ChainParams, error) {
	if chainConfigPath == "" {
		return config.DefaultChainParams(), nil
	}
	return config.LoadChainParams(chainConfigPath)
}

// offlineEngine wires a full engine over throwaway in-memory stores: enough
// for codec, id and signature work without touching a node's data.
func offlineEngine() (*transaction.Engine, error) {
	params, err := loadParams()
	if err != nil {
		return nil, err
	}
	provider := db.NewMemoryProvider()
	accounts, err := store.NewGenericAccountStore(provider)
	if err != nil {
		return nil, err
	}
	ledger, err := store.NewKVTxLedger(provider)
	if err != nil {
		return nil, err
	}
	cal := slot.NewCalendar(params.Epoch, params.SlotInterval(), params.DelegatesPerRound)
	registry := transaction.NewRegistry()
	if err := txhandler.Register(registry, params, accounts); err != nil {
		return nil, err
	}
	return transaction.NewEngine(params, cal, registry, accounts, ledger), nil
}

func readTransaction(path string) (*types.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction file: %w", err)
	}
	trs := &types.Transaction{}
	if err := jsonx.Unmarshal(data, trs); err != nil {
		return nil, fmt.Errorf("failed to decode transaction file: %w", err)
	}
	return trs, nil
}
