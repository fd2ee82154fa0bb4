package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianchain/mrdn/config"
	"github.com/meridianchain/mrdn/db"
	"github.com/meridianchain/mrdn/logx"
	"github.com/meridianchain/mrdn/store"
	"github.com/meridianchain/mrdn/types"
)

var nodeConfigPath string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the node database and seed genesis accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chainConfigPath == "" {
			return fmt.Errorf("--chain-config is required")
		}
		params, err := config.LoadChainParams(chainConfigPath)
		if err != nil {
			return err
		}
		nodeCfg, err := config.LoadNodeConfig(nodeConfigPath)
		if err != nil {
			return err
		}
		logx.Init(logx.Options{
			Filename:  nodeCfg.Log.File,
			MaxSizeMB: nodeCfg.Log.MaxSizeMB,
			MaxAgeDay: nodeCfg.Log.MaxAgeDay,
		})

		provider, err := db.NewProvider(nodeCfg.DB)
		if err != nil {
			return err
		}
		accounts, err := store.NewGenericAccountStore(provider)
		if err != nil {
			provider.Close()
			return err
		}
		defer accounts.MustClose()

		// Open the archive too, so a misconfigured Postgres DSN fails at
		// init rather than on the first accepted block.
		archive, err := store.NewTxLedger(provider, nodeCfg.SQL)
		if err != nil {
			return fmt.Errorf("failed to open transaction archive: %w", err)
		}
		defer archive.MustClose()

		for _, genesis := range params.GenesisAccounts {
			existing, err := accounts.Get(genesis.Address)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("account already exists: %s", genesis.Address)
			}
			acc := &types.Account{
				Address:  genesis.Address,
				Balance:  genesis.Balance,
				UBalance: genesis.Balance,
			}
			if err := accounts.Set(acc); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", genesis.Address, err)
			}
			logx.Info("INIT", "seeded genesis account ", genesis.Address)
		}

		fmt.Printf("initialized %s backend at %s with %d genesis accounts\n",
			nodeCfg.DB.Backend, nodeCfg.DB.Path, len(params.GenesisAccounts))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&chainConfigPath, "chain-config", "", "chain.yml path")
	initCmd.Flags().StringVar(&nodeConfigPath, "node-config", "node.ini", "node.ini path")
	rootCmd.AddCommand(initCmd)
}
