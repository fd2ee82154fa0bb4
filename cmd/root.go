package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianchain/mrdn/logx"
)

var rootCmd = &cobra.Command{
	Use:   "mrdn",
	Short: "Meridian transaction core CLI",
	Long:  "Offline tooling for building, signing and inspecting Meridian transactions.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed: ", err)
		os.Exit(1)
	}
}
