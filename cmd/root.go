package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ratecheck",
	Short: "Freight load rate comparison against DAT market rates",
	Long:  "Takes load-search matches, looks up the DAT Rateview spot rate per lane, and reports broker-vs-market comparisons with driver pay estimates.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
