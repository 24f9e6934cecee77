package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/equipment"
)

var equipmentCmd = &cobra.Command{
	Use:   "equipment CODE...",
	Short: "Show the Rateview category for DAT equipment codes",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, code := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", code, equipment.MapCode(code))
		}
	},
}

func init() {
	rootCmd.AddCommand(equipmentCmd)
}
