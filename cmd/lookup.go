package main

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/equipment"
	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
)

var (
	lookupOriginCity  string
	lookupOriginState string
	lookupDestCity    string
	lookupDestState   string
	lookupEquipment   string
	lookupToken       string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up the market rate for a single lane",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("lookup"); err != nil {
			return err
		}

		category, err := equipment.ParseCategory(strings.ToUpper(lookupEquipment))
		if err != nil {
			return err
		}

		token := lookupToken
		if token == "" {
			token = cfg.Rateview.AccessToken
		}
		if token == "" {
			return eris.New("no access token: pass --token or set RATECHECK_RATEVIEW_ACCESS_TOKEN")
		}

		resp, err := newRateviewClient().Lookup(cmd.Context(), token, rateview.LookupRequest{
			Origin:      rateview.Place{City: lookupOriginCity, StateOrProvince: lookupOriginState},
			Destination: rateview.Place{City: lookupDestCity, StateOrProvince: lookupDestState},
			Equipment:   string(category),
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupOriginCity, "origin-city", "", "origin city")
	lookupCmd.Flags().StringVar(&lookupOriginState, "origin-state", "", "origin state or province")
	lookupCmd.Flags().StringVar(&lookupDestCity, "dest-city", "", "destination city")
	lookupCmd.Flags().StringVar(&lookupDestState, "dest-state", "", "destination state or province")
	lookupCmd.Flags().StringVar(&lookupEquipment, "equipment", "VAN", "equipment category: VAN, REEFER or FLATBED")
	lookupCmd.Flags().StringVar(&lookupToken, "token", "", "Rateview access token (default from config)")
	lookupCmd.MarkFlagRequired("origin-city")
	lookupCmd.MarkFlagRequired("origin-state")
	lookupCmd.MarkFlagRequired("dest-city")
	lookupCmd.MarkFlagRequired("dest-state")
	rootCmd.AddCommand(lookupCmd)
}
