package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/zcta-census/internal/census"
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Print the state and ZCTAs every query covers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s := census.CookCounty()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "state: %d\n", s.State)
		fmt.Fprintf(out, "zctas (%d): %s\n", len(s.ZCTAs), strings.Join(s.ZCTAs, ","))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scopeCmd)
}
