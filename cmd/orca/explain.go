package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumina/orca/internal/domain"
	"lumina/orca/internal/explain"
)

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <path>",
		Short: "Print the deterministic narrative for a decision contract file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return newUsageError("read %s: %w", args[0], err)
			}
			var c domain.DecisionContract
			if err := json.Unmarshal(raw, &c); err != nil {
				return newUsageError("parse %s: %w", args[0], err)
			}

			narrative := explain.Narrative(c.Decision.Result, c.Decision.Reasons, cartAmount(c), c.Decision.RiskScore)
			fmt.Fprintln(cmd.OutOrStdout(), narrative)
			return nil
		},
	}
}

func cartAmount(c domain.DecisionContract) float64 {
	var amount float64
	fmt.Sscanf(c.Cart.Amount, "%f", &amount)
	return amount
}
