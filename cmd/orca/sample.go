package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumina/orca/internal/domain"
)

// createSampleOpts mirror the §6 flags. create-sample writes a decision
// *request* skeleton rather than a full contract: everything downstream of
// a request (risk score, reasons, signing) only exists after the pipeline
// runs, so a hand-authored contract would either be fake or incomplete. The
// natural round trip is create-sample -> decide-file -> validate.
type createSampleOpts struct {
	amount   float64
	currency string
	channel  string
	modality string
	country  string
}

func newCreateSampleCmd() *cobra.Command {
	var opts createSampleOpts
	cmd := &cobra.Command{
		Use:   "create-sample <path>",
		Short: "Write a sample decision request to path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildSampleRequest(opts)
			if err != nil {
				return newUsageError("%w", err)
			}

			raw, err := json.MarshalIndent(req, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", args[0])
			return nil
		},
	}
	cmd.Flags().Float64Var(&opts.amount, "amount", 49.99, "cart_total")
	cmd.Flags().StringVar(&opts.currency, "currency", "USD", "currency")
	cmd.Flags().StringVar(&opts.channel, "channel", "web", "channel: web|pos")
	cmd.Flags().StringVar(&opts.modality, "modality", "immediate", "modality: immediate|deferred — selects the rail (Card for immediate, ACH for deferred)")
	cmd.Flags().StringVar(&opts.country, "country", "US", "billing_country")
	return cmd
}

func buildSampleRequest(opts createSampleOpts) (*domain.DecisionRequest, error) {
	var channel domain.Channel
	switch opts.channel {
	case "web":
		channel = domain.ChannelOnline
	case "pos":
		channel = domain.ChannelPOS
	default:
		return nil, fmt.Errorf("--channel must be web or pos, got %q", opts.channel)
	}

	var rail domain.Rail
	switch opts.modality {
	case "immediate":
		rail = domain.RailCard
	case "deferred":
		rail = domain.RailACH
	default:
		return nil, fmt.Errorf("--modality must be immediate or deferred, got %q", opts.modality)
	}

	return &domain.DecisionRequest{
		CartTotal: opts.amount,
		Currency:  opts.currency,
		Rail:      rail,
		Channel:   channel,
		Features:  map[string]any{},
		Context: &domain.RequestContext{
			BillingCountry:    opts.country,
			LocationIPCountry: opts.country,
		},
	}, nil
}
