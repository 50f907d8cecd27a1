package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"susu-app-go/internal/app"
	"susu-app-go/internal/config"
	payoutsdomain "susu-app-go/internal/domain/payouts"
	"susu-app-go/pkg/logger"
)

type cliResult struct {
	GroupID       string `json:"group_id"`
	CycleNumber   int    `json:"cycle_number"`
	Position      int    `json:"position"`
	Outcome       string `json:"outcome"`
	BeneficiaryID string `json:"beneficiary_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

func payoutsCmd(log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payouts",
		Short: "Payout scheduler operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run a single payout tick and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(log)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(context.Background()); err != nil {
					log.Error("app: close failed", "err", err)
				}
			}()

			report, runErr := application.Scheduler().RunOnce(cmd.Context())
			if err := printReport(report); err != nil {
				return err
			}
			return runErr
		},
	})
	return cmd
}

func printReport(report payoutsdomain.TickReport) error {
	results := make([]cliResult, 0, len(report.Results))
	for _, result := range report.Results {
		item := cliResult{
			GroupID:       result.GroupID,
			CycleNumber:   result.CycleNumber,
			Position:      result.Position,
			Outcome:       string(result.Outcome),
			BeneficiaryID: result.BeneficiaryID,
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		results = append(results, item)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
