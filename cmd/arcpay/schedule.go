package arcpay

import (
	"github.com/spf13/cobra"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

func newScheduleCmd() *cobra.Command {
	var (
		proposalPath string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a proposal on the timelock",
		Long: `Load a proposal file and schedule it on the timelock. Configure RPC_URL,
TIMELOCK_ADDRESS, CHAIN_ID and PRIVATE_KEY in a .env file. With --dry-run the
operation identifier is computed and printed without submitting anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			proposal, err := arcpaylib.LoadProposal(proposalPath)
			if err != nil {
				return err
			}

			result, err := proposal.Compute()
			if err != nil {
				return err
			}

			if dryRun {
				return printJSON(cmd, map[string]any{
					"opId":      result.OpID,
					"salt_used": result.Salt,
					"dry_run":   true,
				})
			}

			scheduler, err := loadScheduler()
			if err != nil {
				return err
			}

			lggr, err := newLogger()
			if err != nil {
				return err
			}
			auditLog, _, err := loadAuditLog(cmd, lggr)
			if err != nil {
				return err
			}
			ctx := sdk.WithLogger(cmd.Context(), lggr.Sugar())

			opID, err := proposal.Schedule(ctx, scheduler)
			if err != nil {
				return err
			}

			auditLog.Record(ctx, audit.Entry{
				Action: string(types.TimelockActionSchedule),
				Actor:  "cli",
				OpID:   opID,
				Salt:   &result.Salt,
			})

			return printJSON(cmd, map[string]any{
				"opId":      opID,
				"salt_used": result.Salt,
			})
		},
	}

	cmd.Flags().StringVar(&proposalPath, "proposal", "", "Path to the proposal file to schedule")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the operation identifier without submitting")
	cmd.MarkFlagRequired("proposal")

	return cmd
}
