package arcpay

import (
	"github.com/spf13/cobra"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/sdk"
	"github.com/arcadia-pay/arcpay/types"
)

func newExecuteCmd() *cobra.Command {
	var proposalPath string

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute a ready proposal on the timelock",
		Long: `Load a proposal file and execute it on the timelock. The operation must be
scheduled and past its delay; use verify to wait for readiness first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			proposal, err := arcpaylib.LoadProposal(proposalPath)
			if err != nil {
				return err
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

			opID, err := proposal.Execute(ctx, scheduler)
			if err != nil {
				return err
			}

			auditLog.Record(ctx, audit.Entry{
				Action: string(types.TimelockActionExecute),
				Actor:  "cli",
				OpID:   opID,
			})

			return printJSON(cmd, map[string]any{"opId": opID})
		},
	}

	cmd.Flags().StringVar(&proposalPath, "proposal", "", "Path to the proposal file to execute")
	cmd.MarkFlagRequired("proposal")

	return cmd
}
