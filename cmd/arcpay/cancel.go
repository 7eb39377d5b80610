package arcpay

import (
	"github.com/spf13/cobra"

	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/types"
)

func newCancelCmd() *cobra.Command {
	var opIDRaw string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a pending timelock operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			opID, err := opIDFlag(opIDRaw)
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

			if err := scheduler.Cancel(cmd.Context(), opID); err != nil {
				return err
			}

			auditLog.Record(cmd.Context(), audit.Entry{
				Action: string(types.TimelockActionCancel),
				Actor:  "cli",
				OpID:   opID,
			})

			return printJSON(cmd, map[string]any{"opId": opID, "cancelled": true})
		},
	}

	cmd.Flags().StringVar(&opIDRaw, "op-id", "", "Operation identifier to cancel")
	cmd.MarkFlagRequired("op-id")

	return cmd
}
