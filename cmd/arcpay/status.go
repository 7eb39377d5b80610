package arcpay

import (
	"github.com/spf13/cobra"

	"github.com/arcadia-pay/arcpay/types"
)

func newStatusCmd() *cobra.Command {
	var opIDRaw string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Read the timelock state of an operation",
		Long:  `Configure RPC_URL and TIMELOCK_ADDRESS in a .env file and read the pending/ready/done flags for an operation identifier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			opID, err := opIDFlag(opIDRaw)
			if err != nil {
				return err
			}

			inspector, err := loadInspector()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			exists, err := inspector.IsOperation(ctx, opID)
			if err != nil {
				return err
			}
			pending, err := inspector.IsOperationPending(ctx, opID)
			if err != nil {
				return err
			}
			ready, err := inspector.IsOperationReady(ctx, opID)
			if err != nil {
				return err
			}
			done, err := inspector.IsOperationDone(ctx, opID)
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"opId":    opID,
				"exists":  exists,
				"state":   types.StateFromFlags(pending, ready, done),
				"pending": pending,
				"ready":   ready,
				"done":    done,
			})
		},
	}

	cmd.Flags().StringVar(&opIDRaw, "op-id", "", "Operation identifier to query")
	cmd.MarkFlagRequired("op-id")

	return cmd
}
