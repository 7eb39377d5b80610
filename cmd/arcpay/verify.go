package arcpay

import (
	"time"

	"github.com/spf13/cobra"

	arcpaylib "github.com/arcadia-pay/arcpay"
)

func newVerifyCmd() *cobra.Command {
	var (
		opIDRaw  string
		interval time.Duration
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Poll the timelock until an operation is ready or done",
		Long: `Poll the pending/ready/done flags for an operation identifier until it
reaches a terminal state or the timeout elapses. Done counts as success: the
ready window already passed and the operation executed.`,
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

			verifier := arcpaylib.NewVerifier(inspector)
			result, err := verifier.Verify(cmd.Context(), opID, interval, timeout)
			if err != nil {
				return err
			}

			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&opIDRaw, "op-id", "", "Operation identifier to verify")
	cmd.Flags().DurationVar(&interval, "interval", arcpaylib.DefaultPollInterval, "Delay between polls")
	cmd.Flags().DurationVar(&timeout, "timeout", arcpaylib.DefaultVerifyTimeout, "Total polling budget")
	cmd.MarkFlagRequired("op-id")

	return cmd
}
