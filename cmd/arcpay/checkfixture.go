package arcpay

import (
	"github.com/spf13/cobra"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/sdk/evm"
)

func newCheckFixtureCmd() *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "check-fixture",
		Short: "Cross-check a recorded fixture against this implementation",
		Long: `Recompute the operation identifier for a recorded fixture and compare it to
the recorded one. Any mismatch is an encoding-contract break and exits
nonzero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := arcpaylib.LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			result, err := arcpaylib.CheckFixture(fixture, evm.NewDecoder())
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"opId":      result.OpID,
				"salt_used": result.Salt,
				"match":     true,
			})
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "Path to the fixture file to check")
	cmd.MarkFlagRequired("fixture")

	return cmd
}
