// Package arcpay implements the operator CLI: calldata encoding, operation
// identifier computation, timelock status and verification, proposal
// scheduling, fixture cross-checks and the API server.
package arcpay

import (
	"github.com/spf13/cobra"
)

// BuildArcpayCmd assembles the root command.
func BuildArcpayCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "arcpay",
		Short: "Manage Arcadia timelock operations",
		Long:  ``,
	}

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newScheduleCmd())
	cmd.AddCommand(newExecuteCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newCheckFixtureCmd())
	cmd.AddCommand(newServeCmd())

	return &cmd
}
