package arcpay

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/arcadia-pay/arcpay/sdk/evm"
)

func newDecodeCmd() *cobra.Command {
	var (
		signature string
		dataRaw   string
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Structurally decode a calldata payload",
		Long: `Check a calldata payload against a declared function signature and print the
decoded arguments. The selector must match and the argument block must decode
cleanly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hexutil.Decode(dataRaw)
			if err != nil {
				return err
			}

			call, err := evm.NewDecoder().Decode(data, signature)
			if err != nil {
				return err
			}

			formatted, err := evm.FormatCall(call)
			if err != nil {
				return err
			}

			cmd.Printf("%s %s\n", call.MethodName, formatted)

			return nil
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Declared function signature")
	cmd.Flags().StringVar(&dataRaw, "data", "", "Calldata payload as 0x-prefixed hex")
	cmd.MarkFlagRequired("signature")
	cmd.MarkFlagRequired("data")

	return cmd
}
