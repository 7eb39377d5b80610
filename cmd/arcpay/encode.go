package arcpay

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/sdk/evm"
	"github.com/arcadia-pay/arcpay/types"
)

type encodeOutput struct {
	Data      hexutil.Bytes    `json:"data"`
	Selector  hexutil.Bytes    `json:"selector"`
	OpID      *common.Hash     `json:"opId,omitempty"`
	SaltUsed  *common.Hash     `json:"salt_used,omitempty"`
	Signature *types.Signature `json:"signature,omitempty"`
	SignerID  string           `json:"signer_kid,omitempty"`
}

func newEncodeCmd() *cobra.Command {
	var (
		signature   string
		argsJSON    string
		target      string
		value       string
		predecessor string
		salt        string
		signOpID    bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a function call and compute its operation identifier",
		Long: `Encode a function call from its signature and JSON arguments. With --target
the operation identifier and salt are computed as the timelock would; with
--sign the identifier is signed with the configured signer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			schema, err := evm.ParseSignature(signature)
			if err != nil {
				return err
			}

			var callArgs []any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &callArgs); err != nil {
					return fmt.Errorf("invalid --args: %w", err)
				}
			}

			data, err := schema.Pack(callArgs)
			if err != nil {
				return err
			}

			out := encodeOutput{Data: data, Selector: schema.Selector()}

			if target != "" {
				if !common.IsHexAddress(target) {
					return fmt.Errorf("invalid --target %q", target)
				}

				callValue, err := parseValueFlag(value)
				if err != nil {
					return err
				}
				pred, err := parseHashFlag(predecessor)
				if err != nil {
					return fmt.Errorf("invalid --predecessor: %w", err)
				}
				saltHash, err := parseHashFlag(salt)
				if err != nil {
					return fmt.Errorf("invalid --salt: %w", err)
				}

				result, err := arcpaylib.ComputeSingleOpID(types.Operation{
					Target:      common.HexToAddress(target),
					Value:       callValue,
					Data:        data,
					Predecessor: pred,
					Salt:        saltHash,
				})
				if err != nil {
					return err
				}
				out.OpID = &result.OpID
				out.SaltUsed = &result.Salt

				if signOpID {
					signer, err := loadSigner(cmd)
					if err != nil {
						return err
					}
					sig, err := signer.SignOperationID(cmd.Context(), result.OpID)
					if err != nil {
						return err
					}
					out.Signature = &sig
					out.SignerID = signer.ID()
				}
			}

			return printJSON(cmd, out)
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "Function signature, e.g. 'setFeeBps(uint256)'")
	cmd.Flags().StringVar(&argsJSON, "args", "", "Function arguments as a JSON array")
	cmd.Flags().StringVar(&target, "target", "", "Target contract address")
	cmd.Flags().StringVar(&value, "value", "", "Call value in wei (default 0)")
	cmd.Flags().StringVar(&predecessor, "predecessor", "", "Predecessor operation identifier")
	cmd.Flags().StringVar(&salt, "salt", "", "Explicit salt; omitted salts are derived from the operation")
	cmd.Flags().BoolVar(&signOpID, "sign", false, "Sign the computed identifier with the configured signer")
	cmd.MarkFlagRequired("signature")

	return cmd
}
