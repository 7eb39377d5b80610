package arcpay

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/audit"
	"github.com/arcadia-pay/arcpay/sdk/evm"
)

// loadEnv loads the .env file when present; a missing file is fine, the
// variables may come from the environment directly.
func loadEnv() {
	_ = godotenv.Load(".env")
}

func requireEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%s not set (in .env or the environment)", name)
	}

	return value, nil
}

func loadPrivateKey() (*ecdsa.PrivateKey, error) {
	pk, err := requireEnv("PRIVATE_KEY")
	if err != nil {
		return nil, err
	}

	return crypto.HexToECDSA(pk)
}

func dialClient() (*ethclient.Client, error) {
	rpcURL, err := requireEnv("RPC_URL")
	if err != nil {
		return nil, err
	}

	return ethclient.Dial(rpcURL)
}

func timelockAddress() (common.Address, error) {
	raw, err := requireEnv("TIMELOCK_ADDRESS")
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid TIMELOCK_ADDRESS %q", raw)
	}

	return common.HexToAddress(raw), nil
}

// loadInspector dials the RPC endpoint and binds an inspector to the
// configured timelock.
func loadInspector() (*evm.TimelockInspector, error) {
	client, err := dialClient()
	if err != nil {
		return nil, err
	}
	address, err := timelockAddress()
	if err != nil {
		return nil, err
	}

	return evm.NewTimelockInspector(address, client)
}

// loadScheduler additionally binds the transacting key from PRIVATE_KEY and
// CHAIN_ID.
func loadScheduler() (*evm.TimelockScheduler, error) {
	client, err := dialClient()
	if err != nil {
		return nil, err
	}
	address, err := timelockAddress()
	if err != nil {
		return nil, err
	}
	pk, err := loadPrivateKey()
	if err != nil {
		return nil, err
	}

	chainIDRaw, err := requireEnv("CHAIN_ID")
	if err != nil {
		return nil, err
	}
	chainID, err := strconv.ParseInt(chainIDRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID %q", chainIDRaw)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(pk, big.NewInt(chainID))
	if err != nil {
		return nil, err
	}

	return evm.NewTimelockScheduler(address, client, opts)
}

// loadSigner builds the opId signer selected by SIGNER_TYPE: "local" uses
// PRIVATE_KEY, "kms" uses KMS_KEY_ID through AWS KMS.
func loadSigner(cmd *cobra.Command) (arcpaylib.Signer, error) {
	switch signerType := os.Getenv("SIGNER_TYPE"); signerType {
	case "", "local":
		pk, err := loadPrivateKey()
		if err != nil {
			return nil, err
		}

		return arcpaylib.NewPrivateKeySigner(pk), nil
	case "kms":
		keyID, err := requireEnv("KMS_KEY_ID")
		if err != nil {
			return nil, err
		}
		awsCfg, err := config.LoadDefaultConfig(cmd.Context())
		if err != nil {
			return nil, err
		}

		return arcpaylib.NewKMSSigner(cmd.Context(), kms.NewFromConfig(awsCfg), keyID)
	default:
		return nil, fmt.Errorf("unknown SIGNER_TYPE %q", signerType)
	}
}

// loadAuditLog assembles the audit sinks: the local JSONL file always, S3 when
// AUDIT_S3_BUCKET is set. The returned browser reads from S3 when available,
// the local file otherwise.
func loadAuditLog(cmd *cobra.Command, lggr *zap.Logger) (*audit.Log, audit.Browser, error) {
	localPath := os.Getenv("AUDIT_LOG_LOCAL")
	if localPath == "" {
		localPath = "timelock_audit.jsonl"
	}
	fileSink := audit.NewFileSink(localPath)
	sinks := []audit.Sink{fileSink}

	var browser audit.Browser = fileSink
	if bucket := os.Getenv("AUDIT_S3_BUCKET"); bucket != "" {
		prefix := os.Getenv("AUDIT_S3_PREFIX")
		if prefix == "" {
			prefix = "timelock-audit"
		}
		awsCfg, err := config.LoadDefaultConfig(cmd.Context())
		if err != nil {
			return nil, nil, err
		}
		s3Sink := audit.NewS3Sink(s3.NewFromConfig(awsCfg), bucket, prefix)
		sinks = append(sinks, s3Sink)
		browser = s3Sink
	}

	return audit.NewLog(lggr, sinks), browser, nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_DEV") == "true" {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// parseHashFlag decodes an optional 32-byte hex flag value.
func parseHashFlag(raw string) (*common.Hash, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent flag
	}
	if !(len(raw) == 2+2*common.HashLength && raw[:2] == "0x") {
		return nil, errors.New("must be a 0x-prefixed 32-byte hex string")
	}
	h := common.HexToHash(raw)

	return &h, nil
}

// parseValueFlag decodes a decimal big integer flag value.
func parseValueFlag(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid value %q", raw)
	}

	return value, nil
}

func printJSON(cmd *cobra.Command, payload any) error {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))

	return nil
}

// opIDFlag parses the --op-id flag every read command shares.
func opIDFlag(raw string) (common.Hash, error) {
	h, err := parseHashFlag(raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid --op-id: %w", err)
	}
	if h == nil {
		return common.Hash{}, errors.New("--op-id is required")
	}

	return *h, nil
}
