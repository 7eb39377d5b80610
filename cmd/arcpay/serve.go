package arcpay

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	arcpaylib "github.com/arcadia-pay/arcpay"
	"github.com/arcadia-pay/arcpay/internal/service"
	"github.com/arcadia-pay/arcpay/internal/watcher"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operator API and the event watcher",
		Long: `Run the operator HTTP API and, when ARCADIA_PAY_ADDRESS is set, the on-chain
event watcher against the same process. Configuration comes from a .env file
or the environment: API_ADDR, ADMIN_API_KEY, RPC_URL, TIMELOCK_ADDRESS,
ARCADIA_PAY_ADDRESS, ALERT_WEBHOOK, WATCH_START_BLOCK and the audit and
signer variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv()

			lggr, err := newLogger()
			if err != nil {
				return err
			}
			defer lggr.Sync() //nolint:errcheck

			addr := os.Getenv("API_ADDR")
			if addr == "" {
				addr = ":8000"
			}

			reg := prometheus.NewRegistry()

			auditLog, browser, err := loadAuditLog(cmd, lggr)
			if err != nil {
				return err
			}

			deps := service.Dependencies{
				Audit:   auditLog,
				Browser: browser,
			}

			// The chain-facing pieces are optional so the encode and audit
			// routes work without an RPC endpoint.
			if os.Getenv("RPC_URL") != "" && os.Getenv("TIMELOCK_ADDRESS") != "" {
				inspector, err := loadInspector()
				if err != nil {
					return err
				}
				deps.Inspector = inspector
				deps.Verifier = arcpaylib.NewVerifier(inspector)
			}

			if os.Getenv("PRIVATE_KEY") != "" || os.Getenv("SIGNER_TYPE") == "kms" {
				signer, err := loadSigner(cmd)
				if err != nil {
					return err
				}
				deps.Signer = signer
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			alerterOpts := []watcher.AlerterOption{}
			if webhook := os.Getenv("ALERT_WEBHOOK"); webhook != "" {
				alerterOpts = append(alerterOpts, watcher.WithWebhook(webhook))
			}
			watcherMetrics := watcher.NewMetrics(reg)
			alerter := watcher.NewAlerter(lggr, watcherMetrics, alerterOpts...)
			deps.Alerter = alerter

			if payAddr := os.Getenv("ARCADIA_PAY_ADDRESS"); payAddr != "" {
				w, err := buildWatcher(payAddr, lggr, alerter, watcherMetrics)
				if err != nil {
					return err
				}
				go func() {
					if err := w.Run(ctx); err != nil && ctx.Err() == nil {
						lggr.Error("watcher stopped", zap.Error(err))
					}
				}()
			}

			srv, err := service.NewServer(lggr, service.Config{
				Addr:   addr,
				APIKey: os.Getenv("ADMIN_API_KEY"),
			}, deps, reg)
			if err != nil {
				return err
			}

			return srv.Start(ctx)
		},
	}

	return cmd
}

func buildWatcher(
	payAddr string, lggr *zap.Logger, alerter *watcher.Alerter, metrics *watcher.Metrics,
) (*watcher.Watcher, error) {
	if !common.IsHexAddress(payAddr) {
		return nil, fmt.Errorf("invalid ARCADIA_PAY_ADDRESS %q", payAddr)
	}
	client, err := dialClient()
	if err != nil {
		return nil, err
	}

	opts := []watcher.Option{}
	if raw := os.Getenv("WATCH_START_BLOCK"); raw != "" {
		start, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid WATCH_START_BLOCK %q", raw)
		}
		opts = append(opts, watcher.WithStartBlock(start))
	}

	return watcher.New(client, common.HexToAddress(payAddr), lggr, alerter, metrics, opts...), nil
}
