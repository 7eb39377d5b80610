// Package watcher follows the ArcadiaPay contract's invoice events on chain
// and raises alerts for anomalous activity. It observes only; nothing here
// mutates chain state.
package watcher

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/arcadia-pay/arcpay/internal/utils/safecast"
)

// DefaultPollInterval is the delay between block polls.
const DefaultPollInterval = 2 * time.Second

// LogSource is the slice of the ethclient API the watcher uses.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
}

// Watcher polls for new blocks and decodes the ArcadiaPay invoice events they
// carry.
type Watcher struct {
	source   LogSource
	contract common.Address
	lggr     *zap.Logger
	clock    clock.Clock
	alerter  *Alerter
	metrics  *Metrics
	interval time.Duration

	lastBlock uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPollInterval replaces the default poll interval.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Watcher) {
		w.interval = interval
	}
}

// WithClock replaces the wall clock, letting tests drive the poll loop.
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) {
		w.clock = c
	}
}

// WithStartBlock sets the block after which events are processed. Without it
// the watcher starts at the chain head on the first poll.
func WithStartBlock(block uint64) Option {
	return func(w *Watcher) {
		w.lastBlock = block
	}
}

// New creates a Watcher for the given contract.
func New(
	source LogSource, contract common.Address, lggr *zap.Logger, alerter *Alerter, metrics *Metrics, opts ...Option,
) *Watcher {
	w := &Watcher{
		source:   source,
		contract: contract,
		lggr:     lggr,
		clock:    clock.WallClock,
		alerter:  alerter,
		metrics:  metrics,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run polls until the context is cancelled. Poll failures are counted and
// logged; the loop keeps going and re-reads the same range next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if w.lastBlock == 0 {
		head, err := w.source.BlockNumber(ctx)
		if err != nil {
			return err
		}
		w.lastBlock = head
	}
	w.lggr.Info("watcher started",
		zap.String("contract", w.contract.Hex()),
		zap.Uint64("from_block", w.lastBlock),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.clock.After(w.interval):
		}

		if err := w.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.metrics.PollErrorsTotal.Inc()
			w.lggr.Warn("poll failed", zap.Error(err))
		}
	}
}

// poll processes every block between the last seen head and the current one.
func (w *Watcher) poll(ctx context.Context) error {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if head <= w.lastBlock {
		return nil
	}

	from, err := safecast.Uint64ToInt64(w.lastBlock + 1)
	if err != nil {
		return err
	}
	to, err := safecast.Uint64ToInt64(head)
	if err != nil {
		return err
	}

	logs, err := w.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(from),
		ToBlock:   big.NewInt(to),
		Addresses: []common.Address{w.contract},
	})
	if err != nil {
		return err
	}

	perBlock := map[uint64]int{}
	for _, log := range logs {
		perBlock[log.BlockNumber]++
		w.handleLog(ctx, log)
	}
	for block, count := range perBlock {
		w.alerter.OnBlock(ctx, block, count)
	}

	w.lastBlock = head
	w.metrics.LastBlock.Set(float64(head))

	return nil
}

func (w *Watcher) handleLog(ctx context.Context, log ethtypes.Log) {
	event, err := DecodeLog(log)
	if err != nil {
		w.lggr.Warn("undecodable contract log",
			zap.Uint64("block", log.BlockNumber),
			zap.String("tx", log.TxHash.Hex()),
			zap.Error(err),
		)

		return
	}
	if event == nil {
		return
	}

	w.metrics.EventsTotal.WithLabelValues(event.Name).Inc()
	w.lggr.Info("invoice event",
		zap.String("event", event.Name),
		zap.Uint64("block", event.BlockNumber),
		zap.String("tx", event.TxHash.Hex()),
	)
	w.alerter.OnEvent(ctx, event)
}
