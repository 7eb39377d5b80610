// Package audit records the operations this tooling computes and submits. The
// timelock contract is the authority on what eventually executes; the audit
// log preserves what an operator asked for and what identifier was computed at
// the time, so the two can be compared after the fact.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Entry is one recorded action.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Action    string           `json:"action"`
	Actor     string           `json:"actor,omitempty"`
	OpID      common.Hash      `json:"opId"`
	Salt      *common.Hash     `json:"salt,omitempty"`
	Targets   []common.Address `json:"targets,omitempty"`
	Datas     []hexutil.Bytes  `json:"datas,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// Sink persists audit entries.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Browser reads back persisted entries for operator display.
type Browser interface {
	// List returns up to limit entry keys, newest first.
	List(ctx context.Context, limit int) ([]string, error)

	// Get returns the entry stored under the given key.
	Get(ctx context.Context, key string) (*Entry, error)
}

// Log fans entries out to its sinks. A sink failure is logged and dropped;
// auditing never fails the operation being audited.
type Log struct {
	lggr  *zap.Logger
	clock clock.Clock
	sinks []Sink
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithClock replaces the wall clock used for entry timestamps.
func WithClock(c clock.Clock) LogOption {
	return func(l *Log) {
		l.clock = c
	}
}

// NewLog creates a Log writing to the given sinks.
func NewLog(lggr *zap.Logger, sinks []Sink, opts ...LogOption) *Log {
	l := &Log{
		lggr:  lggr,
		clock: clock.WallClock,
		sinks: sinks,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Record stamps and persists the entry. Missing ID and Timestamp fields are
// filled in; the returned entry is the one persisted.
func (l *Log) Record(ctx context.Context, entry Entry) Entry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clock.Now().UTC()
	}
	if entry.ID == "" {
		entry.ID = entryID(entry)
	}

	for _, sink := range l.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			l.lggr.Warn("audit append failed",
				zap.String("sink", fmt.Sprintf("%T", sink)),
				zap.String("entry", entry.ID),
				zap.Error(err),
			)
		}
	}

	return entry
}

// entryID builds a sortable key from the timestamp and identifier prefix.
func entryID(entry Entry) string {
	return fmt.Sprintf("%s-%s",
		entry.Timestamp.Format("20060102T150405.000000000Z"),
		hexutil.Encode(entry.OpID[:4])[2:],
	)
}
