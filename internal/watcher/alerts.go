package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"
)

const (
	// HighFeeThresholdBps flags invoices whose protocol fee exceeds 5% of
	// the paid amount.
	HighFeeThresholdBps = 500

	// HighActivityLogThreshold flags blocks carrying an unusual number of
	// invoice events.
	HighActivityLogThreshold = 100

	// maxRetainedAlerts bounds the in-memory alert buffer.
	maxRetainedAlerts = 256

	webhookTimeout = 3 * time.Second
)

// Alert levels.
const (
	AlertLevelInfo    = "info"
	AlertLevelWarning = "warning"
)

// Alert is one evaluated anomaly.
type Alert struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	InvoiceID string    `json:"invoice_id,omitempty"`
}

// Alerter evaluates decoded invoice events against anomaly heuristics and
// fans resulting alerts out to the log, metrics, an in-memory ring for the
// API, and an optional webhook.
type Alerter struct {
	lggr       *zap.Logger
	clock      clock.Clock
	webhookURL string
	httpClient *http.Client
	metrics    *Metrics

	mu     sync.Mutex
	alerts []Alert
}

// AlerterOption configures an Alerter.
type AlerterOption func(*Alerter)

// WithWebhook forwards every alert to the given URL as a JSON POST.
func WithWebhook(url string) AlerterOption {
	return func(a *Alerter) {
		a.webhookURL = url
	}
}

// WithAlerterClock replaces the wall clock used for alert timestamps.
func WithAlerterClock(c clock.Clock) AlerterOption {
	return func(a *Alerter) {
		a.clock = c
	}
}

// NewAlerter creates an Alerter.
func NewAlerter(lggr *zap.Logger, metrics *Metrics, opts ...AlerterOption) *Alerter {
	a := &Alerter{
		lggr:       lggr,
		clock:      clock.WallClock,
		httpClient: &http.Client{Timeout: webhookTimeout},
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// OnEvent evaluates one decoded event.
func (a *Alerter) OnEvent(ctx context.Context, event *Event) {
	paid, ok := event.Payload.(InvoicePaid)
	if !ok {
		return
	}

	if isHighFee(paid.Amount, paid.Fee) {
		a.push(ctx, Alert{
			Level:     AlertLevelInfo,
			Message:   fmt.Sprintf("high fee on invoice %s: %s of %s", paid.ID, paid.Fee, paid.Amount),
			InvoiceID: paid.ID.String(),
		})
	}
}

// OnBlock evaluates per-block aggregates.
func (a *Alerter) OnBlock(ctx context.Context, blockNumber uint64, logCount int) {
	if logCount > HighActivityLogThreshold {
		a.push(ctx, Alert{
			Level:   AlertLevelWarning,
			Message: fmt.Sprintf("high activity block %d: %d invoice events", blockNumber, logCount),
		})
	}
}

// Recent returns the retained alerts, newest first.
func (a *Alerter) Recent() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Alert, len(a.alerts))
	for i, alert := range a.alerts {
		out[len(a.alerts)-1-i] = alert
	}

	return out
}

func (a *Alerter) push(ctx context.Context, alert Alert) {
	alert.Timestamp = a.clock.Now().UTC()

	a.mu.Lock()
	a.alerts = append(a.alerts, alert)
	if len(a.alerts) > maxRetainedAlerts {
		a.alerts = a.alerts[len(a.alerts)-maxRetainedAlerts:]
	}
	a.mu.Unlock()

	a.lggr.Warn("invoice alert",
		zap.String("level", alert.Level),
		zap.String("msg", alert.Message),
		zap.String("invoice", alert.InvoiceID),
	)
	if a.metrics != nil {
		a.metrics.AlertsTotal.WithLabelValues(alert.Level).Inc()
	}

	if a.webhookURL != "" {
		a.forward(ctx, alert)
	}
}

// forward posts the alert to the webhook. Delivery is best effort; a webhook
// failure never blocks event processing beyond the client timeout.
func (a *Alerter) forward(ctx context.Context, alert Alert) {
	body, err := json.Marshal(alert)
	if err != nil {
		a.lggr.Warn("failed to marshal alert", zap.Error(err))

		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		a.lggr.Warn("failed to build webhook request", zap.Error(err))

		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.lggr.Warn("webhook forward failed", zap.Error(err))

		return
	}
	resp.Body.Close()
}

// isHighFee reports whether fee exceeds HighFeeThresholdBps of amount.
func isHighFee(amount, fee *big.Int) bool {
	if amount == nil || fee == nil || amount.Sign() <= 0 || fee.Sign() <= 0 {
		return false
	}

	// fee * 10000 > amount * threshold
	lhs := new(big.Int).Mul(fee, big.NewInt(10000))
	rhs := new(big.Int).Mul(amount, big.NewInt(HighFeeThresholdBps))

	return lhs.Cmp(rhs) > 0
}
