// Package metrics exposes Prometheus counters for registry activity.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/event"
)

// Metrics holds the registry's Prometheus collectors.
type Metrics struct {
	Events      *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "delphi_events_emitted_total",
			Help: "Notifications emitted after committed registry operations",
		}, []string{"kind"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "delphi_operations_rejected_total",
			Help: "Registry mutations that did not commit, by operation and reason",
		}, []string{"op", "reason"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "delphi_rpc_duration_seconds",
			Help:    "Latency of gRPC calls by method and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "code"}),
	}
}

// Notify counts e by kind.
func (m *Metrics) Notify(_ context.Context, e event.Event) {
	m.Events.WithLabelValues(string(e.Kind())).Inc()
}

// Rejected counts a failed mutation.
func (m *Metrics) Rejected(op string, err error) {
	m.Rejections.WithLabelValues(op, Reason(err)).Inc()
}

// ObserveRPC records one call's latency.
func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	m.RPCDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

var reasons = []struct {
	err   error
	label string
}{
	{errs.ErrCannotTransferToSelf, "cannot_transfer_to_self"},
	{errs.ErrUnauthorizedAccount, "unauthorized_account"},
	{errs.ErrNotOwner, "not_owner"},
	{errs.ErrTypeMismatch, "type_mismatch"},
	{errs.ErrSuperseded, "superseded"},
	{errs.ErrNotFound, "not_found"},
	{errs.ErrAlreadyExists, "already_exists"},
	{errs.ErrInvalidArgument, "invalid_argument"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "deadline_exceeded"},
}

// Reason returns a low-cardinality label for err.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return "internal"
}
