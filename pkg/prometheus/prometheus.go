// Package prometheus exports sharenv reload and serving metrics to Prometheus.
package prometheus

import (
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/sharenv"
)

const defaultNamespace = "sharenv"

// Observer implements sharenv.MetricsProvider and records HTTP serving metrics.
type Observer struct {
	reloadDuration *promclient.HistogramVec
	reloads        *promclient.CounterVec
	skipped        *promclient.CounterVec
	changes        promclient.Counter
	watchFailures  promclient.Counter
	state          *promclient.GaugeVec
	variables      promclient.Gauge
	version        promclient.Gauge
	requests       *promclient.CounterVec
	requestLatency *promclient.HistogramVec
}

// NewObserver registers sharenv metrics under namespace with reg.
// An empty namespace defaults to "sharenv"; a nil reg uses the default registerer.
func NewObserver(namespace string, reg promclient.Registerer) (*Observer, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	o := &Observer{
		reloadDuration: promclient.NewHistogramVec(promclient.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Time spent loading the source and swapping the snapshot.",
			Buckets:   promclient.DefBuckets,
		}, []string{"result"}),
		reloads: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reload attempts by result.",
		}, []string{"result"}),
		skipped: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_entries_total",
			Help:      "Source entries left out of a load, by reason.",
		}, []string{"reason"}),
		changes: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "source_changes_total",
			Help:      "Change notifications received from the watcher.",
		}),
		watchFailures: promclient.NewCounter(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "watch_failures_total",
			Help:      "Times the coordinator fell back to polling.",
		}),
		state: promclient.NewGaugeVec(promclient.GaugeOpts{
			Namespace: namespace,
			Name:      "coordinator_state",
			Help:      "1 for the coordinator's current state, 0 otherwise.",
		}, []string{"state"}),
		variables: promclient.NewGauge(promclient.GaugeOpts{
			Namespace: namespace,
			Name:      "variables",
			Help:      "Variables in the active snapshot.",
		}),
		version: promclient.NewGauge(promclient.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_version",
			Help:      "Version of the active snapshot.",
		}),
		requests: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestLatency: promclient.NewHistogramVec(promclient.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   promclient.DefBuckets,
		}, []string{"route"}),
	}

	collectors := []promclient.Collector{
		o.reloadDuration, o.reloads, o.skipped, o.changes, o.watchFailures,
		o.state, o.variables, o.version, o.requests, o.requestLatency,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register sharenv collector: %w", err)
		}
	}
	return o, nil
}

// OnStateChange implements sharenv.MetricsProvider.
func (o *Observer) OnStateChange(from, to sharenv.State) {
	if o == nil {
		return
	}
	o.state.WithLabelValues(from.String()).Set(0)
	o.state.WithLabelValues(to.String()).Set(1)
}

// OnReloadSuccess implements sharenv.MetricsProvider.
func (o *Observer) OnReloadSuccess(duration time.Duration, summary sharenv.ReplaceSummary) {
	if o == nil {
		return
	}
	recordReload(o, "success", duration)
	o.version.Set(float64(summary.Version))
	o.variables.Set(float64(len(summary.Added) + len(summary.Kept)))
}

// OnReloadUnchanged implements sharenv.MetricsProvider.
func (o *Observer) OnReloadUnchanged(duration time.Duration) {
	recordReload(o, "unchanged", duration)
}

// OnReloadFailure implements sharenv.MetricsProvider.
func (o *Observer) OnReloadFailure(duration time.Duration) {
	recordReload(o, "failure", duration)
}

// OnEntrySkipped implements sharenv.MetricsProvider.
func (o *Observer) OnEntrySkipped(reason sharenv.SkipReason) {
	if o == nil {
		return
	}
	o.skipped.WithLabelValues(string(reason)).Inc()
}

// OnChangeReceived implements sharenv.MetricsProvider.
func (o *Observer) OnChangeReceived() {
	if o == nil {
		return
	}
	o.changes.Inc()
}

// OnWatchFailed implements sharenv.MetricsProvider.
func (o *Observer) OnWatchFailed() {
	if o == nil {
		return
	}
	o.watchFailures.Inc()
}

// RecordRequest tracks one HTTP request.
func (o *Observer) RecordRequest(route string, code int, duration time.Duration) {
	if o == nil {
		return
	}
	o.requests.WithLabelValues(route, fmt.Sprint(code)).Inc()
	o.requestLatency.WithLabelValues(route).Observe(duration.Seconds())
}

func recordReload(o *Observer, result string, duration time.Duration) {
	if o == nil {
		return
	}
	o.reloadDuration.WithLabelValues(result).Observe(duration.Seconds())
	o.reloads.WithLabelValues(result).Inc()
}

var _ sharenv.MetricsProvider = (*Observer)(nil)
