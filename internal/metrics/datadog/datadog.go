// Package datadog emits pipeline metrics over DogStatsD.
//
// It adapts metrics.Backend to the official statsd client: labels become
// "key:value" tags, counters map to Count, histograms to Histogram. The
// rest of the pipeline sees only metrics.Backend and never imports this
// package directly except for wiring in main.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"taxietl/internal/metrics"
)

// Config selects the agent endpoint and the identity stamped on every
// metric this process emits.
type Config struct {
	// Addr is the DogStatsD endpoint, "127.0.0.1:8125" or a
	// "unix:///..." socket path.
	Addr string

	// Namespace prefixes every metric name, typically "taxietl.".
	Namespace string

	// GlobalTags ride along on every metric, e.g. "service:taxietl".
	GlobalTags []string
}

// Backend sends metrics to a DogStatsD agent. Install it once with
// metrics.SetBackend; it is safe for concurrent use.
type Backend struct {
	client *statsd.Client
}

// NewBackend dials the agent described by cfg. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter forwards delta as a Count. DogStatsD counts are integral, so
// fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram forwards value as a Histogram observation.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush drains buffered metrics and releases the client. The pipeline calls
// it once, at the end of the run, so closing here is correct: a one-shot
// batch job has nothing further to send.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// labelsToTags renders labels as "key:value" tags in key order. The agent
// does not care about ordering; deterministic output keeps tests simple.
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lbls))
	for k := range lbls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + ":" + lbls[k]
	}
	return out
}
