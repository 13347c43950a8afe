// Package metrics defines the broker's Prometheus collectors: per-queue
// lifecycle counters, size gauges, and storage latency histograms. The
// collectors live on a dedicated registry exposed through Handler.
package metrics
