// internal/metrics/prometheus.go
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chr126/nagios-puppet/internal/monitoring"
	"github.com/chr126/nagios-puppet/internal/nodes"
)

// Collector holds the metrics of one check run on a private registry, ready
// to be written for node_exporter's textfile collector.
type Collector struct {
	registry *prometheus.Registry

	Nodes         *prometheus.GaugeVec
	Thresholds    *prometheus.GaugeVec
	CheckStatus   *prometheus.GaugeVec
	CheckDuration prometheus.Gauge
	LastRun       prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		Nodes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "puppet_dashboard_nodes",
				Help: "Number of nodes per dashboard category",
			},
			[]string{"category"},
		),

		Thresholds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "puppet_dashboard_threshold",
				Help: "Configured threshold per category and level",
			},
			[]string{"category", "level"},
		),

		CheckStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "puppet_dashboard_check_status",
				Help: "Result of the last check (0=OK, 1=Warning, 2=Critical, 3=Unknown)",
			},
			[]string{"status"},
		),

		CheckDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "puppet_dashboard_check_duration_seconds",
				Help: "Time spent fetching and evaluating the dashboard",
			},
		),

		LastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "puppet_dashboard_check_last_run_timestamp_seconds",
				Help: "Unix time the last check finished",
			},
		),
	}
}

func (c *Collector) RecordCheckResult(result *monitoring.CheckResult, finished time.Time) {
	status := getStatusLabel(result.Verdict)
	c.CheckStatus.WithLabelValues(status).Set(float64(result.Verdict.ExitCode()))
	c.CheckDuration.Set(result.Duration.Seconds())
	c.LastRun.Set(float64(finished.Unix()))

	for category, pair := range result.Thresholds {
		c.Thresholds.WithLabelValues(string(category), "warning").Set(float64(pair.Warning))
		c.Thresholds.WithLabelValues(string(category), "critical").Set(float64(pair.Critical))
	}

	if result.Counts == nil {
		return
	}
	for _, category := range nodes.Categories {
		c.Nodes.WithLabelValues(string(category)).Set(float64(result.Counts.Get(category)))
	}
}

// WriteTextfile atomically replaces path with the collected metrics.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func getStatusLabel(verdict monitoring.Verdict) string {
	return strings.ToLower(verdict.String())
}
