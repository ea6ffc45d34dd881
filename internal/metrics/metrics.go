// Package metrics holds the Prometheus instruments for posting and reporting.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// VouchersPosted counts vouchers created, by voucher type.
var VouchersPosted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "books",
	Subsystem: "vouchers",
	Name:      "posted_total",
	Help:      "Total vouchers created, by voucher type.",
}, []string{"type"})

// VoucherTransitions counts lifecycle moves by target status.
var VoucherTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "books",
	Subsystem: "voucher",
	Name:      "transitions_total",
	Help:      "Total voucher status transitions, by target status.",
}, []string{"to"})

// ValidationFailures counts rejected vouchers by violated rule.
var ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "books",
	Subsystem: "validation",
	Name:      "failures_total",
	Help:      "Total validation rule violations on voucher input.",
}, []string{"rule"})

// ReportsGenerated counts generated reports and whether they balanced.
var ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "books",
	Subsystem: "reports",
	Name:      "generated_total",
	Help:      "Total reports generated, by report and balance flag.",
}, []string{"report", "balanced"})

// ReportDuration tracks report generation time.
var ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "books",
	Subsystem: "report",
	Name:      "duration_seconds",
	Help:      "Report generation latency in seconds.",
	Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
}, []string{"report"})

// ObserveReport records one generated report.
func ObserveReport(report string, balanced bool, seconds float64) {
	ReportsGenerated.WithLabelValues(report, strconv.FormatBool(balanced)).Inc()
	ReportDuration.WithLabelValues(report).Observe(seconds)
}

// WriteTextfile dumps the default registry in text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
