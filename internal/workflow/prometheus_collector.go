package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exposes WorkflowMetrics/SchemaCache as a single
// custom prometheus.Collector, so the composition root can register
// one object with a registry instead of a field per metric.
type PrometheusCollector struct {
	metrics *WorkflowMetrics
	cache   *SchemaCache

	executionsTotal  *prometheus.Desc
	successRate      *prometheus.Desc
	activeExecutions *prometheus.Desc
	avgDurationMs    *prometheus.Desc
	p95DurationMs    *prometheus.Desc
	nodeExecutions   *prometheus.Desc
	nodeFailures     *prometheus.Desc
	errorsByCode     *prometheus.Desc
	cacheHitRate     *prometheus.Desc
	cacheSize        *prometheus.Desc
}

func NewPrometheusCollector(metrics *WorkflowMetrics, cache *SchemaCache) *PrometheusCollector {
	return &PrometheusCollector{
		metrics: metrics,
		cache:   cache,
		executionsTotal: prometheus.NewDesc(
			"workflow_executions_total", "Total workflow executions by outcome.",
			[]string{"outcome"}, nil),
		successRate: prometheus.NewDesc(
			"workflow_execution_success_rate", "Fraction of executions that completed successfully.",
			nil, nil),
		activeExecutions: prometheus.NewDesc(
			"workflow_active_executions", "Number of workflow executions currently running.",
			nil, nil),
		avgDurationMs: prometheus.NewDesc(
			"workflow_execution_duration_avg_ms", "Average workflow execution duration in milliseconds.",
			nil, nil),
		p95DurationMs: prometheus.NewDesc(
			"workflow_execution_duration_p95_ms", "P95 workflow execution duration in milliseconds.",
			nil, nil),
		nodeExecutions: prometheus.NewDesc(
			"workflow_node_executions_total", "Total node executions by connector type.",
			[]string{"connector_type_id"}, nil),
		nodeFailures: prometheus.NewDesc(
			"workflow_node_failures_total", "Total node execution failures by connector type.",
			[]string{"connector_type_id"}, nil),
		errorsByCode: prometheus.NewDesc(
			"workflow_errors_total", "Total errors by error code.",
			[]string{"code"}, nil),
		cacheHitRate: prometheus.NewDesc(
			"workflow_schema_cache_hit_rate", "Schema cache hit rate.",
			nil, nil),
		cacheSize: prometheus.NewDesc(
			"workflow_schema_cache_size", "Current number of entries in the schema cache.",
			nil, nil),
	}
}

func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.executionsTotal
	ch <- c.successRate
	ch <- c.activeExecutions
	ch <- c.avgDurationMs
	ch <- c.p95DurationMs
	ch <- c.nodeExecutions
	ch <- c.nodeFailures
	ch <- c.errorsByCode
	ch <- c.cacheHitRate
	ch <- c.cacheSize
}

func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.executionsTotal, prometheus.CounterValue, float64(c.metrics.GetSuccessCount()), "completed")
	ch <- prometheus.MustNewConstMetric(c.executionsTotal, prometheus.CounterValue, float64(c.metrics.GetFailureCount()), "failed")
	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, c.metrics.GetSuccessRate())
	ch <- prometheus.MustNewConstMetric(c.activeExecutions, prometheus.GaugeValue, float64(c.metrics.GetActiveExecutions()))
	ch <- prometheus.MustNewConstMetric(c.avgDurationMs, prometheus.GaugeValue, float64(c.metrics.GetAverageDuration().Milliseconds()))
	ch <- prometheus.MustNewConstMetric(c.p95DurationMs, prometheus.GaugeValue, float64(c.metrics.GetP95Duration().Milliseconds()))

	for connectorTypeID, count := range c.metrics.GetAllNodeExecutions() {
		ch <- prometheus.MustNewConstMetric(c.nodeExecutions, prometheus.CounterValue, float64(count), connectorTypeID)
	}
	for connectorTypeID, count := range c.metrics.GetAllNodeFailures() {
		ch <- prometheus.MustNewConstMetric(c.nodeFailures, prometheus.CounterValue, float64(count), connectorTypeID)
	}
	for code, count := range c.metrics.GetAllErrorCounts() {
		ch <- prometheus.MustNewConstMetric(c.errorsByCode, prometheus.CounterValue, float64(count), string(code))
	}

	if c.cache != nil {
		cacheMetrics := c.cache.GetMetrics()
		ch <- prometheus.MustNewConstMetric(c.cacheHitRate, prometheus.GaugeValue, c.cache.GetHitRate())
		ch <- prometheus.MustNewConstMetric(c.cacheSize, prometheus.GaugeValue, float64(cacheMetrics.Size))
	}
}
