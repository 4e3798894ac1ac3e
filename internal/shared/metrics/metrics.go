package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	runsStartedName   = "contract_runs_started_total"
	runsCompletedName = "contract_runs_completed_total"
	runsFailedName    = "contract_runs_failed_total"
	failuresName      = "contract_run_failures_total"
	runDurationName   = "contract_run_duration_ms"
	scoreName         = "contract_score"
)

var (
	durationBounds = []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000}
	scoreBounds    = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
)

// exposed fixes the order of the text exposition.
var exposed = []struct {
	name, help, typ string
	bounds          []float64
}{
	{runsStartedName, "Total contract runs started", "counter", nil},
	{runsCompletedName, "Total contract runs completed", "counter", nil},
	{runsFailedName, "Total contract runs failed", "counter", nil},
	{failuresName, "Failed contract runs by failure kind", "counter", nil},
	{runDurationName, "Contract run duration in milliseconds", "histogram", durationBounds},
	{scoreName, "Completeness score of completed runs", "histogram", scoreBounds},
}

// Registry holds the run instruments and the reader that collects them.
type Registry struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider

	runsStarted   metric.Int64Counter
	runsCompleted metric.Int64Counter
	runsFailed    metric.Int64Counter
	failures      metric.Int64Counter
	runDuration   metric.Float64Histogram
	scores        metric.Float64Histogram
}

// NewRegistry builds a registry on its own meter provider.
func NewRegistry() *Registry {
	r := &Registry{reader: sdkmetric.NewManualReader()}
	r.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(r.reader))
	meter := r.provider.Meter("contract-backend/pipeline")

	r.runsStarted = must(meter.Int64Counter(runsStartedName, metric.WithDescription("Total contract runs started")))
	r.runsCompleted = must(meter.Int64Counter(runsCompletedName, metric.WithDescription("Total contract runs completed")))
	r.runsFailed = must(meter.Int64Counter(runsFailedName, metric.WithDescription("Total contract runs failed")))
	r.failures = must(meter.Int64Counter(failuresName, metric.WithDescription("Failed contract runs by failure kind")))
	r.runDuration = must(meter.Float64Histogram(runDurationName,
		metric.WithDescription("Contract run duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBounds...),
	))
	r.scores = must(meter.Float64Histogram(scoreName,
		metric.WithDescription("Completeness score of completed runs"),
		metric.WithExplicitBucketBoundaries(scoreBounds...),
	))
	return r
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("metrics: create instrument: %v", err))
	}
	return v
}

var defaultRegistry = NewRegistry()

// IncRunStarted counts a pipeline run entering processing.
func IncRunStarted() { defaultRegistry.IncRunStarted() }

// IncRunCompleted counts a completed run and records its score.
func IncRunCompleted(score int) { defaultRegistry.IncRunCompleted(score) }

// IncRunFailed counts a failed run by failure kind.
func IncRunFailed(kind string) { defaultRegistry.IncRunFailed(kind) }

// ObserveRunDurationMs records a run duration in milliseconds.
func ObserveRunDurationMs(value float64) { defaultRegistry.ObserveRunDurationMs(value) }

// Render renders the default registry in Prometheus text format.
func Render() string { return defaultRegistry.Render() }

func (r *Registry) IncRunStarted() {
	r.runsStarted.Add(context.Background(), 1)
}

func (r *Registry) IncRunCompleted(score int) {
	ctx := context.Background()
	r.runsCompleted.Add(ctx, 1)
	r.scores.Record(ctx, float64(score))
}

func (r *Registry) IncRunFailed(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	ctx := context.Background()
	r.runsFailed.Add(ctx, 1)
	r.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (r *Registry) ObserveRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	r.runDuration.Record(context.Background(), value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render collects the registry and writes it in Prometheus text format.
// Series that have not been touched yet are written as zero.
func (r *Registry) Render() string {
	var rm metricdata.ResourceMetrics
	var buf bytes.Buffer
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		fmt.Fprintf(&buf, "# collect failed: %v\n", err)
		return buf.String()
	}

	collected := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			collected[m.Name] = m.Data
		}
	}

	for _, s := range exposed {
		fmt.Fprintf(&buf, "# HELP %s %s\n", s.name, s.help)
		fmt.Fprintf(&buf, "# TYPE %s %s\n", s.name, s.typ)
		switch data := collected[s.name].(type) {
		case metricdata.Sum[int64]:
			writeSum(&buf, s.name, data)
		case metricdata.Histogram[float64]:
			writeHistogram(&buf, s.name, data)
		default:
			if s.name == failuresName {
				continue
			}
			if s.typ == "histogram" {
				writeHistogram(&buf, s.name, metricdata.Histogram[float64]{
					DataPoints: []metricdata.HistogramDataPoint[float64]{{Bounds: s.bounds}},
				})
				continue
			}
			fmt.Fprintf(&buf, "%s 0\n", s.name)
		}
	}
	return buf.String()
}

func writeSum(buf *bytes.Buffer, name string, data metricdata.Sum[int64]) {
	lines := make([]string, 0, len(data.DataPoints))
	for _, dp := range data.DataPoints {
		lines = append(lines, fmt.Sprintf("%s%s %d\n", name, labels(dp.Attributes), dp.Value))
	}
	sort.Strings(lines)
	for _, l := range lines {
		buf.WriteString(l)
	}
}

// writeHistogram writes cumulative buckets. The SDK reports per-bucket counts
// with a trailing overflow bucket, which becomes +Inf.
func writeHistogram(buf *bytes.Buffer, name string, data metricdata.Histogram[float64]) {
	var dp metricdata.HistogramDataPoint[float64]
	if len(data.DataPoints) > 0 {
		dp = data.DataPoints[0]
	}
	var cumulative uint64
	for i, bound := range dp.Bounds {
		if i < len(dp.BucketCounts) {
			cumulative += dp.BucketCounts[i]
		}
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, dp.Count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(dp.Sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, dp.Count)
}

func labels(set attribute.Set) string {
	if set.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, set.Len())
	for _, kv := range set.ToSlice() {
		parts = append(parts, fmt.Sprintf("%s=%q", kv.Key, kv.Value.Emit()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
