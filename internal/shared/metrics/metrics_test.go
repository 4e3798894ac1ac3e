package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesRunCounters(t *testing.T) {
	IncRunStarted()
	IncRunCompleted(72)
	IncRunFailed("insufficient_text")
	IncRunFailed("")
	ObserveRunDurationMs(-5)

	out := Render()
	for _, want := range []string{
		"# TYPE contract_runs_started_total counter",
		"contract_runs_completed_total ",
		`contract_run_failures_total{kind="insufficient_text"}`,
		`contract_run_failures_total{kind="unknown"}`,
		`contract_score_bucket{le="80"}`,
		`contract_run_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func TestRegistryRendersExactValues(t *testing.T) {
	r := NewRegistry()
	r.IncRunStarted()
	r.IncRunStarted()
	r.IncRunCompleted(5)
	r.IncRunCompleted(15)
	r.IncRunCompleted(95)
	r.IncRunFailed("extraction_failure")

	out := r.Render()
	for _, want := range []string{
		"contract_runs_started_total 2\n",
		"contract_runs_completed_total 3\n",
		"contract_runs_failed_total 1\n",
		`contract_run_failures_total{kind="extraction_failure"} 1`,
		`contract_score_bucket{le="10"} 1`,
		`contract_score_bucket{le="20"} 2`,
		`contract_score_bucket{le="90"} 2`,
		`contract_score_bucket{le="100"} 3`,
		`contract_score_bucket{le="+Inf"} 3`,
		"contract_score_sum 115\n",
		"contract_score_count 3\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRegistryRendersUntouchedSeriesAsZero(t *testing.T) {
	out := NewRegistry().Render()
	for _, want := range []string{
		"contract_runs_started_total 0\n",
		"contract_runs_failed_total 0\n",
		`contract_run_duration_ms_bucket{le="60000"} 0`,
		`contract_run_duration_ms_bucket{le="+Inf"} 0`,
		"contract_run_duration_ms_count 0\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "contract_run_failures_total{") {
		t.Fatalf("no failure kinds expected:\n%s", out)
	}
}
