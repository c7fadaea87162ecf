package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/requirements", "200", time.Millisecond)
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	m.AddPoints("MILESTONE", 100)
	m.IncQuizAttempt(true)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus nil: %v", err)
	}
}

func TestMetricsWritePrometheus(t *testing.T) {
	m := newMetrics(time.Second)
	m.ObserveAPI("GET", "/api/requirements", "200", 20*time.Millisecond)
	m.ObserveAPI("PATCH", "/api/progress/:id/approve", "500", time.Millisecond)
	m.ObserveAggregateOperation("Curriculum.Progress.Approve", "success", 5*time.Millisecond)
	m.IncAggregateConflict("Curriculum.Progress.Reject")
	m.AddPoints("MILESTONE", 100)
	m.AddPoints("BADGE", 500)
	m.IncMilestone("25")
	m.IncBadgeCompleted()
	m.IncQuizAttempt(false)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`tm_api_requests_total{method="GET",route="/api/requirements",status="200"} 1`,
		`tm_api_requests_error_total 1`,
		`tm_aggregate_operations_total{op="Curriculum.Progress.Approve",status="success"} 1`,
		`tm_aggregate_conflicts_total{op="Curriculum.Progress.Reject"} 1`,
		`tm_points_awarded_total{source="badge"} 500`,
		`tm_points_awarded_total{source="milestone"} 100`,
		`tm_milestones_crossed_total{threshold="25"} 1`,
		`tm_badges_completed_total 1`,
		`tm_quiz_attempts_total{outcome="failed"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, `source="badge"`) > strings.Index(out, `source="milestone"`) {
		t.Fatalf("label sets not sorted")
	}
}

func TestParseOtelHeaders(t *testing.T) {
	got := ParseOtelHeaders(" api-key = abc , broken, =x, team=core ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "core" {
		t.Fatalf("ParseOtelHeaders: got=%v", got)
	}
	if ParseOtelHeaders("") != nil {
		t.Fatalf("ParseOtelHeaders empty: want nil")
	}
}
