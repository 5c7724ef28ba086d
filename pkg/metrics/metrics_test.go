package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryCollector(t *testing.T) {
	c := NewInMemoryCollector()

	t.Run("Counter", func(t *testing.T) {
		c.CounterInc(ChecksTotal.Name, "check", "repository", "status", CheckStatusFailed)
		c.CounterInc(ChecksTotal.Name, "check", "repository", "status", CheckStatusFailed)
		c.CounterAdd(ChecksTotal.Name, 3, "check", "repository", "status", CheckStatusFailed)

		got := c.GetCounter(ChecksTotal.Name, "check", "repository", "status", CheckStatusFailed)
		if got != 5 {
			t.Errorf("Counter = %v, want %v", got, 5)
		}
		if other := c.GetCounter(ChecksTotal.Name, "check", "branch", "status", CheckStatusFailed); other != 0 {
			t.Errorf("unrelated label set = %v, want 0", other)
		}
	})

	t.Run("Gauge", func(t *testing.T) {
		c.GaugeSet(ReportRows.Name, 4)
		c.GaugeSet(ReportRows.Name, 2)
		if got := c.GetGauge(ReportRows.Name); got != 2 {
			t.Errorf("Gauge = %v, want %v", got, 2)
		}
	})

	t.Run("Histogram", func(t *testing.T) {
		c.HistogramObserve(VerifierRequestDuration.Name, 0.2, "check", "commit")
		c.HistogramObserve(VerifierRequestDuration.Name, 0.4, "check", "commit")
		if got := c.GetHistogram(VerifierRequestDuration.Name, "check", "commit"); len(got) != 2 {
			t.Errorf("Histogram observations = %v, want %v", len(got), 2)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		c.Reset()
		if c.GetCounter(ChecksTotal.Name, "check", "repository", "status", CheckStatusFailed) != 0 {
			t.Error("Counter should be 0 after reset")
		}
		if c.GetGauge(ReportRows.Name) != 0 {
			t.Error("Gauge should be 0 after reset")
		}
	})
}

func TestNopCollector(t *testing.T) {
	c := &NopCollector{}
	c.CounterInc("test", "label", "value")
	c.CounterAdd("test", 5, "label", "value")
	c.GaugeSet("test", 10, "label", "value")
	c.HistogramObserve("test", 1.5, "label", "value")
	c.Reset()
}

func TestTimer(t *testing.T) {
	c := NewInMemoryCollector()
	timer := NewTimer(c, VerifierRequestDuration.Name, "check", "branch")
	time.Sleep(5 * time.Millisecond)
	d := timer.ObserveDuration()

	if d < 5*time.Millisecond {
		t.Errorf("Duration = %v, want >= 5ms", d)
	}
	if got := c.GetHistogram(VerifierRequestDuration.Name, "check", "branch"); len(got) != 1 {
		t.Errorf("observations = %d, want 1", len(got))
	}
}

func TestPrometheusCollector(t *testing.T) {
	c, err := NewPrometheusCollector()
	if err != nil {
		t.Fatalf("NewPrometheusCollector() error = %v", err)
	}

	c.CounterInc(StatementsTotal.Name, "status", StatusErrored)
	c.CounterInc(StatementsTotal.Name, "status", StatusErrored)
	c.CounterInc(StatementsTotal.Name, "status", StatusClean)
	c.GaugeSet(ReportRows.Name, 2)
	c.HistogramObserve(VerifierRequestDuration.Name, 0.3, "check", "repository")
	c.CounterInc("not_registered", "status", "ignored")

	if got := testutil.ToFloat64(c.counters[StatementsTotal.Name].WithLabelValues(StatusErrored)); got != 2 {
		t.Errorf("errored statements = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.gauges[ReportRows.Name].WithLabelValues()); got != 2 {
		t.Errorf("report rows = %v, want 2", got)
	}

	if err := c.Register(StatementsTotal); err != nil {
		t.Errorf("registering twice should be a no-op, got %v", err)
	}
	if err := c.Register(MetricDefinition{Name: "x", Type: "summary"}); err == nil {
		t.Error("unsupported metric type should fail")
	}

	c.Reset()
	if got := testutil.ToFloat64(c.counters[StatementsTotal.Name].WithLabelValues(StatusErrored)); got != 0 {
		t.Errorf("after reset = %v, want 0", got)
	}
}

func TestPrometheusCollector_WriteTextfile(t *testing.T) {
	c, err := NewPrometheusCollector()
	if err != nil {
		t.Fatalf("NewPrometheusCollector() error = %v", err)
	}
	c.CounterInc(ChecksTotal.Name, "check", "purl", "status", CheckStatusFailed)

	path := filepath.Join(t.TempDir(), "validator.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `statement_validator_checks_total{check="purl",status="failed"} 1`
	if !strings.Contains(string(data), want) {
		t.Errorf("textfile missing %q:\n%s", want, data)
	}
}

func TestLabelsToValues(t *testing.T) {
	got := labelsToValues([]string{"check", "commit", "status", "ok"})
	if len(got) != 2 || got[0] != "commit" || got[1] != "ok" {
		t.Errorf("labelsToValues() = %v", got)
	}
	if labelsToValues(nil) != nil {
		t.Error("labelsToValues(nil) should be nil")
	}
}
