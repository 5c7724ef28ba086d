// Package runner drives a validation run over a statements directory: it
// loads each statement, validates it, prints progress, and fills the report.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/exploopio/statement-validator/pkg/audit"
	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/errors"
	"github.com/exploopio/statement-validator/pkg/metrics"
	"github.com/exploopio/statement-validator/pkg/report"
	"github.com/exploopio/statement-validator/pkg/statement"
	"github.com/exploopio/statement-validator/pkg/validate"
)

// Summary describes a finished run.
type Summary struct {
	RunID      string        `json:"run_id"`
	Processed  int           `json:"processed"`
	Clean      int           `json:"clean"`
	Errored    int           `json:"errored"`
	LoadFailed int           `json:"load_failed"`
	Rows       int           `json:"rows"`
	Duration   time.Duration `json:"duration"`
}

// Runner validates statements one at a time.
type Runner struct {
	validator *validate.Validator
	builder   *report.Builder
	logger    core.Logger
	collector metrics.Collector
	audit     *audit.Logger
	stdout    io.Writer
	stderr    io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets the console writers. Clean statements and save messages go
// to stdout, defective statements to stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger for load failures and debug output.
func WithLogger(l core.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithCollector sets the metrics collector.
func WithCollector(c metrics.Collector) Option {
	return func(r *Runner) {
		r.collector = c
	}
}

// WithAudit records run, statement, and report events in an audit trail.
func WithAudit(a *audit.Logger) Option {
	return func(r *Runner) {
		r.audit = a
	}
}

// WithReport sets the report builder (default: a new builder with a random
// run id).
func WithReport(b *report.Builder) Option {
	return func(r *Runner) {
		r.builder = b
	}
}

// New creates a Runner using v for every statement.
func New(v *validate.Validator, opts ...Option) *Runner {
	r := &Runner{
		validator: v,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.builder == nil {
		r.builder = report.NewBuilder("")
	}
	r.logger = core.OrNop(r.logger)
	if r.collector == nil {
		r.collector = &metrics.NopCollector{}
	}
	return r
}

// Report returns the report being filled.
func (r *Runner) Report() *report.Builder {
	return r.builder
}

// Run validates every statement under dir. A statement that cannot be read
// is logged and skipped. Run stops early only when ctx is cancelled or dir
// cannot be listed.
func (r *Runner) Run(ctx context.Context, dir string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: r.builder.RunID()}
	defer func() {
		summary.Rows = r.builder.Len()
		summary.Duration = time.Since(start)
		r.collector.GaugeSet(metrics.ReportRows.Name, float64(summary.Rows))
		r.collector.GaugeSet(metrics.RunDuration.Name, summary.Duration.Seconds())
		r.audit.Log(audit.Event{
			Type:       audit.EventRunCompleted,
			Message:    "validation run finished",
			DurationMs: summary.Duration.Milliseconds(),
			Details: map[string]interface{}{
				"processed":   summary.Processed,
				"clean":       summary.Clean,
				"errored":     summary.Errored,
				"load_failed": summary.LoadFailed,
			},
		})
	}()
	r.audit.Info(audit.EventRunStarted, "validating statements", map[string]interface{}{"dir": dir})

	paths, err := statement.Discover(dir)
	if err != nil {
		r.audit.Error(audit.EventRunFailed, "statements directory could not be read", err, nil)
		return summary, err
	}
	r.logger.Debug("found %d statement directories in %s (run %s)", len(paths), dir, summary.RunID)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, errors.E(errors.KindTimeout, "runner.Run", "run cancelled", err)
		}
		summary.Processed++

		st, err := statement.Load(path)
		if err != nil {
			summary.LoadFailed++
			r.collector.CounterInc(metrics.StatementsTotal.Name, "status", metrics.StatusLoadFailed)
			r.logger.Error("skipping %s: %v", path, err)
			r.audit.LoadFailed(path, err)
			fmt.Fprintf(r.stdout, "Total processed %d\n", summary.Processed)
			continue
		}

		started := time.Now()
		result := r.validator.Validate(ctx, st)
		r.audit.Statement(st.VulnerabilityID, path, findings(result), time.Since(started))
		if r.builder.AddRow(result) {
			summary.Errored++
			r.collector.CounterInc(metrics.StatementsTotal.Name, "status", metrics.StatusErrored)
			fmt.Fprintf(r.stderr, "Analysis for %s is completed with errors\n", st.VulnerabilityID)
		} else {
			summary.Clean++
			r.collector.CounterInc(metrics.StatementsTotal.Name, "status", metrics.StatusClean)
			fmt.Fprintf(r.stdout, "Analysis for %s is completed\n", st.VulnerabilityID)
		}
		fmt.Fprintf(r.stdout, "Total processed %d\n", summary.Processed)
	}
	return summary, nil
}

// Save writes the report to path and prints the outcome.
func (r *Runner) Save(path string) error {
	if err := r.builder.Save(path); err != nil {
		r.audit.Error(audit.EventReportFailed, "report could not be written", err, map[string]interface{}{"path": path})
		fmt.Fprintln(r.stdout, "Something went wrong while creating workbook.")
		fmt.Fprintln(r.stdout, err.Error())
		return err
	}
	r.audit.Info(audit.EventReportSaved, "report written", map[string]interface{}{"path": path, "rows": r.builder.Len()})
	fmt.Fprintf(r.stdout, "Workbook saved. Please check %s\n", path)
	return nil
}

func findings(result *validate.Result) []audit.Finding {
	if len(result.Failures) == 0 {
		return nil
	}
	out := make([]audit.Finding, 0, len(result.Failures))
	for _, f := range result.Failures {
		finding := audit.Finding{
			Check:      string(f.Check),
			Subject:    f.Subject,
			Repository: f.Repository,
			Status:     f.Status,
			Cached:     f.Cached,
		}
		if f.Err != nil {
			finding.Detail = errors.Detail(f.Err)
		}
		out = append(out, finding)
	}
	return out
}
