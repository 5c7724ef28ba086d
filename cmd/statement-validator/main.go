// Statement Validator - checks vulnerability remediation statements against a
// source hosting API and writes a report of the defective ones.
//
// Usage:
//
//	statement-validator <statements-dir> [token]
//	statement-validator -dir ./statements -token $GITHUB_TOKEN -output output.xlsx
//	statement-validator -provider gitlab -base-url https://gitlab.example.com -dir ./statements
//	statement-validator -output report.json.zst -compression-level 9 ./statements
//	statement-validator -config validator.yaml -metrics-file validator.prom -audit-log audit.jsonl
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/exploopio/statement-validator/pkg/audit"
	"github.com/exploopio/statement-validator/pkg/compress"
	"github.com/exploopio/statement-validator/pkg/config"
	"github.com/exploopio/statement-validator/pkg/core"
	"github.com/exploopio/statement-validator/pkg/metrics"
	"github.com/exploopio/statement-validator/pkg/report"
	"github.com/exploopio/statement-validator/pkg/resolve"
	"github.com/exploopio/statement-validator/pkg/runner"
	"github.com/exploopio/statement-validator/pkg/validate"
)

const (
	appName    = "statement-validator"
	appVersion = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	dir := flag.String("dir", "", "Statements directory (or first argument)")
	token := flag.String("token", "", "API token (or second argument, GITHUB_TOKEN / GITLAB_TOKEN env)")
	provider := flag.String("provider", "", "Hosting provider: github or gitlab")
	baseURL := flag.String("base-url", "", "API base URL (GitHub Enterprise or self-managed GitLab)")
	hostPrefix := flag.String("host-prefix", "", "Web origin stripped from repository URLs")
	output := flag.String("output", "", "Report path; .json, .json.zst and .json.gz select JSON output (default output.xlsx)")
	compressionLevel := flag.Int("compression-level", 0, "Compression level 1-9 for .json.zst and .json.gz reports (default 3)")
	rateLimit := flag.Int("rate-limit", -1, "Requests per hour, 0 to disable pacing (default 5000)")
	metricsFile := flag.String("metrics-file", "", "Write Prometheus text metrics to this file")
	auditLog := flag.String("audit-log", "", "Append a JSON-lines audit trail to this file")
	verbose := flag.Bool("verbose", false, "Verbose output")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, appVersion)
		return 0
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	// Load config, then apply arguments and flags over it
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	args := flag.Args()
	if *dir == "" && len(args) > 0 {
		*dir = args[0]
	}
	if *token == "" && len(args) > 1 {
		*token = args[1]
	}

	if *provider != "" {
		cfg.Provider = *provider
	}
	if *dir != "" {
		cfg.Dir = *dir
	}
	// A token from the config file wins over the environment, not over flags
	if *token != "" || cfg.Token() == "" {
		cfg.SetToken(config.GetEnvOrFlag(*token, cfg.TokenEnv()))
	}
	if *baseURL != "" {
		cfg.SetBaseURL(*baseURL)
	}
	if *hostPrefix != "" {
		cfg.HostPrefix = *hostPrefix
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *compressionLevel != 0 {
		cfg.CompressionLevel = *compressionLevel
	}
	if *rateLimit >= 0 {
		cfg.RateLimit = *rateLimit
	}
	if *metricsFile != "" {
		cfg.MetricsFile = *metricsFile
	}
	if *auditLog != "" {
		cfg.AuditLog = *auditLog
	}
	if *verbose {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <statements-dir> [token]\n", appName)
		return 1
	}

	logger := core.LoggerFromVerbose(appName, cfg.Verbose)

	collector, err := metrics.NewPrometheusCollector()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating metrics: %v\n", err)
		return 1
	}

	ver, err := runner.NewVerifier(ctx, cfg, collector, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s verifier: %v\n", cfg.Provider, err)
		return 1
	}

	validator := validate.New(ver,
		validate.WithResolver(resolve.New(cfg.ResolvedHostPrefix())),
		validate.WithLogger(logger),
		validate.WithCollector(collector),
	)
	builder := report.NewBuilder("", report.WithCompressionLevel(compress.Level(cfg.CompressionLevel)))
	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithCollector(collector),
		runner.WithReport(builder),
	}
	if cfg.AuditLog != "" {
		trail, err := audit.OpenFile(cfg.AuditLog, builder.RunID())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening audit log: %v\n", err)
			return 1
		}
		defer trail.Close()
		opts = append(opts, runner.WithAudit(trail))
	}
	r := runner.New(validator, opts...)

	summary, err := r.Run(ctx, cfg.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("run %s: %d processed, %d clean, %d with errors, %d unreadable in %s",
		summary.RunID, summary.Processed, summary.Clean, summary.Errored, summary.LoadFailed, summary.Duration)

	exitCode := 0
	if err := r.Save(cfg.Output); err != nil {
		exitCode = 1
	}

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
			exitCode = 1
		}
	}
	return exitCode
}
