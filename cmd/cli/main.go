// Command websecscan runs conservative dynamic security scans against
// web applications the operator is authorized to test.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/websecscan/websecscan/pkg/config"
	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/engine"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/metrics"
	"github.com/websecscan/websecscan/pkg/scan"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		os.Exit(runScan(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "-v", "--version", "version":
		fmt.Printf("websecscan %s\n", defaults.Version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("websecscan - dynamic web application security scanner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  websecscan scan -u <url> [flags]   run a scan")
	fmt.Println("  websecscan validate -config <file> check a config file")
	fmt.Println("  websecscan version                 print version")
	fmt.Println()
	fmt.Println("Scan flags:")
	fmt.Println("  -u <url>            target URL (required unless -config)")
	fmt.Println("  -config <file>      YAML config file")
	fmt.Println("  -depth <n>          crawl depth, 1-5 (default 2)")
	fmt.Println("  -pages <n>          page cap, 1-200 (default 50)")
	fmt.Println("  -rate <dur>         min spacing between requests (default 1s)")
	fmt.Println("  -timeout <dur>      per-request timeout (default 10s)")
	fmt.Println("  -allow-external     follow cross-origin links")
	fmt.Println("  -ignore-robots      skip robots.txt (requires -i-accept-risk)")
	fmt.Println("  -i-accept-risk      consent for -ignore-robots")
	fmt.Println("  -jsonl <file>       write events as JSON lines")
	fmt.Println("  -quiet              suppress console output")
}

func runScan(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var (
		targetURL  = fs.String("u", "", "target URL")
		configFile = fs.String("config", "", "YAML config file")
		depth      = fs.Int("depth", defaults.MaxDepth, "crawl depth")
		pages      = fs.Int("pages", defaults.MaxPages, "page cap")
		rateLimit  = fs.Duration("rate", config.Default().RateLimit, "request spacing")
		timeout    = fs.Duration("timeout", config.Default().Timeout, "request timeout")
		allowExt   = fs.Bool("allow-external", false, "follow cross-origin links")
		noRobots   = fs.Bool("ignore-robots", false, "skip robots.txt")
		acceptRisk = fs.Bool("i-accept-risk", false, "consent for -ignore-robots")
		jsonlPath  = fs.String("jsonl", "", "JSONL event output file")
		quiet      = fs.Bool("quiet", false, "suppress console output")
	)
	fs.Parse(args)

	var opts config.Options
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 2
		}
		opts = loaded
	} else {
		opts = config.Default()
		opts.TargetURL = *targetURL
		opts.MaxDepth = *depth
		opts.MaxPages = *pages
		opts.RateLimit = *rateLimit
		opts.Timeout = *timeout
		opts.AllowExternalLinks = *allowExt
		opts.RespectRobotsTxt = !*noRobots
		opts.RobotsOverrideConsent = *acceptRisk
	}

	sink := events.NewMultiSink()
	if !*quiet {
		sink.Add(NewConsoleSink(os.Stdout))
	}
	if *jsonlPath != "" {
		jsonl, err := NewJSONLSink(*jsonlPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jsonl: %v\n", err)
			return 2
		}
		defer jsonl.Close()
		sink.Add(jsonl)
	}

	eng, err := engine.New(opts, engine.DefaultRegistry(), sink, metrics.New(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	report, err := eng.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return 2
	}

	if !*quiet {
		printReport(os.Stdout, report, time.Since(started))
	}

	switch report.Status {
	case scan.StatusCompleted:
		if len(report.Findings) > 0 {
			return 1
		}
		return 0
	case scan.StatusIncomplete:
		return 3
	default:
		return 2
	}
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "", "YAML config file")
	fs.Parse(args)

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "validate: -config is required")
		return 2
	}
	if _, err := config.LoadFile(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		return 1
	}
	fmt.Println("ok")
	return 0
}
