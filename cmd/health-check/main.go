// Package main provides a standalone health probe for container health checks
// and monitoring scripts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL          string
	Timeout      time.Duration
	Verbose      bool
	OutputFormat string
	Expect       string
	RetryCount   int
	RetryDelay   time.Duration
}

type checkResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Checks  []checkResult `json:"checks"`
}

// severity orders statuses so a degraded service passes -expect degraded.
var severity = map[string]int{
	"healthy":   0,
	"degraded":  1,
	"unhealthy": 2,
}

func main() {
	os.Exit(run(parseFlags(os.Args[1:]), os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags(args []string) Config {
	var cfg Config
	fs := flag.NewFlagSet("health-check", flag.ExitOnError)

	fs.StringVar(&cfg.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/ready"), "Health endpoint URL")
	fs.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Print every check")
	fs.StringVar(&cfg.OutputFormat, "format", "text", "Output format: text, json")
	fs.StringVar(&cfg.Expect, "expect", "degraded", "Worst acceptable status: healthy, degraded")
	fs.IntVar(&cfg.RetryCount, "retry", 0, "Number of retries on transport failure")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	_ = fs.Parse(args)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// run probes cfg.URL and returns the process exit code
func run(cfg Config, out io.Writer) int {
	client := &http.Client{Timeout: cfg.Timeout}

	var lastErr error
	for attempt := 0; attempt <= cfg.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(cfg.RetryDelay)
		}

		resp, err := client.Get(cfg.URL)
		if err != nil {
			lastErr = err
			continue
		}
		return handleResponse(resp, cfg, out)
	}

	fmt.Fprintf(out, "health check failed after %d attempts: %v\n", cfg.RetryCount+1, lastErr)
	return exitCodeError
}

func handleResponse(resp *http.Response, cfg Config, out io.Writer) int {
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&health); err != nil {
		fmt.Fprintf(out, "invalid health response (HTTP %d): %v\n", resp.StatusCode, err)
		return exitCodeError
	}

	if cfg.OutputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(health)
	} else {
		fmt.Fprintf(out, "%s (version %s, HTTP %d)\n", health.Status, health.Version, resp.StatusCode)
		if cfg.Verbose {
			for _, c := range health.Checks {
				fmt.Fprintf(out, "  %-20s %-10s %s\n", c.Name, c.Status, c.Message)
			}
		}
	}

	got, ok := severity[health.Status]
	if !ok {
		return exitCodeError
	}
	want, ok := severity[cfg.Expect]
	if !ok {
		want = severity["degraded"]
	}
	if got > want {
		return exitCodeFailure
	}
	return exitCodeSuccess
}
