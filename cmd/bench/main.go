// README: Load and consistency harness; drives a running API through driver
// pings, nearby queries, and trip lifecycles, then prints a PASS/FAIL summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "PASS":
			pass++
		case "FAIL":
			fail++
		case "SKIP":
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 {
		os.Exit(1)
	}
	if cfg.Strict && skipped > 0 {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL     string
	RedisAddr   string
	Timeout     time.Duration
	Drivers     int
	Concurrency int
	Duration    time.Duration
	Strict      bool
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("GET2YA_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("GET2YA_BENCH_REDIS_ADDR", ""), "Redis address for mirror checks (empty skips them)")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("GET2YA_BENCH_TIMEOUT", 120*time.Second), "Total timeout")
	flag.IntVar(&cfg.Drivers, "drivers", envOrDefaultInt("GET2YA_BENCH_DRIVERS", 25), "Simulated driver count")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("GET2YA_BENCH_CONCURRENCY", 20), "Concurrent readers and trip requesters")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("GET2YA_BENCH_DURATION", 10*time.Second), "Duration of the load phase")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("GET2YA_BENCH_STRICT", false), "Fail on skipped checks")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
