// README: Bench cases. Each case hits the live API; the load phase fans out
// ping writers and nearby readers, the race case hammers one driver supply
// with concurrent trip requests.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Central Saigon; all simulated drivers spread north from here.
const (
	baseLat = 10.7769
	baseLng = 106.6959
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	redis *redis.Client

	driverIDs []string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "health endpoint", Run: checkHealth},
		{Name: "driver registration and first ping", Run: seedDrivers},
		{Name: "nearby returns indexed drivers", Run: checkNearby},
		{Name: "pool stats reflect seeded drivers", Run: checkStats},
		{Name: "sustained pings and queries", Run: loadPhase},
		{Name: "redis mirror populated", Run: checkMirror},
		{Name: "trip lifecycle", Run: tripLifecycle},
		{Name: "concurrent trips claim distinct drivers", Run: tripRace},
	}
}

func checkHealth(ctx context.Context, r *Runner) Result {
	start := time.Now()
	status, _, err := r.getJSON(ctx, "/health")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", status)}
	}
	return Result{Status: "PASS", Latency: time.Since(start)}
}

// seedDrivers registers the simulated fleet and sends each driver's first
// ping so the pool indexes it. Re-running against a live server is fine;
// already-registered drivers answer 409 and are pinged anyway.
func seedDrivers(ctx context.Context, r *Runner) Result {
	start := time.Now()
	for i := 0; i < r.cfg.Drivers; i++ {
		id := fmt.Sprintf("bench-d%d", i)
		// Equal ratings keep the nearby ranking a pure pickup-estimate
		// order, which checkNearby asserts.
		status, _, err := r.postJSON(ctx, "/api/drivers", map[string]any{
			"id": id, "vehicle": "sedan", "rating": 4.8,
		})
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if status != http.StatusCreated && status != http.StatusConflict {
			return Result{Status: "FAIL", Note: fmt.Sprintf("register %s: status=%d", id, status)}
		}

		lat, lng := driverPos(i, 0)
		status, _, err = r.postJSON(ctx, "/api/drivers/"+id+"/location", map[string]any{
			"lat": lat, "lng": lng,
		})
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if status != http.StatusOK {
			return Result{Status: "FAIL", Note: fmt.Sprintf("ping %s: status=%d", id, status)}
		}
		r.driverIDs = append(r.driverIDs, id)
	}
	return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("drivers=%d", len(r.driverIDs))}
}

func checkNearby(ctx context.Context, r *Runner) Result {
	start := time.Now()
	path := fmt.Sprintf("/api/drivers/nearby?lat=%f&lng=%f&radius_km=3&max=%d", baseLat, baseLng, r.cfg.Drivers)
	status, body, err := r.getJSON(ctx, path)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", status)}
	}
	count, _ := body["count"].(float64)
	if int(count) < r.cfg.Drivers {
		return Result{Status: "FAIL", Note: fmt.Sprintf("count=%d want>=%d", int(count), r.cfg.Drivers)}
	}

	// Candidates must come back ordered by pickup estimate.
	candidates, _ := body["candidates"].([]any)
	prev := -1.0
	for _, c := range candidates {
		eta, _ := c.(map[string]any)["eta_minutes"].(float64)
		if eta < prev {
			return Result{Status: "FAIL", Note: "candidates not sorted by eta"}
		}
		prev = eta
	}
	return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("count=%d", int(count))}
}

func checkStats(ctx context.Context, r *Runner) Result {
	start := time.Now()
	status, body, err := r.getJSON(ctx, "/api/dispatch/stats")
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", status)}
	}
	active, _ := body["active_drivers"].(float64)
	if int(active) < r.cfg.Drivers {
		return Result{Status: "FAIL", Note: fmt.Sprintf("active_drivers=%d want>=%d", int(active), r.cfg.Drivers)}
	}
	return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("active=%d", int(active))}
}

// loadPhase runs one ping writer per driver and cfg.Concurrency nearby
// readers for cfg.Duration. Any non-2xx response fails the whole phase.
func loadPhase(ctx context.Context, r *Runner) Result {
	loadCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	var pings, queries int64
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(loadCtx)

	for i, id := range r.driverIDs {
		g.Go(func() error {
			tick := 0
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				tick++
				lat, lng := driverPos(i, tick)
				status, _, err := r.postJSON(gctx, "/api/drivers/"+id+"/location", map[string]any{
					"lat": lat, "lng": lng,
				})
				if gctx.Err() != nil {
					return nil
				}
				if err != nil {
					return err
				}
				if status != http.StatusOK {
					return fmt.Errorf("ping %s: status=%d", id, status)
				}
				mu.Lock()
				pings++
				mu.Unlock()
				time.Sleep(100 * time.Millisecond)
			}
		})
	}

	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				path := fmt.Sprintf("/api/drivers/nearby?lat=%f&lng=%f&radius_km=3", baseLat, baseLng)
				status, _, err := r.getJSON(gctx, path)
				if gctx.Err() != nil {
					return nil
				}
				if err != nil {
					return err
				}
				if status != http.StatusOK {
					return fmt.Errorf("nearby: status=%d", status)
				}
				mu.Lock()
				queries++
				mu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if pings == 0 || queries == 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("pings=%d queries=%d", pings, queries)}
	}
	secs := r.cfg.Duration.Seconds()
	return Result{
		Status: "PASS",
		Note:   fmt.Sprintf("pings/s=%.0f queries/s=%.0f", float64(pings)/secs, float64(queries)/secs),
	}
}

// checkMirror compares the Redis GEO set against the fleet size. Servers
// running without a mirror leave the key empty, which only skips the check.
func checkMirror(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: "SKIP", Note: "no redis address configured"}
	}
	n, err := r.redis.ZCard(ctx, "dispatch:drivers").Result()
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if n == 0 {
		return Result{Status: "SKIP", Note: "mirror empty (server may run without redis)"}
	}
	if int(n) < r.cfg.Drivers {
		return Result{Status: "FAIL", Note: fmt.Sprintf("mirror=%d want>=%d", n, r.cfg.Drivers)}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("mirror=%d", n)}
}

func tripLifecycle(ctx context.Context, r *Runner) Result {
	start := time.Now()
	status, trip, err := r.postJSON(ctx, "/api/trips", map[string]any{
		"rider_id":    "bench-r0",
		"pickup_lat":  baseLat,
		"pickup_lng":  baseLng,
		"dropoff_lat": baseLat + 0.03,
		"dropoff_lng": baseLng + 0.01,
		"tier":        "X",
	})
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if status == http.StatusConflict {
		return Result{Status: "SKIP", Note: "rider has an active trip from an earlier run"}
	}
	if status != http.StatusCreated {
		return Result{Status: "FAIL", Note: fmt.Sprintf("request: status=%d", status)}
	}
	if trip["status"] != "ASSIGNED" {
		return Result{Status: "FAIL", Note: fmt.Sprintf("trip status=%v, no driver claimed", trip["status"])}
	}
	id, _ := trip["id"].(string)

	for _, step := range []string{"start", "complete"} {
		status, _, err := r.postJSON(ctx, "/api/trips/"+id+"/"+step, nil)
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if status != http.StatusOK {
			return Result{Status: "FAIL", Note: fmt.Sprintf("%s: status=%d", step, status)}
		}
	}

	status, final, err := r.getJSON(ctx, "/api/trips/"+id)
	if err != nil || status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("get: status=%d err=%v", status, err)}
	}
	if final["status"] != "COMPLETED" || final["final_fare"] == nil {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%v final_fare=%v", final["status"], final["final_fare"])}
	}
	return Result{Status: "PASS", Latency: time.Since(start)}
}

// tripRace fires concurrent trip requests from distinct riders and checks
// that no driver is claimed twice.
func tripRace(ctx context.Context, r *Runner) Result {
	start := time.Now()
	claimed := make(map[string]int)
	var assigned, requested, blocked int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for i := 0; i < r.cfg.Concurrency; i++ {
		g.Go(func() error {
			status, trip, err := r.postJSON(gctx, "/api/trips", map[string]any{
				"rider_id":    fmt.Sprintf("bench-race-r%d", i),
				"pickup_lat":  baseLat,
				"pickup_lng":  baseLng,
				"dropoff_lat": baseLat + 0.02,
				"dropoff_lng": baseLng,
				"tier":        "X",
			})
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case status == http.StatusConflict:
				// Leftover active trip from an earlier run against the
				// same database.
				blocked++
			case status != http.StatusCreated:
				return fmt.Errorf("request: status=%d", status)
			case trip["status"] == "ASSIGNED":
				assigned++
				if d, ok := trip["driver_id"].(string); ok {
					claimed[d]++
				}
			case trip["status"] == "REQUESTED":
				requested++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}

	for d, n := range claimed {
		if n > 1 {
			return Result{Status: "FAIL", Note: fmt.Sprintf("driver %s claimed %d times", d, n)}
		}
	}
	if assigned == 0 {
		if blocked > 0 {
			return Result{Status: "SKIP", Note: fmt.Sprintf("all %d riders blocked by earlier trips", blocked)}
		}
		return Result{Status: "FAIL", Note: "no trip got a driver"}
	}
	return Result{
		Status:  "PASS",
		Latency: time.Since(start),
		Note:    fmt.Sprintf("assigned=%d requested=%d blocked=%d", assigned, requested, blocked),
	}
}

// driverPos spreads drivers in a north-south line and walks each one north
// about a meter per tick, enough to exercise heading and speed computation
// at a plausible pace.
func driverPos(i, tick int) (float64, float64) {
	return baseLat + float64(i)*0.0004 + float64(tick)*0.00001, baseLng
}

func (r *Runner) getJSON(ctx context.Context, path string) (int, map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	return r.do(req)
}

func (r *Runner) postJSON(ctx context.Context, path string, payload any) (int, map[string]any, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Runner) do(req *http.Request) (int, map[string]any, error) {
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	var m map[string]any
	if len(b) > 0 {
		_ = json.Unmarshal(b, &m)
	}
	return resp.StatusCode, m, nil
}
