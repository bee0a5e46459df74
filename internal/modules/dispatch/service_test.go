// README: Dispatch service tests. Query defaults, index plumbing, and the
// janitor lifecycle.
package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

// The dispatch service is the index the driver module talks to.
var _ driver.Index = (*Service)(nil)

func newTestServiceNoMirror(t *testing.T) *Service {
	t.Helper()
	p := newTestPool(t)
	return NewService(p, nil, testConfig(), nil)
}

func TestServiceFindNearbyDefaults(t *testing.T) {
	svc := newTestServiceNoMirror(t)
	ctx := context.Background()
	origin := types.Point{Lat: 10, Lng: 106}

	// ~2.5 km out: inside the 3 km default radius, outside an explicit 1 km.
	d := testDriver(t, "d1", "sedan", 5, types.Point{Lat: 10.0225, Lng: 106}, baseTime)
	if err := svc.IndexDriver(ctx, d); err != nil {
		t.Fatalf("index: %v", err)
	}

	got, err := svc.FindNearby(ctx, Query{Origin: origin})
	if err != nil {
		t.Fatalf("find nearby with defaults: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "d1" {
		t.Fatalf("default-radius result = %v, want [d1]", resultIDs(got))
	}

	got, err = svc.FindNearby(ctx, Query{Origin: origin, RadiusKm: 1, MaxResults: 5})
	if err != nil {
		t.Fatalf("find nearby 1 km: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("1 km result = %v, want empty", resultIDs(got))
	}

	// Defaults fill zero values only; nonsense stays an error.
	if _, err := svc.FindNearby(ctx, Query{Origin: origin, RadiusKm: -1}); !errors.Is(err, ErrInvalidRadius) {
		t.Fatalf("negative radius err = %v, want ErrInvalidRadius", err)
	}
}

func TestServiceIndexAndRemove(t *testing.T) {
	svc := newTestServiceNoMirror(t)
	ctx := context.Background()
	pos := types.Point{Lat: 10, Lng: 106}

	d := testDriver(t, "d1", "sedan", 5, pos, baseTime)
	if err := svc.IndexDriver(ctx, d); err != nil {
		t.Fatalf("index: %v", err)
	}
	if st := svc.Stats(ctx); st.ActiveDrivers != 1 {
		t.Fatalf("stats = %+v, want 1 active driver", st)
	}

	svc.RemoveDriver(ctx, "d1")
	if st := svc.Stats(ctx); st.ActiveDrivers != 0 {
		t.Fatalf("stats after remove = %+v, want empty", st)
	}
	// Removing again is a harmless no-op.
	svc.RemoveDriver(ctx, "d1")
}

func TestRunJanitorEvicts(t *testing.T) {
	p := newTestPool(t) // pool clock pinned to baseTime
	cfg := testConfig()
	cfg.EvictionPeriodSeconds = 1
	svc := NewService(p, nil, cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pinged 10 minutes before the pinned clock, so the first sweep drops it.
	mustUpsert(t, p, testDriver(t, "silent", "sedan", 5, types.Point{Lat: 10, Lng: 106}, baseTime.Add(-10*time.Minute)))

	go svc.RunJanitor(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for svc.Stats(ctx).ActiveDrivers != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor never evicted; stats = %+v", svc.Stats(ctx))
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	svc := newTestServiceNoMirror(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.RunJanitor(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
