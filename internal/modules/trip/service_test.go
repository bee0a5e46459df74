// README: Trip service tests against in-memory collaborators.
package trip

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/pricing"
	"github.com/get2yaheart/get2ya/internal/routing"
	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	testPickup  = types.Point{Lat: 10.77, Lng: 106.69}
	testDropoff = types.Point{Lat: 10.80, Lng: 106.70}
)

// stubDispatch serves a canned candidate list and records reindexes.
type stubDispatch struct {
	mu         sync.Mutex
	candidates []dispatch.Candidate
	indexed    []types.ID
}

func (s *stubDispatch) FindNearby(ctx context.Context, q dispatch.Query) ([]dispatch.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dispatch.Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

func (s *stubDispatch) IndexDriver(ctx context.Context, d *driver.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, d.ID)
	return nil
}

func (s *stubDispatch) indexedCount(id types.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, got := range s.indexed {
		if got == id {
			n++
		}
	}
	return n
}

type stubDrivers struct {
	mu sync.Mutex
	m  map[types.ID]*driver.Driver
}

func (s *stubDrivers) Get(ctx context.Context, id types.ID) (*driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.m[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return d, nil
}

type tripFixture struct {
	svc     *Service
	store   *MemStore
	dsp     *stubDispatch
	drivers *stubDrivers
}

func newTripFixture() *tripFixture {
	store := NewMemStore()
	dsp := &stubDispatch{}
	drivers := &stubDrivers{m: make(map[types.ID]*driver.Driver)}
	svc := NewService(store, dsp, drivers, pricing.NewService(nil), routing.NewPlanarEstimator(0), nil)
	return &tripFixture{svc: svc, store: store, dsp: dsp, drivers: drivers}
}

// addAvailableDriver registers a pinged driver and exposes it as a dispatch
// candidate the way a pool query would.
func (f *tripFixture) addAvailableDriver(id types.ID) *driver.Driver {
	d := driver.New(id, "sedan", 4.8)
	d.UpdateLocation(testPickup, time.Now())
	f.drivers.mu.Lock()
	f.drivers.m[id] = d
	f.drivers.mu.Unlock()

	st := d.State()
	f.dsp.mu.Lock()
	f.dsp.candidates = append(f.dsp.candidates, dispatch.Candidate{
		DriverID: id,
		Tier:     d.Tier,
		Status:   st.Status,
		Rating:   st.Rating,
		Position: st.Position,
	})
	f.dsp.mu.Unlock()
	return d
}

func mustRequest(t *testing.T, f *tripFixture, riderID types.ID) *Trip {
	t.Helper()
	tr, err := f.svc.Request(context.Background(), RequestCommand{
		RiderID: riderID,
		Pickup:  testPickup,
		Dropoff: testDropoff,
		Tier:    driver.TierX,
	})
	if err != nil {
		t.Fatalf("request trip: %v", err)
	}
	return tr
}

func assertStatus(t *testing.T, svc *Service, tripID types.ID, want Status) {
	t.Helper()
	tr, err := svc.Get(context.Background(), tripID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if tr.Status != want {
		t.Fatalf("expected status %s, got %s", want, tr.Status)
	}
}

func TestRequestAssignsDriver(t *testing.T) {
	f := newTripFixture()
	d := f.addAvailableDriver("D1")

	tr := mustRequest(t, f, "R1")

	if tr.Status != StatusAssigned {
		t.Fatalf("status = %s, want %s", tr.Status, StatusAssigned)
	}
	if tr.DriverID == nil || *tr.DriverID != "D1" {
		t.Fatalf("driver id = %v, want D1", tr.DriverID)
	}
	if tr.AssignedAt == nil {
		t.Error("assigned trip has no assigned_at timestamp")
	}
	if tr.StatusVersion != 1 {
		t.Errorf("status version = %d, want 1", tr.StatusVersion)
	}
	if got := d.State().Status; got != driver.StatusOnTrip {
		t.Errorf("driver status = %s, want %s", got, driver.StatusOnTrip)
	}
	if n := f.dsp.indexedCount("D1"); n != 1 {
		t.Errorf("driver reindexed %d times, want 1", n)
	}

	// The persisted estimate must equal what routing and pricing produce for
	// the same inputs.
	est, err := routing.NewPlanarEstimator(0).EstimateRoute(context.Background(), testPickup, testDropoff)
	if err != nil {
		t.Fatalf("estimate route: %v", err)
	}
	q, err := pricing.NewService(nil).Quote(context.Background(), driver.TierX, float64(est.DistanceMeters)/1000, est.Duration.Minutes(), 1.0)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if tr.EstimatedFare != q.Fare {
		t.Errorf("estimated fare = %+v, want %+v", tr.EstimatedFare, q.Fare)
	}
	if tr.RouteDistanceM != est.DistanceMeters {
		t.Errorf("route distance = %d, want %d", tr.RouteDistanceM, est.DistanceMeters)
	}

	if events := f.store.Events(); len(events) != 2 {
		t.Errorf("recorded %d events, want 2", len(events))
	}
}

func TestRequestWithoutDriversStaysRequested(t *testing.T) {
	f := newTripFixture()

	tr := mustRequest(t, f, "R1")

	if tr.Status != StatusRequested {
		t.Fatalf("status = %s, want %s", tr.Status, StatusRequested)
	}
	if tr.DriverID != nil {
		t.Errorf("driver id = %v, want nil", tr.DriverID)
	}
}

func TestRequestSkipsAlreadyClaimedDrivers(t *testing.T) {
	f := newTripFixture()
	busy := f.addAvailableDriver("D1")
	busy.SetStatus(driver.StatusOnTrip)
	f.addAvailableDriver("D2")

	tr := mustRequest(t, f, "R1")

	if tr.DriverID == nil || *tr.DriverID != "D2" {
		t.Fatalf("driver id = %v, want D2", tr.DriverID)
	}
}

func TestRequestActiveTripGuard(t *testing.T) {
	f := newTripFixture()

	mustRequest(t, f, "R1")

	_, err := f.svc.Request(context.Background(), RequestCommand{
		RiderID: "R1",
		Pickup:  testPickup,
		Dropoff: testDropoff,
		Tier:    driver.TierX,
	})
	if err != ErrActiveTrip {
		t.Fatalf("second request error = %v, want ErrActiveTrip", err)
	}

	// Another rider is unaffected.
	mustRequest(t, f, "R2")
}

func TestRequestValidation(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  RequestCommand
	}{
		{"empty rider", RequestCommand{Pickup: testPickup, Dropoff: testDropoff, Tier: driver.TierX}},
		{"empty tier", RequestCommand{RiderID: "R1", Pickup: testPickup, Dropoff: testDropoff}},
		{"bad pickup", RequestCommand{RiderID: "R1", Pickup: types.Point{Lat: 95}, Dropoff: testDropoff, Tier: driver.TierX}},
		{"bad dropoff", RequestCommand{RiderID: "R1", Pickup: testPickup, Dropoff: types.Point{Lng: 200}, Tier: driver.TierX}},
		{"unknown tier", RequestCommand{RiderID: "R1", Pickup: testPickup, Dropoff: testDropoff, Tier: driver.Tier("hoverboard")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Request(ctx, tc.cmd); err != ErrBadRequest {
				t.Errorf("error = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestTripLifecycle(t *testing.T) {
	f := newTripFixture()
	d := f.addAvailableDriver("D1")
	ctx := context.Background()

	tr := mustRequest(t, f, "R1")
	assertStatus(t, f.svc, tr.ID, StatusAssigned)

	if err := f.svc.Start(ctx, StartCommand{TripID: tr.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	assertStatus(t, f.svc, tr.ID, StatusInProgress)

	if err := f.svc.Complete(ctx, CompleteCommand{TripID: tr.ID}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, f.svc, tr.ID, StatusCompleted)

	done, err := f.svc.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if done.FinalFare == nil || *done.FinalFare != done.EstimatedFare {
		t.Errorf("final fare = %v, want %v", done.FinalFare, done.EstimatedFare)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("lifecycle timestamps missing")
	}
	if got := d.State().Status; got != driver.StatusAvailable {
		t.Errorf("driver status after completion = %s, want %s", got, driver.StatusAvailable)
	}
	// Claim and release each reindex the driver.
	if n := f.dsp.indexedCount("D1"); n != 2 {
		t.Errorf("driver reindexed %d times, want 2", n)
	}
}

func TestStartBeforeAssignment(t *testing.T) {
	f := newTripFixture()

	tr := mustRequest(t, f, "R1")

	if err := f.svc.Start(context.Background(), StartCommand{TripID: tr.ID}); err != ErrInvalidState {
		t.Fatalf("start on requested trip: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelRequestedFreesRider(t *testing.T) {
	f := newTripFixture()
	ctx := context.Background()

	tr := mustRequest(t, f, "R1")

	if err := f.svc.Cancel(ctx, CancelCommand{TripID: tr.ID, ActorType: "rider", Reason: "changed plans"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertStatus(t, f.svc, tr.ID, StatusCancelled)

	got, err := f.svc.Get(ctx, tr.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if got.CancelReason == nil || *got.CancelReason != "changed plans" {
		t.Errorf("cancel reason = %v, want changed plans", got.CancelReason)
	}

	// The rider may request again once the trip is terminal.
	mustRequest(t, f, "R1")
}

func TestCancelAssignedReleasesDriver(t *testing.T) {
	f := newTripFixture()
	d := f.addAvailableDriver("D1")
	ctx := context.Background()

	tr := mustRequest(t, f, "R1")
	assertStatus(t, f.svc, tr.ID, StatusAssigned)

	if err := f.svc.Cancel(ctx, CancelCommand{TripID: tr.ID, ActorType: "rider", Reason: "waited too long"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := d.State().Status; got != driver.StatusAvailable {
		t.Errorf("driver status after cancel = %s, want %s", got, driver.StatusAvailable)
	}
}

func TestCancelTerminalTrip(t *testing.T) {
	f := newTripFixture()
	f.addAvailableDriver("D1")
	ctx := context.Background()

	tr := mustRequest(t, f, "R1")
	if err := f.svc.Start(ctx, StartCommand{TripID: tr.ID}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.Complete(ctx, CompleteCommand{TripID: tr.ID}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := f.svc.Cancel(ctx, CancelCommand{TripID: tr.ID}); err != ErrInvalidState {
		t.Fatalf("cancel completed trip: expected ErrInvalidState, got %v", err)
	}
}

func TestConcurrentRequestsClaimOneDriver(t *testing.T) {
	f := newTripFixture()
	d := f.addAvailableDriver("D1")
	ctx := context.Background()

	const riders = 6
	results := make(chan *Trip, riders)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			tr, err := f.svc.Request(ctx, RequestCommand{
				RiderID: types.ID(fmt.Sprintf("R%d", n)),
				Pickup:  testPickup,
				Dropoff: testDropoff,
				Tier:    driver.TierX,
			})
			if err != nil {
				t.Errorf("request: %v", err)
				return
			}
			results <- tr
		}(i)
	}

	close(start)
	wg.Wait()
	close(results)

	assigned := 0
	for tr := range results {
		switch tr.Status {
		case StatusAssigned:
			assigned++
		case StatusRequested:
		default:
			t.Errorf("unexpected status %s", tr.Status)
		}
	}
	if assigned != 1 {
		t.Fatalf("expected exactly 1 assigned trip, got %d", assigned)
	}
	if got := d.State().Status; got != driver.StatusOnTrip {
		t.Errorf("driver status = %s, want %s", got, driver.StatusOnTrip)
	}
}
