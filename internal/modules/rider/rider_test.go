package rider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/get2yaheart/get2ya/internal/types"
)

func TestRegister(t *testing.T) {
	svc := NewService(NewStore(), nil)
	ctx := context.Background()

	r, err := svc.Register(ctx, RegisterCommand{ID: "R1", Name: "An", PaymentMethod: "cash"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.State().Rating != 5.0 {
		t.Errorf("default rating = %v, want 5.0", r.State().Rating)
	}
	if r.PaymentMethod != "cash" {
		t.Errorf("payment method = %q, want cash", r.PaymentMethod)
	}

	if _, err := svc.Register(ctx, RegisterCommand{ID: "R1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate register error = %v, want ErrConflict", err)
	}
	if _, err := svc.Register(ctx, RegisterCommand{}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("empty id error = %v, want ErrBadRequest", err)
	}
}

func TestUpdateLocation(t *testing.T) {
	svc := NewService(NewStore(), nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterCommand{ID: "R1", Name: "An"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := types.Point{Lat: 10.77, Lng: 106.69}
	st, err := svc.UpdateLocation(ctx, "R1", p)
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if st.Position != p {
		t.Errorf("position = %+v, want %+v", st.Position, p)
	}
	if !st.UpdatedAt.Equal(at) {
		t.Errorf("updated at = %v, want %v", st.UpdatedAt, at)
	}

	if _, err := svc.UpdateLocation(ctx, "ghost", p); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown rider error = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateLocation(ctx, "R1", types.Point{Lat: 95, Lng: 0}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("invalid point error = %v, want ErrBadRequest", err)
	}
}

func TestSetRatingClamps(t *testing.T) {
	r := New("R1", "An", "card", 4.2)

	r.SetRating(9)
	if got := r.State().Rating; got != 5 {
		t.Errorf("rating = %v, want 5", got)
	}
	r.SetRating(-2)
	if got := r.State().Rating; got != 0 {
		t.Errorf("rating = %v, want 0", got)
	}
}
