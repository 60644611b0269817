package clinics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client), mr
}

func TestGetReturnsDefaultsWhenMissing(t *testing.T) {
	store, _ := newTestStore(t)

	c, err := store.Get(context.Background(), "clinic-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.ID != "clinic-1" {
		t.Errorf("ID = %q, want clinic-1", c.ID)
	}
	if c.OpenMinute != 600 || c.CloseMinute != 1200 {
		t.Errorf("hours = %d-%d, want 600-1200", c.OpenMinute, c.CloseMinute)
	}
}

func TestSetThenGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	want := &Clinic{
		ID:          "clinic-2",
		Name:        "Riverside Dental",
		Timezone:    "America/Chicago",
		OpenMinute:  8 * 60,
		CloseMinute: 17 * 60,
	}
	if err := store.Set(context.Background(), want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(context.Background(), "clinic-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Riverside Dental" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.OpenMinute != 480 || got.CloseMinute != 1020 {
		t.Errorf("hours = %d-%d, want 480-1020", got.OpenMinute, got.CloseMinute)
	}
}

func TestSetRequiresID(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Set(context.Background(), &Clinic{}); err == nil {
		t.Errorf("expected error for missing clinic id")
	}
}

func TestWithDefaultHours(t *testing.T) {
	store, _ := newTestStore(t)
	store.WithDefaultHours(9*60, 17*60)

	c, err := store.Get(context.Background(), "clinic-4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.OpenMinute != 540 || c.CloseMinute != 1020 {
		t.Errorf("hours = %d-%d, want 540-1020", c.OpenMinute, c.CloseMinute)
	}
}

func TestWithDefaultHoursRejectsInverted(t *testing.T) {
	store, _ := newTestStore(t)
	store.WithDefaultHours(1200, 600)

	c, err := store.Get(context.Background(), "clinic-5")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.OpenMinute != 600 || c.CloseMinute != 1200 {
		t.Errorf("hours = %d-%d, want defaults kept", c.OpenMinute, c.CloseMinute)
	}
}

func TestGetRepairsBrokenHours(t *testing.T) {
	store, mr := newTestStore(t)

	mr.Set("clinic:registry:clinic-3", `{"id":"clinic-3","name":"Broken","open_minute":1200,"close_minute":600}`)

	c, err := store.Get(context.Background(), "clinic-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.OpenMinute != 600 || c.CloseMinute != 1200 {
		t.Errorf("hours = %d-%d, want defaults 600-1200", c.OpenMinute, c.CloseMinute)
	}
}
