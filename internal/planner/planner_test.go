package planner

import (
	"context"
	"testing"
	"time"

	"github.com/reelplanner/backend/internal/models"
)

const (
	alice = "alice"
	bob   = "bob"
	root  = "root"
)

type fakeWallClock struct {
	t time.Time
}

func (f *fakeWallClock) Now() time.Time {
	f.t = f.t.Add(time.Millisecond)
	return f.t
}

func newTestPlanner(t *testing.T) (*Planner, *MemoryStore) {
	t.Helper()
	return newTestPlannerWith(t, NewMemoryStore(), Options{})
}

func newTestPlannerWith(t *testing.T, store Store, opts Options) (*Planner, *MemoryStore) {
	t.Helper()

	if opts.NowFunc == nil {
		wall := &fakeWallClock{t: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
		opts.NowFunc = wall.Now
	}

	p := New(store, opts)
	ctx := context.Background()
	for _, id := range []string{alice, bob} {
		if err := p.Gate.Provision(ctx, id, models.RoleUser); err != nil {
			t.Fatalf("provision %s: %v", id, err)
		}
	}
	if err := p.Gate.BootstrapAdmins(ctx, []string{root}); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	mem, _ := store.(*MemoryStore)
	return p, mem
}

func mustAddIdea(t *testing.T, p *Planner, caller, title string, tags ...string) {
	t.Helper()
	if err := p.Ideas.AddOrUpdateIdea(context.Background(), caller, title, "description of "+title, tags); err != nil {
		t.Fatalf("add idea %q: %v", title, err)
	}
}

func findIdea(t *testing.T, ideas []models.VideoIdea, title string) models.VideoIdea {
	t.Helper()
	for _, idea := range ideas {
		if idea.Title == title {
			return idea
		}
	}
	t.Fatalf("idea %q not found in %+v", title, ideas)
	return models.VideoIdea{}
}
