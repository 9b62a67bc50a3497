package planner

import (
	"context"
	"errors"
	"testing"
)

func TestSaveProfile(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	bio := "  travel vlogs "
	created, err := p.Profiles.SaveProfile(ctx, alice, " Alice ", &bio)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if created.Owner != alice || created.Name != "Alice" {
		t.Fatalf("unexpected profile %+v", created)
	}
	if created.Bio == nil || *created.Bio != "travel vlogs" {
		t.Fatalf("expected trimmed bio got %v", created.Bio)
	}

	blank := "   "
	updated, err := p.Profiles.SaveProfile(ctx, alice, "Alice B.", &blank)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Alice B." || updated.Bio != nil {
		t.Fatalf("expected name replaced and bio cleared got %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Fatalf("createdAt changed on update: %d -> %d", created.CreatedAt, updated.CreatedAt)
	}

	fetched, err := p.Profiles.GetProfile(ctx, alice, "")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if fetched.Name != "Alice B." {
		t.Fatalf("expected stored update got %+v", fetched)
	}
}

func TestSaveProfileValidation(t *testing.T) {
	p, _ := newTestPlanner(t)

	if _, err := p.Profiles.SaveProfile(context.Background(), alice, "  ", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
	if _, err := p.Profiles.SaveProfile(context.Background(), "", "Guest", nil); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	if _, err := p.Profiles.GetProfile(ctx, alice, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	if _, err := p.Profiles.SaveProfile(ctx, bob, "Bob", nil); err != nil {
		t.Fatalf("save bob: %v", err)
	}
	if _, err := p.Profiles.GetProfile(ctx, alice, bob); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission got %v", err)
	}
	profile, err := p.Profiles.GetProfile(ctx, root, bob)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if profile.Name != "Bob" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}
