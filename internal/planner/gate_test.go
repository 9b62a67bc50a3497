package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reelplanner/backend/internal/models"
)

func TestPermissionGrantedTo(t *testing.T) {
	cases := []struct {
		perm Permission
		role models.Role
		want bool
	}{
		{PermOwnContent, models.RoleAdmin, true},
		{PermOwnContent, models.RoleUser, true},
		{PermOwnContent, models.RoleGuest, false},
		{PermReadAny, models.RoleAdmin, true},
		{PermReadAny, models.RoleUser, false},
		{PermStaff, models.RoleAdmin, true},
		{PermStaff, models.RoleUser, false},
		{PermStaff, models.RoleGuest, false},
	}

	for _, tc := range cases {
		if got := tc.perm.GrantedTo(tc.role); got != tc.want {
			t.Errorf("%s granted to %s: expected %v got %v", tc.perm, tc.role, tc.want, got)
		}
	}
}

func TestCallerRole(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	cases := map[string]models.Role{
		"":         models.RoleGuest,
		"stranger": models.RoleGuest,
		alice:      models.RoleUser,
		root:       models.RoleAdmin,
	}
	for caller, want := range cases {
		got, err := p.Gate.CallerRole(ctx, caller)
		if err != nil {
			t.Fatalf("role of %q: %v", caller, err)
		}
		if got != want {
			t.Fatalf("role of %q: expected %s got %s", caller, want, got)
		}
	}
}

func TestSetPublicationStateRequiresAdmin(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	before, err := p.Gate.PublicationState(ctx)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if before != models.Published {
		t.Fatalf("expected fresh store to be published got %s", before)
	}

	if _, err := p.Gate.SetPublicationState(ctx, alice, models.Unpublished); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission got %v", err)
	}
	if _, err := p.Gate.TogglePublicationState(ctx, bob); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission toggling got %v", err)
	}

	after, _ := p.Gate.PublicationState(ctx)
	if after != before {
		t.Fatalf("state changed by non-admin: %s -> %s", before, after)
	}
}

func TestSetAndTogglePublicationState(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	state, err := p.Gate.SetPublicationState(ctx, root, models.Unpublished)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if state != models.Unpublished {
		t.Fatalf("expected unpublished got %s", state)
	}

	state, err = p.Gate.TogglePublicationState(ctx, root)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state != models.Published {
		t.Fatalf("expected toggle to publish got %s", state)
	}

	if _, err := p.Gate.SetPublicationState(ctx, root, "archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}

	stored, _ := p.Gate.PublicationState(ctx)
	if stored != models.Published {
		t.Fatalf("expected stored state published got %s", stored)
	}
}

func TestAssignRole(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	if err := p.Gate.AssignRole(ctx, alice, bob, models.RoleAdmin); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission got %v", err)
	}
	if err := p.Gate.AssignRole(ctx, root, bob, "owner"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role got %v", err)
	}
	if err := p.Gate.AssignRole(ctx, root, " ", models.RoleUser); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank identity got %v", err)
	}

	if err := p.Gate.AssignRole(ctx, root, root, models.RoleUser); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected last admin demotion to fail got %v", err)
	}

	if err := p.Gate.AssignRole(ctx, root, bob, models.RoleAdmin); err != nil {
		t.Fatalf("promote bob: %v", err)
	}
	if ok, _ := p.Gate.IsAdmin(ctx, bob); !ok {
		t.Fatalf("expected bob to be admin")
	}

	if err := p.Gate.AssignRole(ctx, bob, root, models.RoleUser); err != nil {
		t.Fatalf("demote root with another admin present: %v", err)
	}
	if ok, _ := p.Gate.IsAdmin(ctx, root); ok {
		t.Fatalf("expected root to be demoted")
	}
}

type demotingRoleStore struct {
	*MemoryStore
	beforeReplace func()
}

func (s *demotingRoleStore) ReplaceRoleKeepingAdmin(ctx context.Context, identity string, role models.Role) error {
	if hook := s.beforeReplace; hook != nil {
		s.beforeReplace = nil
		hook()
	}
	return s.MemoryStore.ReplaceRoleKeepingAdmin(ctx, identity, role)
}

func TestAssignRoleInterleavedSelfDemotions(t *testing.T) {
	store := &demotingRoleStore{MemoryStore: NewMemoryStore()}
	p, _ := newTestPlannerWith(t, store, Options{})
	ctx := context.Background()

	if err := p.Gate.AssignRole(ctx, root, bob, models.RoleAdmin); err != nil {
		t.Fatalf("promote bob: %v", err)
	}

	var innerErr error
	store.beforeReplace = func() {
		innerErr = p.Gate.AssignRole(ctx, bob, bob, models.RoleUser)
	}
	outerErr := p.Gate.AssignRole(ctx, root, root, models.RoleUser)

	if innerErr != nil {
		t.Fatalf("expected the first demotion to succeed got %v", innerErr)
	}
	if !errors.Is(outerErr, ErrInvalidState) {
		t.Fatalf("expected the second demotion to be refused got %v", outerErr)
	}
	if n, _ := store.CountRole(ctx, models.RoleAdmin); n != 1 {
		t.Fatalf("expected one admin left got %d", n)
	}
}

func TestAssignRoleConcurrentSelfDemotions(t *testing.T) {
	p, store := newTestPlanner(t)
	ctx := context.Background()

	if err := p.Gate.AssignRole(ctx, root, bob, models.RoleAdmin); err != nil {
		t.Fatalf("promote bob: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, admin := range []string{root, bob} {
		wg.Add(1)
		go func(i int, admin string) {
			defer wg.Done()
			errs[i] = p.Gate.AssignRole(ctx, admin, admin, models.RoleUser)
		}(i, admin)
	}
	wg.Wait()

	var refused int
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidState), errors.Is(err, ErrPermission):
			refused++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if refused != 1 {
		t.Fatalf("expected exactly one demotion to be refused got %v", errs)
	}
	if n, _ := store.CountRole(ctx, models.RoleAdmin); n != 1 {
		t.Fatalf("expected one admin left got %d", n)
	}
}

func TestProvisionKeepsExistingRole(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx := context.Background()

	if err := p.Gate.Provision(ctx, root, models.RoleUser); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if ok, _ := p.Gate.IsAdmin(ctx, root); !ok {
		t.Fatalf("provision overwrote an existing admin role")
	}

	if err := p.Gate.Provision(ctx, "carol", models.RoleUser); err != nil {
		t.Fatalf("provision carol: %v", err)
	}
	role, _ := p.Gate.CallerRole(ctx, "carol")
	if role != models.RoleUser {
		t.Fatalf("expected carol to be user got %s", role)
	}
}
