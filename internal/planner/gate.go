package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

// Permission names a capability checked at the boundary of a gated operation.
type Permission int

const (
	// PermOwnContent covers reading and writing the caller's own ideas,
	// hashtags, profile and the shared calendar.
	PermOwnContent Permission = iota
	// PermReadAny covers reading another identity's ideas, hashtags and profile.
	PermReadAny
	// PermStaff covers statistics, publication changes, role assignment and snapshots.
	PermStaff
)

func (p Permission) String() string {
	switch p {
	case PermOwnContent:
		return "own-content"
	case PermReadAny:
		return "read-any"
	case PermStaff:
		return "staff"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

// GrantedTo reports whether role holds the permission.
func (p Permission) GrantedTo(role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return p == PermOwnContent
	default:
		return false
	}
}

// Gate owns the publication flag and per-identity roles.
type Gate struct {
	roles       RoleStore
	publication PublicationStore
}

// NewGate constructs a Gate over the given stores.
func NewGate(roles RoleStore, publication PublicationStore) *Gate {
	if roles == nil || publication == nil {
		panic("planner: gate stores must not be nil")
	}
	return &Gate{roles: roles, publication: publication}
}

// CallerRole resolves the caller's role. Unauthenticated and unprovisioned
// callers are guests.
func (g *Gate) CallerRole(ctx context.Context, caller string) (models.Role, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return models.RoleGuest, nil
	}

	role, err := g.roles.FindRole(ctx, caller)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.RoleGuest, nil
		}
		return "", fmt.Errorf("find role: %w", err)
	}
	return role, nil
}

// IsAdmin reports whether the caller holds the admin role.
func (g *Gate) IsAdmin(ctx context.Context, caller string) (bool, error) {
	role, err := g.CallerRole(ctx, caller)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// Authorize fails with ErrPermission unless the caller's role holds perm.
func (g *Gate) Authorize(ctx context.Context, caller string, perm Permission) error {
	role, err := g.CallerRole(ctx, caller)
	if err != nil {
		return err
	}
	if !perm.GrantedTo(role) {
		return fmt.Errorf("%w: role %s lacks %s", ErrPermission, role, perm)
	}
	return nil
}

// AssignRole sets the role of identity. Only admins may assign roles, and the
// last remaining admin cannot be demoted.
func (g *Gate) AssignRole(ctx context.Context, caller, identity string, role models.Role) error {
	if err := g.Authorize(ctx, caller, PermStaff); err != nil {
		return err
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return validationError("identity is required")
	}
	if !role.Valid() {
		return validationError("unknown role %q", role)
	}

	if err := g.roles.ReplaceRoleKeepingAdmin(ctx, identity, role); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	logging.FromContext(ctx).Info("role assigned", "by", caller, "identity", identity, "role", role)
	return nil
}

// Provision gives identity a role when it has none yet. It performs no
// permission check and is used when accounts are created.
func (g *Gate) Provision(ctx context.Context, identity string, role models.Role) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return validationError("identity is required")
	}
	if !role.Valid() {
		return validationError("unknown role %q", role)
	}

	if _, err := g.roles.FindRole(ctx, identity); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("find role: %w", err)
	}

	if err := g.roles.SaveRole(ctx, identity, role); err != nil {
		return fmt.Errorf("save role: %w", err)
	}
	return nil
}

// BootstrapAdmins grants admin to each identity unconditionally.
func (g *Gate) BootstrapAdmins(ctx context.Context, identities []string) error {
	for _, identity := range identities {
		identity = strings.TrimSpace(identity)
		if identity == "" {
			continue
		}
		if err := g.roles.SaveRole(ctx, identity, models.RoleAdmin); err != nil {
			return fmt.Errorf("bootstrap admin %s: %w", identity, err)
		}
	}
	return nil
}

// PublicationState returns the current flag. Anyone may read it.
func (g *Gate) PublicationState(ctx context.Context) (models.PublicationState, error) {
	state, err := g.publication.LoadPublicationState(ctx)
	if err != nil {
		return "", fmt.Errorf("load publication state: %w", err)
	}
	return state, nil
}

// SetPublicationState replaces the flag. Only admins may change it.
func (g *Gate) SetPublicationState(ctx context.Context, caller string, target models.PublicationState) (models.PublicationState, error) {
	if err := g.Authorize(ctx, caller, PermStaff); err != nil {
		return "", err
	}
	if !target.Valid() {
		return "", validationError("unknown publication state %q", target)
	}

	if err := g.publication.SavePublicationState(ctx, target); err != nil {
		return "", fmt.Errorf("save publication state: %w", err)
	}

	logging.FromContext(ctx).Info("publication state changed", "by", caller, "state", target)
	return target, nil
}

// TogglePublicationState flips the flag and returns the new value.
func (g *Gate) TogglePublicationState(ctx context.Context, caller string) (models.PublicationState, error) {
	if err := g.Authorize(ctx, caller, PermStaff); err != nil {
		return "", err
	}

	current, err := g.PublicationState(ctx)
	if err != nil {
		return "", err
	}

	target := models.Unpublished
	if current == models.Unpublished {
		target = models.Published
	}
	return g.SetPublicationState(ctx, caller, target)
}
