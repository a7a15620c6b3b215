package permission

import (
	"context"
	"fmt"
)

// Resolver computes effective permission sets. It is stateless; every call
// reads the current relational data, so a grant made mid-request may or may
// not be visible to a concurrently resolving request.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// EffectivePermissions returns the union of the user's direct grants and the
// grants of every assigned role, walked up the parent chain. A visited set
// guards against malformed role trees: a role already processed during this
// resolution is not processed again, so parent cycles terminate with each
// role's grants counted once. If the union contains the wildcard, the result
// is replaced with every code currently in the permission table.
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (CodeSet, error) {
	set := NewCodeSet()

	direct, err := r.repo.UserPermissionCodes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve direct permissions: %w", err)
	}
	for _, c := range direct {
		set.Add(c)
	}

	roleIDs, err := r.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve user roles: %w", err)
	}

	visited := make(map[int64]struct{})
	for _, id := range roleIDs {
		if err := r.collectRole(ctx, id, visited, set); err != nil {
			return nil, err
		}
	}

	if set.Contains(Wildcard) {
		all, err := r.repo.AllCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("expand wildcard: %w", err)
		}
		return NewCodeSet(all...), nil
	}
	return set, nil
}

// collectRole unions the role's own grants into set and recurses into its
// parent. Roles missing from the store are skipped rather than failing the
// whole resolution; a dangling parent pointer must not lock a user out.
func (r *Resolver) collectRole(ctx context.Context, roleID int64, visited map[int64]struct{}, set CodeSet) error {
	if _, seen := visited[roleID]; seen {
		return nil
	}
	visited[roleID] = struct{}{}

	grants, err := r.repo.RoleGrants(ctx, roleID)
	if err != nil {
		return fmt.Errorf("resolve role %d: %w", roleID, err)
	}
	if grants == nil {
		return nil
	}
	for _, c := range grants.Codes {
		set.Add(c)
	}
	if grants.ParentRoleID != nil {
		return r.collectRole(ctx, *grants.ParentRoleID, visited, set)
	}
	return nil
}

// Authorize reports whether the user's effective permission set contains the
// required code. Wildcard holders pass for every code in the live table.
func (r *Resolver) Authorize(ctx context.Context, userID int64, required Code) (bool, error) {
	set, err := r.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Contains(required), nil
}
