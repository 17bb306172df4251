// Package access derives membership and role from the group's membership rows
// and gates message visibility and call access on it.
package access

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Store is the slice of the backend client the gate needs.
type Store interface {
	LoadGroup(ctx context.Context, id domain.GroupID) (*domain.Group, error)
	LoadMemberships(ctx context.Context, groupID domain.GroupID) ([]domain.Membership, error)
	InsertMembership(ctx context.Context, m domain.Membership) error
	DeleteMembership(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error
}

// Status is the derived access state of one user in one group.
type Status struct {
	IsMember bool
	Role     domain.Role
}

// Compute derives membership from the owner field and the membership rows.
// The owner is always an implicit member, even when no membership row exists
// for them; one consistent rule for both badge display and gating.
func Compute(userID domain.UserID, group *domain.Group, rows []domain.Membership) Status {
	if group != nil && group.OwnerID == userID {
		return Status{IsMember: true, Role: domain.RoleOwner}
	}
	for _, r := range rows {
		if r.UserID == userID {
			role := r.Role
			if role == "" {
				role = domain.RoleMember
			}
			return Status{IsMember: true, Role: role}
		}
	}
	return Status{}
}

// Gate caches one group's membership list and answers access questions for
// the current user. The cache is refreshed after every mutation; it is not
// shared across group views.
type Gate struct {
	store Store
	self  domain.UserID

	mu    sync.RWMutex
	group *domain.Group
	rows  []domain.Membership
}

func NewGate(st Store, self domain.UserID) *Gate {
	return &Gate{store: st, self: self}
}

// Load fetches the group and its membership rows.
func (g *Gate) Load(ctx context.Context, groupID domain.GroupID) error {
	group, err := g.store.LoadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	rows, err := g.store.LoadMemberships(ctx, groupID)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.group, g.rows = group, rows
	g.mu.Unlock()
	return nil
}

// Group returns the loaded group, nil before Load.
func (g *Gate) Group() *domain.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.group
}

// Members returns the cached membership rows.
func (g *Gate) Members() []domain.Membership {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.Membership, len(g.rows))
	copy(out, g.rows)
	return out
}

// Status derives the access state for any user against the cached list.
func (g *Gate) Status(userID domain.UserID) Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Compute(userID, g.group, g.rows)
}

// Join inserts a membership row for the current user. Joining a group the
// user already belongs to succeeds and just refreshes the cache; joining a
// private group is refused.
func (g *Gate) Join(ctx context.Context) error {
	g.mu.RLock()
	group := g.group
	g.mu.RUnlock()
	if group == nil {
		return fmt.Errorf("%w: group not loaded", domain.ErrNotFound)
	}
	if g.Status(g.self).IsMember {
		return g.refresh(ctx, group.ID)
	}
	if group.IsPrivate {
		return fmt.Errorf("%w: group %s is private", domain.ErrAccessDenied, group.ID)
	}
	m := domain.Membership{UserID: g.self, GroupID: group.ID, Role: domain.RoleMember}
	if err := g.store.InsertMembership(ctx, m); err != nil {
		return err
	}
	log.Info().Str("module", "access").Str("group", string(group.ID)).Str("user", string(g.self)).Msg("joined")
	return g.refresh(ctx, group.ID)
}

// Leave removes the current user's membership row. The owner cannot leave;
// ownership would have to move first.
func (g *Gate) Leave(ctx context.Context) error {
	g.mu.RLock()
	group := g.group
	g.mu.RUnlock()
	if group == nil {
		return fmt.Errorf("%w: group not loaded", domain.ErrNotFound)
	}
	if group.OwnerID == g.self {
		return fmt.Errorf("%w: owner cannot leave group %s", domain.ErrAccessDenied, group.ID)
	}
	if !g.Status(g.self).IsMember {
		return nil
	}
	if err := g.store.DeleteMembership(ctx, group.ID, g.self); err != nil {
		return err
	}
	log.Info().Str("module", "access").Str("group", string(group.ID)).Str("user", string(g.self)).Msg("left")
	return g.refresh(ctx, group.ID)
}

func (g *Gate) refresh(ctx context.Context, groupID domain.GroupID) error {
	rows, err := g.store.LoadMemberships(ctx, groupID)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.rows = rows
	g.mu.Unlock()
	return nil
}

// Message read, message send and call start share one rule: membership.

func (g *Gate) CanRead() bool      { return g.Status(g.self).IsMember }
func (g *Gate) CanSend() bool      { return g.Status(g.self).IsMember }
func (g *Gate) CanStartCall() bool { return g.Status(g.self).IsMember }
