package application

import (
	"github.com/dfryer1193/inkwell/blog/domain"
)

// AccessPolicy selects how strictly mutations are gated.
type AccessPolicy struct {
	// RequireAuthForMutation rejects anonymous callers on create, update,
	// publish and delete. When false anyone may mutate.
	RequireAuthForMutation bool
	// OwnerOnly restricts mutations of an existing post to its author and
	// superusers.
	OwnerOnly bool
}

// Gate is the single place mutation permissions are decided.
type Gate struct {
	policy AccessPolicy
}

func NewGate(policy AccessPolicy) *Gate {
	return &Gate{policy: policy}
}

// RequiresAuth reports whether anonymous callers are turned away.
func (g *Gate) RequiresAuth() bool {
	return g.policy.RequireAuthForMutation
}

// RequireAuthenticated returns the caller when it may mutate posts at all.
// A nil caller is treated as anonymous.
func (g *Gate) RequireAuthenticated(caller domain.Identity) (domain.Identity, error) {
	if caller == nil {
		caller = domain.Anonymous{}
	}

	if g.policy.RequireAuthForMutation && !caller.IsAuthenticated() {
		return nil, domain.ErrPermissionDenied
	}

	return caller, nil
}

// CanMutate decides whether caller may change post.
func (g *Gate) CanMutate(caller domain.Identity, post *domain.Post) bool {
	if !g.policy.OwnerOnly {
		return true
	}
	if caller == nil || !caller.IsAuthenticated() {
		return false
	}
	return caller.IsSuperuser() || caller.AuthorID() == post.AuthorID
}
