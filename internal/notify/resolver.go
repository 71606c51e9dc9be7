package notify

import (
	"context"
	"errors"
	"sort"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// Resolver computes the set of users a dispatch event should reach. It only
// reads; resolution for a given event kind and payload is deterministic and
// the returned set is deduplicated by user identity and sorted by ID.
type Resolver struct {
	users repository.UserRepository
}

// NewResolver creates a new Resolver.
func NewResolver(users repository.UserRepository) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the deduplicated recipients for the event.
func (r *Resolver) Resolve(ctx context.Context, kind EventKind, p *Payload) ([]*domain.User, error) {
	if p == nil {
		p = &Payload{}
	}

	var candidates []*domain.User

	switch kind {
	case EventBookingCreated, EventBookingApproved, EventBookingRejected:
		admins, err := r.users.GetByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, admins...)

		if requester, err := r.lookup(ctx, p.RequesterID); err != nil {
			return nil, err
		} else if requester != nil {
			candidates = append(candidates, requester)
		}

	case EventVehicleSent:
		admins, err := r.users.GetByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, admins...)

		for _, id := range []string{p.DriverID, p.RequesterID} {
			user, err := r.lookup(ctx, id)
			if err != nil {
				return nil, err
			}
			if user != nil {
				candidates = append(candidates, user)
			}
		}

	case EventVehicleBorrowed, EventVehicleReturned:
		// Fast path: the acting user, identified by either primary key or
		// channel address, whichever the caller supplied.
		actor, err := r.lookupActor(ctx, p)
		if err != nil {
			return nil, err
		}
		if actor != nil {
			candidates = append(candidates, actor)
		}

	default:
		all, err := r.users.GetByRoles(ctx, []domain.Role{domain.RoleAdmin, domain.RoleEmployee, domain.RoleDriver})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, all...)
	}

	return dedupe(candidates), nil
}

// lookup fetches a user by ID; an unknown ID is not an error, it just
// resolves to no recipient.
func (r *Resolver) lookup(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, nil
	}
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// lookupActor finds the acting user from whichever identifier the caller
// supplied: the Actor field (ID or channel address), falling back to the
// requester reference.
func (r *Resolver) lookupActor(ctx context.Context, p *Payload) (*domain.User, error) {
	key := p.Actor
	if key == "" {
		key = p.RequesterID
	}
	if key == "" {
		return nil, nil
	}

	user, err := r.users.GetByID(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err = r.users.GetByChannelAddress(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// dedupe removes duplicate users by ID and orders the result so resolution
// is independent of rule evaluation order.
func dedupe(users []*domain.User) []*domain.User {
	seen := make(map[string]bool, len(users))
	result := make([]*domain.User, 0, len(users))
	for _, user := range users {
		if user == nil || seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		result = append(result, user)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
