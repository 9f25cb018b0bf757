package app

import (
	"context"
	"reflect"
	"time"

	"github.com/yaroph/connect/internal/domain"
)

// Users reads and writes the user document, normalizing legacy records on
// the way out.
type Users struct {
	docs *Documents
	now  func() time.Time
}

func NewUsers(docs *Documents) *Users {
	return &Users{docs: docs, now: time.Now}
}

// All returns every user, normalized. On backends with read-after-write
// consistency, records changed by normalization are repaired in place.
func (r *Users) All(ctx context.Context) ([]domain.User, error) {
	var raw []domain.User
	if err := r.docs.Read(ctx, DocUsers, &raw, []domain.User{}); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(raw))
	changed := false
	now := r.now()
	for _, u := range raw {
		n := domain.NormalizeUser(u, now)
		// UpdatedAt is refreshed on every normalize; ignore it when deciding
		// whether the stored record actually drifted.
		cmp := n
		cmp.UpdatedAt = u.UpdatedAt
		if !reflect.DeepEqual(cmp, u) {
			changed = true
		}
		users = append(users, n)
	}
	if changed && r.docs.StrongConsistency() {
		if err := r.docs.Write(ctx, DocUsers, users); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Get returns one user by id.
func (r *Users) Get(ctx context.Context, id string) (domain.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// Save normalizes and persists the full user list.
func (r *Users) Save(ctx context.Context, users []domain.User) error {
	now := r.now()
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, domain.NormalizeUser(u, now))
	}
	return r.docs.Write(ctx, DocUsers, out)
}

// Update applies mutate to the user with the given id and persists the list.
func (r *Users) Update(ctx context.Context, id string, mutate func(*domain.User) error) (domain.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		if err := mutate(&users[i]); err != nil {
			return domain.User{}, err
		}
		users[i] = domain.NormalizeUser(users[i], r.now())
		if err := r.docs.Write(ctx, DocUsers, users); err != nil {
			return domain.User{}, err
		}
		return users[i], nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

// Delete removes a user record. The caller is responsible for cascading
// removal of the user's answers, balance and cooldowns.
func (r *Users) Delete(ctx context.Context, id string) error {
	users, err := r.All(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	found := false
	for _, u := range users {
		if u.ID == id {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return domain.ErrUserNotFound
	}
	return r.docs.Write(ctx, DocUsers, kept)
}

// ResolveName picks the display name for a user: the name the client sent
// with the request, falling back to the stored full name, then a generic
// placeholder.
func (r *Users) ResolveName(ctx context.Context, userID, provided string) string {
	if provided != "" {
		return provided
	}
	if u, err := r.Get(ctx, userID); err == nil && u.FullName != "" {
		return u.FullName
	}
	return "Utilisateur"
}
