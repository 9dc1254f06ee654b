package repositories

import (
	"time"

	"huddle/domain"
	"huddle/domain/content"
	"huddle/errors"

	"github.com/samber/lo"
)

// Departure describes an unregistered user and, when it owned the server, who took over.
type Departure struct {
	User      domain.User
	Successor *domain.User
}

// PresenceRegistry tracks joined users in join order.
// The explicit order slice makes ownership succession deterministic.
// It is not safe for concurrent use: the coordinator owns it.
type PresenceRegistry struct {
	users map[domain.UserID]*domain.User
	order []domain.UserID
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{users: make(map[domain.UserID]*domain.User)}
}

// Register adds a user, or refreshes it when it joins again.
// owner promotes the user and demotes anyone else.
func (r *PresenceRegistry) Register(id domain.UserID, req domain.JoinRequest, owner bool, at time.Time) domain.User {
	user, ok := r.users[id]
	if !ok {
		user = &domain.User{ID: id, JoinTime: at}
		r.users[id] = user
		r.order = append(r.order, id)
	}
	user.Username = usernameOrDefault(req.Username)
	user.BubbleColor = req.BubbleColor
	if owner {
		r.promote(id)
	}
	return *user
}

func (r *PresenceRegistry) Rename(id domain.UserID, name string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	name = content.Sanitize(name)
	if name == "" {
		return domain.User{}, errors.ErrValidationRejected
	}
	user.Username = name
	return *user, nil
}

func (r *PresenceRegistry) Recolor(id domain.UserID, color string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	user.BubbleColor = color
	return *user, nil
}

// Unregister removes a user. When it was the owner, the earliest
// still-registered user is promoted.
func (r *PresenceRegistry) Unregister(id domain.UserID) (Departure, error) {
	user, ok := r.users[id]
	if !ok {
		return Departure{}, errors.ErrNotFound
	}
	delete(r.users, id)
	r.order = lo.Without(r.order, id)

	departure := Departure{User: *user}
	if user.IsOwner {
		departure.Successor = r.ElectSuccessor()
	}
	return departure, nil
}

// ElectSuccessor promotes the earliest registered user when nobody owns the server.
func (r *PresenceRegistry) ElectSuccessor() *domain.User {
	if _, ok := r.Owner(); ok || len(r.order) == 0 {
		return nil
	}
	successor := r.promote(r.order[0])
	return &successor
}

func (r *PresenceRegistry) Owner() (domain.User, bool) {
	for _, id := range r.order {
		if user := r.users[id]; user.IsOwner {
			return *user, true
		}
	}
	return domain.User{}, false
}

func (r *PresenceRegistry) Get(id domain.UserID) (domain.User, bool) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *user, true
}

// List returns a snapshot of users in join order.
func (r *PresenceRegistry) List() []domain.User {
	return lo.Map(r.order, func(id domain.UserID, _ int) domain.User {
		return *r.users[id]
	})
}

func (r *PresenceRegistry) Count() int {
	return len(r.order)
}

func (r *PresenceRegistry) promote(id domain.UserID) domain.User {
	for _, user := range r.users {
		user.IsOwner = user.ID == id
	}
	return *r.users[id]
}

func usernameOrDefault(name string) string {
	if name = content.Sanitize(name); name == "" {
		return domain.DefaultUsername
	}
	return name
}
