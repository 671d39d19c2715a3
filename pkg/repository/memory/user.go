package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.User
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]*model.User),
	}
}

func copyUser(u *model.User) *model.User {
	copied := *u
	return &copied
}

func (r *userRepository) Put(ctx context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyUser(u)
	if existing, exists := r.users[u.ID]; exists {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.users[stored.ID] = stored
	return copyUser(stored), nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}

	return copyUser(u), nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, copyUser(u))
	}
	sortUsersByID(result)

	return result, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role types.Role) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.User, 0)
	for _, u := range r.users {
		if u.Role == role {
			result = append(result, copyUser(u))
		}
	}
	sortUsersByID(result)

	return result, nil
}

func sortUsersByID(users []*model.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
}
