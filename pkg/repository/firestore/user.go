package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/domain/model"
	"github.com/docket-labs/docket/pkg/domain/types"
)

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{client: client}
}

func (r *userRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_users"
	}
	return "users"
}

type userDoc struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:        types.UserID(d.ID),
		Name:      d.Name,
		Email:     d.Email,
		Role:      types.Role(d.Role),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *userRepository) Put(ctx context.Context, u *model.User) (*model.User, error) {
	now := time.Now().UTC()
	stored := *u
	stored.UpdatedAt = now
	stored.CreatedAt = now

	if existing, err := r.Get(ctx, u.ID); err == nil {
		stored.CreatedAt = existing.CreatedAt
	}

	doc := &userDoc{
		ID:        string(stored.ID),
		Name:      stored.Name,
		Email:     stored.Email,
		Role:      string(stored.Role),
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
	}

	docRef := r.client.Collection(r.collection()).Doc(string(stored.ID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put user", goerr.V("id", stored.ID))
	}

	return &stored, nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	docSnap, err := r.client.Collection(r.collection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var d userDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("id", id))
	}

	return d.toModel(), nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	return r.listQuery(ctx, r.client.Collection(r.collection()).Query)
}

func (r *userRepository) ListByRole(ctx context.Context, role types.Role) ([]*model.User, error) {
	q := r.client.Collection(r.collection()).Where("role", "==", string(role))
	return r.listQuery(ctx, q)
}

func (r *userRepository) listQuery(ctx context.Context, q firestore.Query) ([]*model.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var d userDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user", goerr.V("doc_id", docSnap.Ref.ID))
		}

		users = append(users, d.toModel())
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users, nil
}
