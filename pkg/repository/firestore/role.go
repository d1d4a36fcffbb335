package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type roleRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.RoleRepository = &roleRepository{}

func newRoleRepository(client *firestore.Client) *roleRepository {
	return &roleRepository{
		client: client,
	}
}

type roleDoc struct {
	Key          string          `firestore:"key"`
	Name         string          `firestore:"name"`
	Capabilities map[string]bool `firestore:"capabilities"`
}

func (r *roleRepository) collection() *firestore.CollectionRef {
	return prefixed(r.client, r.collectionPrefix, rolesCollection)
}

func (r *roleRepository) fromDoc(doc *roleDoc) *model.Role {
	caps := model.CapabilityMap(doc.Capabilities)
	if caps == nil {
		caps = model.CapabilityMap{}
	}
	return &model.Role{
		Key:          doc.Key,
		Name:         doc.Name,
		Capabilities: caps,
	}
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	iter := r.collection().OrderBy("key", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var roles []*model.Role
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate roles")
		}

		var doc roleDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal role", goerr.V("docID", snap.Ref.ID))
		}
		roles = append(roles, r.fromDoc(&doc))
	}
	return roles, nil
}

func (r *roleRepository) Get(ctx context.Context, key string) (*model.Role, error) {
	snap, err := r.collection().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get role", goerr.V("key", key))
	}

	var doc roleDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal role", goerr.V("key", key))
	}
	return r.fromDoc(&doc), nil
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	caps := map[string]bool(role.Capabilities)
	if caps == nil {
		caps = map[string]bool{}
	}

	doc := &roleDoc{Key: role.Key, Name: role.Name, Capabilities: caps}
	if _, err := r.collection().Doc(role.Key).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(interfaces.ErrConflict, "role already exists", goerr.V("key", role.Key))
		}
		return goerr.Wrap(err, "failed to create role", goerr.V("key", role.Key))
	}
	return nil
}

func (r *roleRepository) GrantCapability(ctx context.Context, key, cap string) error {
	return r.updateCapability(ctx, key, cap, true)
}

func (r *roleRepository) RevokeCapability(ctx context.Context, key, cap string) error {
	return r.updateCapability(ctx, key, cap, firestore.Delete)
}

func (r *roleRepository) updateCapability(ctx context.Context, key, cap string, value any) error {
	_, err := r.collection().Doc(key).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"capabilities", cap}, Value: value},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
		}
		return goerr.Wrap(err, "failed to update role capability",
			goerr.V("key", key),
			goerr.V("capability", cap))
	}
	return nil
}
