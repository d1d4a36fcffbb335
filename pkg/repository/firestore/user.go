package firestore

import (
	"context"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserRepository = &userRepository{}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{
		client: client,
	}
}

// userDoc is the Firestore persistence model. login_key and email_key hold
// lower-cased copies used for case-insensitive lookups.
type userDoc struct {
	ID            string          `firestore:"id"`
	Login         string          `firestore:"login"`
	LoginKey      string          `firestore:"login_key"`
	PasswordHash  string          `firestore:"password_hash"`
	Nicename      string          `firestore:"nicename"`
	Email         string          `firestore:"email"`
	EmailKey      string          `firestore:"email_key"`
	URL           string          `firestore:"url"`
	RegisteredAt  time.Time       `firestore:"registered_at"`
	ActivationKey string          `firestore:"activation_key"`
	Status        int             `firestore:"status"`
	DisplayName   string          `firestore:"display_name"`
	Capabilities  map[string]bool `firestore:"capabilities"`
	Level         int             `firestore:"level"`
	Meta          map[string]any  `firestore:"meta"`
	CreatedAt     time.Time       `firestore:"created_at"`
	UpdatedAt     time.Time       `firestore:"updated_at"`
}

func (r *userRepository) collection() *firestore.CollectionRef {
	return prefixed(r.client, r.collectionPrefix, usersCollection)
}

func lookupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *userRepository) toDoc(user *model.User) *userDoc {
	return &userDoc{
		ID:            user.ID.String(),
		Login:         user.Login,
		LoginKey:      lookupKey(user.Login),
		PasswordHash:  user.PasswordHash,
		Nicename:      user.Nicename,
		Email:         user.Email,
		EmailKey:      lookupKey(user.Email),
		URL:           user.URL,
		RegisteredAt:  user.RegisteredAt,
		ActivationKey: user.ActivationKey,
		Status:        user.Status,
		DisplayName:   user.DisplayName,
		Capabilities:  user.Capabilities,
		Level:         user.Level,
		Meta:          user.Meta,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func (r *userRepository) fromDoc(doc *userDoc) *model.User {
	return &model.User{
		ID:            model.UserID(doc.ID),
		Login:         doc.Login,
		PasswordHash:  doc.PasswordHash,
		Nicename:      doc.Nicename,
		Email:         doc.Email,
		URL:           doc.URL,
		RegisteredAt:  doc.RegisteredAt,
		ActivationKey: doc.ActivationKey,
		Status:        doc.Status,
		DisplayName:   doc.DisplayName,
		Capabilities:  model.CapabilityMap(doc.Capabilities),
		Level:         doc.Level,
		Meta:          doc.Meta,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func (r *userRepository) decode(snap *firestore.DocumentSnapshot) (*model.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user", goerr.V("docID", snap.Ref.ID))
	}
	return r.fromDoc(&doc), nil
}

// loginOwner returns the ID of the account holding login, or "" if none
func (r *userRepository) loginOwner(tx *firestore.Transaction, login string) (string, error) {
	q := r.collection().Where("login_key", "==", lookupKey(login)).Limit(1)
	docs, err := tx.Documents(q).GetAll()
	if err != nil {
		return "", goerr.Wrap(err, "failed to query user by login", goerr.V("login", login))
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].Ref.ID, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ref := r.collection().Doc(user.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		owner, err := r.loginOwner(tx, user.Login)
		if err != nil {
			return err
		}
		if owner != "" {
			return goerr.Wrap(interfaces.ErrConflict, "login already taken", goerr.V("login", user.Login))
		}
		return tx.Create(ref, r.toDoc(user))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(interfaces.ErrConflict, "user already exists", goerr.V("id", user.ID))
		}
		return goerr.Wrap(err, "failed to create user", goerr.V("id", user.ID))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	ref := r.collection().Doc(user.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", user.ID))
			}
			return goerr.Wrap(err, "failed to get user", goerr.V("id", user.ID))
		}

		owner, err := r.loginOwner(tx, user.Login)
		if err != nil {
			return err
		}
		if owner != "" && owner != user.ID.String() {
			return goerr.Wrap(interfaces.ErrConflict, "login already taken", goerr.V("login", user.Login))
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "login", Value: user.Login},
			{Path: "login_key", Value: lookupKey(user.Login)},
			{Path: "password_hash", Value: user.PasswordHash},
			{Path: "nicename", Value: user.Nicename},
			{Path: "email", Value: user.Email},
			{Path: "email_key", Value: lookupKey(user.Email)},
			{Path: "url", Value: user.URL},
			{Path: "registered_at", Value: user.RegisteredAt},
			{Path: "activation_key", Value: user.ActivationKey},
			{Path: "status", Value: user.Status},
			{Path: "display_name", Value: user.DisplayName},
			{Path: "updated_at", Value: user.UpdatedAt},
		})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update user", goerr.V("id", user.ID))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	snap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}
	return r.decode(snap)
}

func (r *userRepository) first(ctx context.Context, q firestore.Query, key string, value string) (*model.User, error) {
	iter := q.Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V(key, value))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user", goerr.V(key, value))
	}
	return r.decode(snap)
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	q := r.collection().Where("login_key", "==", lookupKey(login))
	return r.first(ctx, q, "login", login)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := r.collection().
		Where("email_key", "==", lookupKey(email)).
		OrderBy("created_at", firestore.Asc)
	return r.first(ctx, q, "email", email)
}

// List filters excluded roles while iterating because Firestore cannot
// express "none of these map keys is true" in a single query.
func (r *userRepository) List(ctx context.Context, opt interfaces.ListUsersOption) ([]*model.User, error) {
	iter := r.collection().OrderBy("login", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		user, err := r.decode(snap)
		if err != nil {
			return nil, err
		}
		if len(opt.ExcludeRoles) > 0 && user.HasAnyRole(opt.ExcludeRoles) {
			continue
		}
		users = append(users, user)
	}

	// Firestore orders by byte value; keep the same order as other backends
	slices.SortStableFunc(users, func(a, b *model.User) int {
		return strings.Compare(a.Login, b.Login)
	})
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	res, err := r.collection().NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count users")
	}
	v, ok := res["count"].(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected count aggregation result", goerr.V("result", res))
	}
	return int(v.GetIntegerValue()), nil
}

func (r *userRepository) PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error {
	if len(meta) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(meta)+1)
	for key, value := range meta {
		if key == "" {
			continue
		}
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{"meta", key},
			Value:     value,
		})
	}
	updates = append(updates, firestore.Update{Path: "updated_at", Value: time.Now().UTC()})

	if _, err := r.collection().Doc(id.String()).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to put user meta", goerr.V("id", id))
	}
	return nil
}

func (r *userRepository) SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error {
	_, err := r.collection().Doc(id.String()).Update(ctx, []firestore.Update{
		{Path: "capabilities", Value: map[string]bool(caps)},
		{Path: "level", Value: level},
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to set capabilities", goerr.V("id", id))
	}
	return nil
}
