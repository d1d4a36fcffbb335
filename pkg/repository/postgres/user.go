package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
)

type userRepository struct {
	pool *pgxpool.Pool
}

var _ interfaces.UserRepository = &userRepository{}

const userColumns = `id, login, password_hash, nicename, email, url, registered_at,
	activation_key, status, display_name, capabilities, level, meta, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		id   string
		caps map[string]bool
		meta map[string]any
	)
	err := row.Scan(
		&id, &u.Login, &u.PasswordHash, &u.Nicename, &u.Email, &u.URL, &u.RegisteredAt,
		&u.ActivationKey, &u.Status, &u.DisplayName, &caps, &u.Level, &meta, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.ID = model.UserID(id)
	u.Capabilities = model.CapabilityMap(caps)
	u.Meta = meta
	u.RegisteredAt = u.RegisteredAt.UTC()
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func nonNilCaps(caps model.CapabilityMap) map[string]bool {
	if caps == nil {
		return map[string]bool{}
	}
	return caps
}

func nonNilMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		user.ID.String(), user.Login, user.PasswordHash, user.Nicename, user.Email, user.URL, user.RegisteredAt,
		user.ActivationKey, user.Status, user.DisplayName, nonNilCaps(user.Capabilities), user.Level,
		nonNilMeta(user.Meta), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(interfaces.ErrConflict, "user already exists",
				goerr.V("id", user.ID),
				goerr.V("login", user.Login))
		}
		return goerr.Wrap(err, "failed to insert user", goerr.V("id", user.ID))
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET
			login = $2, password_hash = $3, nicename = $4, email = $5, url = $6,
			registered_at = $7, activation_key = $8, status = $9, display_name = $10, updated_at = $11
		WHERE id = $1`,
		user.ID.String(), user.Login, user.PasswordHash, user.Nicename, user.Email, user.URL,
		user.RegisteredAt, user.ActivationKey, user.Status, user.DisplayName, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(interfaces.ErrConflict, "login already taken", goerr.V("login", user.Login))
		}
		return goerr.Wrap(err, "failed to update user", goerr.V("id", user.ID))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", user.ID))
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, key string, value any) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V(key, value))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V(key, value))
	}
	return user, nil
}

func (r *userRepository) Get(ctx context.Context, id model.UserID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, "id", id.String())
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(login) = lower($1)`, "login", login)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1)
		ORDER BY created_at, id
		LIMIT 1`, "email", email)
}

func (r *userRepository) List(ctx context.Context, opt interfaces.ListUsersOption) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if len(opt.ExcludeRoles) > 0 {
		query += ` WHERE NOT EXISTS (
			SELECT 1 FROM jsonb_each(users.capabilities) AS c
			WHERE c.key = ANY($1) AND c.value = 'true'::jsonb
		)`
		args = append(args, opt.ExcludeRoles)
	}
	query += ` ORDER BY login COLLATE "C"`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, goerr.Wrap(err, "failed to count users")
	}
	return n, nil
}

func (r *userRepository) PutMeta(ctx context.Context, id model.UserID, meta map[string]any) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET meta = meta || $2::jsonb, updated_at = $3 WHERE id = $1`,
		id.String(), nonNilMeta(meta), time.Now().UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to put user meta", goerr.V("id", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}
	return nil
}

func (r *userRepository) SetCapabilities(ctx context.Context, id model.UserID, caps model.CapabilityMap, level int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET capabilities = $2::jsonb, level = $3, updated_at = $4 WHERE id = $1`,
		id.String(), nonNilCaps(caps), level, time.Now().UTC(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to set capabilities", goerr.V("id", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("id", id))
	}
	return nil
}
