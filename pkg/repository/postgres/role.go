package postgres

import (
	"context"
	"errors"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
)

type roleRepository struct {
	pool *pgxpool.Pool
}

var _ interfaces.RoleRepository = &roleRepository{}

func scanRole(row pgx.Row) (*model.Role, error) {
	var (
		role model.Role
		caps map[string]bool
	)
	if err := row.Scan(&role.Key, &role.Name, &caps); err != nil {
		return nil, err
	}
	role.Capabilities = model.CapabilityMap(caps)
	if role.Capabilities == nil {
		role.Capabilities = model.CapabilityMap{}
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]*model.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, name, capabilities FROM roles ORDER BY key COLLATE "C"`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list roles")
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan role")
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate roles")
	}
	return roles, nil
}

func (r *roleRepository) Get(ctx context.Context, key string) (*model.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT key, name, capabilities FROM roles WHERE key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get role", goerr.V("key", key))
	}
	return role, nil
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (key, name, capabilities) VALUES ($1, $2, $3::jsonb)`,
		role.Key, role.Name, nonNilCaps(role.Capabilities),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(interfaces.ErrConflict, "role already exists", goerr.V("key", role.Key))
		}
		return goerr.Wrap(err, "failed to create role", goerr.V("key", role.Key))
	}
	return nil
}

func (r *roleRepository) GrantCapability(ctx context.Context, key, cap string) error {
	return r.exec(ctx, key, cap,
		`UPDATE roles SET capabilities = jsonb_set(capabilities, ARRAY[$2::text], 'true'::jsonb, true) WHERE key = $1`)
}

func (r *roleRepository) RevokeCapability(ctx context.Context, key, cap string) error {
	return r.exec(ctx, key, cap,
		`UPDATE roles SET capabilities = capabilities - $2::text WHERE key = $1`)
}

func (r *roleRepository) exec(ctx context.Context, key, cap, query string) error {
	tag, err := r.pool.Exec(ctx, query, key, cap)
	if err != nil {
		return goerr.Wrap(err, "failed to update role capability",
			goerr.V("key", key),
			goerr.V("capability", cap))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "role not found", goerr.V("key", key))
	}
	return nil
}
