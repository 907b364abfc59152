package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazatu/realty-api/internal/query"
)

const baseSelect = `
	SELECT u.id, u.first_name, u.last_name, u.mobile, u.email, u.created_at, u.updated_at
	FROM users u`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Mobile,
		&u.Email,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, baseSelect+` WHERE u.id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadRoles(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (r *PgRepository) ListAdmins(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, baseSelect+`
		WHERE EXISTS (
			SELECT 1 FROM role_user ru
			JOIN roles ro ON ro.id = ru.role_id
			WHERE ru.user_id = u.id AND ro.name = 'admin'
		)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *PgRepository) List(ctx context.Context, b *query.Builder) ([]User, error) {
	sql, args := b.SQL(baseSelect)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if err := r.loadRoles(ctx, &users[i]); err != nil {
			return nil, err
		}
	}

	return users, nil
}

func (r *PgRepository) loadRoles(ctx context.Context, u *User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT ro.id, ro.name
		FROM roles ro
		JOIN role_user ru ON ru.role_id = ro.id
		WHERE ru.user_id = $1
		ORDER BY ro.id
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return err
		}
		u.Roles = append(u.Roles, role)
	}

	return rows.Err()
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
