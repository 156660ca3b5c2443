package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash, role string) (u user.User, err error) {
	now := time.Now().UTC()

	u = user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			err = user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// UpdateName rejects a same-value edit with user.ErrNameUnchanged rather than
// silently succeeding. Callers are meant to treat a no-op edit as an error.
func (r *UsersRepo) UpdateName(ctx context.Context, id, newName string) (err error) {
	var currentName string

	err = r.observe("users.update_name.read", func() error {
		return r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, id).Scan(&currentName)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	if currentName == newName {
		err = user.ErrNameUnchanged
		return
	}

	var tag pgconn.CommandTag

	err = r.observe("users.update_name.write", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
			UPDATE users SET name = $2, updated_at = NOW()
			WHERE id = $1 AND name = $3
		`, id, newName, currentName)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = user.ErrUpdateFailed
		return
	}

	return
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id, newHash string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("users.update_password", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
			UPDATE users SET password_hash = $2, updated_at = NOW()
			WHERE id = $1
		`, id, newHash)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = user.ErrUpdateFailed
		return
	}

	return
}
