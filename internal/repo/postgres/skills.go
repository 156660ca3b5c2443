package postgres

import (
	"context"
	"time"

	"github.com/coachhub/coachhub/internal/domain/skill"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SkillsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSkillsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SkillsRepo {
	return &SkillsRepo{pool: pool, prom: prom}
}

func (r *SkillsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *SkillsRepo) List(ctx context.Context) (items []skill.Skill, err error) {
	var rows pgx.Rows

	err = r.observe("skills.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT id, name, created_at FROM skills ORDER BY created_at ASC
		`)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]skill.Skill, 0)

	for rows.Next() {
		var s skill.Skill

		if e := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); e != nil {
			err = e
			return
		}
		items = append(items, s)
	}

	err = rows.Err()
	return
}

func (r *SkillsRepo) Create(ctx context.Context, name string) (s skill.Skill, err error) {
	s = skill.Skill{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err = r.observe("skills.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO skills (id, name, created_at) VALUES ($1,$2,$3)
		`, s.ID, s.Name, s.CreatedAt)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			err = skill.ErrDuplicateName
		}
		return skill.Skill{}, err
	}

	return s, nil
}

func (r *SkillsRepo) Delete(ctx context.Context, id string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("skills.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = skill.ErrNotFound
		return
	}

	return
}
