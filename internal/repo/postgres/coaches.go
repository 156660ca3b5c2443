package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/coachhub/coachhub/internal/domain/coach"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoachesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCoachesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CoachesRepo {
	return &CoachesRepo{pool: pool, prom: prom}
}

func (r *CoachesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// List pages through the public coach directory, oldest first.
func (r *CoachesRepo) List(ctx context.Context, per, page int) (items []coach.ListItem, err error) {
	offset := (page - 1) * per

	var rows pgx.Rows

	err = r.observe("coaches.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT c.id, u.name
			FROM coaches c
			JOIN users u ON u.id = c.user_id
			ORDER BY c.created_at ASC
			LIMIT $1 OFFSET $2
		`, per, offset)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]coach.ListItem, 0, per)

	for rows.Next() {
		var it coach.ListItem

		if e := rows.Scan(&it.ID, &it.Name); e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()
	return
}

const coachColumns = `id, user_id, experience_years, description, profile_image_url, created_at, updated_at`

func scanCoach(row pgx.Row) (coach.Coach, error) {
	var c coach.Coach

	err := row.Scan(&c.ID, &c.UserID, &c.ExperienceYears, &c.Description, &c.ProfileImageURL, &c.CreatedAt, &c.UpdatedAt)

	return c, err
}

func (r *CoachesRepo) GetByID(ctx context.Context, coachID string) (coach.Coach, error) {
	var c coach.Coach
	var err error

	err = r.observe("coaches.get_by_id", func() error {
		c, err = scanCoach(r.pool.QueryRow(ctx,
			`SELECT `+coachColumns+` FROM coaches WHERE id = $1`, coachID))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coach.Coach{}, coach.ErrNotFound
		}
		return coach.Coach{}, err
	}
	return c, nil
}

// Promote flips the user's role to COACH and inserts the coach row in one
// transaction, so a half-promoted user can never exist.
func (r *CoachesRepo) Promote(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string) (u user.User, c coach.Coach, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("coaches.promote.read_user", func() error {
		var e error
		u, e = scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	if u.Role == user.RoleCoach {
		err = coach.ErrAlreadyCoach
		return
	}

	err = r.observe("coaches.promote.update_role", func() error {
		tag, e := tx.Exec(ctx, `
			UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
		`, userID, user.RoleCoach)

		if e != nil {
			return e
		}

		if tag.RowsAffected() == 0 {
			return user.ErrUpdateFailed
		}
		return nil
	})

	if err != nil {
		return
	}

	now := time.Now().UTC()

	c = coach.Coach{
		ID:              uuid.NewString(),
		UserID:          userID,
		ExperienceYears: experienceYears,
		Description:     description,
		ProfileImageURL: profileImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = r.observe("coaches.promote.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO coaches (id, user_id, experience_years, description, profile_image_url, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, c.ID, c.UserID, c.ExperienceYears, c.Description, c.ProfileImageURL, c.CreatedAt, c.UpdatedAt)
		return e
	})

	if err != nil {
		// coaches.user_id is unique; a concurrent promote loses here
		if IsUniqueViolation(err) {
			err = coach.ErrAlreadyCoach
		}
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	u.Role = user.RoleCoach
	return
}

// UpdateProfile rewrites the coach profile fields and REPLACES the whole
// skill set (delete all links, insert the new ones) inside one transaction.
// Deliberately not a diff: two concurrent updates race and the last writer's
// set wins.
func (r *CoachesRepo) UpdateProfile(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string, skillIDs []string) (p coach.Profile, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var coachID string

	err = r.observe("coaches.update_profile.find", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM coaches WHERE user_id = $1`, userID).Scan(&coachID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = coach.ErrNotFound
		}
		return
	}

	err = r.observe("coaches.update_profile.write", func() error {
		_, e := tx.Exec(ctx, `
			UPDATE coaches
			SET experience_years = $2, description = $3, profile_image_url = $4, updated_at = NOW()
			WHERE id = $1
		`, coachID, experienceYears, description, profileImageURL)
		return e
	})

	if err != nil {
		return
	}

	if skillIDs != nil {
		err = r.observe("coaches.update_profile.replace_skills", func() error {
			if _, e := tx.Exec(ctx, `DELETE FROM coach_link_skills WHERE coach_id = $1`, coachID); e != nil {
				return e
			}

			now := time.Now().UTC()

			for _, skillID := range skillIDs {
				if _, e := tx.Exec(ctx, `
					INSERT INTO coach_link_skills (id, coach_id, skill_id, created_at)
					VALUES ($1,$2,$3,$4)
				`, uuid.NewString(), coachID, skillID, now); e != nil {
					return e
				}
			}
			return nil
		})

		if err != nil {
			return
		}
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	return r.ProfileByUserID(ctx, userID)
}

// ProfileByUserID returns the coach's own profile with its skill ids.
func (r *CoachesRepo) ProfileByUserID(ctx context.Context, userID string) (p coach.Profile, err error) {
	err = r.observe("coaches.profile.read", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, experience_years, description, profile_image_url
			FROM coaches WHERE user_id = $1
		`, userID).Scan(&p.ID, &p.ExperienceYears, &p.Description, &p.ProfileImageURL)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = coach.ErrNotFound
		}
		return
	}

	var rows pgx.Rows

	err = r.observe("coaches.profile.skills", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT skill_id FROM coach_link_skills
			WHERE coach_id = $1
			ORDER BY created_at ASC, skill_id ASC
		`, p.ID)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	p.SkillIDs = make([]string, 0)

	for rows.Next() {
		var id string

		if e := rows.Scan(&id); e != nil {
			err = e
			return
		}
		p.SkillIDs = append(p.SkillIDs, id)
	}

	err = rows.Err()
	return
}
