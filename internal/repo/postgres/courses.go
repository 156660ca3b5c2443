package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoursesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewCoursesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CoursesRepo {
	return &CoursesRepo{pool: pool, prom: prom}
}

func (r *CoursesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// PublicList is the catalogue: every course with its coach and skill names,
// soonest start first.
func (r *CoursesRepo) PublicList(ctx context.Context) (items []course.ListItem, err error) {
	var rows pgx.Rows

	err = r.observe("courses.public_list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT c.id, c.name, c.description, c.start_at, c.end_at, c.max_participants,
			       u.name, s.name
			FROM courses c
			JOIN users u ON u.id = c.user_id
			JOIN skills s ON s.id = c.skill_id
			ORDER BY c.start_at ASC
		`)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]course.ListItem, 0)

	for rows.Next() {
		var it course.ListItem

		if e := rows.Scan(&it.ID, &it.Name, &it.Description, &it.StartAt, &it.EndAt,
			&it.MaxParticipants, &it.CoachName, &it.SkillName); e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()
	return
}

func (r *CoursesRepo) Create(ctx context.Context, userID, skillID, name, description string, startAt, endAt time.Time, maxParticipants int, meetingURL string) (c course.Course, err error) {
	now := time.Now().UTC()

	c = course.Course{
		ID:              uuid.NewString(),
		UserID:          userID,
		SkillID:         skillID,
		Name:            name,
		Description:     description,
		StartAt:         startAt,
		EndAt:           endAt,
		MaxParticipants: maxParticipants,
		MeetingURL:      meetingURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = r.observe("courses.create", func() error {
		_, e := r.pool.Exec(ctx, `
			INSERT INTO courses (id, user_id, skill_id, name, description, start_at, end_at, max_participants, meeting_url, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, c.ID, c.UserID, c.SkillID, c.Name, c.Description, c.StartAt, c.EndAt,
			c.MaxParticipants, c.MeetingURL, c.CreatedAt, c.UpdatedAt)
		return e
	})

	if err != nil {
		return course.Course{}, err
	}

	return c, nil
}

// Update rewrites every editable field. Zero rows affected surfaces as
// course.ErrUpdateFailed rather than a silent success.
func (r *CoursesRepo) Update(ctx context.Context, id, skillID, name, description string, startAt, endAt time.Time, maxParticipants int, meetingURL string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("courses.update", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
			UPDATE courses
			SET skill_id = $2, name = $3, description = $4, start_at = $5, end_at = $6,
			    max_participants = $7, meeting_url = $8, updated_at = NOW()
			WHERE id = $1
		`, id, skillID, name, description, startAt, endAt, maxParticipants, meetingURL)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = course.ErrUpdateFailed
		return
	}

	return
}

// ListByCoach returns the coach's own courses with live participant counts
// (active bookings only) and a schedule status relative to now.
func (r *CoursesRepo) ListByCoach(ctx context.Context, coachUserID string, now time.Time) (items []course.OwnItem, err error) {
	var rows pgx.Rows

	err = r.observe("courses.list_by_coach", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT c.id, c.name, c.start_at, c.end_at, c.max_participants,
			       COUNT(b.id) FILTER (WHERE b.cancelled_at IS NULL)
			FROM courses c
			LEFT JOIN course_bookings b ON b.course_id = c.id
			WHERE c.user_id = $1
			GROUP BY c.id
			ORDER BY c.start_at ASC
		`, coachUserID)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]course.OwnItem, 0)

	for rows.Next() {
		var it course.OwnItem

		if e := rows.Scan(&it.ID, &it.Name, &it.StartAt, &it.EndAt,
			&it.MaxParticipants, &it.Participants); e != nil {
			err = e
			return
		}

		it.Status = course.StatusAt(it.StartAt, it.EndAt, now)
		items = append(items, it)
	}

	err = rows.Err()
	return
}

// DetailForCoach fetches one of the coach's own courses with the skill name
// resolved. A course owned by someone else reports course.ErrNotFound.
func (r *CoursesRepo) DetailForCoach(ctx context.Context, coachUserID, courseID string) (d course.Detail, err error) {
	err = r.observe("courses.detail_for_coach", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT c.id, c.name, c.description, c.start_at, c.end_at,
			       c.max_participants, s.name, c.meeting_url
			FROM courses c
			JOIN skills s ON s.id = c.skill_id
			WHERE c.id = $1 AND c.user_id = $2
		`, courseID, coachUserID).Scan(&d.ID, &d.Name, &d.Description, &d.StartAt, &d.EndAt,
			&d.MaxParticipants, &d.SkillName, &d.MeetingURL)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = course.ErrNotFound
		}
		return course.Detail{}, err
	}
	return d, nil
}
