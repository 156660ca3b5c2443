package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coachhub/coachhub/internal/domain/coach"
	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/domain/revenue"
	"github.com/coachhub/coachhub/internal/http/handlers"
	"github.com/google/uuid"
)

type fakeCoachesRepo struct {
	listFn          func(ctx context.Context, per, page int) ([]coach.ListItem, error)
	getFn           func(ctx context.Context, coachID string) (coach.Coach, error)
	profileFn       func(ctx context.Context, userID string) (coach.Profile, error)
	updateProfileFn func(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string, skillIDs []string) (coach.Profile, error)
}

func (f *fakeCoachesRepo) List(ctx context.Context, per, page int) ([]coach.ListItem, error) {
	if f.listFn != nil {
		return f.listFn(ctx, per, page)
	}
	return nil, nil
}

func (f *fakeCoachesRepo) GetByID(ctx context.Context, coachID string) (coach.Coach, error) {
	if f.getFn != nil {
		return f.getFn(ctx, coachID)
	}
	return coach.Coach{}, coach.ErrNotFound
}

func (f *fakeCoachesRepo) ProfileByUserID(ctx context.Context, userID string) (coach.Profile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, userID)
	}
	return coach.Profile{}, coach.ErrNotFound
}

func (f *fakeCoachesRepo) UpdateProfile(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string, skillIDs []string) (coach.Profile, error) {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, userID, experienceYears, description, profileImageURL, skillIDs)
	}
	return coach.Profile{}, nil
}

type fakeCoachCoursesRepo struct {
	listFn   func(ctx context.Context, coachUserID string, now time.Time) ([]course.OwnItem, error)
	detailFn func(ctx context.Context, coachUserID, courseID string) (course.Detail, error)
}

func (f *fakeCoachCoursesRepo) ListByCoach(ctx context.Context, coachUserID string, now time.Time) ([]course.OwnItem, error) {
	if f.listFn != nil {
		return f.listFn(ctx, coachUserID, now)
	}
	return nil, nil
}

func (f *fakeCoachCoursesRepo) DetailForCoach(ctx context.Context, coachUserID, courseID string) (course.Detail, error) {
	if f.detailFn != nil {
		return f.detailFn(ctx, coachUserID, courseID)
	}
	return course.Detail{}, course.ErrNotFound
}

type fakeRevenueRepo struct {
	fn func(ctx context.Context, coachUserID string, start, end time.Time) (revenue.Totals, error)
}

func (f *fakeRevenueRepo) MonthlyRevenue(ctx context.Context, coachUserID string, start, end time.Time) (revenue.Totals, error) {
	if f.fn != nil {
		return f.fn(ctx, coachUserID, start, end)
	}
	return revenue.Totals{}, nil
}

func newCoachesHandler(coaches *fakeCoachesRepo, courses *fakeCoachCoursesRepo, rev *fakeRevenueRepo) *handlers.CoachesHandler {
	if coaches == nil {
		coaches = &fakeCoachesRepo{}
	}

	if courses == nil {
		courses = &fakeCoachCoursesRepo{}
	}

	if rev == nil {
		rev = &fakeRevenueRepo{}
	}

	return handlers.NewCoachesHandler(coaches, &fakeUserLookup{}, courses, rev)
}

func TestCoachList(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantPer    int
		wantPage   int
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK, wantPer: 10, wantPage: 1},
		{name: "explicit paging", query: "?per=5&page=3", wantStatus: http.StatusOK, wantPer: 5, wantPage: 3},
		{name: "zero per", query: "?per=0", wantStatus: http.StatusBadRequest},
		{name: "negative page", query: "?page=-1", wantStatus: http.StatusBadRequest},
		{name: "non numeric per", query: "?per=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var gotPer, gotPage int

			coaches := &fakeCoachesRepo{listFn: func(ctx context.Context, per, page int) ([]coach.ListItem, error) {
				gotPer, gotPage = per, page
				return []coach.ListItem{}, nil
			}}

			h := newCoachesHandler(coaches, nil, nil)
			r := setupRouter(http.MethodGet, "/api/coaches", h.List)

			req := httptest.NewRequest(http.MethodGet, "/api/coaches"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK && (gotPer != tt.wantPer || gotPage != tt.wantPage) {
				t.Fatalf("repo called with per=%d page=%d, want per=%d page=%d", gotPer, gotPage, tt.wantPer, tt.wantPage)
			}
		})
	}
}

func TestCoachRevenue(t *testing.T) {
	userID := uuid.NewString()

	t.Run("rejects unknown month", func(t *testing.T) {
		h := newCoachesHandler(nil, nil, nil)
		r := setupAuthedRouter(http.MethodGet, "/api/coach/revenue", userID, h.Revenue)

		req := httptest.NewRequest(http.MethodGet, "/api/coach/revenue?month=Janvier", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})

	t.Run("passes the month window of the current year", func(t *testing.T) {
		var gotStart, gotEnd time.Time

		rev := &fakeRevenueRepo{fn: func(ctx context.Context, coachUserID string, start, end time.Time) (revenue.Totals, error) {
			gotStart, gotEnd = start, end
			return revenue.Totals{Revenue: 120.5, Participants: 7, CourseCount: 9}, nil
		}}

		h := newCoachesHandler(nil, nil, rev)
		r := setupAuthedRouter(http.MethodGet, "/api/coach/revenue", userID, h.Revenue)

		req := httptest.NewRequest(http.MethodGet, "/api/coach/revenue?month=march", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200 (body=%s)", w.Code, w.Body.String())
		}

		year := time.Now().UTC().Year()

		if gotStart.Year() != year || gotStart.Month() != time.March || gotStart.Day() != 1 {
			t.Fatalf("unexpected window start %v", gotStart)
		}

		if gotEnd.Month() != time.April {
			t.Fatalf("unexpected window end %v", gotEnd)
		}

		var resp struct {
			Data struct {
				Total revenue.Totals `json:"total"`
			} `json:"data"`
		}

		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if resp.Data.Total.Revenue != 120.5 || resp.Data.Total.CourseCount != 9 {
			t.Fatalf("unexpected totals: %+v", resp.Data.Total)
		}
	})
}

func TestCoachUpdateProfile(t *testing.T) {
	userID := uuid.NewString()
	skillID := uuid.NewString()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "updated",
			body:       `{"experience_years":4,"description":"Climbing coach","profile_image_url":"https://img.example.com/a.png","skill_ids":["` + skillID + `"]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "blank description",
			body:       `{"experience_years":4,"description":"   ","skill_ids":["` + skillID + `"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "insecure image url",
			body:       `{"experience_years":4,"description":"Climbing coach","profile_image_url":"http://img.example.com/a.png","skill_ids":["` + skillID + `"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing experience years",
			body:       `{"description":"Climbing coach","skill_ids":["` + skillID + `"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "skill id not a uuid",
			body:       `{"experience_years":4,"description":"Climbing coach","skill_ids":["yoga"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty skill set",
			body:       `{"experience_years":4,"description":"Climbing coach","skill_ids":[]}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			coaches := &fakeCoachesRepo{updateProfileFn: func(ctx context.Context, uid string, years int, desc string, img *string, skillIDs []string) (coach.Profile, error) {
				return coach.Profile{ID: uuid.NewString(), ExperienceYears: years, Description: desc, ProfileImageURL: img, SkillIDs: skillIDs}, nil
			}}

			h := newCoachesHandler(coaches, nil, nil)
			r := setupAuthedRouter(http.MethodPut, "/api/coach/profile", userID, h.UpdateProfile)

			w := doJSON(t, r, http.MethodPut, "/api/coach/profile", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestOwnCourseDetail(t *testing.T) {
	userID := uuid.NewString()
	courseID := uuid.NewString()

	t.Run("scoped to the requesting coach", func(t *testing.T) {
		courses := &fakeCoachCoursesRepo{detailFn: func(ctx context.Context, coachUserID, cid string) (course.Detail, error) {
			if coachUserID != userID {
				t.Fatalf("queried wrong coach %s", coachUserID)
			}
			return course.Detail{}, course.ErrNotFound
		}}

		h := newCoachesHandler(nil, courses, nil)
		r := setupAuthedRouter(http.MethodGet, "/api/coach/courses/:courseId", userID, h.OwnCourseDetail)

		req := httptest.NewRequest(http.MethodGet, "/api/coach/courses/"+courseID, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// a course owned by somebody else reads as missing
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})
}
