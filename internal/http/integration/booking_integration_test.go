package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/coachhub/coachhub/internal/auth"
	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/db"
	apphttp "github.com/coachhub/coachhub/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		AllowedOrigins:      []string{"http://localhost:3000"},
	}
}

type apiErrorResponse struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := testConfig()
	jwtMgr := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	router := apphttp.NewRouter(cfg, logger, pool, jwtMgr)

	return router, pool, jwtMgr
}

// Truncate in dependency order; bookings and purchases hang off users and
// courses.

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE jobs, course_bookings, credit_purchases, credit_packages, coach_link_skills, courses, coaches, skills, users CASCADE`)

	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func seedUser(t *testing.T, pool *pgxpool.Pool, role string) string {
	t.Helper()
	id := uuid.NewString()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, name, email, password_hash, role) VALUES ($1,$2,$3,$4,$5)`,
		id, "Test "+role, id+"@example.com", "not-a-real-hash", role)

	if err != nil {
		t.Fatalf("failed to insert seed user: %v", err)
	}

	return id
}

func seedCourse(t *testing.T, pool *pgxpool.Pool, coachUserID string, maxParticipants int) string {
	t.Helper()

	skillID := uuid.NewString()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO skills (id, name) VALUES ($1,$2)`, skillID, "Skill "+skillID[:8])

	if err != nil {
		t.Fatalf("failed to insert seed skill: %v", err)
	}

	id := uuid.NewString()
	start := time.Now().UTC().Add(24 * time.Hour)

	_, err = pool.Exec(context.Background(),
		`INSERT INTO courses (id, user_id, skill_id, name, description, start_at, end_at, max_participants, meeting_url)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		id, coachUserID, skillID, "Test Course", "Integration test course",
		start, start.Add(time.Hour), maxParticipants, "https://meet.example.com/test")

	if err != nil {
		t.Fatalf("failed to insert seed course: %v", err)
	}

	return id
}

func seedCredits(t *testing.T, pool *pgxpool.Pool, userID string, credits int) {
	t.Helper()

	pkgID := uuid.NewString()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO credit_packages (id, name, credit_amount, price) VALUES ($1,$2,$3,$4)`,
		pkgID, "Pack "+pkgID[:8], credits, 50)

	if err != nil {
		t.Fatalf("failed to insert seed package: %v", err)
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO credit_purchases (id, user_id, credit_package_id, purchased_credits, price_paid)
		 VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), userID, pkgID, credits, 50)

	if err != nil {
		t.Fatalf("failed to insert seed purchase: %v", err)
	}
}

func bearerFor(t *testing.T, jwtMgr *auth.Manager, userID, role string) string {
	t.Helper()

	token, err := jwtMgr.GenerateAccessToken(userID, userID+"@example.com", role)

	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}

	return "Bearer " + token
}

func doBooking(router *gin.Engine, courseID, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/courses/"+courseID+"/booking", nil)
	req.Header.Set("Authorization", bearer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestBookingIntegration_HappyPath(t *testing.T) {
	router, pool, jwtMgr := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	coachID := seedUser(t, pool, "COACH")
	userID := seedUser(t, pool, "USER")
	courseID := seedCourse(t, pool, coachID, 5)
	seedCredits(t, pool, userID, 3)

	w := doBooking(router, courseID, bearerFor(t, jwtMgr, userID, "USER"))

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var bookings int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM course_bookings WHERE user_id = $1 AND course_id = $2 AND cancelled_at IS NULL`,
		userID, courseID).Scan(&bookings)

	if err != nil {
		t.Fatalf("failed to query bookings: %v", err)
	}

	if bookings != 1 {
		t.Fatalf("expected 1 booking, got %d", bookings)
	}

	// the confirmation job must land in the same commit
	var jobs int
	err = pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM jobs WHERE type = 'booking.confirmation' AND status = 'pending'`).Scan(&jobs)

	if err != nil {
		t.Fatalf("failed to query jobs: %v", err)
	}

	if jobs != 1 {
		t.Fatalf("expected 1 pending confirmation job, got %d", jobs)
	}
}

func TestBookingIntegration_DuplicateAndRebook(t *testing.T) {
	router, pool, jwtMgr := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	coachID := seedUser(t, pool, "COACH")
	userID := seedUser(t, pool, "USER")
	courseID := seedCourse(t, pool, coachID, 5)
	seedCredits(t, pool, userID, 5)

	bearer := bearerFor(t, jwtMgr, userID, "USER")

	if w := doBooking(router, courseID, bearer); w.Code != http.StatusCreated {
		t.Fatalf("[first booking] got status %d, body=%s", w.Code, w.Body.String())
	}

	// second active booking for the same course must be refused
	if w := doBooking(router, courseID, bearer); w.Code != http.StatusBadRequest {
		t.Fatalf("[duplicate booking] got status %d, body=%s", w.Code, w.Body.String())
	}

	// cancelling frees the slot again
	cancelReq := httptest.NewRequest(http.MethodDelete, "/api/courses/"+courseID+"/booking", nil)
	cancelReq.Header.Set("Authorization", bearer)
	cw := httptest.NewRecorder()
	router.ServeHTTP(cw, cancelReq)

	if cw.Code != http.StatusOK {
		t.Fatalf("[cancel] got status %d, body=%s", cw.Code, cw.Body.String())
	}

	if w := doBooking(router, courseID, bearer); w.Code != http.StatusCreated {
		t.Fatalf("[rebook after cancel] got status %d, body=%s", w.Code, w.Body.String())
	}

	// history keeps the cancelled row
	var total int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM course_bookings WHERE user_id = $1 AND course_id = $2`,
		userID, courseID).Scan(&total)

	if err != nil {
		t.Fatalf("failed to query bookings: %v", err)
	}

	if total != 2 {
		t.Fatalf("expected 2 booking rows (one cancelled), got %d", total)
	}
}

func TestBookingIntegration_NoCredits(t *testing.T) {
	router, pool, jwtMgr := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	coachID := seedUser(t, pool, "COACH")
	userID := seedUser(t, pool, "USER")
	courseID := seedCourse(t, pool, coachID, 5)

	w := doBooking(router, courseID, bearerFor(t, jwtMgr, userID, "USER"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestBookingIntegration_CourseFull(t *testing.T) {
	router, pool, jwtMgr := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	coachID := seedUser(t, pool, "COACH")
	courseID := seedCourse(t, pool, coachID, 1)

	first := seedUser(t, pool, "USER")
	seedCredits(t, pool, first, 2)

	if w := doBooking(router, courseID, bearerFor(t, jwtMgr, first, "USER")); w.Code != http.StatusCreated {
		t.Fatalf("[fill capacity] got status %d, body=%s", w.Code, w.Body.String())
	}

	second := seedUser(t, pool, "USER")
	seedCredits(t, pool, second, 2)

	w := doBooking(router, courseID, bearerFor(t, jwtMgr, second, "USER"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("[over capacity] got status %d, body=%s", w.Code, w.Body.String())
	}
}

// Two users race for the last seat. The row lock on the course serializes the
// capacity check, so exactly one wins.
func TestBookingIntegration_LastSeatRace(t *testing.T) {
	router, pool, jwtMgr := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	coachID := seedUser(t, pool, "COACH")
	courseID := seedCourse(t, pool, coachID, 1)

	bearers := make([]string, 2)

	for i := range bearers {
		uid := seedUser(t, pool, "USER")
		seedCredits(t, pool, uid, 2)
		bearers[i] = bearerFor(t, jwtMgr, uid, "USER")
	}

	codes := make([]int, len(bearers))

	var wg sync.WaitGroup

	for i, bearer := range bearers {
		wg.Add(1)

		go func(i int, bearer string) {
			defer wg.Done()
			codes[i] = doBooking(router, courseID, bearer).Code
		}(i, bearer)
	}

	wg.Wait()

	created := 0

	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		}
	}

	if created != 1 {
		t.Fatalf("expected exactly one winner for the last seat, got %d (codes=%v)", created, codes)
	}

	var active int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM course_bookings WHERE course_id = $1 AND cancelled_at IS NULL`,
		courseID).Scan(&active)

	if err != nil {
		t.Fatalf("failed to query bookings: %v", err)
	}

	if active != 1 {
		t.Fatalf("expected 1 active booking, got %d", active)
	}
}

func TestAuthIntegration_MissingToken(t *testing.T) {
	router, pool, _ := setupTestRouter(t)
	resetDB(t, pool)
	defer resetDB(t, pool)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
	}

	var resp apiErrorResponse

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if resp.Error.Code == "" {
		t.Fatal("error responses must carry a code")
	}
}
