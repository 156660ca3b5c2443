package http

import (
	"log/slog"
	"time"

	"github.com/coachhub/coachhub/internal/auth"
	"github.com/coachhub/coachhub/internal/cache"
	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/http/handlers"
	"github.com/coachhub/coachhub/internal/http/middlewares"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/coachhub/coachhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// NewRouter wires repositories, handlers and the middleware chain.
func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, jwtMgr *auth.Manager) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	promReg := prometheus.NewRegistry()
	prom := observability.NewProm(promReg)

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("coachhub-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	coachesRepo := postgres.NewCoachesRepo(pool, prom)
	skillsRepo := postgres.NewSkillsRepo(pool, prom)
	coursesRepo := postgres.NewCoursesRepo(pool, prom)
	bookingsRepo := postgres.NewBookingsRepo(pool, prom)
	creditRepo := postgres.NewCreditRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	listCache := cache.New(5 * time.Second)

	// handlers
	healthHandler := handlers.NewHealthHandler(pool)
	authHandler := handlers.NewAuthHandler(usersRepo, jwtMgr)
	usersHandler := handlers.NewUsersHandler(usersRepo, creditRepo, bookingsRepo)
	skillsHandler := handlers.NewSkillsHandler(skillsRepo, listCache)
	packagesHandler := handlers.NewCreditPackagesHandler(creditRepo, listCache)
	coursesHandler := handlers.NewCoursesHandler(coursesRepo, bookingsRepo, jobsRepo, usersRepo, listCache, prom)
	coachesHandler := handlers.NewCoachesHandler(coachesRepo, usersRepo, coursesRepo, bookingsRepo)
	adminHandler := handlers.NewAdminHandler(coursesRepo, coachesRepo, usersRepo)

	authMw := middlewares.NewAuthMiddleware(jwtMgr)

	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	apiLimiter := middlewares.NewRateLimiter(120, time.Minute)

	// ops
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	// public
	api.POST("/users/signup", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
	api.POST("/users/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	api.GET("/courses", coursesHandler.List)
	api.GET("/coaches", coachesHandler.List)
	api.GET("/coaches/:coachId", coachesHandler.Detail)
	api.GET("/skills", skillsHandler.List)
	api.GET("/credit-packages", packagesHandler.List)

	// authenticated user
	authed := api.Group("")
	authed.Use(authMw.RequireAuth())
	authed.Use(apiLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	authed.GET("/users/profile", usersHandler.Profile)
	authed.PUT("/users/profile", usersHandler.UpdateProfile)
	authed.PUT("/users/password", usersHandler.UpdatePassword)
	authed.GET("/users/credit-purchases", usersHandler.ListCreditPurchases)
	authed.GET("/users/course-bookings", usersHandler.ListCourseBookings)
	authed.POST("/credit-packages/:creditPackageId", packagesHandler.Purchase)
	authed.POST("/courses/:courseId/booking", coursesHandler.Book)
	authed.DELETE("/courses/:courseId/booking", coursesHandler.CancelBooking)

	// coach self-service
	coachGrp := authed.Group("/coach")
	coachGrp.Use(authMw.RequireRole(user.RoleCoach))

	coachGrp.GET("/courses", coachesHandler.OwnCourses)
	coachGrp.GET("/courses/:courseId", coachesHandler.OwnCourseDetail)
	coachGrp.GET("/profile", coachesHandler.GetProfile)
	coachGrp.PUT("/profile", coachesHandler.UpdateProfile)
	coachGrp.GET("/revenue", coachesHandler.Revenue)

	// admin
	adminGrp := authed.Group("/admin")
	adminGrp.Use(authMw.RequireRole(user.RoleAdmin))

	adminGrp.POST("/courses", adminHandler.CreateCourse)
	adminGrp.PUT("/courses/:courseId", adminHandler.UpdateCourse)
	adminGrp.POST("/coaches/:userId", adminHandler.PromoteCoach)
	adminGrp.POST("/skills", skillsHandler.Create)
	adminGrp.DELETE("/skills/:skillId", skillsHandler.Delete)
	adminGrp.POST("/credit-packages", packagesHandler.Create)
	adminGrp.DELETE("/credit-packages/:creditPackageId", packagesHandler.Delete)

	log.Info("router initialized", "env", cfg.Env)

	return r
}
