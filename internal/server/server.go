package server

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"anoa.com/jobportal/internal/config"
	"anoa.com/jobportal/internal/middleware"
	"anoa.com/jobportal/internal/scheduler"
	"anoa.com/jobportal/pkg/ratelimiter"
	"anoa.com/jobportal/pkg/response"
	"anoa.com/jobportal/pkg/storage"
	"anoa.com/jobportal/pkg/validator"

	adminHttp "anoa.com/jobportal/internal/modules/admin/delivery/http"
	adminService "anoa.com/jobportal/internal/modules/admin/service"

	appHttp "anoa.com/jobportal/internal/modules/application/delivery/http"
	appRepo "anoa.com/jobportal/internal/modules/application/repository"
	appService "anoa.com/jobportal/internal/modules/application/service"

	jobHttp "anoa.com/jobportal/internal/modules/job/delivery/http"
	jobRepo "anoa.com/jobportal/internal/modules/job/repository"
	jobService "anoa.com/jobportal/internal/modules/job/service"

	notiHttp "anoa.com/jobportal/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/jobportal/internal/modules/notification/repository"
	notifService "anoa.com/jobportal/internal/modules/notification/service"

	searchService "anoa.com/jobportal/internal/modules/search/service"

	userHttp "anoa.com/jobportal/internal/modules/user/delivery/http"
	userRepo "anoa.com/jobportal/internal/modules/user/repository"
	userService "anoa.com/jobportal/internal/modules/user/service"

	viewService "anoa.com/jobportal/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external resources the server runs on. Redis and Meilisearch
// are optional; without them the matching features are switched off.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Meili       meilisearch.ServiceManager
	FileStorage storage.FileStorage
}

type Server struct {
	engine    *gin.Engine
	db        *gorm.DB
	scheduler *scheduler.Scheduler
	http      *http.Server
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	validator.RegisterCustomValidations()

	db := deps.DB
	redisClient := deps.Redis

	var meiliSvc searchService.SearchService
	if deps.Meili != nil {
		meiliSvc = searchService.NewMeiliSearchService(deps.Meili)
	}

	limiter := ratelimiter.New(redisClient)
	formLimiter := ratelimiter.NewClientLimiter(cfg.FormRatePerSecond, cfg.FormRateBurst)

	sessions := middleware.NewSessionManager(middleware.SessionConfig{
		Secret:      cfg.JWTSecret,
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.SessionRememberTTL,
		Secure:      cfg.IsProduction(),
	}, redisClient)

	// User Module
	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, limiter, userService.LoginThrottle{
		MaxAttempts: cfg.RateLimitLoginAttempts,
		Window:      cfg.RateLimitLoginWindow,
	})
	authHandler := userHttp.NewAuthHandler(authSvc, sessions)

	// Job Module
	jobRepository := jobRepo.NewJobRepository(db)
	applicationRepository := appRepo.NewApplicationRepository(db)
	viewSvc := viewService.NewViewService(redisClient, jobRepository)
	jobSvc := jobService.NewJobService(jobRepository, applicationRepository, meiliSvc, viewSvc)
	jobHandler := jobHttp.NewJobHandler(jobSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, originChecker(cfg.AllowedOrigins))

	// Application Module
	applicationSvc := appService.NewApplicationService(applicationRepository, jobRepository, notificationSvc, deps.FileStorage, limiter, appService.Options{
		MaxResumeBytes: cfg.MaxResumeBytes,
		Cooldown:       cfg.RateLimitApply,
	})
	mediaRoot := ""
	if cfg.StorageDriver == "local" {
		mediaRoot = cfg.MediaRoot
	}
	applicationHandler := appHttp.NewApplicationHandler(applicationSvc, mediaRoot)

	// Admin Module
	adminSvc := adminService.NewAdminService(userRepository, jobRepository, applicationRepository, jobSvc, deps.FileStorage)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	sched := scheduler.New(10 * time.Minute)
	for _, task := range []scheduler.Task{
		scheduler.ViewSyncTask(viewSvc),
		scheduler.ReindexTask(jobSvc),
		scheduler.LimiterCleanupTask(formLimiter),
	} {
		if err := sched.Register(task); err != nil {
			log.Printf("⚠️ Failed to schedule %s: %v", task.Name(), err)
		}
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/notifications/unread-count/"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(userRepository, sessions)
	router.Use(authMiddleware.LoadSession())
	router.Use(middleware.FormRateLimit(formLimiter))

	// Auth routes
	anonymous := router.Group("")
	anonymous.Use(authMiddleware.RequireAnonymous())
	{
		anonymous.GET("/login/", authHandler.LoginPage)
		anonymous.POST("/login/", authHandler.Login)
		anonymous.GET("/register/", authHandler.RegisterPage)
		anonymous.POST("/register/", authHandler.Register)
	}

	// Public routes
	router.GET("/", jobHandler.Homepage)
	router.GET("/jobs/", jobHandler.Listings)
	router.GET("/jobs/:id/", jobHandler.Detail)
	router.GET("/applicant/dashboard/", jobHandler.ApplicantDashboard)
	router.GET("/search/token/", jobHandler.SearchToken)

	// Logged-in pages
	loggedIn := router.Group("")
	loggedIn.Use(authMiddleware.RequireLogin())
	{
		loggedIn.GET("/logout/", authHandler.Logout)
		loggedIn.POST("/logout/", authHandler.Logout)

		loggedIn.GET("/jobs/:id/apply/", applicationHandler.ApplyPage)
		loggedIn.POST("/jobs/:id/apply/", applicationHandler.Apply)
		loggedIn.GET("/my-applications/", applicationHandler.MyApplications)

		loggedIn.GET("/post-job/", jobHandler.PostJobPage)
		loggedIn.POST("/post-job/", jobHandler.PostJob)

		loggedIn.GET("/media/resumes/*filepath", applicationHandler.Resume)
	}

	// Notification routes
	notifications := router.Group("/notifications")
	notifications.Use(authMiddleware.RequireAuth())
	{
		notifications.GET("/", notificationHandler.GetNotifications)
		notifications.GET("/unread-count/", notificationHandler.UnreadCount)
		notifications.POST("/:id/read/", notificationHandler.MarkAsRead)
		notifications.POST("/read-all/", notificationHandler.MarkAllAsRead)
		notifications.GET("/ws/", notificationHandler.HandleWebSocket)
	}

	// Admin routes
	adminGroup := router.Group("/admin")
	adminGroup.Use(authMiddleware.RequireStaff())
	{
		adminGroup.GET("/users", adminHandler.GetAllUsers)
		adminGroup.POST("/users", adminHandler.CreateUser)
		adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
		adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)

		adminGroup.GET("/profiles", adminHandler.GetProfiles)
		adminGroup.PATCH("/profiles/:user_id", adminHandler.UpdateProfile)
		adminGroup.POST("/profiles/actions", adminHandler.ProfileActions)

		adminGroup.GET("/jobs", adminHandler.GetJobs)
		adminGroup.POST("/jobs", adminHandler.CreateJob)
		adminGroup.GET("/jobs/:id", adminHandler.GetJob)
		adminGroup.PUT("/jobs/:id", adminHandler.UpdateJob)
		adminGroup.DELETE("/jobs/:id", adminHandler.DeleteJob)
		adminGroup.GET("/jobs/:id/applications", adminHandler.GetJobApplications)

		adminGroup.GET("/applications", adminHandler.GetApplications)
		adminGroup.GET("/applications/:id", adminHandler.GetApplication)
		adminGroup.DELETE("/applications/:id", adminHandler.DeleteApplication)
	}

	router.NoRoute(response.NotFound)

	return &Server{
		engine:    router,
		db:        db,
		scheduler: sched,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the background scheduler and serves HTTP until Shutdown.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func splitOrigins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(allowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// originChecker accepts same-host sockets and the configured CORS origins.
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	allowed := map[string]bool{}
	for _, o := range splitOrigins(allowedOrigins) {
		allowed[o] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
