package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mzaki-dev/jadwal-api/api/swagger"
	"github.com/mzaki-dev/jadwal-api/internal/handler"
	"github.com/mzaki-dev/jadwal-api/internal/middleware"
	"github.com/mzaki-dev/jadwal-api/internal/models"
	"github.com/mzaki-dev/jadwal-api/internal/repository"
	"github.com/mzaki-dev/jadwal-api/internal/service"
	"github.com/mzaki-dev/jadwal-api/pkg/cache"
	"github.com/mzaki-dev/jadwal-api/pkg/config"
	"github.com/mzaki-dev/jadwal-api/pkg/database"
	"github.com/mzaki-dev/jadwal-api/pkg/export"
	"github.com/mzaki-dev/jadwal-api/pkg/jobs"
	"github.com/mzaki-dev/jadwal-api/pkg/logger"
	corsmiddleware "github.com/mzaki-dev/jadwal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mzaki-dev/jadwal-api/pkg/middleware/requestid"
	"github.com/mzaki-dev/jadwal-api/pkg/storage"
)

// @title Jadwal API
// @version 1.0.0
// @description School timetable generation and conflict resolution service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()
	cacheStore := cache.NewStore(redisClient)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewDownloadSigner(cfg.Export.URLSecret, cfg.Export.ResultTTL)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, lessonRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, roomRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, constraintRepo, assignmentRepo, subjectRepo, classRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, lessonRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, subjectRepo, validate, logr)
	requirementSvc := service.NewRequirementService(requirementRepo, classRepo, subjectRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		classRepo, subjectRepo, teacherRepo, roomRepo, studentRepo,
		constraintRepo, assignmentRepo, requirementRepo, lessonRepo,
		db, cacheStore, validate, logr,
		cfg.School, cfg.Scheduler, cfg.Cache,
	)
	exportSvc := service.NewExportService(
		lessonRepo, classRepo, subjectRepo, teacherRepo, roomRepo,
		exportStore, signer, cfg.School,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Export.ResultTTL},
		validate, logr,
		export.NewCSVExporter(), export.NewPDFExporter(),
	)

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	requirementHandler := handler.NewRequirementHandler(requirementSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitor := jobs.NewExportJanitor(func(ctx context.Context, job jobs.CleanupJob) ([]string, error) {
		return exportSvc.Cleanup(job.MaxAge)
	}, jobs.JanitorConfig{
		Interval: cfg.Export.CleanupInterval,
		MaxAge:   cfg.Export.ResultTTL,
		Logger:   logr,
	})
	janitor.Start(ctx)
	defer janitor.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	// Export downloads authenticate through the signed token in the URL.
	api.GET("/timetable/export/:token", timetableHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	admin := middleware.RequireRoles(models.RoleAdmin)

	authed.GET("/classes", classHandler.List)
	authed.GET("/classes/:id", classHandler.Get)
	authed.POST("/classes", staff, classHandler.Create)
	authed.PUT("/classes/:id", staff, classHandler.Update)
	authed.DELETE("/classes/:id", admin, classHandler.Delete)

	authed.GET("/subjects", subjectHandler.List)
	authed.GET("/subjects/:id", subjectHandler.Get)
	authed.POST("/subjects", staff, subjectHandler.Create)
	authed.PUT("/subjects/:id", staff, subjectHandler.Update)
	authed.DELETE("/subjects/:id", admin, subjectHandler.Delete)

	authed.GET("/teachers", teacherHandler.List)
	authed.GET("/teachers/:id", teacherHandler.Get)
	authed.POST("/teachers", staff, teacherHandler.Create)
	authed.PUT("/teachers/:id", staff, teacherHandler.Update)
	authed.DELETE("/teachers/:id", admin, teacherHandler.Deactivate)
	authed.GET("/teachers/:id/constraints", teacherHandler.ListConstraints)
	authed.POST("/teachers/:id/constraints", staff, teacherHandler.AddConstraint)
	authed.DELETE("/teachers/:id/constraints/:constraintId", staff, teacherHandler.DeleteConstraint)
	authed.GET("/assignments", teacherHandler.ListAssignments)
	authed.POST("/assignments", staff, teacherHandler.Assign)
	authed.DELETE("/assignments/:id", staff, teacherHandler.Unassign)

	authed.GET("/rooms", roomHandler.List)
	authed.GET("/rooms/:id", roomHandler.Get)
	authed.POST("/rooms", staff, roomHandler.Create)
	authed.PUT("/rooms/:id", staff, roomHandler.Update)
	authed.DELETE("/rooms/:id", admin, roomHandler.Delete)

	authed.GET("/students", studentHandler.List)
	authed.GET("/students/:id", studentHandler.Get)
	authed.POST("/students", staff, studentHandler.Create)
	authed.PUT("/students/:id", staff, studentHandler.Update)
	authed.DELETE("/students/:id", staff, studentHandler.Deactivate)

	authed.GET("/requirements", requirementHandler.List)
	authed.PUT("/requirements", staff, requirementHandler.Upsert)
	authed.DELETE("/requirements/:id", staff, requirementHandler.Delete)

	authed.GET("/timetable", timetableHandler.List)
	authed.POST("/timetable/generate", staff, timetableHandler.Generate)
	authed.POST("/timetable/save", staff, timetableHandler.Save)
	authed.POST("/timetable/lessons", staff, timetableHandler.Place)
	authed.PUT("/timetable/lessons/:id", staff, timetableHandler.Move)
	authed.DELETE("/timetable/lessons/:id", staff, timetableHandler.Delete)
	authed.POST("/timetable/export", timetableHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
