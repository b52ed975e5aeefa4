package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-mgmt-api/api/swagger"
	"github.com/noah-isme/school-mgmt-api/internal/handler"
	"github.com/noah-isme/school-mgmt-api/internal/middleware"
	"github.com/noah-isme/school-mgmt-api/internal/repository"
	"github.com/noah-isme/school-mgmt-api/internal/service"
	"github.com/noah-isme/school-mgmt-api/pkg/cache"
	"github.com/noah-isme/school-mgmt-api/pkg/config"
	"github.com/noah-isme/school-mgmt-api/pkg/database"
	"github.com/noah-isme/school-mgmt-api/pkg/jobs"
	"github.com/noah-isme/school-mgmt-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-mgmt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-mgmt-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-mgmt-api/pkg/notify"
	"github.com/noah-isme/school-mgmt-api/pkg/search"
	"github.com/noah-isme/school-mgmt-api/pkg/storage"
)

// @title School Management API
// @version 1.0.0
// @description Multi-tenant school administration: classes, people, fees, library, messaging and report cards.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const jobReconcile = "cascade.reconcile"

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, mongoDB, err := connectMongo(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("mongo unavailable", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logr.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	pg, err := connectPostgres(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()
	if err := database.EnsureSchema(ctx, pg); err != nil {
		logr.Fatal("failed to prepare postgres schema", zap.Error(err))
	}

	// Redis only backs the report cache, so the API runs without it.
	var redisClient *redis.Client
	if cfg.Reports.CacheEnabled {
		redisClient, err = connectRedis(ctx, cfg, logr)
		if err != nil {
			logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		}
	}

	var publisher notify.Publisher = notify.Nop{}
	var bus *notify.Bus
	if cfg.NATS.URL != "" {
		bus, err = notify.Connect(cfg.NATS, logr)
		if err != nil {
			logr.Warn("nats unavailable, domain events disabled", zap.Error(err))
		} else {
			publisher = bus
			defer bus.Close() //nolint:errcheck
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	store := repository.NewStore(mongoDB, metrics.ObserveDBQuery)
	if err := store.EnsureIndexes(ctx); err != nil {
		logr.Fatal("failed to ensure mongo indexes", zap.Error(err))
	}

	accountRepo := repository.NewAccountRepository(store)
	adminRepo := repository.NewAdminRepository(store)
	classRepo := repository.NewClassRepository(store)
	subjectRepo := repository.NewSubjectRepository(store)
	teacherRepo := repository.NewTeacherRepository(store)
	studentRepo := repository.NewStudentRepository(store)
	parentRepo := repository.NewParentRepository(store)
	feeRepo := repository.NewFeeRepository(store)
	bookRepo := repository.NewBookRepository(store)
	borrowRepo := repository.NewBorrowRepository(store)
	assignmentRepo := repository.NewAssignmentRepository(store)
	messageRepo := repository.NewMessageRepository(store)
	eventRepo := repository.NewEventRepository(store)
	noticeRepo := repository.NewNoticeRepository(store)
	complaintRepo := repository.NewComplaintRepository(store)
	timetableRepo := repository.NewTimetableRepository(store)
	auditRepo := repository.NewAuditRepository(pg)
	journalRepo := repository.NewCascadeJournalRepository(pg)
	cacheRepo := repository.NewCacheRepository(redisClient, "school", logr)

	objectStore, localStore, err := newObjectStore(cfg)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}

	authService := service.NewAuthService(accountRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	adminService := service.NewAdminService(adminRepo, validate, logr)
	cascadeService := service.NewCascadeService(service.CascadeRepositories{
		Classes:  classRepo,
		Subjects: subjectRepo,
		Teachers: teacherRepo,
		Students: studentRepo,
		Parents:  parentRepo,
		Journal:  journalRepo,
	}, publisher, metrics, logr, service.CascadeConfig{Concurrency: cfg.Cascade.Concurrency})
	reconcileService := service.NewReconcileService(cascadeService, journalRepo, teacherRepo, subjectRepo, auditRepo, logr)

	exportService := service.NewExportService(objectStore, logr)
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)
	reportService := service.NewReportService(service.ReportDeps{
		Students: studentRepo,
		Subjects: subjectRepo,
		Classes:  classRepo,
		Schools:  adminRepo,
		Cache:    cacheService,
		Exporter: exportService,
	}, logr)

	classService := service.NewClassService(classRepo, subjectRepo, studentRepo, cascadeService, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, classRepo, cascadeService, validate, logr)
	teacherService := service.NewTeacherService(teacherRepo, classRepo, subjectRepo, cascadeService, validate, logr)
	studentService := service.NewStudentService(studentRepo, service.StudentDeps{
		Classes:  classRepo,
		Subjects: subjectRepo,
		Parents:  parentRepo,
		Cascade:  cascadeService,
		Reports:  reportService,
	}, validate, logr)
	parentService := service.NewParentService(parentRepo, studentRepo, cascadeService, validate, logr)
	feeService := service.NewFeeService(feeRepo, studentRepo, exportService, publisher, validate, logr)

	refs := service.NewRefResolver(accountRepo)
	libraryService := newLibraryService(cfg, bookRepo, borrowRepo, refs, validate, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, subjectRepo, studentRepo, validate, logr)
	messageService := service.NewMessageService(messageRepo, refs, publisher, validate, logr)
	eventService := service.NewEventService(eventRepo, publisher, validate, logr)
	noticeService := service.NewNoticeService(noticeRepo, publisher, validate, logr)
	complaintService := service.NewComplaintService(complaintRepo, validate, logr)
	timetableService := service.NewTimetableService(timetableRepo, classRepo, subjectRepo, validate, logr)
	settingsService := service.NewSettingsService(accountRepo, validate, logr)

	checks := map[string]handler.Pinger{
		"mongo":    store.Ping,
		"postgres": pg.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = cacheRepo.Ping
	}
	if bus != nil {
		checks["nats"] = func(context.Context) error {
			if !bus.Healthy() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}

	h := handlers{
		auth:        handler.NewAuthHandler(authService, adminService),
		classes:     handler.NewClassHandler(classService),
		subjects:    handler.NewSubjectHandler(subjectService),
		teachers:    handler.NewTeacherHandler(teacherService),
		students:    handler.NewStudentHandler(studentService),
		parents:     handler.NewParentHandler(parentService),
		fees:        handler.NewFeeHandler(feeService),
		library:     handler.NewLibraryHandler(libraryService),
		assignments: handler.NewAssignmentHandler(assignmentService),
		messages:    handler.NewMessageHandler(messageService),
		events:      handler.NewEventHandler(eventService),
		notices:     handler.NewNoticeHandler(noticeService, complaintService),
		timetables:  handler.NewTimetableHandler(timetableService),
		reports:     handler.NewReportHandler(reportService),
		settings:    handler.NewSettingsHandler(settingsService),
		cascades:    handler.NewCascadeHandler(cascadeService, reconcileService),
		metrics:     handler.NewMetricsHandler(metrics, checks),
	}
	// S3 exports are downloaded straight from the bucket.
	if localStore != nil {
		h.exports = handler.NewExportHandler(localStore)
	} else {
		h.exports = handler.NewExportHandler(nil)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	registerRoutes(r, cfg, h, authService, auditRepo, logr)

	reconcileQueue := jobs.NewQueue(jobReconcile, func(ctx context.Context, job jobs.Job) error {
		result, err := reconcileService.Run(ctx)
		if err != nil {
			return err
		}
		logr.Info("cascade reconciliation finished",
			zap.String("job_id", job.ID),
			zap.Int("entries_scanned", result.EntriesScanned),
			zap.Int("entries_resolved", result.EntriesResolved),
			zap.Int("steps_replayed", result.StepsReplayed),
			zap.Int("links_repaired", result.LinksRepaired),
		)
		return nil
	}, jobs.QueueConfig{Workers: cfg.Cascade.ReconcileWorkers, MaxRetries: 2, Logger: logr})
	reconcileQueue.Start(ctx)
	defer reconcileQueue.Stop()

	go runEvery(ctx, cfg.Cascade.ReconcileInterval, func() {
		_, err := reconcileQueue.SubmitKeyed(jobReconcile, "journal", nil)
		switch {
		case errors.Is(err, jobs.ErrDuplicate):
			logr.Debug("reconciliation still running, skipping tick")
		case err != nil:
			logr.Warn("failed to schedule reconciliation", zap.Error(err))
		}
	})

	if bus != nil {
		if _, err := bus.Reply(notify.SubjectCascadeReconcile, func(ctx context.Context, _ []byte) (interface{}, error) {
			return reconcileService.Run(ctx)
		}); err != nil {
			logr.Warn("failed to subscribe reconcile requests", zap.Error(err))
		}
	}

	if localStore != nil {
		go runEvery(ctx, cfg.Exports.SignedURLTTL, func() {
			removed, err := localStore.CleanupOlderThan(cfg.Exports.SignedURLTTL)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				return
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func retry(ctx context.Context, cfg *config.Config, logr *zap.Logger, name string, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.Startup.MaxRetries), ctx)
	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		logr.Warn("dependency not ready, retrying", zap.String("dependency", name), zap.Duration("wait", wait), zap.Error(err))
	})
}

func connectMongo(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	var (
		client *mongo.Client
		db     *mongo.Database
	)
	err := retry(ctx, cfg, logr, "mongo", func() error {
		var err error
		client, db, err = database.NewMongo(ctx, cfg.Mongo)
		return err
	})
	return client, db, err
}

func connectPostgres(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	err := retry(ctx, cfg, logr, "postgres", func() error {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database)
		return err
	})
	return db, err
}

func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*redis.Client, error) {
	var client *redis.Client
	err := retry(ctx, cfg, logr, "redis", func() error {
		var err error
		client, err = cache.NewRedis(ctx, cfg.Redis)
		return err
	})
	return client, err
}

// newObjectStore returns the export store. The local store is also returned so the API can
// serve and expire its signed downloads.
func newObjectStore(cfg *config.Config) (storage.ObjectStore, *storage.LocalStorage, error) {
	if cfg.Exports.Driver == "s3" {
		s3, err := storage.NewS3Storage(cfg.Exports.S3Bucket, cfg.Exports.S3Region, cfg.Exports.S3Endpoint, cfg.Exports.SignedURLTTL)
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	downloadURL := strings.TrimRight(cfg.APIPrefix, "/") + "/exports/download"
	local, err := storage.NewLocalStorage(cfg.Exports.Dir, downloadURL, signer)
	if err != nil {
		return nil, nil, err
	}
	return local, local, nil
}

func newLibraryService(cfg *config.Config, books *repository.BookRepository, borrows *repository.BorrowRepository, refs *service.RefResolver, validate *validator.Validate, logr *zap.Logger) *service.LibraryService {
	if len(cfg.Search.Addresses) == 0 {
		return service.NewLibraryService(books, borrows, nil, refs, validate, logr)
	}
	index, err := search.NewBookIndex(cfg.Search)
	if err != nil {
		logr.Warn("book index unavailable, searching the store", zap.Error(err))
		return service.NewLibraryService(books, borrows, nil, refs, validate, logr)
	}
	return service.NewLibraryService(books, borrows, index, refs, validate, logr)
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
