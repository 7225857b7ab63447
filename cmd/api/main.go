package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-api/internal/config"
	"github.com/classtrack/classtrack-api/internal/database"
	"github.com/classtrack/classtrack-api/internal/handler"
	"github.com/classtrack/classtrack-api/internal/middleware"
	"github.com/classtrack/classtrack-api/internal/repository"
	"github.com/classtrack/classtrack-api/internal/router"
	"github.com/classtrack/classtrack-api/internal/scheduler"
	"github.com/classtrack/classtrack-api/internal/service"
	cloud "github.com/classtrack/classtrack-api/pkg/cloudinary"
	"github.com/classtrack/classtrack-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, attendance stats caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not set, notification events will not be published")
	}

	var avatars service.AvatarStore
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		avatars = uploader
	}

	var mail mailer.Mailer
	if cfg.SendgridAPIKey != "" {
		mail, err = mailer.NewSendgrid(cfg.SendgridAPIKey, cfg.EmailFromName, cfg.EmailFromAddress, logger)
		if err != nil {
			log.Fatalf("failed to create sendgrid mailer: %v", err)
		}
	} else {
		logger.Warn().Msg("sendgrid api key not set, emails are logged to stdout")
		mail = mailer.NewConsole(logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewScheduledReportRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, prefRepo, userRepo, mail, natsConn, validate, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, notificationService, redisClient, cfg.StatsCacheTTL, validate, logger)
	feeService := service.NewFeeService(feeRepo, studentRepo, classRepo, notificationService, validate, logger)
	userService := service.NewUserService(userRepo, prefRepo, activityRepo, notificationService, avatars, validate, cfg.JWTSecret, cfg.JWTExpiry, logger)
	reportService := service.NewReportService(reportRepo, attendanceRepo, studentRepo, classRepo, mail, notificationService, validate, logger)
	classService := service.NewClassService(classRepo, studentRepo, activityRepo, notificationService, validate, logger)
	studentService := service.NewStudentService(studentRepo, classRepo, notificationService, validate, logger)

	sched := scheduler.New(logger)
	if err := sched.Register("report-dispatch", "Report dispatch", cfg.ReportSweepSpec, func(ctx context.Context) error {
		return reportService.Sweep(ctx, time.Now())
	}); err != nil {
		log.Fatalf("failed to register report dispatch job: %v", err)
	}
	if err := sched.Register("notification-cleanup", "Notification cleanup", cfg.CleanupSpec, func(ctx context.Context) error {
		_, err := notificationService.CleanupExpired(ctx, cfg.NotificationMaxAge)
		return err
	}); err != nil {
		log.Fatalf("failed to register notification cleanup job: %v", err)
	}
	sched.Start()

	userHandler := handler.NewUserHandler(userService, logger)
	classHandler := handler.NewClassHandler(classService, logger)
	studentHandler := handler.NewStudentHandler(studentService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	feeHandler := handler.NewFeeHandler(feeService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	cronHandler := handler.NewCronHandler(sched, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		UserHandler:         userHandler,
		ClassHandler:        classHandler,
		StudentHandler:      studentHandler,
		AttendanceHandler:   attendanceHandler,
		FeeHandler:          feeHandler,
		NotificationHandler: notificationHandler,
		ReportHandler:       reportHandler,
		CronHandler:         cronHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, sched)
}

func waitForShutdown(app *fiber.App, sched *scheduler.Scheduler) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
