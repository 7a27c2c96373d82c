package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-engine/internal/service/approval"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/attendance-engine/internal/service/employee"
	notificationService "github.com/cmlabs-hris/attendance-engine/internal/service/notification"
	settingsService "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
)

type repositories struct {
	records   attendance.DailyRecordRepository
	requests  request.RequestRepository
	settings  settings.Repository
	employees employee.EmployeeRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	hub := sse.NewHub()
	broadcaster := notificationService.NewBroadcaster(hub, notificationService.Config{
		WorkerCount: cfg.Engine.NotifyWorkers,
		QueueSize:   cfg.Engine.NotifyQueueSize,
	})

	settingsSvc := settingsService.NewSettingsService(repos.settings, broadcaster)
	if err := settingsSvc.Load(ctx, cfg.DefaultSettings()); err != nil {
		slog.Error("Failed to load app settings", "error", err)
		os.Exit(1)
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		repos.records,
		repos.employees,
		settingsSvc,
		broadcaster,
		attendanceService.Options{
			SkewTolerance:     cfg.Engine.ClockSkewTolerance,
			TodayPaddingDays:  cfg.Engine.TodayPaddingDays,
			IngestConcurrency: cfg.Engine.IngestConcurrency,
			MaxRangeDays:      cfg.Engine.MaxRangeDays,
		},
		logger,
	)
	employeeSvc := employeeService.NewEmployeeService(repos.employees, settingsSvc)

	approvalDeps := approval.Deps{
		Requests:    repos.requests,
		Employees:   repos.employees,
		Settings:    settingsSvc,
		Sessions:    attendanceSvc,
		Broadcaster: broadcaster,
		Logger:      logger,
	}
	breakWorkflow := approval.NewBreakWorkflow(approvalDeps)
	clockOutWorkflow := approval.NewClockOutWorkflow(approvalDeps)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		JWTService,
		settingsSvc,
		appHTTP.Handlers{
			Event:      appHTTP.NewEventHandler(attendanceSvc),
			Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
			Request:    appHTTP.NewRequestHandler(breakWorkflow, clockOutWorkflow),
			Settings:   appHTTP.NewSettingsHandler(settingsSvc),
			Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
			Stream:     appHTTP.NewStreamHandler(hub, JWTService),
		},
	)

	scheduler := cron.NewScheduler(ctx, logger)
	cron.RegisterSettingsRefresh(scheduler, settingsSvc, cfg.Engine.SettingsRefreshInterval)
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
	broadcaster.Close()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		return &repositories{
			records:   memory.NewAttendanceRepository(),
			requests:  memory.NewRequestRepository(),
			settings:  memory.NewSettingsRepository(),
			employees: memory.NewEmployeeRepository(),
			close:     func() {},
		}, nil

	case config.StorePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := postgresql.EnsureSchema(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &repositories{
			records:   postgresql.NewAttendanceRepository(db),
			requests:  postgresql.NewRequestRepository(db),
			settings:  postgresql.NewSettingsRepository(db),
			employees: postgresql.NewEmployeeRepository(db),
			close:     db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
