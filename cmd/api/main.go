package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	reportService "github.com/cmlabs-hris/attendance-engine/internal/service/report"
	scheduleService "github.com/cmlabs-hris/attendance-engine/internal/service/schedule"
	workflowService "github.com/cmlabs-hris/attendance-engine/internal/service/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Error running migrations: ", err)
	}

	var scheduleCache cache.Cache = cache.Noop{}
	if addr := cfg.RedisAddr(); addr != "" {
		redisCache, err := cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("Redis unavailable, schedule cache disabled", "addr", addr, "error", err)
		} else {
			defer redisCache.Close()
			scheduleCache = redisCache
		}
	}

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		log.Fatal("Error initializing JWT service: ", err)
	}

	tx := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	scheduleConfigRepo := postgresql.NewScheduleConfigRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	punchRepo := postgresql.NewPunchRepository(db)
	dayRecordRepo := postgresql.NewDayRecordRepository(db)
	timeslipRepo := postgresql.NewTimeslipRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	workflowDefinitionRepo := postgresql.NewWorkflowDefinitionRepository(db)
	workflowRequestRepo := postgresql.NewWorkflowRequestRepository(db)

	hub := sse.NewHub()

	scheduleSvc := scheduleService.NewScheduleService(scheduleConfigRepo, holidayRepo, employeeRepo, scheduleCache, cfg.Redis.TTL)
	workflowSvc := workflowService.NewWorkflowService(tx, workflowDefinitionRepo, workflowRequestRepo, employeeRepo, hub)
	attendanceSvc := attendanceService.NewAttendanceService(
		tx,
		punchRepo,
		dayRecordRepo,
		timeslipRepo,
		leaveRequestRepo,
		employeeRepo,
		scheduleSvc,
		cfg.Report.Workers,
	)
	timeslipSvc := attendanceService.NewTimeslipService(tx, timeslipRepo, employeeRepo, scheduleSvc, attendanceSvc, workflowSvc)
	leaveSvc := leaveService.NewLeaveService(tx, leaveRequestRepo, employeeRepo, scheduleSvc, attendanceSvc, workflowSvc)
	reportSvc := reportService.NewReportService(employeeRepo, attendanceSvc, cfg.Report.Workers)

	workflowSvc.RegisterCompletionHandler(workflow.TypeTimeslip, attendanceService.NewTimeslipCompletion(punchRepo, timeslipRepo, attendanceSvc))
	workflowSvc.RegisterCompletionHandler(workflow.TypeLeave, leaveService.NewLeaveCompletion(leaveRequestRepo, attendanceSvc))

	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.RouterOptions{
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		appHTTP.Handlers{
			Schedule:   appHTTP.NewScheduleHandler(scheduleSvc),
			Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
			Timeslip:   appHTTP.NewTimeslipHandler(timeslipSvc),
			Leave:      appHTTP.NewLeaveHandler(leaveSvc),
			Report:     appHTTP.NewReportHandler(reportSvc),
			Workflow:   appHTTP.NewWorkflowHandler(workflowSvc),
			Event:      appHTTP.NewEventHandler(hub),
		},
	)

	scheduler := cron.NewScheduler()
	if cfg.Cron.Enabled {
		cron.NewAttendanceJobs(attendanceSvc, employeeRepo, cfg.Cron.RecomputeInterval).RegisterJobs(scheduler)
		scheduler.Start(ctx)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
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
		slog.Error("Graceful shutdown failed", "error", err)
	}
	scheduler.Wait()
}
