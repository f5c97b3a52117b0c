package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/begari-sampath/crm-backend/internal/config"
	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/auth"
	"github.com/begari-sampath/crm-backend/internal/infra/database"
	"github.com/begari-sampath/crm-backend/internal/infra/http/handlers"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/infra/mail"
	"github.com/begari-sampath/crm-backend/internal/infra/queue"
	"github.com/begari-sampath/crm-backend/internal/infra/worker"
	"github.com/begari-sampath/crm-backend/internal/session"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

func main() {
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// Repositories
	leadRepo := database.NewLeadRepository(db)
	profileRepo := database.NewProfileRepository(db)

	// Auth service and the per-user session registry
	authSvc := auth.NewService(profileRepo, cfg.JWTSecret, cfg.AccessTokenTTL)
	sessions := session.NewRegistry(
		func() session.AuthProvider { return authSvc.NewClient() },
		profileRepo,
		cfg.AdminEmail,
		cfg.ProfileFetchTimeout,
	)

	// Queue worker: consumes reminders and emails the assigned agent
	mailSender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom)
	queueWorker := queue.NewWorker(rabbitMQ.Ch, mailSender)
	go queueWorker.Start(ctx, queue.QueueName)

	// Poller: turns due follow-ups into queued reminders
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)
	poller := worker.NewReminderPoller(leadRepo, profileRepo, producer, cfg.ReminderPollInterval)
	go poller.Start(ctx)

	// UseCases
	assignLeadsUC := usecase.NewAssignLeadsUseCase(leadRepo, profileRepo)
	updateLeadUC := usecase.NewUpdateLeadUseCase(leadRepo)
	importLeadsUC := usecase.NewImportLeadsUseCase(leadRepo)
	exportLeadsUC := usecase.NewExportLeadsUseCase(leadRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(sessions, handlers.NewRateLimiter(10, time.Minute))
	leadHandler := handlers.NewLeadHandler(leadRepo, assignLeadsUC, updateLeadUC, importLeadsUC, exportLeadsUC)
	dashboardHandler := handlers.NewDashboardHandler(leadRepo)
	agentHandler := handlers.NewAgentHandler(profileRepo, leadRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(middleware.Metrics)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/login", authHandler.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authSvc, sessions))

		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Get("/auth/me", authHandler.HandleMe)

		r.Get("/leads", leadHandler.HandleList)
		r.Get("/leads/export", leadHandler.HandleExport)
		r.Get("/leads/{id}", leadHandler.HandleGet)
		r.Put("/leads/{id}", leadHandler.HandleUpdate)

		r.Get("/dashboard/metrics", dashboardHandler.HandleMetrics)
		r.Get("/calendar/events", dashboardHandler.HandleCalendar)
		r.Get("/notifications", dashboardHandler.HandleNotifications)
		r.Get("/reminders", dashboardHandler.HandleReminders)

		// Admin-only surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(entity.RoleAdmin))

			r.Delete("/leads/{id}", leadHandler.HandleDelete)
			r.Post("/leads/assign", leadHandler.HandleAssign)
			r.Post("/leads/import", leadHandler.HandleImport)

			r.Get("/agents", agentHandler.HandleList)
			r.Post("/agents", agentHandler.HandleCreate)
			r.Get("/reports/performance", agentHandler.HandlePerformance)
		})
	})

	addr := ":" + cfg.Port
	log.Printf("🔥 LeadFlow API running on %s", addr)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
