package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"

	"sahaya-donation-api/config"
	"sahaya-donation-api/database"
	"sahaya-donation-api/handlers"
	"sahaya-donation-api/middleware"
	"sahaya-donation-api/queue"
	"sahaya-donation-api/services/auth"
	"sahaya-donation-api/services/email"
	"sahaya-donation-api/services/flow"
	"sahaya-donation-api/services/verification"
	"sahaya-donation-api/worker"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, h-captcha-response")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		// Registrar apenas requisições com duração longa ou erros
		elapsed := time.Since(start)
		if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
			log.Printf(
				"%s %s %s %d %v",
				r.Method,
				r.RequestURI,
				r.RemoteAddr,
				wrapper.status,
				elapsed,
			)
		}
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	numCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(numCPU)
	log.Printf("Server starting with %d CPUs available", numCPU)

	cfg := config.Load()
	log.Printf("Configuration loaded successfully")

	// Conectar ao banco de dados com retry
	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg.Database)
		if err == nil {
			break
		}
		retryDelay := time.Duration(retries+1) * time.Second
		log.Printf("Failed to connect to database (attempt %d/5): %v. Retrying in %v...",
			retries+1, err, retryDelay)
		time.Sleep(retryDelay)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.GetDB().PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Successfully connected to database")

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "donation_jobs")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer jobQueue.Close()
	log.Println("Successfully connected to Redis")

	rateLimiter, err := middleware.NewRateLimiter(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to initialize rate limiter: %v", err)
	}
	defer rateLimiter.Close()

	// Inicializar serviços
	verifier := verification.NewClient(cfg.Verification.BaseURL, cfg.Verification.APIKey)
	emailService := email.NewSMTPService(cfg.SMTP)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, db)

	flowStore := flow.NewStore()
	defer flowStore.Stop()
	flowController := flow.NewController(verifier, db)

	// Iniciar o worker de emails em background
	workerConcurrency := cfg.Redis.WorkerConcurrency
	if workerConcurrency < 2 {
		workerConcurrency = 2
	} else if workerConcurrency > 8 {
		workerConcurrency = 8
	}

	emailWorker := worker.NewWorker(jobQueue, emailService, os.Getenv("CONTACT_INBOX"))
	emailWorker.Start(workerConcurrency)
	defer emailWorker.Stop()
	log.Printf("Started email worker with %d threads", workerConcurrency)

	// Inicializar handlers
	donationHandler := handlers.NewDonationHandler(cfg, flowStore, flowController, jobQueue)
	authHandler := handlers.NewAuthHandler(jwtService)
	contentHandler := handlers.NewContentHandler(db)
	contactHandler := handlers.NewContactHandler(db, jobQueue)
	paymentsHandler := handlers.NewPaymentsHandler(db)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)
	router.Use(rateLimiter.RateLimitMiddleware())

	api := router.PathPrefix("/api").Subrouter()

	// Fluxo de doação
	api.HandleFunc("/donation/phone", donationHandler.StartPhoneVerification).Methods("POST", "OPTIONS")
	api.HandleFunc("/donation/otp", donationHandler.ConfirmOtp).Methods("POST", "OPTIONS")
	api.HandleFunc("/donation/resend", donationHandler.ResendCode).Methods("POST", "OPTIONS")
	api.HandleFunc("/donation/payment", donationHandler.SubmitPayment).Methods("POST", "OPTIONS")
	api.HandleFunc("/donation/back", donationHandler.Back).Methods("POST", "OPTIONS")
	api.HandleFunc("/donation/state", donationHandler.State).Methods("GET", "OPTIONS")
	api.HandleFunc("/donation/qr", donationHandler.PaymentQR).Methods("GET", "OPTIONS")

	// Conteúdo público do site
	api.HandleFunc("/blogs", contentHandler.ListBlogs).Methods("GET", "OPTIONS")
	api.HandleFunc("/blogs/{id}", contentHandler.GetBlog).Methods("GET", "OPTIONS")
	api.HandleFunc("/events", contentHandler.ListEvents).Methods("GET", "OPTIONS")
	api.HandleFunc("/events/{id}", contentHandler.GetEvent).Methods("GET", "OPTIONS")
	api.HandleFunc("/projects", contentHandler.ListProjects).Methods("GET", "OPTIONS")
	api.HandleFunc("/projects/{id}", contentHandler.GetProject).Methods("GET", "OPTIONS")
	api.HandleFunc("/gallery", contentHandler.ListGallery).Methods("GET", "OPTIONS")
	api.HandleFunc("/team", contentHandler.ListTeam).Methods("GET", "OPTIONS")
	api.HandleFunc("/contact", contactHandler.SubmitMessage).Methods("POST", "OPTIONS")

	// Autenticação do painel
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh", authHandler.RefreshToken).Methods("POST", "OPTIONS")

	// Painel admin (CRUD de conteúdo e registros de doação)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware(jwtService))
	admin.Use(middleware.RequireAdmin())

	admin.HandleFunc("/blogs", contentHandler.AdminListBlogs).Methods("GET", "OPTIONS")
	admin.HandleFunc("/blogs", contentHandler.CreateBlog).Methods("POST")
	admin.HandleFunc("/blogs/{id}", contentHandler.AdminGetBlog).Methods("GET")
	admin.HandleFunc("/blogs/{id}", contentHandler.UpdateBlog).Methods("PUT")
	admin.HandleFunc("/blogs/{id}", contentHandler.DeleteBlog).Methods("DELETE")
	admin.HandleFunc("/events", contentHandler.CreateEvent).Methods("POST")
	admin.HandleFunc("/events/{id}", contentHandler.UpdateEvent).Methods("PUT")
	admin.HandleFunc("/events/{id}", contentHandler.DeleteEvent).Methods("DELETE")
	admin.HandleFunc("/projects", contentHandler.CreateProject).Methods("POST")
	admin.HandleFunc("/projects/{id}", contentHandler.UpdateProject).Methods("PUT")
	admin.HandleFunc("/projects/{id}", contentHandler.DeleteProject).Methods("DELETE")
	admin.HandleFunc("/gallery", contentHandler.CreateGalleryItem).Methods("POST")
	admin.HandleFunc("/gallery/{id}", contentHandler.DeleteGalleryItem).Methods("DELETE")
	admin.HandleFunc("/team", contentHandler.CreateTeamMember).Methods("POST")
	admin.HandleFunc("/team/{id}", contentHandler.UpdateTeamMember).Methods("PUT")
	admin.HandleFunc("/team/{id}", contentHandler.DeleteTeamMember).Methods("DELETE")
	admin.HandleFunc("/payments", paymentsHandler.ListDonations).Methods("GET", "OPTIONS")
	admin.HandleFunc("/payments/{id}", paymentsHandler.GetDonation).Methods("GET")

	startTime := time.Now()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		health := struct {
			Status    string `json:"status"`
			Time      string `json:"time"`
			Database  string `json:"database"`
			Redis     string `json:"redis"`
			Uptime    string `json:"uptime"`
			GoVersion string `json:"go_version"`
		}{
			Status:    "ok",
			Time:      time.Now().Format(time.RFC3339),
			Database:  "connected",
			Redis:     "connected",
			Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion: runtime.Version(),
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer dbCancel()

		if err := db.GetDB().PingContext(dbCtx); err != nil {
			health.Status = "degraded"
			health.Database = "error"
		}

		redisCtx, redisCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer redisCancel()

		if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
			health.Status = "degraded"
			health.Redis = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Stopping email worker...")
	emailWorker.Stop()

	// Tempo para workers finalizarem
	time.Sleep(2 * time.Second)

	log.Println("Stopping flow session janitor...")
	flowStore.Stop()

	log.Println("Closing database connections...")
	db.Close()

	log.Println("Closing Redis connections...")
	jobQueue.Close()

	log.Println("Server exited properly")
}
