package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/themobileprof/medimatch-be/internal/api"
	"github.com/themobileprof/medimatch-be/internal/api/middleware"
	"github.com/themobileprof/medimatch-be/internal/catalog"
	"github.com/themobileprof/medimatch-be/internal/chat"
	"github.com/themobileprof/medimatch-be/internal/db"
	"github.com/themobileprof/medimatch-be/internal/lexicon"
	"github.com/themobileprof/medimatch-be/internal/matcher"
	"github.com/themobileprof/medimatch-be/internal/plan"
	"github.com/themobileprof/medimatch-be/internal/usage"
	"github.com/themobileprof/medimatch-be/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	port := getEnv("PORT", "8080")
	databaseURL := getEnv("DATABASE_URL", "")
	jwtSecret := getEnv("JWT_SECRET", "")
	dataDir := getEnv("DATA_DIR", "data")

	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Load reference data. Any inconsistency here is fatal: serving with a
	// corrupt lexicon or catalog would silently misdiagnose.
	lex, err := lexicon.LoadFile(filepath.Join(dataDir, "lexicon.json"))
	if err != nil {
		log.Fatalf("Failed to load lexicon: %v", err)
	}
	log.Printf("Loaded lexicon: %d synonym entries", lex.Size())

	diseases, err := catalog.LoadFile(filepath.Join(dataDir, "diseases.json"))
	if err != nil {
		log.Fatalf("Failed to load disease catalog: %v", err)
	}
	if err := diseases.Validate(lex); err != nil {
		log.Fatalf("Disease catalog failed validation: %v", err)
	}
	log.Printf("Loaded catalog: %d diseases", len(diseases.Diseases()))

	plans, err := plan.LoadFile(filepath.Join(dataDir, "plans.json"))
	if err != nil {
		log.Fatalf("Failed to load plans: %v", err)
	}
	log.Printf("Loaded %d plan tiers", len(plans.List()))

	// Initialize database
	database, err := db.NewFromURL(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Database connected")

	// Core components. The database doubles as the gate's counter store so
	// limit checks stay atomic across instances.
	gate := usage.NewGate(database)
	engine := chat.NewEngine(lex, matcher.New(diseases), gate, database)
	planSvc := api.NewPlanService(database, plans)

	// Handlers
	authHandler := api.NewAuthHandler(database, plans, jwtSecret)
	oauthHandler := api.NewOAuthHandler(database, plans, jwtSecret)
	chatHandler := api.NewChatHandler(engine, database, planSvc)
	planHandler := api.NewPlanHandler(database, planSvc, gate)
	wsHandler := ws.NewChatHandler(engine, database, planSvc, jwtSecret)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.PerIP(100.0/60.0, 200)) // 100 req/min per IP

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	// Auth routes (public)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWTAuth(jwtSecret), authHandler.Me)

		auth.GET("/google", oauthHandler.GoogleLogin)
		auth.GET("/google/callback", oauthHandler.GoogleCallback)
	}

	// Chat routes (protected + per-user rate limiting)
	chatGroup := router.Group("/api/chat")
	chatGroup.Use(middleware.JWTAuth(jwtSecret))
	chatGroup.Use(middleware.PerUser(500.0/3600.0, 100)) // 500/hour per user
	{
		chatGroup.POST("", chatHandler.SendMessage)
		chatGroup.POST("/new", chatHandler.NewChat)
		chatGroup.GET("/history",
			middleware.RequireFeature(planSvc, "chat_history"),
			chatHandler.History)
	}

	// Plan and usage routes
	router.GET("/api/plans", planHandler.ListPlans)
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(jwtSecret))
	{
		protected.POST("/plans/switch", planHandler.SwitchPlan)
		protected.POST("/language/switch", planHandler.SwitchLanguage)
		protected.GET("/usage/stats", planHandler.UsageStats)
	}

	// WebSocket chat route (token via query param or header)
	router.GET("/ws/chat", wsHandler.HandleChat)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
