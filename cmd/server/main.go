package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"healthmate/internal/agent"
	"healthmate/internal/config"
	"healthmate/internal/database"
	"healthmate/internal/handlers"
	"healthmate/internal/llm"
	"healthmate/internal/logging"
	"healthmate/internal/middleware"
	"healthmate/internal/reference"
	"healthmate/internal/router"
	"healthmate/internal/services"
	"healthmate/internal/tools"
	"healthmate/pkg/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	jwtAuth, err := auth.NewJWTAuth(cfg.JWTSecret, cfg.TokenExpiry)
	if err != nil {
		log.Fatalf("❌ Failed to create JWT auth: %v", err)
	}

	// Domain services
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	refService := reference.NewService(cfg.DataDir)
	go refService.Watch()

	userService := services.NewUserService(db)
	convoService := services.NewConversationService(db)
	scheduleService := services.NewScheduleService(db)
	connManager := services.NewConnectionManager()

	promptRouter := router.NewRouter(llmClient)
	chains := router.NewChains(llmClient)
	dispatchAgent := agent.New(llmClient,
		tools.NewReportTool(cfg.UploadDir, cfg.PublicBaseURL),
		tools.NewImageTool(cfg.FreepikAPIKey, cfg.UploadDir, cfg.PublicBaseURL),
	)

	chatService := services.NewChatService(promptRouter, chains, dispatchAgent,
		userService, convoService, refService, connManager)

	reminderMonitor, err := services.NewReminderMonitor(scheduleService, connManager)
	if err != nil {
		log.Fatalf("❌ Failed to create reminder monitor: %v", err)
	}
	if err := reminderMonitor.Start(); err != nil {
		log.Fatalf("❌ Failed to start reminder monitor: %v", err)
	}
	defer reminderMonitor.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, jwtAuth, cfg.UploadDir)
	chatHandler := handlers.NewChatHandler(chatService, connManager, cfg.UploadDir)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, userService)
	userHandler := handlers.NewUserHandler(userService, convoService, refService)
	filesHandler := handlers.NewFilesHandler(cfg.UploadDir)
	wsHandler := handlers.NewWebSocketHandler(connManager, convoService)
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{
		AppName:   "HealthMate",
		BodyLimit: 25 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	prometheus := fiberprometheus.New("healthmate")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Use("/auth", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}))

	// Public routes
	app.Get("/health", healthHandler.Check)
	app.Post("/auth/v1/register-user", authHandler.Register)
	app.Post("/auth/v1/login", authHandler.Login)
	app.Get("/uploads/:filename", filesHandler.Serve)
	app.Get("/files/download/:filename", filesHandler.Download)

	// Authenticated routes
	protected := middleware.JWTAuth(jwtAuth)
	app.Post("/chat/v1/messages", protected, chatHandler.SendMessage)
	app.Post("/schedule/v1/update", protected, scheduleHandler.Update)
	app.Get("/schedule/v1/schedules", protected, scheduleHandler.List)
	app.Post("/schedule/v1/new", protected, scheduleHandler.Create)
	app.Get("/user/v1/dashboard/:user_id", protected, userHandler.Dashboard)
	app.Get("/user/v1/profile/", protected, userHandler.GetProfile)
	app.Put("/user/v1/profile/", protected, userHandler.UpdateProfile)
	app.Delete("/user/delete/conversation", protected, userHandler.DeleteConversation)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.Handle))

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("❌ Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 HealthMate backend listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
