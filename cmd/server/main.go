package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/api/handlers"
	"github.com/postpilothq/postpilot/internal/api/middleware"
	job "github.com/postpilothq/postpilot/internal/jobs"
	"github.com/postpilothq/postpilot/internal/platforms"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	botRepo := repository.NewBotRepository(db)
	postRepo := repository.NewPostRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	creditsRepo := repository.NewCreditsRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	registry := platforms.DefaultRegistry()
	vault := service.NewCredentialVault(cfg.SecretKey)
	validator := service.NewContentValidator()

	creditService := service.NewCreditService(creditsRepo)
	mediaService := service.NewMediaService(*cfg, mediaAssetRepo)
	publishService := service.NewPublishService(botRepo, postRepo, connectionRepo, mediaAssetRepo,
		activityRepo, statsRepo, creditService, vault, validator, mediaService, registry)
	schedulerService := service.NewSchedulerService(postRepo, publishService, cfg.BatchSize)
	engagementService := service.NewEngagementService(postRepo, connectionRepo, engagementRepo, vault, registry)
	healthService := service.NewHealthService(*cfg, connectionRepo, vault, registry)
	postService := service.NewPostService(postRepo, botRepo, mediaAssetRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	cronMiddleware := middleware.NewCronMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/cancel", post.CancelPost)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)

	cronGroup := app.Group("/cron")
	cronGroup.Use(cronMiddleware.CronAuth())

	cronHandler := handlers.NewCronHandler(schedulerService, engagementService, healthService)
	cronGroup.Post("/process-posts", cronHandler.ProcessPosts)
	cronGroup.Post("/collect-engagement", cronHandler.CollectEngagement)
	cronGroup.Post("/health-check", cronHandler.HealthCheck)

	processPostsJob := job.NewProcessPostsJob(schedulerService)
	healthCheckJob := job.NewHealthCheckJob(healthService)

	queueW := queue.NewQueue(schedulerService)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", processPostsJob.Run)
	c.AddFunc("@daily", healthCheckJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
