package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-gluten-scan/internal/ai"
	"go-gluten-scan/internal/catalog"
	"go-gluten-scan/internal/config"
	"go-gluten-scan/internal/decoder"
	"go-gluten-scan/internal/handler"
	"go-gluten-scan/internal/middleware"
	"go-gluten-scan/internal/model"
	"go-gluten-scan/internal/repository"
	"go-gluten-scan/internal/service"
	"go-gluten-scan/internal/storage"
	"go-gluten-scan/internal/ws"
	"go-gluten-scan/pkg/database"
	"go-gluten-scan/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env + Config
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	logger.Init()
	cfg := config.Load()

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Product{}, &model.ScanEvent{})

	// 3. Setup WebSocket Hub for status-change notifications
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. External integrations
	var external catalog.Client = catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		external = catalog.NewCached(external, rdb, cfg.CatalogCacheTTL)
	}

	aiCfg := ai.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}
	classifier := ai.NewClassifier(aiCfg)
	extractor := ai.NewExtractor(aiCfg)

	objectStore, err := storage.New(storage.Config{
		BaseURL: cfg.StorageBaseURL,
		Bucket:  cfg.StorageBucket,
		APIKey:  cfg.StorageAPIKey,
	})
	if err != nil {
		log.Fatal("Failed to configure object storage: ", err)
	}

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	scanRepo := repository.NewScanRepo(db)

	staleness := service.NewStalenessClassifier(productRepo, classifier, wsHub, service.ClassifierConfig{
		FreshnessWindow: cfg.FreshnessWindow,
		Workers:         cfg.ClassifyWorkers,
		QueueSize:       cfg.ClassifyQueueSize,
		CallTimeout:     cfg.ClassifyTimeout,
		SweepSchedule:   cfg.SweepSchedule,
		SweepBatchSize:  cfg.SweepBatchSize,
	})
	resolver := service.NewScanResolver(productRepo, scanRepo, external, staleness)
	sourcing := service.NewCommunitySourcing(productRepo, extractor, objectStore, service.SourcingConfig{
		MinImages: cfg.MinCommunityImages,
		MaxImages: cfg.MaxCommunityImages,
	})

	scanHandler := handler.NewScanHandler(resolver, sourcing, scanRepo, decoder.New())
	productHandler := handler.NewProductHandler(productRepo)

	// 6. Start background classification workers
	ctx, cancel := context.WithCancel(context.Background())
	staleness.Start(ctx)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Gluten Scan API v1.0",
		BodyLimit: 32 * 1024 * 1024, // community image uploads
	})

	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 8. Routes
	api := app.Group("/api/v1", middleware.RequireAuth())

	api.Post("/scans", scanHandler.CreateScan)
	api.Post("/scans/decode", scanHandler.DecodeAndScan)
	api.Get("/scans", scanHandler.GetScans)

	api.Get("/products/:barcode", productHandler.GetProduct)
	api.Post("/products/:barcode/images", scanHandler.SubmitImages)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	staleness.Stop()
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
