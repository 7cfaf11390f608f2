package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safety-compliance-api/config"
	"safety-compliance-api/controllers"
	"safety-compliance-api/routes"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Database is constructed here and injected downward; released on exit.
	db, err := config.Connect()
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer func() {
		if err := config.Close(db); err != nil {
			log.Printf("Warning: closing database: %v", err)
		}
	}()

	store := services.NewRecordStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatal("Failed to migrate schema: ", err)
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	blob, err := services.NewLocalBlobStore(uploadPath, []byte(os.Getenv("DOWNLOAD_SIGNING_SECRET")))
	if err != nil {
		log.Fatal("Failed to prepare upload storage: ", err)
	}

	engine := services.NewWorkflowEngine(store)
	notifier := services.NewMailNotifier(store)

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Security headers
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})

	routes.SetupRoutes(router, routes.Handlers{
		Store:          store,
		Auth:           controllers.NewAuthController(store),
		Subcontractors: controllers.NewSubcontractorController(store),
		RMPs:           controllers.NewRMPController(store, engine, notifier),
		Documents:      controllers.NewDocumentController(store, engine, blob),
		Comments:       controllers.NewCommentController(engine),
	})

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Block until interrupted, then drain in-flight requests before the
	// deferred database close runs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
}
