package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shwemart/shwemart/internal/cache"
	"github.com/shwemart/shwemart/internal/config"
	"github.com/shwemart/shwemart/internal/handlers"
	"github.com/shwemart/shwemart/internal/jobs"
	"github.com/shwemart/shwemart/internal/middleware"
	"github.com/shwemart/shwemart/internal/models"
	"github.com/shwemart/shwemart/internal/repository"
	"github.com/shwemart/shwemart/internal/service"
	"github.com/shwemart/shwemart/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	otpRepo := repository.NewOTPRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	postRepo := repository.NewPostRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	productRepo := repository.NewProductRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	taxonomyRepo := repository.NewTaxonomyRepository(dynamoClient, cfg.DynamoDB.TableName, logger)

	// Initialize services
	tokenService := service.NewTokenService(userRepo, &cfg.JWT, logger)
	otpService := service.NewOTPService(otpRepo, userRepo, &cfg.OTP, &cfg.App, logger)
	authService := service.NewAuthService(userRepo, otpRepo, tokenService, &cfg.OTP, logger)

	responseCache := cache.New(redisClient, logger)
	dispatcher := jobs.NewDispatcher(asynqClient, cfg.Worker.MaxRetry, logger)
	files := storage.New(cfg.Upload.Dir)

	cookies := middleware.NewCookieWriter(&cfg.Cookie, &cfg.JWT, cfg.App.IsProduction())
	authMiddleware := middleware.NewAuthMiddleware(tokenService, cookies, logger)
	authorizeMiddleware := middleware.NewAuthorizeMiddleware(userRepo, logger)

	authHandlers := handlers.NewAuthHandlers(otpService, authService, cookies, logger)
	postHandlers := handlers.NewPostHandlers(postRepo, responseCache, logger)
	productHandlers := handlers.NewProductHandlers(productRepo, taxonomyRepo, userRepo, responseCache, dispatcher, logger)
	profileHandlers := handlers.NewProfileHandlers(userRepo, files, dispatcher, &cfg.Upload, &cfg.Worker, logger)
	adminHandlers := handlers.NewAdminHandlers(postRepo, productRepo, files, dispatcher, &cfg.Upload, &cfg.Worker, logger)

	router := setupRouter(
		authHandlers,
		postHandlers,
		productHandlers,
		profileHandlers,
		adminHandlers,
		authMiddleware,
		authorizeMiddleware,
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.Info("DynamoDB client initialized")
	return client, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	postHandlers *handlers.PostHandlers,
	productHandlers *handlers.ProductHandlers,
	profileHandlers *handlers.ProfileHandlers,
	adminHandlers *handlers.AdminHandlers,
	authMiddleware *middleware.AuthMiddleware,
	authorizeMiddleware *middleware.AuthorizeMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/register", authHandlers.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/verify-otp", authHandlers.VerifyOTP).Methods("POST", "OPTIONS")
	api.HandleFunc("/confirm-password", authHandlers.ConfirmPassword).Methods("POST", "OPTIONS")
	api.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/forget-password", authHandlers.ForgetPassword).Methods("POST", "OPTIONS")
	api.HandleFunc("/verify-otp-for-reset", authHandlers.VerifyOTPForReset).Methods("POST", "OPTIONS")
	api.HandleFunc("/reset-password", authHandlers.ResetPassword).Methods("POST", "OPTIONS")

	logout := api.PathPrefix("/logout").Subrouter()
	logout.Use(authMiddleware.Authenticate)
	logout.HandleFunc("", authHandlers.Logout).Methods("POST", "OPTIONS")

	user := api.PathPrefix("/user").Subrouter()
	user.Use(authMiddleware.Authenticate)
	user.HandleFunc("/posts", postHandlers.GetPostsByPagination).Methods("GET", "OPTIONS")
	user.HandleFunc("/posts/infinite", postHandlers.GetInfinitePosts).Methods("GET", "OPTIONS")
	user.HandleFunc("/posts/{id:[0-9]+}", postHandlers.GetPost).Methods("GET", "OPTIONS")
	user.HandleFunc("/products", productHandlers.GetProductsByPagination).Methods("GET", "OPTIONS")
	user.HandleFunc("/products/{id:[0-9]+}", productHandlers.GetProduct).Methods("GET", "OPTIONS")
	user.HandleFunc("/filter-type", productHandlers.GetFilterType).Methods("GET", "OPTIONS")
	user.HandleFunc("/products/toggle-favorite", productHandlers.ToggleFavorite).Methods("PATCH", "OPTIONS")
	user.HandleFunc("/profile/upload", profileHandlers.UploadProfile).Methods("PATCH", "OPTIONS")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.Authenticate)
	admin.Use(authorizeMiddleware.Authorize(true, models.RoleAdmin, models.RoleAuthor))
	admin.HandleFunc("/posts", adminHandlers.CreatePost).Methods("POST", "OPTIONS")
	admin.HandleFunc("/posts", adminHandlers.UpdatePost).Methods("PATCH", "OPTIONS")
	admin.HandleFunc("/posts/{id:[0-9]+}", adminHandlers.DeletePost).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/products", adminHandlers.CreateProduct).Methods("POST", "OPTIONS")
	admin.HandleFunc("/products", adminHandlers.UpdateProduct).Methods("PATCH", "OPTIONS")
	admin.HandleFunc("/products/{id:[0-9]+}", adminHandlers.DeleteProduct).Methods("DELETE", "OPTIONS")

	return router
}
