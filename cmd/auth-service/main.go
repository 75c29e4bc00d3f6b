package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/homematch/credential-platform/internal/app"
	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/controllers"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/services"
	"github.com/homematch/credential-platform/internal/utils"
)

const appName = "auth-service"

func main() {
	utils.InitLogger(appName)
	cfg := config.LoadAuthConfig(appName)

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application: ", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	store := repositories.NewCredentialStore(application.Redis, cfg.StoreTimeout)
	userRepo := repositories.NewUserRepository(application.DB)
	attemptsRepo := repositories.NewLoginAttemptsRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	jwtService := services.NewJWTService(cfg, store)
	authService := services.NewAuthService(cfg, userRepo, attemptsRepo, jwtService, store)
	cleanupService := services.NewAttemptCleanupService(attemptsRepo)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(authService)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	router.HandleFunc("/health", healthController.HealthCheck).Methods("GET")

	authRouter := router.PathPrefix("/auth").Subrouter()
	v1Router := authRouter.PathPrefix("/v1").Subrouter()

	v1Router.HandleFunc("/login", authController.Login).Methods("POST")
	v1Router.HandleFunc("/refresh_token", authController.Refresh).Methods("POST")
	v1Router.HandleFunc("/logout", authController.Logout).Methods("POST")

	// Protected endpoints require a valid token
	protected := v1Router.PathPrefix("/account").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg, store, authService.VerifyStamp))
	protected.HandleFunc("/password", authController.ChangePassword).Methods("PUT")
	protected.HandleFunc("/profile", authController.UpdateProfile).Methods("PUT")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()
	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := cleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled login-attempt cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule login-attempt cleanup job")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Server failed: ", err)
	}
}
