package main

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/homematch/credential-platform/internal/app"
	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/gateway"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

const appName = "gateway"

func main() {
	utils.InitLogger(appName)
	cfg := config.LoadGatewayConfig(appName)

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application: ", err)
	}
	defer application.Close()

	store := repositories.NewCredentialStore(application.Redis, cfg.StoreTimeout)
	filter := gateway.NewFilter(cfg, store)

	router, err := gateway.NewRouter(cfg, filter)
	if err != nil {
		utils.Logger.Fatal("Failed to build route table: ", err)
	}

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
