package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/homematch/credential-platform/internal/app"
	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/controllers"
	"github.com/homematch/credential-platform/internal/dtos"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

const appName = "listing-service"

func main() {
	utils.InitLogger(appName)
	cfg := config.LoadServiceConfig(appName)

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application: ", err)
	}
	defer application.Close()

	store := repositories.NewCredentialStore(application.Redis, cfg.StoreTimeout)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthController.HealthCheck).Methods("GET")

	v1Router := router.PathPrefix("/listings").Subrouter().PathPrefix("/v1").Subrouter()
	v1Router.Use(middleware.AuthMiddleware(cfg, store, nil))
	v1Router.HandleFunc("/me", whoAmI).Methods("GET")

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		utils.Logger.Fatal("Server failed: ", err)
	}
}

// whoAmI echoes the caller's derived identity and where it came from,
// which makes the edge-versus-local validation path observable.
func whoAmI(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", nil,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.WhoAmIResponse{
		SubjectID:   identity.SubjectID,
		DisplayName: identity.DisplayName,
		Roles:       identity.Roles,
		Source:      middleware.IdentitySourceFromContext(r.Context()),
	})
}
