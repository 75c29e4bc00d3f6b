package controllers

import (
	"net/http"

	"github.com/homematch/credential-platform/internal/app"
	"github.com/homematch/credential-platform/internal/dtos"
	"github.com/homematch/credential-platform/internal/utils"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(a *app.App) *HealthController {
	return &HealthController{app: a}
}

// HealthCheck reports liveness plus reachability of the backing stores.
func (c *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if c.app.DB != nil {
		if err := c.app.DB.Ping(r.Context()); err != nil {
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure,
				"Database unreachable", nil, err,
			)
			return
		}
	}
	if c.app.Redis != nil {
		if err := c.app.Redis.Ping(r.Context()).Err(); err != nil {
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure,
				"Credential store unreachable", nil, err,
			)
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "ok"})
}
