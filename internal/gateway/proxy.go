package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/utils"
)

// Backend pairs a path prefix with the upstream that serves it.
type Backend struct {
	PathPrefix string
	Target     string
}

// NewRouter builds the gateway route table. Every backend route runs
// through the edge filter before being proxied.
func NewRouter(cfg *config.Config, filter *Filter) (*mux.Router, error) {
	backends := []Backend{
		{PathPrefix: "/auth", Target: cfg.AuthServiceURL},
		{PathPrefix: "/listings", Target: cfg.ListingServiceURL},
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	for _, b := range backends {
		proxy, err := newReverseProxy(b.Target)
		if err != nil {
			return nil, err
		}
		router.PathPrefix(b.PathPrefix).Handler(filter.Handler(proxy))
	}
	return router, nil
}

func newReverseProxy(target string) (http.Handler, error) {
	upstream, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		utils.Logger.WithError(err).WithField("upstream", upstream.Host).Error("Upstream request failed")
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Upstream unavailable", nil,
		)
	}
	return proxy, nil
}
