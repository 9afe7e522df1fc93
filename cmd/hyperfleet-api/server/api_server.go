package server

import (
	"net/http"
	"strings"

	gorillahandlers "github.com/gorilla/handlers"

	"github.com/openshift-hyperfleet/hyperfleet/cmd/hyperfleet-api/environments"
	pkgserver "github.com/openshift-hyperfleet/hyperfleet/pkg/server"
)

func env() *environments.Env {
	return environments.Environment()
}

// NewAPIServer builds the API server from the initialized environment
func NewAPIServer() *pkgserver.HTTPServer {
	cfg := env().Config.Server

	handler := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorillahandlers.MaxAge(int(cfg.CORS.MaxAge.Seconds())),
	)(routes())

	s := pkgserver.NewHTTPServer("api", cfg.GetBindAddress(), stripTrailingSlash(handler), cfg.HTTPS)
	s.HTTP().ReadTimeout = cfg.Timeout.Read
	s.HTTP().WriteTimeout = cfg.Timeout.Write
	return s
}

// stripTrailingSlash lets /clusters/ and /clusters reach the same route.
func stripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
		}
		next.ServeHTTP(w, r)
	})
}
