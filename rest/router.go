package rest

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/autoperception/dataset-explorer/types"
)

// NewRouter registers the routes and answers CORS preflight requests when
// allowOrigin is set
func NewRouter(routes []types.Route, allowOrigin string) *httprouter.Router {
	router := httprouter.New()
	if allowOrigin != "" {
		router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Access-Control-Request-Method") != "" {
				header := w.Header()
				header.Set("Access-Control-Allow-Methods", r.Header.Get("Access-Control-Request-Method"))
				header.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				header.Set("Access-Control-Allow-Origin", allowOrigin)
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}

	router.GET("/", index(routes))
	for _, route := range routes {
		router.Handler(route.Method, route.Pattern, route.Handler)
	}
	return router
}

// WithCORS sets the allowed origin on every response
func WithCORS(handler http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		handler.ServeHTTP(w, r)
	})
}

// index lists the served routes
func index(routes []types.Route) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		for _, route := range routes {
			if _, err := fmt.Fprintf(w, "%s %s\n", route.Method, route.Pattern); err != nil {
				return
			}
		}
	}
}
