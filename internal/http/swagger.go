package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "rpc-auth-go/docs/openapi"
)

func registerSwagger(r chi.Router, enabled bool) {
	if !enabled {
		return
	}
	// serves doc.json and the UI
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
