package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Handler serves Swagger UI for the OpenAPI document published at docURL.
func Handler(docURL string) http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(docURL),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	)
}
