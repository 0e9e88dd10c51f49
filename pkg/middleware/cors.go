package middleware

import (
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
)

// CORS allows the configured origins to call the API from a browser.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	headersOk := gorillaHandlers.AllowedHeaders([]string{"X-Requested-With", "Authorization", "Content-Type", "Idempotency-Key"})
	originsOk := gorillaHandlers.AllowedOrigins(origins)
	methodsOk := gorillaHandlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"})
	return gorillaHandlers.CORS(originsOk, headersOk, methodsOk)
}
