package handler

import (
	"net/http"

	"givehub-backend/bootstrap"
)

// Handler receives every rewritten request on the serverless deployment.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	bootstrap.Handler().ServeHTTP(w, r)
}
