package handler

import (
	"net/http"

	"github.com/msomdec/userdata-api/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, records *service.RecordService) {
	rh := NewRecordHandler(records)
	home := NewHomeHandler(records)

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /{$}", home.HandleHome)

	mux.HandleFunc("POST /api/data", rh.HandleCreate)
	mux.HandleFunc("GET /api/data", rh.HandleList)
	mux.HandleFunc("GET /api/data/{$}", rh.HandleList)
	mux.HandleFunc("GET /api/data/{id}", rh.HandleGet)
	mux.HandleFunc("PUT /api/data/{id}", rh.HandleUpdate)
	mux.HandleFunc("DELETE /api/data/{id}", rh.HandleDelete)
	mux.HandleFunc("POST /api/data/retrieve", rh.HandleRetrieve)
}
