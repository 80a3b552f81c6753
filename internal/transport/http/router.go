package http

import (
	"net/http"

	"formflow-analytics/internal/app"
)

// NewRouter wires the REST routes, the stats websocket and the health probe.
func NewRouter(service *app.SurveyService) http.Handler {
	h := NewHandler(service)
	ws := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /forms", h.createForm)
	mux.HandleFunc("GET /forms", h.listForms)
	mux.HandleFunc("GET /forms/{id}", h.getForm)
	mux.HandleFunc("POST /forms/{id}/toggle", h.toggleForm)
	mux.HandleFunc("POST /forms/{id}/responses", h.submitResponse)
	mux.HandleFunc("GET /forms/{id}/responses", h.listResponses)
	mux.HandleFunc("GET /forms/{id}/stats", h.stats)
	mux.HandleFunc("POST /forms/{id}/summary", h.generateSummary)
	mux.HandleFunc("GET /forms/{id}/summary", h.getSummary)
	mux.HandleFunc("GET /forms/{id}/export", h.export)
	mux.HandleFunc("GET /ws", ws.ServeWS)
	return mux
}
