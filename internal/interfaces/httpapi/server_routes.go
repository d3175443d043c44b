package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if swaggerEnabled {
		mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
		mux.HandleFunc("GET /docs", handler.SwaggerUI)
	}
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/predictions", handler.ListMatchPredictions)
	mux.HandleFunc("GET /v1/matches/{matchID}/odds", handler.ListMatchOdds)
	mux.HandleFunc("GET /v1/data-sources", handler.ListDataSources)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/ingestion/matches",
		RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestMatches)))
	mux.Handle("POST /v1/internal/jobs/sync-upcoming",
		RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncUpcomingJob)))
	mux.Handle("POST /v1/internal/jobs/sync-results",
		RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncResultsJob)))
}
