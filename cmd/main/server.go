package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/CTAG07/Drosera/pkg/corpus"
)

// Server wires the store and API handlers onto a single mux.
type Server struct {
	logger      *slog.Logger
	store       *corpus.Store
	corpusAPI   *CorpusAPI
	generateAPI *GenerateAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {

	store, err := corpus.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating corpus store: %w", err)
	}
	store.SetLogger(logger)

	// api initialization
	corpusAPI := NewCorpusAPI(store, logger)
	generateAPI := NewGenerateAPI(store, cm, logger)
	serverAPI := NewServerAPI(cm, actionChan, logger)

	// create object, register routes to the mux, and return it
	server := &Server{
		logger:      logger,
		store:       store,
		corpusAPI:   corpusAPI,
		generateAPI: generateAPI,
		serverAPI:   serverAPI,
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()

	server.corpusAPI.RegisterRoutes(apiMux)
	server.generateAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// The health check stays outside the request-id wrapper so something
	// like docker can poll it cheaply.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.withRequestID(apiMux))

	return server, nil
}

// Close releases the resources held by the server.
func (s *Server) Close() {
	s.store.Close()
}

// withRequestID tags every request with a UUID, echoes it in the
// X-Request-Id header, and logs the request once served.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Info("Request served",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}
