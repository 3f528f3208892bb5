package server

import (
	"net/http"

	"github.com/alexmiron/podium/internal/utils"
	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/syncer"
)

type Server struct {
	DB       *archive.DB
	Sync     *syncer.Syncer
	Username string
	Password string
}

func New(db *archive.DB, sync *syncer.Syncer, user, pass string) *Server {
	return &Server{
		DB:       db,
		Sync:     sync,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/status", s.basicAuth(s.handleStatus))
	mux.HandleFunc("POST /api/sync", s.basicAuth(s.handleTriggerSync))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/transcripts", s.basicAuth(s.handleTranscripts))
	mux.HandleFunc("GET /api/transcripts/full", s.basicAuth(s.handleTranscript))

	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
