// Package api is the delivery loop: a catch-all HTTP surface that answers
// every method and path with status 200 and a freshly synthesized document.
// Sessions are stateless; a broken exchange ends that session only.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"browserfuzz/internal/metrics"
	"browserfuzz/internal/payload"
	"browserfuzz/internal/randsrc"
)

type Server struct {
	log         *zap.Logger
	synth       *payload.Synthesizer
	rands       *randsrc.Pool
	metrics     *metrics.Metrics
	contentType string
}

// NewServer wires the synthesizer behind a catch-all router. Generation
// parameters are validated before this point; the handler itself has no
// failure mode a client can trigger.
func NewServer(log *zap.Logger, synth *payload.Synthesizer, m *metrics.Metrics, contentType string) http.Handler {
	s := &Server{
		log:         log,
		synth:       synth,
		rands:       randsrc.NewPool(),
		metrics:     m,
		contentType: contentType,
	}

	r := chi.NewRouter()
	r.Use(s.recoverSession)
	r.HandleFunc("/*", s.servePayload)
	// Nonstandard methods bypass the wildcard route; they get payloads too.
	r.NotFound(s.servePayload)
	r.MethodNotAllowed(s.servePayload)
	return r
}

// recoverSession keeps a panicking exchange from taking the loop down.
func (s *Server) recoverSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.metrics.SessionsAborted.Inc()
				s.log.Warn("session aborted",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) servePayload(w http.ResponseWriter, r *http.Request) {
	session := uuid.NewString()

	rng := s.rands.Get()
	doc, err := s.synth.Document(rng)
	s.rands.Put(rng)
	if err != nil {
		// Startup validation makes this unreachable; treat it as a bug.
		s.metrics.SessionsAborted.Inc()
		s.log.Error("synthesize document", zap.String("session", session), zap.Error(err))
		http.Error(w, "document synthesis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", s.contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		// Client went away mid-response. The session is over, the loop is not.
		s.metrics.SessionsAborted.Inc()
		s.log.Debug("write document", zap.String("session", session), zap.Error(err))
		return
	}

	s.metrics.PayloadsServed.Inc()
	s.metrics.PayloadBytes.Add(float64(len(doc)))
	s.log.Debug("served document",
		zap.String("session", session),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("bytes", len(doc)))
}
