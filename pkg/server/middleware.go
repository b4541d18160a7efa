package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDHeader carries the server-minted request token out.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const editorKey ctxKey = iota

// requestID attaches a per-request token so the save workflow runs once per request.
// The token is always minted here; an incoming X-Request-ID is never trusted as one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := uuid.NewString()
		w.Header().Set(RequestIDHeader, token)
		next.ServeHTTP(w, r.WithContext(host.WithRequestToken(r.Context(), token)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
			"request":  host.RequestToken(r.Context()),
		}).Debug("Request handled")
	})
}

// requireEditor checks the editor's basic auth credentials. Without configured
// credentials every request may edit.
func (s *Server) requireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.EditorUser != "" {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.EditorUser)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.EditorPassword)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="tmdb editor"`)
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), editorKey, true)))
	})
}

func canEdit(ctx context.Context) bool {
	ok, _ := ctx.Value(editorKey).(bool)
	return ok
}
