// Package server exposes the item editor, the public item pages, the sideload endpoints and
// the settings screen over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/nonce"
	"github.com/angelospk/tmdb-go/pkg/core/queue"
	"github.com/angelospk/tmdb-go/pkg/core/settings"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Host is the content storage the server reads and writes.
type Host interface {
	host.MetaStore
	host.TermStore
	host.ItemStore
	host.MediaStore
}

// ImageSource lists the remote images of a movie record in download order.
type ImageSource interface {
	ImageURLs(ctx context.Context, record *tmdb.MovieRecord) []string
}

// Sideloader downloads one image and attaches it to an item.
type Sideloader interface {
	SideloadWithTitle(ctx context.Context, itemID uint, url, title string) (*host.Attachment, error)
}

// Config holds the server settings.
type Config struct {
	Addr           string
	EditorUser     string // Empty disables authentication
	EditorPassword string
	UploadsDir     string
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Host       Host
	Nonces     *nonce.Issuer
	Sideloader Sideloader
	Queue      *queue.QueueManager
	Reporter   queue.Reporter
	Images     ImageSource
	Settings   *settings.Settings
}

// Server is the HTTP front of the plugin.
type Server struct {
	cfg        Config
	deps       Deps
	router     *mux.Router
	httpServer *http.Server
	logger     *log.Logger
}

// New creates a Server and registers its routes.
func New(cfg Config, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "uploads"
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	router := mux.NewRouter()
	router.Use(s.requestID, s.logRequests)

	// Public
	router.HandleFunc("/items/{id:[0-9]+}", s.handleShowItem).Methods("GET")
	router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.UploadsDir))))

	// Editor
	editor := router.PathPrefix("").Subrouter()
	editor.Use(s.requireEditor)
	editor.HandleFunc("/items", s.handleCreateItem).Methods("POST")
	editor.HandleFunc("/items/{id:[0-9]+}/edit", s.handleEditItem).Methods("GET")
	editor.HandleFunc("/items/{id:[0-9]+}", s.handleSaveItem).Methods("POST")
	editor.HandleFunc("/settings", s.handleSettings).Methods("GET", "POST")

	ajax := editor.PathPrefix("/ajax").Subrouter()
	ajax.HandleFunc("/items/{id:[0-9]+}/images", s.handleSideloadImage).Methods("POST")
	ajax.HandleFunc("/items/{id:[0-9]+}/images/complete", s.handleImagesComplete).Methods("POST")
	ajax.HandleFunc("/items/{id:[0-9]+}/sideload/start", s.handleSideloadStart).Methods("POST")
	ajax.HandleFunc("/items/{id:[0-9]+}/sideload/next", s.handleSideloadNext).Methods("POST")
	ajax.HandleFunc("/sideload/history", s.handleSideloadHistory).Methods("GET")

	s.router = router
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // sideload steps download whole images
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting server on %s", s.cfg.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// mediaURL maps a stored upload path to its public URL.
func (s *Server) mediaURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	rel, err := filepath.Rel(s.cfg.UploadsDir, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/media/" + filepath.ToSlash(rel)
}

func itemURL(id uint) string {
	return fmt.Sprintf("/items/%d", id)
}
