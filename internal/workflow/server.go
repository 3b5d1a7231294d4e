package workflow

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// sessionCookie names the cookie that carries the browser's session
// ID, which keys all state in the session store
const sessionCookie = "scanner_session"

// Server handles HTTP requests for the scan workflow pages
type Server struct {
	flow      *Flow
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(flow *Flow, basicAuth BasicAuth) *Server {
	return NewServerWithMux(flow, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(flow *Flow, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		flow:      flow,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Document Scanner"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// sessionHandler is a page handler that needs the browser's session
type sessionHandler func(w http.ResponseWriter, r *http.Request, sessionID string)

// withSession ensures the request carries a session cookie, minting a
// fresh ID when none (or a malformed one) is presented
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(sessionCookie); err == nil && uuid.Validate(cookie.Value) == nil {
			sessionID = cookie.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r, sessionID)
	}
}

// registerRoutes registers all page routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Static files
	s.mux.HandleFunc("GET /static/app.css", s.requireAuth(s.handleStaticCSS))
	s.mux.HandleFunc("GET /static/app.js", s.requireAuth(s.handleStaticJS))

	// Workflow pages
	s.mux.HandleFunc("POST /select", s.requireAuth(s.withSession(s.handleSelect)))
	s.mux.HandleFunc("GET /upload", s.requireAuth(s.withSession(s.handleUploadPage)))
	s.mux.HandleFunc("POST /upload", s.requireAuth(s.withSession(s.handleUpload)))
	s.mux.HandleFunc("GET /results", s.requireAuth(s.withSession(s.handleResultsPage)))

	// Selection page (register last as it's the catch-all)
	s.mux.HandleFunc("GET /", s.requireAuth(s.withSession(s.handleSelectionPage)))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
