package workflow

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const defaultSessionCookie = "session_token"

// Service exposes the engine over HTTP.
type Service struct {
	engine     *Engine
	validator  SessionValidator
	cookieName string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSessionValidator requires a valid session on every workflow route.
func WithSessionValidator(v SessionValidator) ServiceOption {
	return func(s *Service) { s.validator = v }
}

// WithSessionCookie sets the cookie consulted when no bearer token is sent.
func WithSessionCookie(name string) ServiceOption {
	return func(s *Service) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// NewService creates a Service around engine.
func NewService(engine *Engine, opts ...ServiceOption) *Service {
	s := &Service{engine: engine, cookieName: defaultSessionCookie}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// jsonMiddleware sets the Content-Type header to application/json.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type identityKey struct{}

// IdentityFromContext returns the caller attached by the session middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func (s *Service) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.validator == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(s.cookieName); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		identity, err := s.validator.Validate(r.Context(), token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected session")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// LoadRoutes registers workflow HTTP handlers on the given router.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	parentRouter.Handle("/node-types", jsonMiddleware(http.HandlerFunc(s.HandleListNodeTypes))).Methods("GET")

	router := parentRouter.PathPrefix("/workflows").Subrouter()
	router.StrictSlash(false)
	router.Use(jsonMiddleware)
	router.Use(s.sessionMiddleware)

	router.HandleFunc("/execute", s.HandleExecuteWorkflow).Methods("POST")
}
