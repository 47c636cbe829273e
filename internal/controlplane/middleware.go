package controlplane

import (
	"crypto/subtle"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentchaos/chaosproxy/internal/reqcontext"
)

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := reqcontext.GetOrGenerateRequestID(r.Header.Get(reqcontext.RequestIDHeader))
		w.Header().Set(reqcontext.RequestIDHeader, id)
		ctx := reqcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestLogger := s.logger.With("request_id", reqcontext.GetRequestID(r.Context()))
		ctx := reqcontext.WithLogger(r.Context(), requestLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware rejects requests without a valid X-Chaos-Token, or, in
// JWT-strict mode, a valid Bearer token signed with the configured HS256
// secret instead.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		if s.cfg.JWTStrict {
			ok = s.validateJWT(r)
		} else {
			ok = s.validateChaosToken(r)
		}

		if !ok {
			s.auditDenied(r)
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validateChaosToken(r *http.Request) bool {
	if s.cfg.ChaosToken == "" {
		return false
	}
	provided := r.Header.Get("X-Chaos-Token")
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.cfg.ChaosToken)) == 1
}

func (s *Server) validateJWT(r *http.Request) bool {
	raw := bearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		return false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return false
	}
	return true
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return ""
	}
	return header[len(prefix):]
}
