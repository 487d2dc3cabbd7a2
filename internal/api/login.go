package api

import (
	"net/http"
	"time"
)

// LoginPath is the token endpoint. It is exempt from bearer auth.
const LoginPath = "/auth/token"

// defaultTokenTTL applies when security.token_ttl is unset.
const defaultTokenTTL = 24 * time.Hour

// Authenticator verifies a username and password; *auth.Credentials
// satisfies it.
type Authenticator interface {
	Verify(username, password string) error
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin exchanges credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeUnauthorized(w, "username and password required")
		return
	}

	if err := s.credentials.Verify(req.Username, req.Password); err != nil {
		s.logger.Warn("login rejected",
			"username", req.Username,
			"error", err,
			"request_id", RequestID(r.Context()),
		)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, err := IssueToken(s.secCfg.JWT, req.Username, ttl)
	if err != nil {
		WriteError(w, err)
		return
	}
	s.logger.Info("login", "username", req.Username, "request_id", RequestID(r.Context()))
	WriteJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
}
