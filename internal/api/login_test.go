package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

type fakeAuthenticator map[string]string

func (f fakeAuthenticator) Verify(username, password string) error {
	if want, ok := f[username]; ok && want == password {
		return nil
	}
	return errors.New("invalid credentials")
}

func loginServer(t *testing.T, secret string) *Server {
	t.Helper()
	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1"},
		Security: config.SecurityConfig{
			JWT:      config.JWTConfig{Secret: secret, Issuer: "graylogic"},
			TokenTTL: time.Hour,
		},
		Logger:      testLogger(),
		Version:     "test",
		Credentials: fakeAuthenticator{"admin": "s3cret"},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func TestLogin(t *testing.T) {
	srv := loginServer(t, testSecret)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"username":"admin","password":"s3cret"}`, http.StatusOK},
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"root","password":"s3cret"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"admin"}`, http.StatusUnauthorized},
		{"malformed", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, http.MethodPost, "/api/v1"+LoginPath, tt.body, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp loginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			subject, err := ParseToken(config.JWTConfig{Secret: testSecret, Issuer: "graylogic"}, resp.Token)
			if err != nil || subject != "admin" {
				t.Errorf("ParseToken() = %q, %v", subject, err)
			}
			if time.Until(resp.ExpiresAt) > time.Hour || time.Until(resp.ExpiresAt) < 59*time.Minute {
				t.Errorf("expires_at = %v, want about one hour ahead", resp.ExpiresAt)
			}
		})
	}
}

func TestLogin_TokenAuthorisesMutations(t *testing.T) {
	srv := loginServer(t, testSecret)
	srv.Dispatcher().Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"subject": Subject(r.Context())})
	})

	rec := serve(srv, http.MethodPost, "/api/v1"+LoginPath, `{"username":"admin","password":"s3cret"}`, nil)
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+resp.Token)
	rec = serve(srv, http.MethodPost, "/api/v1/echo", `{}`, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !json.Valid(rec.Body.Bytes()) || !strings.Contains(rec.Body.String(), `"subject":"admin"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLogin_DisabledWithoutSecret(t *testing.T) {
	srv := loginServer(t, "")
	rec := serve(srv, http.MethodPost, "/api/v1"+LoginPath, `{"username":"admin","password":"s3cret"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when no secret is configured", rec.Code)
	}
}
