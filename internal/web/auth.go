package web

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
)

// NewToken returns a random bearer token for guarding a served dashboard.
func NewToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	// Websocket and EventSource clients cannot set headers.
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// authorized reports whether r carries the configured token. Without a token every request is
// allowed.
func (s *Server) authorized(r *http.Request) bool {
	want := strings.TrimSpace(s.cfg.Token)
	if want == "" {
		return true
	}
	return hmac.Equal([]byte(bearerToken(r)), []byte(want))
}
