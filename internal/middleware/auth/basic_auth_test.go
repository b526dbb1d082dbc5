package auth

import (
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		login      string
		user, pass string
		setAuth    bool
		want       int
	}{
		{name: "valid credentials", login: "admin", user: "admin", pass: "secret", setAuth: true, want: http.StatusNoContent},
		{name: "wrong password", login: "admin", user: "admin", pass: "nope", setAuth: true, want: http.StatusUnauthorized},
		{name: "no header", login: "admin", want: http.StatusUnauthorized},
		{name: "no configured user", login: "", user: "", pass: "secret", setAuth: true, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BasicAuth(tt.login, "secret")(next)

			req := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}
