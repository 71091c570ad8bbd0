package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{name: "exact match", origin: "http://localhost:3000", allowedOrigins: []string{"http://localhost:3000"}, want: true},
		{name: "wildcard match", origin: "chrome-extension://abc", allowedOrigins: []string{"chrome-extension://*"}, want: true},
		{name: "any origin", origin: "https://shop.example", allowedOrigins: []string{"*"}, want: true},
		{name: "no match", origin: "http://evil.com", allowedOrigins: []string{"chrome-extension://*"}, want: false},
		{name: "empty allowed list", origin: "http://localhost:3000", allowedOrigins: []string{}, want: false},
		{name: "empty origin", origin: "", allowedOrigins: []string{"*"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newOriginPolicy(tt.allowedOrigins).allows(tt.origin); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(t, &fakeComparer{}, nil)

	w := doRequest(router, http.MethodGet, "/health", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = doRequest(router, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &fakeComparer{}, nil)

	w := doRequest(router, http.MethodOptions, "/search", "", map[string]string{
		"Origin":                        "chrome-extension://abc",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "chrome-extension://abc", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
