package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/ploidy/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func echoRemoteAddr(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "trusted proxy with X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "203.0.113.7",
		},
		{
			name:    "trusted proxy with X-Forwarded-For chain",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.9, 10.1.2.3"},
			want:    "198.51.100.9",
		},
		{
			name:    "bare address entry",
			trusted: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "203.0.113.7",
		},
		{
			name:    "untrusted source keeps socket address",
			trusted: []string{"10.0.0.0/8"},
			remote:  "192.0.2.50:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "192.0.2.50:5000",
		},
		{
			name:    "invalid header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:5000",
		},
		{
			name:    "no trusted proxies",
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "10.1.2.3:5000",
		},
		{
			name:    "invalid CIDR skipped",
			trusted: []string{"bogus", "10.0.0.0/8"},
			remote:  "10.1.2.3:5000",
			headers: map[string]string{"X-Real-IP": "203.0.113.7"},
			want:    "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(echoRemoteAddr))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

type observation struct {
	route  string
	method string
	code   int
}

type recordingObserver struct {
	mu  sync.Mutex
	got []observation
}

func (o *recordingObserver) ObserveHTTP(route, method string, code int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, observation{route, method, code})
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Use(Logger)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, []observation{
		{"/items/{id}", "GET", http.StatusTeapot},
		{"/items/{id}", "GET", http.StatusTeapot},
		{"", "GET", http.StatusNotFound},
	}, obs.got)
}

func TestResponseWriter_CountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	w := wrap(rec)

	_, _ = w.Write([]byte("hello"))
	w.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, w.status)
	assert.Equal(t, 5, w.bytes)
	assert.Equal(t, rec, w.Unwrap())
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: false}
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true}
	h := APIKeyAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	req.Header.Set(APIKeyHeader, "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"invalid API key","code":"AUTH_INVALID_KEY"}`, rec.Body.String())
}
