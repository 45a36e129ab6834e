package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLogger_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	m.Use(Logger(l))
	m.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	id, _ := entry["request_id"].(string)
	if id == "" {
		t.Fatal("expected request_id in request log")
	}
	if entry["route"] != "/ping" {
		t.Fatalf("route = %v, want /ping", entry["route"])
	}
	if entry["status"] != float64(http.StatusNoContent) {
		t.Fatalf("status = %v, want 204", entry["status"])
	}
}

func TestRemoteIP(t *testing.T) {
	cases := []struct {
		name string
		xff  string
		xrip string
		addr string
		want string
	}{
		{"forwarded first hop", "203.0.113.9, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.9"},
		{"real ip", "", "198.51.100.4", "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", "", "", "192.0.2.7:5678", "192.0.2.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.addr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xrip != "" {
				r.Header.Set("X-Real-IP", tc.xrip)
			}
			if got := remoteIP(r); got != tc.want {
				t.Fatalf("remoteIP = %q, want %q", got, tc.want)
			}
		})
	}
}
