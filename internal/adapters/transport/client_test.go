package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_BearerHeader(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   string
	}{
		{"with key", "k-123", "Bearer k-123"},
		{"without key", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.Write([]byte("{}"))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, tt.apiKey, time.Second, testLogger())
			if _, err := c.Get(context.Background(), "/system_stats", nil); err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_GetQueryAndBaseURL(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "", time.Second, testLogger())
	q := url.Values{}
	q.Set("filename", "a b.png")
	body, err := c.Get(context.Background(), "/view", q)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != "bytes" {
		t.Errorf("body = %q", body)
	}
	if gotPath != "/view" {
		t.Errorf("path = %q (trailing slash of base url not trimmed?)", gotPath)
	}
	if gotQuery != "filename=a+b.png" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"echo":"` + body["name"] + `"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	raw, err := c.PostJSON(context.Background(), "/prompt", map[string]string{"name": "x"})
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if string(raw) != `{"echo":"x"}` {
		t.Errorf("response = %s", raw)
	}
}

func TestClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, testLogger())
	raw, err := c.PostJSON(context.Background(), "/prompt", map[string]any{})
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Code != http.StatusBadRequest {
		t.Errorf("code = %d", se.Code)
	}
	if string(raw) != `{"error":"bad"}` {
		t.Errorf("body should be returned with the error, got %q", raw)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := NewClient(addr, "", time.Second, testLogger())
	if _, err := c.Get(context.Background(), "/system_stats", nil); err == nil {
		t.Fatal("expected error for closed server")
	}
}
