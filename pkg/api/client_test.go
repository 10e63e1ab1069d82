package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	opts.HTTPClient = server.Client()
	client, err := NewClient(server.URL, opts)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("https://cms.example.com/", Options{Token: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if client.BaseURL() != "https://cms.example.com" {
		t.Errorf("BaseURL() = %q", client.BaseURL())
	}
	if client.headers["Authorization"] != "Bearer secret" {
		t.Error("NewClient() token header not set")
	}
	if client.http.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.http.Timeout, defaultTimeout)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "cms.example.com", "ftp://cms.example.com"} {
		if _, err := NewClient(raw, Options{}); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("NewClient(%q) error = %v, want INVALID_INPUT", raw, err)
		}
	}
}

func TestClientGetRaw(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotRequestID string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"data":[{"id":1}]}`))
	}, Options{Token: "t0ken"})

	params := url.Values{"type": {"image"}, "limit": {"20"}}
	body, err := client.GetRaw(context.Background(), "/admin/media", params)
	if err != nil {
		t.Fatalf("GetRaw() error: %v", err)
	}
	if string(body) != `{"data":[{"id":1}]}` {
		t.Errorf("GetRaw() body = %s", body)
	}
	if gotPath != "/admin/media" {
		t.Errorf("path = %q", gotPath)
	}
	if q, _ := url.ParseQuery(gotQuery); q.Get("type") != "image" || q.Get("limit") != "20" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer t0ken" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID should be set")
	}
}

func TestClientBasePathPrefix(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL+"/cms/", Options{HTTPClient: server.Client()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetRaw(context.Background(), "pwa/stats", nil); err != nil {
		t.Fatalf("GetRaw() error: %v", err)
	}
	if gotPath != "/cms/pwa/stats" {
		t.Errorf("path = %q, want /cms/pwa/stats", gotPath)
	}
}

func TestClientPost(t *testing.T) {
	var gotBody, gotContentType string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int{"sent": 3})
	}, Options{})

	var resp struct {
		Sent int `json:"sent"`
	}
	body := map[string]any{"category": "article", "id": 42}
	if err := client.Post(context.Background(), "/api/increment", body, &resp); err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	if gotBody != `{"category":"article","id":42}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if resp.Sent != 3 {
		t.Errorf("Sent = %d, want 3", resp.Sent)
	}
}

func TestClientGetDecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}, Options{})

	var v map[string]any
	err := client.Get(context.Background(), "/pwa/stats", nil, &v)
	if !apperrors.Is(err, apperrors.ErrCodeUnexpectedShape) {
		t.Errorf("Get() error = %v, want UNEXPECTED_SHAPE", err)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		code     apperrors.Code
	}{
		{"404", http.StatusNotFound, ErrNotFound, apperrors.ErrCodeNotFound},
		{"401", http.StatusUnauthorized, ErrRejected, apperrors.ErrCodeUnauthorized},
		{"429", http.StatusTooManyRequests, ErrRejected, apperrors.ErrCodeRateLimited},
		{"500", http.StatusInternalServerError, ErrNetwork, apperrors.ErrCodeNetwork},
		{"503", http.StatusServiceUnavailable, ErrNetwork, apperrors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}, Options{})

			_, err := client.GetRaw(context.Background(), "/pwa/stats", nil)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
			if !apperrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", apperrors.GetCode(err), tt.code)
			}
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(server.URL, Options{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	server.Close()

	_, err = client.GetRaw(context.Background(), "/pwa/stats", nil)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestClientContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetRaw(ctx, "/pwa/stats", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code    int
		wantErr error
	}{
		{200, nil},
		{201, nil},
		{204, nil},
		{400, ErrRejected},
		{403, ErrRejected},
		{404, ErrNotFound},
		{500, ErrNetwork},
		{502, ErrNetwork},
	}

	for _, tt := range tests {
		err := checkStatus(tt.code)
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("checkStatus(%d) unexpected error: %v", tt.code, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("checkStatus(%d) = %v, want %v", tt.code, err, tt.wantErr)
		}
	}
}
