package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"catalogo/api/internal/catalog"
	"catalogo/api/internal/config"
	"catalogo/api/internal/counter"
	"catalogo/api/internal/credentials"
	"catalogo/api/internal/search"
)

type fakeUploads struct {
	saved []string
}

func (f *fakeUploads) Save(_ context.Context, name, _ string, _ []byte) (string, error) {
	f.saved = append(f.saved, name)
	return "stored-" + name, nil
}

func newTestEnv(t *testing.T) (*Service, *HTTPServer, *fakeUploads) {
	t.Helper()
	cfg := config.Config{
		JWTSecret: "test-secret",
		AccessTTL: time.Hour,
	}
	catalogStore := catalog.NewStore()
	memory := search.NewMemory(func() []search.Record {
		all := catalogStore.All()
		records := make([]search.Record, len(all))
		for i, p := range all {
			records[i] = search.Record{ID: p.ID, Name: p.Name}
		}
		return records
	})
	uploads := &fakeUploads{}
	service := New(
		cfg,
		credentials.NewService(credentials.NewStore()),
		catalogStore,
		counter.NewFileStore(filepath.Join(t.TempDir(), "acessos.json")),
		search.NewService(nil, memory),
		uploads,
	)
	return service, NewHTTPServer(service, "*"), uploads
}

func doJSON(t *testing.T, server *HTTPServer, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBufferString("")
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func parseBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func registerAndLogin(t *testing.T, server *HTTPServer, name, password, role string) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/register", "",
		`{"name":"`+name+`","password":"`+password+`","role":"`+role+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d body=%s", name, rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/login", "",
		`{"name":"`+name+`","password":"`+password+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d body=%s", name, rr.Code, rr.Body.String())
	}
	token, _ := parseBody(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("login %s: expected a token", name)
	}
	return token
}

func createProcessMultipart(t *testing.T, server *HTTPServer, token string, fields map[string]string, departments []string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for _, dept := range departments {
		if err := writer.WriteField("departamentos", dept); err != nil {
			t.Fatalf("write department %s: %v", dept, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/processos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}
