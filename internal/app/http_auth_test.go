package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogo/api/internal/auth"
)

func TestRegisterReturnsCreated(t *testing.T) {
	_, server, _ := newTestEnv(t)
	rr := doJSON(t, server, http.MethodPost, "/register", "",
		`{"name":"Maria Silva","password":"Senha123","role":"user"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterDuplicateUser(t *testing.T) {
	_, server, _ := newTestEnv(t)
	registerAndLogin(t, server, "Maria", "Senha123", "user")
	rr := doJSON(t, server, http.MethodPost, "/register", "",
		`{"name":"Maria","password":"Outra456","role":"admin"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if parseBody(t, rr)["code"] != "DUPLICATE_USER" {
		t.Fatalf("expected code DUPLICATE_USER, got %s", rr.Body.String())
	}
}

func TestRegisterValidationError(t *testing.T) {
	_, server, _ := newTestEnv(t)
	rr := doJSON(t, server, http.MethodPost, "/register", "",
		`{"name":"Maria","password":"senha123"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := parseBody(t, rr)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected code VALIDATION_ERROR, got %v", payload["code"])
	}
	if payload["error"] != "password must contain at least one uppercase letter" {
		t.Fatalf("expected the uppercase rule to fail first, got %v", payload["error"])
	}
}

func TestLoginReturnsTokenAndMessage(t *testing.T) {
	_, server, _ := newTestEnv(t)
	token := registerAndLogin(t, server, "Maria", "Senha123", "user")
	if token == "" {
		t.Fatalf("expected token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, server, _ := newTestEnv(t)
	registerAndLogin(t, server, "Maria", "Senha123", "user")
	rr := doJSON(t, server, http.MethodPost, "/login", "",
		`{"name":"Maria","password":"Errada999"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if parseBody(t, rr)["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("expected code INVALID_CREDENTIALS, got %s", rr.Body.String())
	}
}

func TestLoginDeactivatedUser(t *testing.T) {
	service, server, _ := newTestEnv(t)
	registerAndLogin(t, server, "Maria", "Senha123", "user")
	if err := service.DeactivateUser("Maria"); err != nil {
		t.Fatalf("DeactivateUser() error = %v", err)
	}
	rr := doJSON(t, server, http.MethodPost, "/login", "",
		`{"name":"Maria","password":"Senha123"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if parseBody(t, rr)["code"] != "USER_DEACTIVATED" {
		t.Fatalf("expected code USER_DEACTIVATED, got %s", rr.Body.String())
	}
}

func TestLoginPersistsAccessCounters(t *testing.T) {
	service, server, _ := newTestEnv(t)
	registerAndLogin(t, server, "Maria", "Senha123", "user")
	registerAndLogin(t, server, "AdminX", "Admin123", "admin")

	counters, err := service.counters.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if counters.UserLogins != 1 {
		t.Fatalf("expected 1 user login, got %d", counters.UserLogins)
	}
	if counters.AdminLogins != 1 {
		t.Fatalf("expected 1 admin login, got %d", counters.AdminLogins)
	}
}

func TestForgotPasswordStub(t *testing.T) {
	_, server, _ := newTestEnv(t)
	registerAndLogin(t, server, "Maria", "Senha123", "user")

	rr := doJSON(t, server, http.MethodPost, "/forgot-password", "", `{"name":"Maria"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	// No secret material comes back.
	if _, exists := parseBody(t, rr)["password"]; exists {
		t.Fatalf("stub must not return a password")
	}

	rr = doJSON(t, server, http.MethodPost, "/forgot-password", "", `{"name":"Nobody"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rr.Code)
	}
}

func TestGateMissingTokenIsForbidden(t *testing.T) {
	_, server, _ := newTestEnv(t)
	rr := doJSON(t, server, http.MethodGet, "/processos", "", "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d body=%s", rr.Code, rr.Body.String())
	}
	if parseBody(t, rr)["code"] != "FORBIDDEN" {
		t.Fatalf("expected code FORBIDDEN, got %s", rr.Body.String())
	}
}

func TestGateInvalidTokenIsUnauthorized(t *testing.T) {
	_, server, _ := newTestEnv(t)
	rr := doJSON(t, server, http.MethodGet, "/processos", "definitely-not-a-token", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGateRawTokenHeaderIsUnauthorized(t *testing.T) {
	_, server, _ := newTestEnv(t)
	token := registerAndLogin(t, server, "Maria", "Senha123", "user")

	req := doJSON(t, server, http.MethodGet, "/processos", token, "")
	if req.Code != http.StatusOK {
		t.Fatalf("bearer token should pass, got %d", req.Code)
	}

	// The same token without the Bearer prefix is rejected as malformed.
	raw := newRawHeaderRequest(t, server, token)
	if raw.Code != http.StatusUnauthorized {
		t.Fatalf("raw header token should be 401, got %d", raw.Code)
	}
}

func TestGateExpiredTokenIsUnauthorized(t *testing.T) {
	_, server, _ := newTestEnv(t)
	expired, err := auth.IssueToken([]byte("test-secret"), "Maria", "user", -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rr := doJSON(t, server, http.MethodGet, "/processos", expired, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestAdminProbeEndToEnd(t *testing.T) {
	_, server, _ := newTestEnv(t)
	adminToken := registerAndLogin(t, server, "AdminX", "Admin123", "admin")
	userToken := registerAndLogin(t, server, "Maria", "Senha123", "user")

	rr := doJSON(t, server, http.MethodGet, "/administracao", adminToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("admin probe with admin token: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/administracao", userToken, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("admin probe with user token: expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	_, server, _ := newTestEnv(t)
	adminToken := registerAndLogin(t, server, "AdminX", "Admin123", "admin")
	userToken := registerAndLogin(t, server, "Maria", "Senha123", "user")

	rr := doJSON(t, server, http.MethodPut, "/desativar", userToken, `{"name":"Maria"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("user should not deactivate accounts, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodPut, "/desativar", adminToken, `{"name":"Maria"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin deactivate: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Maria can no longer log in.
	rr = doJSON(t, server, http.MethodPost, "/login", "", `{"name":"Maria","password":"Senha123"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("deactivated login: expected 403, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodPut, "/editar", adminToken,
		`{"name":"Maria","newName":"Mariana","newRole":"admin"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin edit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

// newRawHeaderRequest sends the token without the Bearer prefix.
func newRawHeaderRequest(t *testing.T, server *HTTPServer, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/processos", nil)
	req.Header.Set("Authorization", token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}
