package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"catalogo/api/internal/auth"
	"catalogo/api/internal/catalog"
	"catalogo/api/internal/credentials"
	"catalogo/api/internal/rbac"
)

const maxMultipartMemory = 8 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Auth routes (no token required)
	if r.Method == http.MethodPost && r.URL.Path == "/register" {
		s.handleRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/login" {
		s.handleLogin(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/forgot-password" {
		s.handleForgotPassword(w, r)
		return
	}

	claims, ok := s.requireClaims(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/administracao" {
		if !s.service.Can(claims.Role, rbac.ActionAdmin) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "acesso administrativo liberado"})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/processos" {
		writeJSON(w, http.StatusOK, s.service.ListActive())
		return
	}

	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/processos/") {
		term := strings.TrimPrefix(r.URL.Path, "/processos/")
		matches := s.service.SearchProcesses(term)
		if len(matches) == 0 {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no process matches the search term", nil)
			return
		}
		writeJSON(w, http.StatusOK, matches)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/processos-inativos" {
		writeJSON(w, http.StatusOK, s.service.ListInactive())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/processos-interdepartamentais" {
		writeJSON(w, http.StatusOK, s.service.ListInterdepartmental())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/processos-por-departamento" {
		writeJSON(w, http.StatusOK, s.service.Departments())
		return
	}

	if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/processos-por-departamento/") {
		name := strings.TrimPrefix(r.URL.Path, "/processos-por-departamento/")
		dept, found := s.service.DepartmentByName(name)
		if !found {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "department not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, dept)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/cadeias-com-processos" {
		listings, err := s.service.ChainsWithActiveProcesses()
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, listings)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/ver-cadeias" {
		writeJSON(w, http.StatusOK, s.service.Chains())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/subprocessos" {
		writeJSON(w, http.StatusOK, s.service.Subprocesses())
		return
	}

	// Mutations are admin-only from here on.
	if !s.service.Can(claims.Role, rbac.ActionAdmin) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/processos" {
		s.handleCreateProcess(w, r)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/editar-processos" {
		s.handleEditProcess(w, r)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/desativar-processo" {
		s.handleProcessStatus(w, r, s.service.DeactivateProcess)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/reativar-processo" {
		s.handleProcessStatus(w, r, s.service.ReactivateProcess)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/desativar" {
		s.handleDeactivateUser(w, r)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == "/editar" {
		s.handleEditUser(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.Register(body.Name, body.Password, body.Role); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "usuario registrado com sucesso"})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	result, err := s.service.Login(r.Context(), body.Name, body.Password)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login bem-sucedido",
		"token":   result.Token,
	})
}

func (s *HTTPServer) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.ForgotPassword(body.Name); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	// Deliberately a stub: confirms the account exists, returns nothing else.
	writeJSON(w, http.StatusOK, map[string]any{"message": "senha nao retornada por seguranca"})
}

func (s *HTTPServer) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid multipart body", nil)
		return
	}

	input := catalog.CreateInput{
		Name:        r.FormValue("nome"),
		Number:      r.FormValue("numero"),
		Description: r.FormValue("descricao"),
		Date:        r.FormValue("data"),
		Category:    r.FormValue("categoria"),
		Chain:       r.FormValue("cadeia"),
		MainProcess: r.FormValue("processoMain"),
		Departments: formValues(r, "departamentos"),
	}

	if ref, ok, err := s.saveUpload(r, "diagrama", s.service.SaveDiagram); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	} else if ok {
		input.Image = ref
	}

	if ref, ok, err := s.saveUpload(r, "documento", s.service.SaveDocument); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	} else if ok {
		input.Document = ref
	}

	process, err := s.service.CreateProcess(input)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, process)
}

type saveFunc func(ctx context.Context, name, contentType string, data []byte) (string, error)

// saveUpload reads one optional multipart file and stores it. The bool
// reports whether the field was present.
func (s *HTTPServer) saveUpload(r *http.Request, field string, save saveFunc) (string, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", false, nil
		}
		return "", false, domainError(http.StatusBadRequest, "INVALID_BODY",
			fmt.Sprintf("read %s upload", field), nil)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxMultipartMemory+1))
	if err != nil {
		return "", false, domainError(http.StatusBadRequest, "INVALID_BODY",
			fmt.Sprintf("read %s upload", field), nil)
	}

	ref, err := save(r.Context(), header.Filename, contentTypeOf(header), data)
	if err != nil {
		return "", false, err
	}
	return ref, true, nil
}

func contentTypeOf(header *multipart.FileHeader) string {
	return strings.TrimSpace(strings.Split(header.Header.Get("Content-Type"), ";")[0])
}

func formValues(r *http.Request, field string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	values := r.MultipartForm.Value[field]
	out := []string{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func (s *HTTPServer) handleEditProcess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentName string   `json:"nomeAtual"`
		Name        string   `json:"nome"`
		Number      string   `json:"numero"`
		Description string   `json:"descricao"`
		Date        string   `json:"data"`
		Category    string   `json:"categoria"`
		Departments []string `json:"departamentos"`
		Chain       string   `json:"cadeia"`
		MainProcess string   `json:"processoMain"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.CurrentName) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "nomeAtual is required", nil)
		return
	}
	process, err := s.service.EditProcess(body.CurrentName, catalog.EditInput{
		Name:        body.Name,
		Number:      body.Number,
		Description: body.Description,
		Date:        body.Date,
		Category:    body.Category,
		Departments: body.Departments,
		Chain:       body.Chain,
		MainProcess: body.MainProcess,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, process)
}

func (s *HTTPServer) handleProcessStatus(w http.ResponseWriter, r *http.Request, toggle func(string) error) {
	var body struct {
		Name string `json:"nome"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := toggle(body.Name); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "status atualizado"})
}

func (s *HTTPServer) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.DeactivateUser(body.Name); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "usuario desativado"})
}

func (s *HTTPServer) handleEditUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		NewName     string `json:"newName"`
		NewPassword string `json:"newPassword"`
		NewRole     string `json:"newRole"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.EditUser(body.Name, body.NewName, body.NewPassword, body.NewRole); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "usuario atualizado"})
}

// requireClaims enforces the gate: a request without an Authorization header
// is forbidden outright, a present-but-invalid token is unauthorized.
func (s *HTTPServer) requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return auth.Claims{}, false
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return auth.Claims{}, false
	}
	claims, err := s.service.ClaimsFromToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return auth.Claims{}, false
	}
	return claims, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var userValidation *credentials.ValidationError
	if errors.As(err, &userValidation) {
		return http.StatusBadRequest, "VALIDATION_ERROR", userValidation.Message, nil
	}
	var processValidation *catalog.ValidationError
	if errors.As(err, &processValidation) {
		return http.StatusBadRequest, "VALIDATION_ERROR", processValidation.Message, nil
	}
	switch {
	case errors.Is(err, credentials.ErrDuplicateUser):
		return http.StatusBadRequest, "DUPLICATE_USER", "user already exists", nil
	case errors.Is(err, catalog.ErrDuplicateProcess):
		return http.StatusBadRequest, "DUPLICATE_PROCESS", "process already exists", nil
	case errors.Is(err, credentials.ErrInvalidCredentials):
		return http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid credentials", nil
	case errors.Is(err, credentials.ErrUserDeactivated):
		return http.StatusForbidden, "USER_DEACTIVATED", "user is deactivated", nil
	case errors.Is(err, credentials.ErrUserNotFound),
		errors.Is(err, catalog.ErrProcessNotFound),
		errors.Is(err, catalog.ErrMainProcessNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
