package app

import (
	"context"
	"log"
	"net/http"

	"catalogo/api/internal/auth"
	"catalogo/api/internal/catalog"
	"catalogo/api/internal/config"
	"catalogo/api/internal/counter"
	"catalogo/api/internal/credentials"
	"catalogo/api/internal/rbac"
	"catalogo/api/internal/search"
	"catalogo/api/internal/upload"
)

// Service orchestrates the catalog, the credential store, the token gate,
// login counters, search and uploads. All domain state lives in the injected
// stores; the service itself is stateless apart from configuration.
type Service struct {
	cfg      config.Config
	users    *credentials.Service
	catalog  *catalog.Store
	counters counter.Store
	search   *search.Service
	uploads  upload.Store
}

func New(cfg config.Config, users *credentials.Service, cat *catalog.Store,
	counters counter.Store, searchService *search.Service, uploads upload.Store) *Service {
	return &Service{
		cfg:      cfg,
		users:    users,
		catalog:  cat,
		counters: counters,
		search:   searchService,
		uploads:  uploads,
	}
}

// Bootstrap seeds the admin account when the store is empty, reports the
// persisted counters and pushes the catalog to the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.cfg.SeedAdmin != "" && !s.users.Seeded() {
		if err := s.users.Register(s.cfg.SeedAdmin, s.cfg.SeedPassword, string(rbac.RoleAdmin)); err != nil {
			log.Printf("bootstrap: seed admin %q: %v", s.cfg.SeedAdmin, err)
		} else {
			log.Printf("bootstrap: seeded admin account %q", s.cfg.SeedAdmin)
		}
	}

	counters, err := s.counters.Load(ctx)
	if err != nil {
		return err
	}
	log.Printf("bootstrap: login counters user=%d admin=%d", counters.UserLogins, counters.AdminLogins)

	s.search.ReindexAll(s.searchRecords())
	return nil
}

// Register creates an account.
func (s *Service) Register(name, password, role string) error {
	return s.users.Register(name, password, role)
}

// LoginResult is what a successful login hands back to the handler.
type LoginResult struct {
	Token    string
	Claims   credentials.Claims
	Counters counter.Counters
}

// Login authenticates, issues the session token and persists the access
// counter for the authenticated role before returning.
func (s *Service) Login(ctx context.Context, name, password string) (LoginResult, error) {
	claims, err := s.users.Authenticate(name, password)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), claims.Name, claims.Role, s.cfg.AccessTTL)
	if err != nil {
		return LoginResult{}, err
	}

	counters, err := s.counters.Increment(ctx, rbac.Normalize(claims.Role))
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, Claims: claims, Counters: counters}, nil
}

// ForgotPassword is the recovery stub: it confirms the account exists and
// deliberately returns nothing else. No mail is sent.
func (s *Service) ForgotPassword(name string) error {
	if !s.users.Exists(name) {
		return credentials.ErrUserNotFound
	}
	return nil
}

// ClaimsFromToken verifies a bearer token and returns its claims.
func (s *Service) ClaimsFromToken(token string) (auth.Claims, error) {
	return auth.ParseToken([]byte(s.cfg.JWTSecret), token)
}

// DeactivateUser marks an account inactive.
func (s *Service) DeactivateUser(name string) error {
	return s.users.Deactivate(name)
}

// EditUser overwrites account fields.
func (s *Service) EditUser(name, newName, newPassword, newRole string) error {
	return s.users.Edit(name, newName, newPassword, newRole)
}

// SaveDiagram validates and stores the uploaded diagram image, returning the
// reference to keep on the process record.
func (s *Service) SaveDiagram(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := upload.ValidateDiagram(contentType, int64(len(data))); err != nil {
		return "", domainError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	}
	return s.uploads.Save(ctx, name, contentType, data)
}

// SaveDocument validates and stores the attached document.
func (s *Service) SaveDocument(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := upload.ValidateDocument(contentType); err != nil {
		return "", domainError(http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	}
	return s.uploads.Save(ctx, name, contentType, data)
}

// CreateProcess creates a catalog record and indexes it for search.
func (s *Service) CreateProcess(input catalog.CreateInput) (catalog.Process, error) {
	process, err := s.catalog.Create(input)
	if err != nil {
		return catalog.Process{}, err
	}
	s.search.IndexRecord(recordOf(process))
	return process, nil
}

// EditProcess patches a catalog record and refreshes the search index.
func (s *Service) EditProcess(name string, patch catalog.EditInput) (catalog.Process, error) {
	process, err := s.catalog.Edit(name, patch)
	if err != nil {
		return catalog.Process{}, err
	}
	s.search.IndexRecord(recordOf(process))
	return process, nil
}

// DeactivateProcess marks a process inactive.
func (s *Service) DeactivateProcess(name string) error {
	return s.catalog.Deactivate(name)
}

// ReactivateProcess marks a process active.
func (s *Service) ReactivateProcess(name string) error {
	return s.catalog.Reactivate(name)
}

// SearchProcesses resolves search hits back to catalog records; hits whose
// id no longer resolves are dropped.
func (s *Service) SearchProcesses(term string) []catalog.Process {
	hits := s.search.Search(term)
	out := []catalog.Process{}
	for _, hit := range hits {
		if process, ok := s.catalog.FindByID(hit.ID); ok {
			out = append(out, process)
		}
	}
	return out
}

func (s *Service) ListActive() []catalog.Process     { return s.catalog.ListActive() }
func (s *Service) ListInactive() []catalog.Process   { return s.catalog.ListInactive() }
func (s *Service) Departments() []catalog.Department { return s.catalog.Departments() }

func (s *Service) ListInterdepartmental() []catalog.InterdepartmentalProcess {
	return s.catalog.ListInterdepartmental()
}

func (s *Service) DepartmentByName(name string) (catalog.Department, bool) {
	return s.catalog.DepartmentByName(name)
}

func (s *Service) Chains() []catalog.Chain { return s.catalog.Chains() }

// ChainsWithActiveProcesses resolves every chain; not-found only when every
// chain came back empty.
func (s *Service) ChainsWithActiveProcesses() ([]catalog.ChainListing, error) {
	listings := s.catalog.ChainsWithActiveProcesses()
	for _, listing := range listings {
		if len(listing.Processes) > 0 {
			return listings, nil
		}
	}
	return nil, domainError(http.StatusNotFound, "NOT_FOUND", "no chain has active processes", nil)
}

func (s *Service) Subprocesses() []catalog.HierarchyEntry {
	return s.catalog.Subprocesses()
}

// Can reports whether a role may perform an action.
func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) searchRecords() []search.Record {
	all := s.catalog.All()
	records := make([]search.Record, len(all))
	for i, p := range all {
		records[i] = recordOf(p)
	}
	return records
}

func recordOf(p catalog.Process) search.Record {
	return search.Record{
		ID:          p.ID,
		Name:        p.Name,
		Number:      p.Number,
		Description: p.Description,
	}
}
