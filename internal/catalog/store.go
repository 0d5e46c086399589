// Package catalog owns the in-memory process catalog and the groupings that
// reference it: departments, chains and the main-process hierarchy. All
// state is process-local; a coarse mutex serializes every mutation so
// concurrent handlers always observe whole updates.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrProcessNotFound     = errors.New("process not found")
	ErrDuplicateProcess    = errors.New("process already exists")
	ErrMainProcessNotFound = errors.New("main process not found")
)

// ValidationError describes the first creation rule the input violated.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Store struct {
	mu          sync.Mutex
	nextID      int
	nextChainID int
	processes   []Process
	departments []Department
	chains      []Chain
	hierarchy   []HierarchyEntry
}

func NewStore() *Store {
	return &Store{nextID: 1, nextChainID: 1}
}

// Create validates the input, assigns the next id and splices the record into
// the name-sorted catalog, then propagates it into the selected departments,
// the named chain and, for subprocesses, the main process's hierarchy entry.
// A subprocess naming an unknown main process fails before any mutation.
func (s *Store) Create(input CreateInput) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(input.Name) < 3 {
		return Process{}, &ValidationError{Message: "process name must be at least 3 characters"}
	}
	if s.indexByName(input.Name) >= 0 {
		return Process{}, ErrDuplicateProcess
	}
	if strings.TrimSpace(input.Number) == "" {
		return Process{}, &ValidationError{Message: "process number is required"}
	}
	if len(input.Description) < 5 {
		return Process{}, &ValidationError{Message: "description must be at least 5 characters"}
	}
	category := input.Category
	if category == "" {
		category = CategoryProcess
	}
	if category != CategoryProcess && category != CategorySubprocess {
		return Process{}, &ValidationError{Message: fmt.Sprintf("unknown category %q", category)}
	}

	var mainIdx int
	if category == CategorySubprocess {
		if strings.TrimSpace(input.MainProcess) == "" {
			return Process{}, &ValidationError{Message: "a subprocess must name its main process"}
		}
		mainIdx = s.indexByName(input.MainProcess)
		if mainIdx < 0 {
			return Process{}, ErrMainProcessNotFound
		}
	}

	process := Process{
		ID:          s.nextID,
		Name:        input.Name,
		Number:      input.Number,
		Description: input.Description,
		Date:        input.Date,
		Type:        deriveType(input.Departments),
		Status:      StatusActive,
		Category:    category,
		Image:       input.Image,
		Document:    input.Document,
		MainProcess: input.MainProcess,
	}
	s.nextID++

	s.spliceSorted(process)
	for _, dept := range input.Departments {
		s.addToDepartment(dept, process)
	}
	if strings.TrimSpace(input.Chain) != "" {
		s.addToChain(input.Chain, process.ID)
	}
	if category == CategorySubprocess {
		main := s.processes[s.indexByName(input.MainProcess)]
		s.addToHierarchy(main, process)
	}
	return process, nil
}

// Edit applies the non-empty fields of patch to the process currently named
// name. Department membership is resynced only when a department selection is
// supplied: stale copies are removed by id everywhere and the patched record
// re-added to each selected department. Chains likewise: the id is stripped
// from every chain before being appended to the one now named.
func (s *Store) Edit(name string, patch EditInput) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByName(name)
	if idx < 0 {
		return Process{}, ErrProcessNotFound
	}
	process := s.processes[idx]

	if strings.TrimSpace(patch.Name) != "" {
		process.Name = patch.Name
	}
	if strings.TrimSpace(patch.Number) != "" {
		process.Number = patch.Number
	}
	if strings.TrimSpace(patch.Description) != "" {
		process.Description = patch.Description
	}
	if strings.TrimSpace(patch.Date) != "" {
		process.Date = patch.Date
	}
	if strings.TrimSpace(patch.Image) != "" {
		process.Image = patch.Image
	}

	categoryChanged := patch.Category != "" && patch.Category != process.Category
	mainChanged := patch.MainProcess != "" && patch.MainProcess != process.MainProcess
	if patch.Category != "" {
		if patch.Category != CategoryProcess && patch.Category != CategorySubprocess {
			return Process{}, &ValidationError{Message: fmt.Sprintf("unknown category %q", patch.Category)}
		}
		process.Category = patch.Category
	}
	if patch.MainProcess != "" {
		process.MainProcess = patch.MainProcess
	}
	if process.Category == CategorySubprocess && strings.TrimSpace(process.MainProcess) == "" {
		return Process{}, &ValidationError{Message: "a subprocess must name its main process"}
	}
	if (categoryChanged || mainChanged) && process.Category == CategorySubprocess {
		if s.indexByName(process.MainProcess) < 0 {
			return Process{}, ErrMainProcessNotFound
		}
	}
	if process.Category == CategoryProcess {
		process.MainProcess = ""
	}

	if patch.Departments != nil {
		process.Type = deriveType(patch.Departments)
	}

	s.processes[idx] = process

	if patch.Departments != nil {
		s.removeFromDepartments(process.ID)
		for _, dept := range patch.Departments {
			s.addToDepartment(dept, process)
		}
	}
	if strings.TrimSpace(patch.Chain) != "" {
		s.removeFromChains(process.ID)
		s.addToChain(patch.Chain, process.ID)
	}
	if categoryChanged || mainChanged {
		s.removeFromHierarchy(process.ID)
		if process.Category == CategorySubprocess {
			main := s.processes[s.indexByName(process.MainProcess)]
			s.addToHierarchy(main, process)
		}
	}
	return process, nil
}

// Deactivate marks the named process inactive.
func (s *Store) Deactivate(name string) error {
	return s.setStatus(name, StatusInactive)
}

// Reactivate marks the named process active again.
func (s *Store) Reactivate(name string) error {
	return s.setStatus(name, StatusActive)
}

func (s *Store) setStatus(name, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexByName(name)
	if idx < 0 {
		return ErrProcessNotFound
	}
	s.processes[idx].Status = status
	return nil
}

// indexByName assumes the caller holds the lock.
func (s *Store) indexByName(name string) int {
	for i := range s.processes {
		if s.processes[i].Name == name {
			return i
		}
	}
	return -1
}

// spliceSorted inserts the record immediately before the first existing
// record whose name sorts after it, so the catalog stays name-ordered without
// a trailing sort pass.
func (s *Store) spliceSorted(process Process) {
	at := len(s.processes)
	for i := range s.processes {
		if s.processes[i].Name > process.Name {
			at = i
			break
		}
	}
	s.processes = append(s.processes, Process{})
	copy(s.processes[at+1:], s.processes[at:])
	s.processes[at] = process
}

func deriveType(departments []string) string {
	if len(departments) > 1 {
		return TypeInterdepartmental
	}
	return TypeDepartmental
}

func (s *Store) addToDepartment(name string, process Process) {
	for i := range s.departments {
		if s.departments[i].Name == name {
			s.departments[i].Processes = append(s.departments[i].Processes, process)
			return
		}
	}
	s.departments = append(s.departments, Department{
		Name:      name,
		Processes: []Process{process},
	})
}

func (s *Store) removeFromDepartments(id int) {
	for i := range s.departments {
		kept := s.departments[i].Processes[:0]
		for _, p := range s.departments[i].Processes {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.departments[i].Processes = kept
	}
}

func (s *Store) addToChain(name string, id int) {
	for i := range s.chains {
		if s.chains[i].Name == name {
			s.chains[i].ProcessIDs = append(s.chains[i].ProcessIDs, id)
			return
		}
	}
	s.chains = append(s.chains, Chain{
		ID:         s.nextChainID,
		Name:       name,
		ProcessIDs: []int{id},
	})
	s.nextChainID++
}

func (s *Store) removeFromChains(id int) {
	for i := range s.chains {
		kept := s.chains[i].ProcessIDs[:0]
		for _, member := range s.chains[i].ProcessIDs {
			if member != id {
				kept = append(kept, member)
			}
		}
		s.chains[i].ProcessIDs = kept
	}
}

func (s *Store) addToHierarchy(main, sub Process) {
	for i := range s.hierarchy {
		if s.hierarchy[i].MainID == main.ID {
			s.hierarchy[i].Subprocesses = append(s.hierarchy[i].Subprocesses, sub)
			return
		}
	}
	s.hierarchy = append(s.hierarchy, HierarchyEntry{
		MainID:       main.ID,
		MainName:     main.Name,
		Subprocesses: []Process{sub},
	})
}

func (s *Store) removeFromHierarchy(id int) {
	for i := range s.hierarchy {
		kept := s.hierarchy[i].Subprocesses[:0]
		for _, p := range s.hierarchy[i].Subprocesses {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		s.hierarchy[i].Subprocesses = kept
	}
}
