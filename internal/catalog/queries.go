package catalog

import "strings"

// All returns a copy of the full catalog in name order, regardless of status.
func (s *Store) All() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Process, len(s.processes))
	copy(out, s.processes)
	return out
}

// FindByID resolves a process by its id.
func (s *Store) FindByID(id int) (Process, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.processes {
		if p.ID == id {
			return p, true
		}
	}
	return Process{}, false
}

// ListActive returns active processes. Subprocesses are excluded from the
// main listing; they are reached through their hierarchy entry instead.
func (s *Store) ListActive() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Process{}
	for _, p := range s.processes {
		if p.Status == StatusActive && p.Category == CategoryProcess {
			out = append(out, p)
		}
	}
	return out
}

// ListInactive returns every deactivated record, subprocesses included.
func (s *Store) ListInactive() []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Process{}
	for _, p := range s.processes {
		if p.Status == StatusInactive {
			out = append(out, p)
		}
	}
	return out
}

// FindByName matches the term case-insensitively as a substring of the
// process name. An empty result is the caller's not-found signal.
func (s *Store) FindByName(term string) []Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(term)
	out := []Process{}
	for _, p := range s.processes {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// ListInterdepartmental returns active interdepartmental processes, each
// decorated with the departments holding it. Department names come from a
// reverse lookup through the index, not from the record itself.
func (s *Store) ListInterdepartmental() []InterdepartmentalProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []InterdepartmentalProcess{}
	for _, p := range s.processes {
		if p.Type != TypeInterdepartmental || p.Status != StatusActive {
			continue
		}
		out = append(out, InterdepartmentalProcess{
			Process:     p,
			Departments: s.departmentsOf(p.ID),
		})
	}
	return out
}

// departmentsOf assumes the caller holds the lock.
func (s *Store) departmentsOf(id int) []string {
	names := []string{}
	for _, dept := range s.departments {
		for _, p := range dept.Processes {
			if p.ID == id {
				names = append(names, dept.Name)
				break
			}
		}
	}
	return names
}

// Departments returns every department with its snapshot membership.
func (s *Store) Departments() []Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Department, len(s.departments))
	for i, dept := range s.departments {
		out[i] = Department{
			Name:      dept.Name,
			Processes: append([]Process{}, dept.Processes...),
		}
	}
	return out
}

// DepartmentByName returns a single department's membership.
func (s *Store) DepartmentByName(name string) (Department, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dept := range s.departments {
		if dept.Name == name {
			return Department{
				Name:      dept.Name,
				Processes: append([]Process{}, dept.Processes...),
			}, true
		}
	}
	return Department{}, false
}

// Chains returns the raw chain registry, ids only.
func (s *Store) Chains() []Chain {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chain, len(s.chains))
	for i, c := range s.chains {
		out[i] = Chain{
			ID:         c.ID,
			Name:       c.Name,
			ProcessIDs: append([]int{}, c.ProcessIDs...),
		}
	}
	return out
}

// ChainsWithActiveProcesses resolves each chain's member ids against the
// catalog, dropping unresolved and inactive members.
func (s *Store) ChainsWithActiveProcesses() []ChainListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChainListing, 0, len(s.chains))
	for _, chain := range s.chains {
		listing := ChainListing{Name: chain.Name, Processes: []Process{}}
		for _, id := range chain.ProcessIDs {
			for _, p := range s.processes {
				if p.ID == id && p.Status == StatusActive {
					listing.Processes = append(listing.Processes, p)
					break
				}
			}
		}
		out = append(out, listing)
	}
	return out
}

// Subprocesses returns the main-process hierarchy, skipping entries whose
// subprocess list has been emptied by reassignment.
func (s *Store) Subprocesses() []HierarchyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []HierarchyEntry{}
	for _, entry := range s.hierarchy {
		if len(entry.Subprocesses) == 0 {
			continue
		}
		out = append(out, HierarchyEntry{
			MainID:       entry.MainID,
			MainName:     entry.MainName,
			Subprocesses: append([]Process{}, entry.Subprocesses...),
		})
	}
	return out
}
