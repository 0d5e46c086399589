package catalog

import "testing"

func TestFindByNameIsCaseInsensitiveSubstring(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, validInput("Compras Gerais"))
	mustCreate(t, s, validInput("Vendas"))

	matches := s.FindByName("compras")
	if len(matches) != 1 || matches[0].Name != "Compras Gerais" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if got := s.FindByName("RAS"); len(got) != 1 {
		t.Fatalf("substring match should ignore case, got %+v", got)
	}
	if got := s.FindByName("xyz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestListInterdepartmentalDecoratesDepartments(t *testing.T) {
	s := NewStore()
	multi := validInput("Vendas")
	multi.Departments = []string{"Comercial", "Financeiro"}
	mustCreate(t, s, multi)
	single := validInput("Compras")
	single.Departments = []string{"Financeiro"}
	mustCreate(t, s, single)

	listed := s.ListInterdepartmental()
	if len(listed) != 1 {
		t.Fatalf("expected 1 interdepartmental process, got %d", len(listed))
	}
	if listed[0].Name != "Vendas" {
		t.Fatalf("expected Vendas, got %s", listed[0].Name)
	}
	if len(listed[0].Departments) != 2 {
		t.Fatalf("expected 2 department names, got %v", listed[0].Departments)
	}

	// Deactivation removes it from the listing.
	_ = s.Deactivate("Vendas")
	if got := s.ListInterdepartmental(); len(got) != 0 {
		t.Fatalf("inactive process should not be listed, got %+v", got)
	}
}

func TestDepartmentByName(t *testing.T) {
	s := NewStore()
	input := validInput("Compras")
	input.Departments = []string{"Financeiro"}
	mustCreate(t, s, input)

	dept, ok := s.DepartmentByName("Financeiro")
	if !ok {
		t.Fatalf("expected department Financeiro to exist")
	}
	if len(dept.Processes) != 1 || dept.Processes[0].Name != "Compras" {
		t.Fatalf("unexpected membership: %+v", dept.Processes)
	}
	if _, ok := s.DepartmentByName("Inexistente"); ok {
		t.Fatalf("unknown department should not resolve")
	}
}

func TestChainsWithActiveProcessesDropsInactiveMembers(t *testing.T) {
	s := NewStore()
	a := validInput("Alpha")
	a.Chain = "Cadeia Um"
	mustCreate(t, s, a)
	b := validInput("Beta")
	b.Chain = "Cadeia Um"
	mustCreate(t, s, b)
	_ = s.Deactivate("Beta")

	listings := s.ChainsWithActiveProcesses()
	if len(listings) != 1 {
		t.Fatalf("expected 1 chain listing, got %d", len(listings))
	}
	if len(listings[0].Processes) != 1 || listings[0].Processes[0].Name != "Alpha" {
		t.Fatalf("inactive member should be dropped, got %+v", listings[0].Processes)
	}
}

func TestDepartmentCopiesAreSnapshots(t *testing.T) {
	s := NewStore()
	input := validInput("Compras")
	input.Departments = []string{"Financeiro"}
	mustCreate(t, s, input)

	// An edit that does not touch the department selection leaves the stored
	// copy as it was at association time.
	if _, err := s.Edit("Compras", EditInput{Description: "descricao alterada"}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	dept, _ := s.DepartmentByName("Financeiro")
	if dept.Processes[0].Description != "descricao valida" {
		t.Fatalf("snapshot copy should be stale after unrelated edit, got %q",
			dept.Processes[0].Description)
	}

	// Re-selecting the department refreshes the copy.
	if _, err := s.Edit("Compras", EditInput{Departments: []string{"Financeiro"}}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	dept, _ = s.DepartmentByName("Financeiro")
	if dept.Processes[0].Description != "descricao alterada" {
		t.Fatalf("resync should re-add the patched record, got %q",
			dept.Processes[0].Description)
	}
}
