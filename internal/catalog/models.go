package catalog

const (
	StatusActive   = "ativo"
	StatusInactive = "inativo"

	TypeDepartmental      = "departamental"
	TypeInterdepartmental = "interdepartamental"

	CategoryProcess    = "processo"
	CategorySubprocess = "subprocesso"
)

// Process is a tracked business process record. IDs are monotonic and stable
// once assigned; names are unique at creation time.
type Process struct {
	ID          int    `json:"id"`
	Name        string `json:"nome"`
	Number      string `json:"numero"`
	Description string `json:"descricao"`
	Date        string `json:"data"`
	Type        string `json:"tipo"`
	Status      string `json:"status"`
	Category    string `json:"categoria"`
	Image       string `json:"imagem,omitempty"`
	Document    string `json:"documento,omitempty"`
	MainProcess string `json:"processoMain,omitempty"`
}

// Department holds snapshot copies of the processes associated with it, taken
// at association time. Copies are resynced by id when a process's department
// selection is edited; they are not live references.
type Department struct {
	Name      string    `json:"departamento"`
	Processes []Process `json:"processos"`
}

// Chain is a named ordered grouping of process ids. Membership is foreign
// references only; a chain owns no process data.
type Chain struct {
	ID         int    `json:"id"`
	Name       string `json:"nome"`
	ProcessIDs []int  `json:"processos"`
}

// ChainListing is a chain resolved against the catalog, with missing and
// inactive members dropped.
type ChainListing struct {
	Name      string    `json:"cadeia"`
	Processes []Process `json:"processos"`
}

// HierarchyEntry links a main process to snapshot copies of its subprocesses.
// A subprocess belongs to at most one entry.
type HierarchyEntry struct {
	MainID       int       `json:"processoMainId"`
	MainName     string    `json:"processoMain"`
	Subprocesses []Process `json:"subprocessos"`
}

// InterdepartmentalProcess decorates a process with the names of the
// departments whose membership includes it, derived by reverse lookup.
type InterdepartmentalProcess struct {
	Process
	Departments []string `json:"departamentos"`
}

// CreateInput carries the fields accepted at process creation.
type CreateInput struct {
	Name        string
	Number      string
	Description string
	Date        string
	Category    string
	Departments []string
	Chain       string
	MainProcess string
	Image       string
	Document    string
}

// EditInput is a partial update addressed by the process's current name.
// Zero-valued fields are left untouched; Departments is only applied when
// non-nil so an empty selection can be told apart from an absent one.
type EditInput struct {
	Name        string
	Number      string
	Description string
	Date        string
	Category    string
	Departments []string
	Chain       string
	MainProcess string
	Image       string
}
