package search

// Record is the indexed representation of a process. Only the fields the
// search surface needs are indexed; results are resolved back against the
// catalog by id.
type Record struct {
	ID          int    `json:"id"`
	Name        string `json:"nome"`
	Number      string `json:"numero"`
	Description string `json:"descricao"`
}
