package search

import "strings"

// Memory is the fallback engine: a case-insensitive substring scan over the
// records supplied by its source.
type Memory struct {
	source func() []Record
}

// NewMemory creates the fallback engine. source is called on every search so
// results always reflect the live catalog.
func NewMemory(source func() []Record) *Memory {
	return &Memory{source: source}
}

func (m *Memory) Search(term string) []Record {
	needle := strings.ToLower(term)
	out := []Record{}
	for _, record := range m.source() {
		if strings.Contains(strings.ToLower(record.Name), needle) {
			out = append(out, record)
		}
	}
	return out
}
