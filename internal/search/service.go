package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to the
// in-memory scan.
type Service struct {
	meili    *Meili
	fallback *Memory
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, fallback *Memory) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise scans the catalog.
func (s *Service) Search(term string) []Record {
	if s.meili != nil && s.meili.Healthy() {
		results, err := s.meili.Search(term)
		if err == nil {
			return results
		}
		log.Printf("search: meilisearch error, falling back to memory scan: %v", err)
	}
	return s.fallback.Search(term)
}

// IndexRecord indexes a process (fire-and-forget to Meilisearch).
func (s *Service) IndexRecord(record Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexRecord(record); err != nil {
			log.Printf("search: index process %d: %v", record.ID, err)
		}
	}()
}

// ReindexAll pushes the whole catalog to Meilisearch, called at bootstrap.
func (s *Service) ReindexAll(records []Record) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexRecords(records); err != nil {
		log.Printf("search: reindex processes: %v", err)
	}
}
