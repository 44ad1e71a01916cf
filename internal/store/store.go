// Package store provides storage backends for salesbot.
//
// It persists message templates, knowledge base items, FAQs, and runtime
// settings. Three backends are available: an in-memory store (tests and
// development), SQLite, and PostgreSQL.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iaclub/salesbot/internal/models"
)

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the data source name for the database connection.
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the data source name.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType returns the database driver implied by the DSN:
// "postgres" for PostgreSQL URLs or key=value DSNs, "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// Store is the persistence interface used by the pipeline.
type Store interface {
	// AddTemplate persists a template and returns its id.
	AddTemplate(t models.Template) (int64, error)
	// ListActiveTemplates returns active templates in registration order.
	ListActiveTemplates() ([]models.Template, error)

	// AddKnowledgeItem persists a knowledge item and returns its id.
	AddKnowledgeItem(item models.KnowledgeItem) (int64, error)
	// SearchKnowledge returns active knowledge items whose title, content,
	// or keywords contain the term (case-insensitive), ordered by priority
	// then usage count, both descending.
	SearchKnowledge(term string, limit int) ([]models.KnowledgeItem, error)

	// AddFAQ persists an FAQ item and returns its id.
	AddFAQ(item models.FAQItem) (int64, error)
	// SearchFAQs returns active FAQs whose question, answer, variations, or
	// tags contain the query (case-insensitive), ordered by priority, usage
	// count, and helpful count, all descending.
	SearchFAQs(query string, limit int) ([]models.FAQItem, error)

	// RecordUsage increments usage counters for the given knowledge and FAQ
	// ids in a single transaction. Knowledge items also get last_used_at set.
	RecordUsage(knowledgeIDs, faqIDs []int64) error

	// GetSetting returns the value for a settings key, or "" if unset.
	GetSetting(key string) (string, error)
	// SetSetting stores a settings key/value pair, replacing any prior value.
	SetSetting(key, value string) error

	// Close releases backend resources.
	Close() error
}

// InMemoryStore is a mutex-guarded in-memory store used in tests and as the
// default backend when no DSN is configured.
type InMemoryStore struct {
	mu        sync.Mutex
	templates []models.Template
	knowledge []models.KnowledgeItem
	faqs      []models.FAQItem
	settings  map[string]string
	nextID    int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{settings: make(map[string]string), nextID: 1}
}

func (s *InMemoryStore) AddTemplate(t models.Template) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.templates = append(s.templates, t)
	return t.ID, nil
}

func (s *InMemoryStore) ListActiveTemplates() ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Template
	for _, t := range s.templates {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AddKnowledgeItem(item models.KnowledgeItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextID
	s.nextID++
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.knowledge = append(s.knowledge, item)
	return item.ID, nil
}

func (s *InMemoryStore) SearchKnowledge(term string, limit int) ([]models.KnowledgeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(term)
	var out []models.KnowledgeItem
	for _, item := range s.knowledge {
		if !item.Active {
			continue
		}
		if knowledgeMatches(item, needle) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].TimesUsed > out[j].TimesUsed
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func knowledgeMatches(item models.KnowledgeItem, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Content), needle) {
		return true
	}
	for _, kw := range item.Keywords {
		if strings.Contains(strings.ToLower(kw), needle) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) AddFAQ(item models.FAQItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextID
	s.nextID++
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.faqs = append(s.faqs, item)
	return item.ID, nil
}

func (s *InMemoryStore) SearchFAQs(query string, limit int) ([]models.FAQItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	var out []models.FAQItem
	for _, item := range s.faqs {
		if !item.Active {
			continue
		}
		if faqMatches(item, needle) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].TimesUsed != out[j].TimesUsed {
			return out[i].TimesUsed > out[j].TimesUsed
		}
		return out[i].HelpfulCount > out[j].HelpfulCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func faqMatches(item models.FAQItem, needle string) bool {
	if strings.Contains(strings.ToLower(item.Question), needle) ||
		strings.Contains(strings.ToLower(item.Answer), needle) {
		return true
	}
	for _, v := range item.QuestionVariations {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) RecordUsage(knowledgeIDs, faqIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, id := range knowledgeIDs {
		for i := range s.knowledge {
			if s.knowledge[i].ID == id {
				s.knowledge[i].TimesUsed++
				s.knowledge[i].LastUsedAt = &now
			}
		}
	}
	for _, id := range faqIDs {
		for i := range s.faqs {
			if s.faqs[i].ID == id {
				s.faqs[i].TimesUsed++
			}
		}
	}
	return nil
}

func (s *InMemoryStore) GetSetting(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *InMemoryStore) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
