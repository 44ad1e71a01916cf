// Package knowledge retrieves knowledge base items and FAQs to ground bot
// replies.
package knowledge

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/iaclub/salesbot/internal/models"
	"github.com/iaclub/salesbot/internal/store"
)

// Default result limits.
const (
	DefaultKnowledgeLimit = 5
	DefaultFAQLimit       = 3
)

// minTermLength filters out very short search terms.
const minTermLength = 3

// Retriever performs keyword search over the knowledge store.
type Retriever struct {
	store store.Store
}

// NewRetriever creates a retriever backed by the given store.
func NewRetriever(s store.Store) *Retriever {
	return &Retriever{store: s}
}

// SearchKnowledge splits the query into terms, runs a per-term substring
// search, deduplicates by id, and returns the merged results re-ranked by
// priority then usage count. Results are deterministic for a given store
// state.
func (r *Retriever) SearchKnowledge(query string, limit int) ([]models.KnowledgeItem, error) {
	if limit <= 0 {
		limit = DefaultKnowledgeLimit
	}

	var merged []models.KnowledgeItem
	seen := make(map[int64]bool)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(term)) < minTermLength {
			continue
		}
		results, err := r.store.SearchKnowledge(term, limit)
		if err != nil {
			slog.Error("Retriever SearchKnowledge store query failed", "error", err, "term", term)
			return nil, err
		}
		for _, item := range results {
			if !seen[item.ID] {
				merged = append(merged, item)
				seen[item.ID] = true
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Priority != merged[j].Priority {
			return merged[i].Priority > merged[j].Priority
		}
		return merged[i].TimesUsed > merged[j].TimesUsed
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	slog.Debug("Retriever SearchKnowledge succeeded", "query", query, "count", len(merged))
	return merged, nil
}

// SearchFAQs matches the whole query against FAQ questions, answers,
// variations, and tags.
func (r *Retriever) SearchFAQs(query string, limit int) ([]models.FAQItem, error) {
	if limit <= 0 {
		limit = DefaultFAQLimit
	}
	results, err := r.store.SearchFAQs(query, limit)
	if err != nil {
		slog.Error("Retriever SearchFAQs store query failed", "error", err, "query", query)
		return nil, err
	}
	slog.Debug("Retriever SearchFAQs succeeded", "query", query, "count", len(results))
	return results, nil
}

// UpdateUsageStats bumps usage counters for the items that contributed to a
// reply. Failures are logged and swallowed: bookkeeping never breaks a
// response.
func (r *Retriever) UpdateUsageStats(knowledgeIDs, faqIDs []int64) {
	if len(knowledgeIDs) == 0 && len(faqIDs) == 0 {
		return
	}
	if err := r.store.RecordUsage(knowledgeIDs, faqIDs); err != nil {
		slog.Error("Retriever UpdateUsageStats failed", "error", err, "knowledge", len(knowledgeIDs), "faqs", len(faqIDs))
		return
	}
	slog.Info("Retriever UpdateUsageStats succeeded", "knowledge", len(knowledgeIDs), "faqs", len(faqIDs))
}

// BuildContext renders retrieved items as prompt context lines: knowledge as
// "Title: Content" and FAQs as "FAQ - Question: Answer".
func BuildContext(items []models.KnowledgeItem, faqs []models.FAQItem) []string {
	lines := make([]string, 0, len(items)+len(faqs))
	for _, item := range items {
		lines = append(lines, item.Title+": "+item.Content)
	}
	for _, faq := range faqs {
		lines = append(lines, "FAQ - "+faq.Question+": "+faq.Answer)
	}
	return lines
}
