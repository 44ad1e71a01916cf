// Package store provides storage backends for salesbot.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/iaclub/salesbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddTemplate(t models.Template) (int64, error) {
	messagesJSON, err := json.Marshal(t.Messages)
	if err != nil {
		slog.Error("PostgresStore AddTemplate marshal failed", "error", err, "name", t.Name)
		return 0, fmt.Errorf("failed to marshal template messages: %w", err)
	}
	triggers, err := marshalStringList(t.TriggerKeywords)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(
		`INSERT INTO templates (name, description, messages, category, trigger_keywords, is_active) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		t.Name, nilIfEmpty(t.Description), string(messagesJSON), nilIfEmpty(t.Category), nilIfEmpty(triggers), t.Active).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddTemplate failed", "error", err, "name", t.Name)
		return 0, fmt.Errorf("failed to insert template %s: %w", t.Name, err)
	}
	slog.Debug("PostgresStore AddTemplate succeeded", "id", id, "name", t.Name)
	return id, nil
}

func (s *PostgresStore) ListActiveTemplates() ([]models.Template, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, messages, category, trigger_keywords, is_active, created_at, updated_at
		 FROM templates WHERE is_active = TRUE ORDER BY id ASC`)
	if err != nil {
		slog.Error("PostgresStore ListActiveTemplates query failed", "error", err)
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			slog.Error("PostgresStore ListActiveTemplates scan failed", "error", err)
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	slog.Debug("PostgresStore ListActiveTemplates succeeded", "count", len(templates))
	return templates, nil
}

func (s *PostgresStore) AddKnowledgeItem(item models.KnowledgeItem) (int64, error) {
	keywords, err := marshalStringList(item.Keywords)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(
		`INSERT INTO knowledge_items (title, category, content, keywords, source, priority, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		item.Title, nilIfEmpty(item.Category), item.Content, nilIfEmpty(keywords), nilIfEmpty(item.Source), item.Priority, item.Active).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddKnowledgeItem failed", "error", err, "title", item.Title)
		return 0, fmt.Errorf("failed to insert knowledge item %s: %w", item.Title, err)
	}
	return id, nil
}

func (s *PostgresStore) SearchKnowledge(term string, limit int) ([]models.KnowledgeItem, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.Query(
		`SELECT id, title, category, content, keywords, source, priority, is_active, times_used, last_used_at, created_at, updated_at
		 FROM knowledge_items
		 WHERE is_active = TRUE AND (title ILIKE $1 OR content ILIKE $1 OR keywords ILIKE $1)
		 ORDER BY priority DESC, times_used DESC LIMIT $2`,
		pattern, limit)
	if err != nil {
		slog.Error("PostgresStore SearchKnowledge query failed", "error", err, "term", term)
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	defer rows.Close()

	var items []models.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			slog.Error("PostgresStore SearchKnowledge scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge rows: %w", err)
	}
	slog.Debug("PostgresStore SearchKnowledge succeeded", "term", term, "count", len(items))
	return items, nil
}

func (s *PostgresStore) AddFAQ(item models.FAQItem) (int64, error) {
	tags, err := marshalStringList(item.Tags)
	if err != nil {
		return 0, err
	}
	variations, err := marshalStringList(item.QuestionVariations)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(
		`INSERT INTO faqs (question, answer, category, tags, question_variations, is_active, priority) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		item.Question, item.Answer, nilIfEmpty(item.Category), nilIfEmpty(tags), nilIfEmpty(variations), item.Active, item.Priority).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddFAQ failed", "error", err, "question", item.Question)
		return 0, fmt.Errorf("failed to insert faq: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) SearchFAQs(query string, limit int) ([]models.FAQItem, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT id, question, answer, category, tags, question_variations, is_active, priority, times_used, helpful_count, not_helpful_count, created_at, updated_at
		 FROM faqs
		 WHERE is_active = TRUE AND (question ILIKE $1 OR answer ILIKE $1 OR question_variations ILIKE $1 OR tags ILIKE $1)
		 ORDER BY priority DESC, times_used DESC, helpful_count DESC LIMIT $2`,
		pattern, limit)
	if err != nil {
		slog.Error("PostgresStore SearchFAQs query failed", "error", err, "query", query)
		return nil, fmt.Errorf("failed to search faqs: %w", err)
	}
	defer rows.Close()

	var items []models.FAQItem
	for rows.Next() {
		item, err := scanFAQ(rows)
		if err != nil {
			slog.Error("PostgresStore SearchFAQs scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faq rows: %w", err)
	}
	slog.Debug("PostgresStore SearchFAQs succeeded", "query", query, "count", len(items))
	return items, nil
}

// RecordUsage increments usage counters inside a transaction so partial
// updates never persist.
func (s *PostgresStore) RecordUsage(knowledgeIDs, faqIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("PostgresStore RecordUsage begin failed", "error", err)
		return fmt.Errorf("failed to begin usage transaction: %w", err)
	}
	now := time.Now()
	for _, id := range knowledgeIDs {
		if _, err := tx.Exec(`UPDATE knowledge_items SET times_used = times_used + 1, last_used_at = $1 WHERE id = $2`, now, id); err != nil {
			tx.Rollback()
			slog.Error("PostgresStore RecordUsage knowledge update failed", "error", err, "id", id)
			return fmt.Errorf("failed to update knowledge usage for %d: %w", id, err)
		}
	}
	for _, id := range faqIDs {
		if _, err := tx.Exec(`UPDATE faqs SET times_used = times_used + 1 WHERE id = $1`, id); err != nil {
			tx.Rollback()
			slog.Error("PostgresStore RecordUsage faq update failed", "error", err, "id", id)
			return fmt.Errorf("failed to update faq usage for %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("PostgresStore RecordUsage commit failed", "error", err)
		return fmt.Errorf("failed to commit usage transaction: %w", err)
	}
	slog.Debug("PostgresStore RecordUsage succeeded", "knowledge", len(knowledgeIDs), "faqs", len(faqIDs))
	return nil
}

func (s *PostgresStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSetting failed", "error", err, "key", key)
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value)
	if err != nil {
		slog.Error("PostgresStore SetSetting failed", "error", err, "key", key)
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	slog.Debug("PostgresStore SetSetting succeeded", "key", key)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
