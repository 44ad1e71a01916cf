// Package store provides storage backends for salesbot.
//
// This file implements an SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/iaclub/salesbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddTemplate(t models.Template) (int64, error) {
	messagesJSON, err := json.Marshal(t.Messages)
	if err != nil {
		slog.Error("SQLiteStore AddTemplate marshal failed", "error", err, "name", t.Name)
		return 0, fmt.Errorf("failed to marshal template messages: %w", err)
	}
	triggers, err := marshalStringList(t.TriggerKeywords)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO templates (name, description, messages, category, trigger_keywords, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, nilIfEmpty(t.Description), string(messagesJSON), nilIfEmpty(t.Category), nilIfEmpty(triggers), t.Active)
	if err != nil {
		slog.Error("SQLiteStore AddTemplate failed", "error", err, "name", t.Name)
		return 0, fmt.Errorf("failed to insert template %s: %w", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Debug("SQLiteStore AddTemplate succeeded", "id", id, "name", t.Name)
	return id, nil
}

func (s *SQLiteStore) ListActiveTemplates() ([]models.Template, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description, messages, category, trigger_keywords, is_active, created_at, updated_at
		 FROM templates WHERE is_active = 1 ORDER BY id ASC`)
	if err != nil {
		slog.Error("SQLiteStore ListActiveTemplates query failed", "error", err)
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActiveTemplates scan failed", "error", err)
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListActiveTemplates rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActiveTemplates succeeded", "count", len(templates))
	return templates, nil
}

func (s *SQLiteStore) AddKnowledgeItem(item models.KnowledgeItem) (int64, error) {
	keywords, err := marshalStringList(item.Keywords)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO knowledge_items (title, category, content, keywords, source, priority, is_active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Title, nilIfEmpty(item.Category), item.Content, nilIfEmpty(keywords), nilIfEmpty(item.Source), item.Priority, item.Active)
	if err != nil {
		slog.Error("SQLiteStore AddKnowledgeItem failed", "error", err, "title", item.Title)
		return 0, fmt.Errorf("failed to insert knowledge item %s: %w", item.Title, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) SearchKnowledge(term string, limit int) ([]models.KnowledgeItem, error) {
	pattern := "%" + term + "%"
	rows, err := s.db.Query(
		`SELECT id, title, category, content, keywords, source, priority, is_active, times_used, last_used_at, created_at, updated_at
		 FROM knowledge_items
		 WHERE is_active = 1 AND (title LIKE ? COLLATE NOCASE OR content LIKE ? COLLATE NOCASE OR keywords LIKE ? COLLATE NOCASE)
		 ORDER BY priority DESC, times_used DESC LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		slog.Error("SQLiteStore SearchKnowledge query failed", "error", err, "term", term)
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	defer rows.Close()

	var items []models.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			slog.Error("SQLiteStore SearchKnowledge scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge rows: %w", err)
	}
	slog.Debug("SQLiteStore SearchKnowledge succeeded", "term", term, "count", len(items))
	return items, nil
}

func (s *SQLiteStore) AddFAQ(item models.FAQItem) (int64, error) {
	tags, err := marshalStringList(item.Tags)
	if err != nil {
		return 0, err
	}
	variations, err := marshalStringList(item.QuestionVariations)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO faqs (question, answer, category, tags, question_variations, is_active, priority) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Question, item.Answer, nilIfEmpty(item.Category), nilIfEmpty(tags), nilIfEmpty(variations), item.Active, item.Priority)
	if err != nil {
		slog.Error("SQLiteStore AddFAQ failed", "error", err, "question", item.Question)
		return 0, fmt.Errorf("failed to insert faq: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) SearchFAQs(query string, limit int) ([]models.FAQItem, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Query(
		`SELECT id, question, answer, category, tags, question_variations, is_active, priority, times_used, helpful_count, not_helpful_count, created_at, updated_at
		 FROM faqs
		 WHERE is_active = 1 AND (question LIKE ? COLLATE NOCASE OR answer LIKE ? COLLATE NOCASE OR question_variations LIKE ? COLLATE NOCASE OR tags LIKE ? COLLATE NOCASE)
		 ORDER BY priority DESC, times_used DESC, helpful_count DESC LIMIT ?`,
		pattern, pattern, pattern, pattern, limit)
	if err != nil {
		slog.Error("SQLiteStore SearchFAQs query failed", "error", err, "query", query)
		return nil, fmt.Errorf("failed to search faqs: %w", err)
	}
	defer rows.Close()

	var items []models.FAQItem
	for rows.Next() {
		item, err := scanFAQ(rows)
		if err != nil {
			slog.Error("SQLiteStore SearchFAQs scan failed", "error", err)
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faq rows: %w", err)
	}
	slog.Debug("SQLiteStore SearchFAQs succeeded", "query", query, "count", len(items))
	return items, nil
}

// RecordUsage increments usage counters inside a transaction so partial
// updates never persist.
func (s *SQLiteStore) RecordUsage(knowledgeIDs, faqIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("SQLiteStore RecordUsage begin failed", "error", err)
		return fmt.Errorf("failed to begin usage transaction: %w", err)
	}
	now := time.Now()
	for _, id := range knowledgeIDs {
		if _, err := tx.Exec(`UPDATE knowledge_items SET times_used = times_used + 1, last_used_at = ? WHERE id = ?`, now, id); err != nil {
			tx.Rollback()
			slog.Error("SQLiteStore RecordUsage knowledge update failed", "error", err, "id", id)
			return fmt.Errorf("failed to update knowledge usage for %d: %w", id, err)
		}
	}
	for _, id := range faqIDs {
		if _, err := tx.Exec(`UPDATE faqs SET times_used = times_used + 1 WHERE id = ?`, id); err != nil {
			tx.Rollback()
			slog.Error("SQLiteStore RecordUsage faq update failed", "error", err, "id", id)
			return fmt.Errorf("failed to update faq usage for %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("SQLiteStore RecordUsage commit failed", "error", err)
		return fmt.Errorf("failed to commit usage transaction: %w", err)
	}
	slog.Debug("SQLiteStore RecordUsage succeeded", "knowledge", len(knowledgeIDs), "faqs", len(faqIDs))
	return nil
}

func (s *SQLiteStore) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSetting failed", "error", err, "key", key)
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		slog.Error("SQLiteStore SetSetting failed", "error", err, "key", key)
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	slog.Debug("SQLiteStore SetSetting succeeded", "key", key)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
