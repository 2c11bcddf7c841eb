package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit is used when ListCalls is given a non-positive limit.
const DefaultHistoryLimit = 20

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			steam_id TEXT,
			outcome TEXT NOT NULL,
			message TEXT,
			item_count INTEGER,
			elapsed_ms INTEGER,
			detail TEXT,
			recorded_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_calls_steam_id ON calls(steam_id);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Configuration Implementation

func (s *SQLiteStore) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, key, value)
	return err
}

// GetConfig returns "" for keys that were never set.
func (s *SQLiteStore) GetConfig(key string) (string, error) {
	query := `SELECT value FROM configuration WHERE key = ?`
	row := s.db.QueryRow(query, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *SQLiteStore) ConfigKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM configuration ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Call log Implementation

func (s *SQLiteStore) RecordCall(call *Call) error {
	if call.RecordedAt.IsZero() {
		call.RecordedAt = time.Now()
	}
	detailJSON, err := json.Marshal(call.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}

	query := `INSERT INTO calls (kind, steam_id, outcome, message, item_count, elapsed_ms, detail, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.Exec(query, call.Kind, call.SteamID, call.Outcome, call.Message, call.ItemCount, call.ElapsedMS, string(detailJSON), call.RecordedAt.UTC())
	if err != nil {
		return err
	}
	call.ID, err = res.LastInsertId()
	return err
}

// ListCalls returns the most recent calls first.
func (s *SQLiteStore) ListCalls(limit int) ([]*Call, error) {
	return s.listCalls(`SELECT id, kind, steam_id, outcome, message, item_count, elapsed_ms, detail, recorded_at FROM calls ORDER BY id DESC LIMIT ?`, normalizeLimit(limit))
}

func (s *SQLiteStore) ListCallsFor(steamID string, limit int) ([]*Call, error) {
	return s.listCalls(`SELECT id, kind, steam_id, outcome, message, item_count, elapsed_ms, detail, recorded_at FROM calls WHERE steam_id = ? ORDER BY id DESC LIMIT ?`, steamID, normalizeLimit(limit))
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

func (s *SQLiteStore) listCalls(query string, args ...any) ([]*Call, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*Call
	for rows.Next() {
		var c Call
		var steamID, message, detailJSON sql.NullString
		if err := rows.Scan(&c.ID, &c.Kind, &steamID, &c.Outcome, &message, &c.ItemCount, &c.ElapsedMS, &detailJSON, &c.RecordedAt); err != nil {
			return nil, err
		}
		c.SteamID = steamID.String
		c.Message = message.String
		if detailJSON.Valid && detailJSON.String != "" && detailJSON.String != "null" {
			if err := json.Unmarshal([]byte(detailJSON.String), &c.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}
