// file: internal/database/sqlite_store.go
// version: 1.2.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jdfalk/audible-tagger/internal/models"
)

// SessionMaxAge is how long a search session stays resolvable. Selection IDs
// reference result indexes inside a session, so a stale session must never
// resolve against results the user saw days ago.
const SessionMaxAge = 24 * time.Hour

// SQLiteStore implements the Store interface using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates all required tables
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audiobooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id TEXT UNIQUE NOT NULL,
		file_path TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		status TEXT DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP NULL,
		metadata TEXT NULL,
		cover_path TEXT NULL,
		final_path TEXT NULL,
		error_message TEXT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audiobooks_status ON audiobooks(status);
	CREATE INDEX IF NOT EXISTS idx_audiobooks_file_path ON audiobooks(file_path);

	CREATE TABLE IF NOT EXISTS search_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT UNIQUE NOT NULL,
		file_id TEXT NOT NULL,
		search_results TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (file_id) REFERENCES audiobooks (file_id)
	);

	CREATE INDEX IF NOT EXISTS idx_search_sessions_file_id ON search_sessions(file_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddAudiobook registers a new incoming file. Re-registering an existing
// path is a no-op so the registry can be refreshed repeatedly.
func (s *SQLiteStore) AddAudiobook(filePath, fileID string, fileSize int64) error {
	var existing string
	err := s.db.QueryRow("SELECT file_id FROM audiobooks WHERE file_path = ?", filePath).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing audiobook: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO audiobooks (file_id, file_path, file_name, file_size, status)
		VALUES (?, ?, ?, ?, ?)`,
		fileID, filePath, filepath.Base(filePath), fileSize, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to add audiobook: %w", err)
	}
	return nil
}

// GetAudiobook returns the audiobook for fileID, or nil when unknown.
func (s *SQLiteStore) GetAudiobook(fileID string) (*Audiobook, error) {
	row := s.db.QueryRow(`
		SELECT id, file_id, file_path, file_name, file_size, status,
		       created_at, updated_at, processed_at, metadata,
		       cover_path, final_path, error_message
		FROM audiobooks WHERE file_id = ?`, fileID)

	book, err := scanAudiobook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return book, err
}

// GetAllAudiobooks returns all audiobooks, optionally filtered by status.
func (s *SQLiteStore) GetAllAudiobooks(status string) ([]*Audiobook, error) {
	query := `
		SELECT id, file_id, file_path, file_name, file_size, status,
		       created_at, updated_at, processed_at, metadata,
		       cover_path, final_path, error_message
		FROM audiobooks`
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audiobooks: %w", err)
	}
	defer rows.Close()

	var books []*Audiobook
	for rows.Next() {
		book, err := scanAudiobook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// UpdateAudiobookStatus records a status transition plus any accompanying
// processing artifacts.
func (s *SQLiteStore) UpdateAudiobookStatus(fileID, status string, update *StatusUpdate) error {
	query := "UPDATE audiobooks SET status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{status}

	if status == StatusProcessed {
		query += ", processed_at = CURRENT_TIMESTAMP"
	}
	if update != nil {
		if update.Metadata != nil {
			blob, err := json.Marshal(update.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal metadata: %w", err)
			}
			query += ", metadata = ?"
			args = append(args, string(blob))
		}
		if update.CoverPath != "" {
			query += ", cover_path = ?"
			args = append(args, update.CoverPath)
		}
		if update.FinalPath != "" {
			query += ", final_path = ?"
			args = append(args, update.FinalPath)
		}
		if update.ErrorMsg != "" {
			query += ", error_message = ?"
			args = append(args, update.ErrorMsg)
		}
	}

	query += " WHERE file_id = ?"
	args = append(args, fileID)

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update audiobook status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no audiobook with file_id %s", fileID)
	}
	return nil
}

// SaveSearchSession stores an ordered result list under sessionID.
func (s *SQLiteStore) SaveSearchSession(sessionID, fileID string, results []models.SearchResult) error {
	blob, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO search_sessions (session_id, file_id, search_results)
		VALUES (?, ?, ?)`,
		sessionID, fileID, string(blob),
	)
	if err != nil {
		return fmt.Errorf("failed to save search session: %w", err)
	}
	return nil
}

// GetSearchSession returns the session for sessionID, or nil when unknown
// or older than SessionMaxAge. Expired sessions are deleted on the spot.
// The result list comes back in exactly the order it was stored.
func (s *SQLiteStore) GetSearchSession(sessionID string) (*SearchSession, error) {
	var session SearchSession
	var blob string
	err := s.db.QueryRow(`
		SELECT session_id, file_id, search_results, created_at
		FROM search_sessions WHERE session_id = ?`, sessionID,
	).Scan(&session.SessionID, &session.FileID, &blob, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search session: %w", err)
	}

	if time.Since(session.CreatedAt) > SessionMaxAge {
		if _, err := s.db.Exec("DELETE FROM search_sessions WHERE session_id = ?", sessionID); err != nil {
			return nil, fmt.Errorf("failed to remove expired session: %w", err)
		}
		return nil, nil
	}

	if err := json.Unmarshal([]byte(blob), &session.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
	}
	return &session, nil
}

// CleanupOldSessions deletes sessions older than maxAge and returns how many
// were removed.
func (s *SQLiteStore) CleanupOldSessions(maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result, err := s.db.Exec("DELETE FROM search_sessions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAudiobook(scanner rowScanner) (*Audiobook, error) {
	var book Audiobook
	var processedAt sql.NullTime
	var metadata, coverPath, finalPath, errorMsg sql.NullString

	err := scanner.Scan(
		&book.ID, &book.FileID, &book.FilePath, &book.FileName,
		&book.FileSize, &book.Status, &book.CreatedAt, &book.UpdatedAt,
		&processedAt, &metadata, &coverPath, &finalPath, &errorMsg,
	)
	if err != nil {
		return nil, err
	}

	if processedAt.Valid {
		t := processedAt.Time
		book.ProcessedAt = &t
	}
	if metadata.Valid && metadata.String != "" {
		var detail models.BookDetail
		if err := json.Unmarshal([]byte(metadata.String), &detail); err == nil {
			book.Metadata = &detail
		}
	}
	book.CoverPath = coverPath.String
	book.FinalPath = finalPath.String
	book.ErrorMsg = errorMsg.String

	return &book, nil
}
