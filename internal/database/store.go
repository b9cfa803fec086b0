// file: internal/database/store.go
// version: 1.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2e

package database

import (
	"time"

	"github.com/jdfalk/audible-tagger/internal/models"
)

// Audiobook processing statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusError      = "error"
	StatusSkipped    = "skipped"
)

// Audiobook is a tracked incoming file and its processing state.
type Audiobook struct {
	ID          int64              `json:"id"`
	FileID      string             `json:"file_id"`
	FilePath    string             `json:"file_path"`
	FileName    string             `json:"file_name"`
	FileSize    int64              `json:"file_size"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	Metadata    *models.BookDetail `json:"metadata,omitempty"`
	CoverPath   string             `json:"cover_path,omitempty"`
	FinalPath   string             `json:"final_path,omitempty"`
	ErrorMsg    string             `json:"error_message,omitempty"`
}

// SearchSession is a cached, ordered search result list bound to a file.
// Selection IDs handed to API callers reference a session by ID plus index,
// so the stored order must round-trip exactly.
type SearchSession struct {
	SessionID string                `json:"session_id"`
	FileID    string                `json:"file_id"`
	Results   []models.SearchResult `json:"search_results"`
	CreatedAt time.Time             `json:"created_at"`
}

// StatusUpdate carries the optional fields recorded with a status change.
type StatusUpdate struct {
	Metadata  *models.BookDetail
	CoverPath string
	FinalPath string
	ErrorMsg  string
}

// Store is the persistence boundary for job state and search sessions.
type Store interface {
	AddAudiobook(filePath, fileID string, fileSize int64) error
	GetAudiobook(fileID string) (*Audiobook, error)
	GetAllAudiobooks(status string) ([]*Audiobook, error)
	UpdateAudiobookStatus(fileID, status string, update *StatusUpdate) error

	SaveSearchSession(sessionID, fileID string, results []models.SearchResult) error
	GetSearchSession(sessionID string) (*SearchSession, error)
	CleanupOldSessions(maxAge time.Duration) (int, error)

	Close() error
}
