// file: internal/server/handlers.go
// version: 1.2.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/audible-tagger/internal/cleanup"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/pipeline"
	"github.com/jdfalk/audible-tagger/internal/sysinfo"
)

// resultView is a search hit decorated with its opaque selection ID.
type resultView struct {
	models.SearchResult
	SelectionID string `json:"selection_id"`
}

func resultViews(sessionID string, results []models.SearchResult) []resultView {
	// Empty slice so JSON renders [] instead of null.
	views := make([]resultView, 0, len(results))
	for i, r := range results {
		views = append(views, resultView{
			SearchResult: r,
			SelectionID:  pipeline.SelectionID(sessionID, i),
		})
	}
	return views
}

func (s *Server) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	if _, err := s.store.GetAllAudiobooks(database.StatusPending); err != nil {
		status["status"] = "degraded"
		status["database_error"] = err.Error()
	}
	if mem, err := sysinfo.GetMemoryStats(); err == nil {
		status["memory"] = mem
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) listAudiobooks(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", database.StatusPending, database.StatusProcessing,
		database.StatusProcessed, database.StatusError, database.StatusSkipped:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + status})
		return
	}

	books, err := s.store.GetAllAudiobooks(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if books == nil {
		books = []*database.Audiobook{}
	}
	c.JSON(http.StatusOK, gin.H{"audiobooks": books, "count": len(books)})
}

func (s *Server) getAudiobook(c *gin.Context) {
	book, err := s.store.GetAudiobook(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audiobook not found"})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) searchAudiobook(c *gin.Context) {
	sessionID, results, err := s.tagging.SearchForFile(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"results":    resultViews(sessionID, results),
	})
}

func (s *Server) customSearchAudiobook(c *gin.Context) {
	var body struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	sessionID, results, err := s.tagging.CustomSearch(c.Param("id"), body.Query)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"results":    resultViews(sessionID, results),
	})
}

func (s *Server) processAudiobook(c *gin.Context) {
	selectionID := c.Query("selection_id")
	if selectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selection_id is required"})
		return
	}

	book, err := s.tagging.ProcessSelection(c.Param("id"), selectionID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) autoProcessAudiobook(c *gin.Context) {
	book, err := s.tagging.AutoProcess(c.Param("id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrNoConfidentMatch) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) skipAudiobook(c *gin.Context) {
	if err := s.tagging.Skip(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": database.StatusSkipped})
}

func (s *Server) scanIncoming(c *gin.Context) {
	// Housekeeping before registration: sweep leftover temp files so they
	// never register as books, and expire old search sessions.
	if report, err := cleanup.Run(s.cfg.IncomingDir, false); err != nil {
		log.Printf("[WARN] incoming cleanup failed: %v", err)
	} else if report.TempFiles > 0 || report.EmptyDirs > 0 {
		log.Printf("[INFO] incoming cleanup removed %d temp files, %d empty dirs", report.TempFiles, report.EmptyDirs)
	}
	if removed, err := s.store.CleanupOldSessions(database.SessionMaxAge); err != nil {
		log.Printf("[WARN] session cleanup failed: %v", err)
	} else if removed > 0 {
		log.Printf("[INFO] expired %d old search sessions", removed)
	}

	ids, err := pipeline.RegisterIncoming(s.store, s.cfg.IncomingDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.events.SendScanCompleted(len(ids))
	c.JSON(http.StatusOK, gin.H{"registered": len(ids), "file_ids": ids})
}

func (s *Server) autoProcessBatch(c *gin.Context) {
	// Pre-count pending files so SSE progress events carry a total.
	if _, err := pipeline.RegisterIncoming(s.store, s.cfg.IncomingDir); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	pending, err := s.store.GetAllAudiobooks(database.StatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total := len(pending)

	done := 0
	processed, left, err := s.tagging.AutoProcessAll(s.cfg.IncomingDir, func(fileID string, err error) {
		done++
		s.events.SendBatchProgress(done, total, fileID)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed, "remaining": left})
}
