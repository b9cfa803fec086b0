// file: internal/realtime/events.go
// version: 2.0.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventBookProcessed EventType = "book.processed"
	EventBookFailed    EventType = "book.failed"
	EventBookSkipped   EventType = "book.skipped"
	EventScanCompleted EventType = "scan.completed"
	EventBatchProgress EventType = "batch.progress"
)

// Event represents a real-time event to send to clients. FileID is set on
// per-book events and empty on system-wide ones.
type Event struct {
	Type      EventType              `json:"type"`
	FileID    string                 `json:"file_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event
	files   map[string]bool
	mu      sync.RWMutex
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, 100),
		files:   make(map[string]bool),
	}
}

// Subscribe narrows the client's feed to events for the given file ID.
func (c *Client) Subscribe(fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[fileID] = true
	log.Printf("[DEBUG] SSE client %s subscribed to file %s", c.ID, fileID)
}

// IsSubscribed checks whether the client follows the given file ID.
func (c *Client) IsSubscribed(fileID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[fileID]
}

func (c *Client) subscriptionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// EventHub manages SSE connections and event distribution
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
	}
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[DEBUG] SSE client %s registered, total clients: %d", client.ID, len(h.clients))
}

// UnregisterClient removes a client
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("[DEBUG] SSE client %s unregistered, remaining clients: %d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every client that should see it: all clients
// for system-wide events, and for per-file events those with no subscription
// filter plus those following that file. A client whose channel is full
// loses the event rather than blocking the tagging pipeline.
func (h *EventHub) Broadcast(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if event.FileID != "" && client.subscriptionCount() > 0 && !client.IsSubscribed(event.FileID) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			log.Printf("[WARN] SSE client %s channel full, dropping event", client.ID)
		}
	}
}

// SendBookProcessed announces a successfully tagged and organized book.
func (h *EventHub) SendBookProcessed(fileID, title, finalPath string) {
	h.Broadcast(&Event{
		Type:      EventBookProcessed,
		FileID:    fileID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"file_id":    fileID,
			"title":      title,
			"final_path": finalPath,
		},
	})
}

// SendBookFailed announces a book whose processing failed.
func (h *EventHub) SendBookFailed(fileID, errorMsg string) {
	h.Broadcast(&Event{
		Type:      EventBookFailed,
		FileID:    fileID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"file_id": fileID,
			"error":   errorMsg,
		},
	})
}

// SendBookSkipped announces a book the user chose to skip.
func (h *EventHub) SendBookSkipped(fileID string) {
	h.Broadcast(&Event{
		Type:      EventBookSkipped,
		FileID:    fileID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"file_id": fileID,
		},
	})
}

// SendScanCompleted announces a finished incoming-directory scan.
func (h *EventHub) SendScanCompleted(found int) {
	h.Broadcast(&Event{
		Type:      EventScanCompleted,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"found": found,
		},
	})
}

// SendBatchProgress announces progress through a batch auto-tagging run.
func (h *EventHub) SendBatchProgress(current, total int, message string) {
	h.Broadcast(&Event{
		Type:      EventBatchProgress,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"current":    current,
			"total":      total,
			"message":    message,
			"percentage": calculatePercentage(current, total),
		},
	})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE handles a Server-Sent Events connection. An optional ?file=<id>
// query narrows the stream to events for that file.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("X-Accel-Buffering", "no")

	clientID := fmt.Sprintf("client-%d", time.Now().UnixNano())
	client := NewClient(clientID)

	if fileID := c.Query("file"); fileID != "" {
		client.Subscribe(fileID)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(clientID)

	initialEvent := &Event{
		Type:      "connection.established",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"client_id": clientID,
		},
	}
	if data, err := json.Marshal(initialEvent); err == nil {
		_, _ = c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data)))
		c.Writer.Flush()
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Printf("[DEBUG] SSE client %s connection closed", clientID)
			return
		case event := <-client.Channel:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("[ERROR] failed to marshal event: %v", err)
				continue
			}
			if _, err := c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data))); err != nil {
				log.Printf("[WARN] failed to write to SSE client %s: %v", clientID, err)
				return
			}
			c.Writer.Flush()
		case <-ticker.C:
			heartbeat := map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now(),
			}
			if data, err := json.Marshal(heartbeat); err == nil {
				_, _ = c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data)))
				c.Writer.Flush()
			}
		}
	}
}

func calculatePercentage(current, total int) int {
	if total <= 0 {
		return 0
	}
	percentage := (current * 100) / total
	if percentage > 100 {
		return 100
	}
	return percentage
}
