// Package http exposes the tracker's REST surface: recording control,
// automation replay, suggestion lifecycle, activity history, and the
// capture ingest endpoints.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/api/ws"
	"github.com/deskpilot/deskpilot/internal/capture"
	"github.com/deskpilot/deskpilot/internal/domain/automation"
	"github.com/deskpilot/deskpilot/internal/domain/patterns"
	"github.com/deskpilot/deskpilot/internal/domain/suggestions"
	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/storage"
	"github.com/deskpilot/deskpilot/internal/shared/blackboard"
	"github.com/deskpilot/deskpilot/internal/shared/types"
	"github.com/deskpilot/deskpilot/internal/shared/utils"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	recorder    *automation.Recorder
	player      *automation.Player
	store       *automation.Store
	suggestions *suggestions.Manager
	detector    *patterns.Detector
	board       *blackboard.Board
	feed        *capture.Feed
	db          *storage.Database
	logger      *logging.Logger
	hub         *ws.Hub
}

// NewHandlers creates a new handler set.
func NewHandlers(
	recorder *automation.Recorder,
	player *automation.Player,
	store *automation.Store,
	sugg *suggestions.Manager,
	detector *patterns.Detector,
	board *blackboard.Board,
	feed *capture.Feed,
	db *storage.Database,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		recorder:    recorder,
		player:      player,
		store:       store,
		suggestions: sugg,
		detector:    detector,
		board:       board,
		feed:        feed,
		db:          db,
		logger:      logger,
	}
}

// WithHub adds recording state broadcasts to the handlers.
func (h *Handlers) WithHub(hub *ws.Hub) *Handlers {
	h.hub = hub
	return h
}

// Register wires the REST routes onto the router. The websocket
// stream is added when a hub is attached.
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.POST("/recorder/start", h.StartRecording)
	router.POST("/recorder/stop", h.StopRecording)
	router.GET("/recorder/status", h.RecorderStatus)

	router.GET("/automations", h.ListAutomations)
	router.GET("/automations/:name", h.GetAutomation)
	router.DELETE("/automations/:name", h.DeleteAutomation)
	router.POST("/automations/:name/execute", h.ExecuteAutomation)

	router.GET("/suggestions", h.ListSuggestions)
	router.POST("/suggestions/:id/dismiss", h.DismissSuggestion)
	router.POST("/suggestions/:id/implement", h.ImplementSuggestion)

	router.GET("/activity/recent", h.RecentActivity)
	router.GET("/patterns/profiles", h.PatternProfiles)

	router.POST("/ingest/events", h.IngestEvents)
	router.POST("/ingest/sample", h.IngestSample)

	if h.hub != nil {
		router.GET("/stream", h.hub.HandleConnection)
	}
}

// Root handles the liveness check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "deskpilot",
	})
}

// Health handles the detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	tasks, err := h.db.AutomationTaskCount()
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"recording":   h.recorder.Recording(),
		"automations": len(h.store.List()),
		"suggestions": len(h.suggestions.List(false)),
		"database":    gin.H{"connected": err == nil, "active_tasks": tasks},
	})
}

// StartRecording begins a new recording session.
func (h *Handlers) StartRecording(c *gin.Context) {
	if !h.recorder.Start() {
		c.JSON(http.StatusConflict, gin.H{"error": "recorder busy or input channel held"})
		return
	}
	if h.hub != nil {
		h.hub.BroadcastRecording(true)
	}
	c.JSON(http.StatusOK, gin.H{"recording": true})
}

// StopRecording ends the recording session and saves the automation.
func (h *Handlers) StopRecording(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// An empty body means an auto-generated name.
	_ = c.ShouldBindJSON(&req)
	if req.Name != "" {
		if err := utils.ValidateAutomationName(req.Name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result := h.recorder.Stop(req.Name)
	if result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "not recording"})
		return
	}
	if err := h.db.SaveAutomationTask(result.Automation); err != nil {
		h.logger.Error("Failed to catalog automation", zap.Error(err))
	}
	if h.hub != nil {
		h.hub.BroadcastRecording(false)
	}
	c.JSON(http.StatusOK, gin.H{
		"automation": result.Automation,
		"saved":      result.Saved,
	})
}

// RecorderStatus reports whether a recording is in progress.
func (h *Handlers) RecorderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"recording": h.recorder.Recording(),
		"steps":     h.recorder.StepCount(),
	})
}

// ListAutomations lists the stored automations.
func (h *Handlers) ListAutomations(c *gin.Context) {
	list := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"automations": list,
		"count":       len(list),
	})
}

// GetAutomation returns one automation by name.
func (h *Handlers) GetAutomation(c *gin.Context) {
	a, ok := h.store.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAutomation removes an automation and soft-deletes its catalog
// row.
func (h *Handlers) DeleteAutomation(c *gin.Context) {
	name := c.Param("name")
	if !h.store.Delete(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
		return
	}
	if err := h.db.DeactivateAutomationTask(name); err != nil {
		h.logger.Warn("Automation had no catalog row", zap.String("name", name), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

// ExecuteAutomation replays an automation. The request blocks until
// the replay finishes or fails.
func (h *Handlers) ExecuteAutomation(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.store.Get(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
		return
	}
	if !h.player.Execute(c.Request.Context(), name) {
		c.JSON(http.StatusConflict, gin.H{"error": "execution failed or input channel busy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"executed": name})
}

// ListSuggestions returns the active suggestions, optionally including
// settled ones.
func (h *Handlers) ListSuggestions(c *gin.Context) {
	includeSettled := c.Query("include_settled") == "true"
	list := h.suggestions.List(includeSettled)
	c.JSON(http.StatusOK, gin.H{
		"suggestions": list,
		"count":       len(list),
	})
}

// DismissSuggestion marks a suggestion dismissed.
func (h *Handlers) DismissSuggestion(c *gin.Context) {
	id := c.Param("id")
	if !h.suggestions.Dismiss(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "suggestion not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": id})
}

// ImplementSuggestion marks a suggestion implemented.
func (h *Handlers) ImplementSuggestion(c *gin.Context) {
	id := c.Param("id")
	if !h.suggestions.Implement(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "suggestion not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"implemented": id})
}

// RecentActivity returns the newest persisted activity rows.
func (h *Handlers) RecentActivity(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	records, err := h.db.RecentActivities(limit)
	if err != nil {
		h.logger.Error("Failed to query activities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query activities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activities": records,
		"count":      len(records),
	})
}

// PatternProfiles returns the hourly usage distribution per app.
func (h *Handlers) PatternProfiles(c *gin.Context) {
	profiles := h.detector.Profiles()
	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// IngestEvents accepts a batch of raw input events from the capture
// agent and forwards them to the recording feed. Clicks also feed the
// click pattern statistics.
func (h *Handlers) IngestEvents(c *gin.Context) {
	var events []types.InputEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event batch"})
		return
	}
	accepted := 0
	for _, ev := range events {
		if !ev.Kind.Valid() {
			continue
		}
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		h.feed.Publish(ev)
		if ev.Kind == types.EventMouseClick && ev.Pressed && ev.Position != nil {
			h.detector.ObserveClick(h.board.ActiveWindow(), *ev.Position)
		}
		accepted++
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted})
}

// IngestSample accepts one desktop activity sample: the focused
// window, detected applications, and mouse position.
func (h *Handlers) IngestSample(c *gin.Context) {
	var sample types.ActivityEvent
	if err := c.ShouldBindJSON(&sample); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity sample"})
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	previous := h.board.ActiveWindow()
	h.board.UpdateActivity(sample)

	if previous != sample.Window {
		if _, err := h.db.LogActivity("window_change", sample.Window, "", sample.Timestamp); err != nil {
			h.logger.Error("Failed to log window change", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"accepted": true})
}
