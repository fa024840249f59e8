package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucidide/backend/internal/commands"
	"github.com/lucidide/backend/internal/domain/channel"
	"github.com/lucidide/backend/internal/infrastructure/monitoring"
	"github.com/lucidide/backend/internal/providers/settings"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	manager  *channel.Manager
	registry *commands.Registry
	settings *settings.Provider
	metrics  *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(
	manager *channel.Manager,
	registry *commands.Registry,
	settings *settings.Provider,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		manager:  manager,
		registry: registry,
		settings: settings,
		metrics:  metrics,
	}
}

// channelView is the wire representation of a channel.
type channelView struct {
	Name      string `json:"name"`
	Visible   bool   `json:"visible"`
	Locked    bool   `json:"locked"`
	Selected  bool   `json:"selected"`
	LineCount int    `json:"line_count"`
}

func (h *Handlers) view(ch *channel.Channel) channelView {
	return channelView{
		Name:      ch.Name(),
		Visible:   ch.Visible(),
		Locked:    ch.Locked(),
		Selected:  h.manager.Selected() == ch,
		LineCount: len(ch.Lines()),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Output Channel Service",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	if h.metrics != nil {
		h.metrics.UpdateUptime()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"channels": len(h.manager.Channels()),
		"commands": len(h.registry.List()),
	})
}

// ListChannels lists all channels, optionally only visible ones
func (h *Handlers) ListChannels(c *gin.Context) {
	chs := h.manager.Channels()
	if c.Query("visible") == "true" {
		chs = h.manager.VisibleChannels()
	}

	views := make([]channelView, 0, len(chs))
	for _, ch := range chs {
		views = append(views, h.view(ch))
	}

	var selected *string
	if sel := h.manager.Selected(); sel != nil {
		name := sel.Name()
		selected = &name
	}

	c.JSON(http.StatusOK, gin.H{
		"channels": views,
		"selected": selected,
	})
}

// CreateChannel creates (or returns) the channel for a name
func (h *Handlers) CreateChannel(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := h.manager.GetChannel(req.Name)
	c.JSON(http.StatusOK, h.view(ch))
}

// findChannel resolves the :name parameter against the existing registry.
// Unknown names answer 404 rather than creating a channel as a side effect.
func (h *Handlers) findChannel(c *gin.Context) (*channel.Channel, bool) {
	name := c.Param("name")
	ch, ok := h.manager.Find(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel: " + name})
		return nil, false
	}
	return ch, true
}

// GetChannelLines returns a channel's line snapshot
func (h *Handlers) GetChannelLines(c *gin.Context) {
	ch, ok := h.findChannel(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":  ch.Name(),
		"lines": ch.Lines(),
	})
}

// Append appends text to a channel, completing the line unless partial=true
func (h *Handlers) Append(c *gin.Context) {
	name := c.Param("name")

	var req struct {
		Text    string `json:"text"`
		Partial bool   `json:"partial"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch := h.manager.GetChannel(name)
	if req.Partial {
		ch.Append(req.Text)
	} else {
		ch.AppendLine(req.Text)
		if h.metrics != nil {
			h.metrics.LinesAppended.WithLabelValues(name).Inc()
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearChannel empties a channel's history
func (h *Handlers) ClearChannel(c *gin.Context) {
	ch, ok := h.findChannel(c)
	if !ok {
		return
	}
	ch.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SelectChannel makes a channel the selected one
func (h *Handlers) SelectChannel(c *gin.Context) {
	ch := h.manager.GetChannel(c.Param("name"))
	h.manager.Select(ch)
	c.JSON(http.StatusOK, h.view(ch))
}

// SetVisibility sets a channel's visibility flag
func (h *Handlers) SetVisibility(c *gin.Context) {
	var req struct {
		Visible *bool `json:"visible" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, ok := h.findChannel(c)
	if !ok {
		return
	}
	ch.SetVisibility(*req.Visible)
	c.JSON(http.StatusOK, h.view(ch))
}

// ToggleLock toggles a channel's scroll-lock flag
func (h *Handlers) ToggleLock(c *gin.Context) {
	ch, ok := h.findChannel(c)
	if !ok {
		return
	}
	h.manager.ToggleScrollLock(ch)
	c.JSON(http.StatusOK, h.view(ch))
}

// DeleteChannel removes a channel from the registry
func (h *Handlers) DeleteChannel(c *gin.Context) {
	h.manager.DeleteChannel(c.Param("name"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCommands lists registered commands
func (h *Handlers) ListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": h.registry.List()})
}

// ExecuteCommand dispatches a registered command
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	var req struct {
		ID   string                 `json:"id" binding:"required"`
		Args map[string]interface{} `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ID, req.Args)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordCommand(req.ID, "error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCommand(req.ID, "success")
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetSetting returns one setting's current value
func (h *Handlers) GetSetting(c *gin.Context) {
	key := c.Param("key")
	value, ok := h.settings.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting: " + key})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// PutSetting updates a setting
func (h *Handlers) PutSetting(c *gin.Context) {
	var req struct {
		Value *int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	if err := h.settings.Set(key, *req.Value); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": *req.Value})
}
