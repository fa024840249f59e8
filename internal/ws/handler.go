package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lucidide/backend/internal/domain/channel"
	"github.com/lucidide/backend/internal/events"
	"github.com/lucidide/backend/internal/infrastructure/monitoring"
	"github.com/lucidide/backend/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The IDE frontend runs on its own origin in dev
	},
}

// Handler streams output-channel events to connected UI clients.
type Handler struct {
	manager *channel.Manager
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *channel.Manager, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{
		manager: manager,
		metrics: metrics,
		log:     log,
	}
}

// event is one pushed notification.
type event struct {
	Type      string   `json:"type"`
	Channel   string   `json:"channel,omitempty"`
	Locked    *bool    `json:"locked,omitempty"`
	Lines     []string `json:"lines,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// HandleConnection upgrades the request and forwards manager events until
// the client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	// Writes come from event callbacks on other goroutines
	var writeMu sync.Mutex
	send := func(ev event) {
		ev.Timestamp = time.Now().Unix()
		data, err := sonic.Marshal(ev)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
		}
	}

	send(event{Type: "connected"})

	subs := h.subscribe(send)
	defer func() {
		for _, dispose := range subs {
			dispose()
		}
	}()

	// Read loop: only pings are expected from the client
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt == websocket.TextMessage && string(data) == `{"type":"ping"}` {
			send(event{Type: "pong"})
		}
	}
}

// subscribe attaches to every manager event and returns dispose funcs.
func (h *Handler) subscribe(send func(event)) []func() {
	contentSubs := make(map[string]*events.Subscription[*channel.Channel])
	var contentMu sync.Mutex

	watchContent := func(ch *channel.Channel) {
		name := ch.Name()
		sub := ch.OnContentChanged(func(ch *channel.Channel) {
			send(event{Type: "content_changed", Channel: ch.Name(), Lines: ch.Lines()})
		})
		contentMu.Lock()
		contentSubs[name] = sub
		contentMu.Unlock()
	}

	// Existing channels first, then every channel added while connected
	for _, ch := range h.manager.Channels() {
		watchContent(ch)
	}

	added := h.manager.OnChannelAdded(func(ch *channel.Channel) {
		watchContent(ch)
		send(event{Type: "channel_added", Channel: ch.Name()})
	})
	deleted := h.manager.OnChannelDeleted(func(name string) {
		contentMu.Lock()
		delete(contentSubs, name) // its emitter was disposed with the channel
		contentMu.Unlock()
		send(event{Type: "channel_deleted", Channel: name})
	})
	selection := h.manager.OnSelectionChanged(func(ch *channel.Channel) {
		ev := event{Type: "selection_changed"}
		if ch != nil {
			ev.Channel = ch.Name()
		}
		send(ev)
	})
	lock := h.manager.OnLockChanged(func(ch *channel.Channel) {
		locked := ch.Locked()
		send(event{Type: "lock_changed", Channel: ch.Name(), Locked: &locked})
	})

	return []func(){
		added.Dispose,
		deleted.Dispose,
		selection.Dispose,
		lock.Dispose,
		func() {
			contentMu.Lock()
			defer contentMu.Unlock()
			for _, sub := range contentSubs {
				sub.Dispose()
			}
		},
	}
}
