// Package ws streams output-channel events to connected UI clients.
//
// Each connection subscribes to the channel manager's events and forwards
// them as JSON messages until the client disconnects.
//
// Message Types (Server → Client):
//   - connected: Handshake after upgrade
//   - channel_added / channel_deleted: Registry changes
//   - selection_changed: New selected channel (empty when cleared)
//   - lock_changed: Scroll-lock flag flipped
//   - content_changed: Lines appended or cleared, with a line snapshot
//   - pong: Reply to a client ping
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
