// Package main is the entry point for the output channel service.
//
// This service owns the IDE's output-channel subsystem: a registry of
// named, appendable text streams that the frontend renders in its output
// widget, with channel selection, clearing, and scroll-locking.
//
// The server provides:
//   - REST API for channel management and command dispatch
//   - WebSocket streaming of channel events to UI clients
//   - Persistence of scroll-lock state across sessions
//   - Prometheus metrics and rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8600 -storage /var/lib/lucidide
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (persists lock state)
package main
