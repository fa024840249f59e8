// Package http provides REST handlers for the output-channel service:
// channel management, command dispatch, and settings access.
package http
