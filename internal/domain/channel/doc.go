// Package channel implements the output-channel registry: named,
// append-only text streams with bounded history, a single selected
// channel, per-channel scroll-lock state, and synchronous change
// notification.
//
// Channels are created lazily by name through the Manager and live until
// explicitly deleted. The Manager persists which channels were
// scroll-locked across sessions; the flag is restored the next time a
// channel of that name is created.
package channel
