// Package commands provides the command registry the frontend's toolbar
// and palette dispatch through.
//
// Components:
//   - Registry: Thread-safe command registration and dispatch
//   - RegisterOutputCommands: The output subsystem's contribution
//     (select channel, clear output, toggle scroll lock, append line)
package commands
