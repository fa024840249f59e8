package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Command describes a registered command.
type Command struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Handler executes a command with caller-supplied arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type registration struct {
	command Command
	handler Handler
}

// Registry manages command registration and dispatch.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]registration
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]registration)}
}

// Register adds a command. Re-registering an ID is an error.
func (r *Registry) Register(cmd Command, handler Handler) error {
	if cmd.ID == "" {
		return fmt.Errorf("command ID cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("command %s has no handler", cmd.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.ID]; exists {
		return fmt.Errorf("command already registered: %s", cmd.ID)
	}
	r.commands[cmd.ID] = registration{command: cmd, handler: handler}
	return nil
}

// Unregister removes a command. Unknown IDs are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, id)
}

// Get returns the metadata for a registered command.
func (r *Registry) Get(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.commands[id]
	return reg.command, ok
}

// List returns all registered commands sorted by ID.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.commands))
	for _, reg := range r.commands {
		cmds = append(cmds, reg.command)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].ID < cmds[j].ID })
	return cmds
}

// Execute dispatches a command by ID.
func (r *Registry) Execute(ctx context.Context, id string, args map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	reg, ok := r.commands[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown command: %s", id)
	}
	return reg.handler(ctx, args)
}
