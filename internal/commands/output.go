package commands

import (
	"context"
	"fmt"

	"github.com/lucidide/backend/internal/domain/channel"
)

// Output command IDs.
const (
	CmdSelectChannel    = "output.selectChannel"
	CmdClearOutput      = "output.clear"
	CmdToggleScrollLock = "output.toggleScrollLock"
	CmdAppendLine       = "output.appendLine"
)

// RegisterOutputCommands wires the output-channel commands a frontend
// invokes from its toolbar and palette.
func RegisterOutputCommands(r *Registry, m *channel.Manager) error {
	cmds := []struct {
		cmd     Command
		handler Handler
	}{
		{
			Command{ID: CmdSelectChannel, Label: "Select Output Channel", Category: "Output"},
			func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				name, err := stringArg(args, "channel")
				if err != nil {
					return nil, err
				}
				ch := m.GetChannel(name)
				m.Select(ch)
				return ch.Name(), nil
			},
		},
		{
			Command{ID: CmdClearOutput, Label: "Clear Output", Category: "Output"},
			func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				ch, err := targetChannel(m, args)
				if err != nil {
					return nil, err
				}
				ch.Clear()
				return nil, nil
			},
		},
		{
			Command{ID: CmdToggleScrollLock, Label: "Toggle Auto Scroll in Output", Category: "Output"},
			func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				// No explicit target falls through to the current selection
				if name, err := stringArg(args, "channel"); err == nil {
					m.ToggleScrollLock(m.GetChannel(name))
				} else {
					m.ToggleScrollLock(nil)
				}
				return nil, nil
			},
		},
		{
			Command{ID: CmdAppendLine, Label: "Append Line to Output", Category: "Output"},
			func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				name, err := stringArg(args, "channel")
				if err != nil {
					return nil, err
				}
				text, err := stringArg(args, "text")
				if err != nil {
					return nil, err
				}
				m.GetChannel(name).AppendLine(text)
				return nil, nil
			},
		},
	}

	for _, c := range cmds {
		if err := r.Register(c.cmd, c.handler); err != nil {
			return err
		}
	}
	return nil
}

// targetChannel resolves the "channel" argument, defaulting to the current
// selection.
func targetChannel(m *channel.Manager, args map[string]interface{}) (*channel.Channel, error) {
	if name, err := stringArg(args, "channel"); err == nil {
		return m.GetChannel(name), nil
	}
	if ch := m.Selected(); ch != nil {
		return ch, nil
	}
	return nil, fmt.Errorf("no channel selected")
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument: %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %s must be a non-empty string", key)
	}
	return s, nil
}
