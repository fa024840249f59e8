package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidide/backend/internal/domain/channel"
	"github.com/lucidide/backend/internal/logging"
)

type staticPrefs struct{ max int }

func (p staticPrefs) MaxChannelHistory() int { return p.max }

type memStore struct{ data map[string][]byte }

func (s *memStore) GetData(ctx context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *memStore) SetData(ctx context.Context, key string, data []byte) error {
	s.data[key] = data
	return nil
}

func newOutputRegistry(t *testing.T) (*Registry, *channel.Manager) {
	t.Helper()
	m := channel.NewManager(staticPrefs{max: 100}, &memStore{data: map[string][]byte{}}, logging.NewNop())
	r := NewRegistry()
	require.NoError(t, RegisterOutputCommands(r, m))
	return r, m
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, map[string]interface{}) (interface{}, error) { return nil, nil }

	require.NoError(t, r.Register(Command{ID: "x"}, noop))
	assert.Error(t, r.Register(Command{ID: "x"}, noop))
	assert.Error(t, r.Register(Command{ID: ""}, noop))
	assert.Error(t, r.Register(Command{ID: "y"}, nil))
}

func TestExecuteUnknownCommand(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestListSorted(t *testing.T) {
	r, _ := newOutputRegistry(t)

	cmds := r.List()
	require.Len(t, cmds, 4)
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].ID, cmds[i].ID)
	}
}

func TestSelectChannelCommand(t *testing.T) {
	r, m := newOutputRegistry(t)
	ctx := context.Background()

	m.GetChannel("one")
	_, err := r.Execute(ctx, CmdSelectChannel, map[string]interface{}{"channel": "two"})
	require.NoError(t, err)

	require.NotNil(t, m.Selected())
	assert.Equal(t, "two", m.Selected().Name())
}

func TestClearCommandDefaultsToSelection(t *testing.T) {
	r, m := newOutputRegistry(t)
	ctx := context.Background()

	ch := m.GetChannel("one")
	ch.AppendLine("a")

	_, err := r.Execute(ctx, CmdClearOutput, map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, ch.Lines())
}

func TestClearCommandWithoutSelection(t *testing.T) {
	r, _ := newOutputRegistry(t)

	_, err := r.Execute(context.Background(), CmdClearOutput, map[string]interface{}{})
	assert.Error(t, err)
}

func TestToggleScrollLockCommand(t *testing.T) {
	r, m := newOutputRegistry(t)
	ctx := context.Background()

	ch := m.GetChannel("one")
	_, err := r.Execute(ctx, CmdToggleScrollLock, map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, ch.Locked())

	_, err = r.Execute(ctx, CmdToggleScrollLock, map[string]interface{}{"channel": "one"})
	require.NoError(t, err)
	assert.False(t, ch.Locked())
}

func TestAppendLineCommand(t *testing.T) {
	r, m := newOutputRegistry(t)
	ctx := context.Background()

	_, err := r.Execute(ctx, CmdAppendLine, map[string]interface{}{"channel": "build", "text": "done"})
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, m.GetChannel("build").Lines())

	_, err = r.Execute(ctx, CmdAppendLine, map[string]interface{}{"channel": "build"})
	assert.Error(t, err)
}
