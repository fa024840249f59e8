package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidide/backend/internal/commands"
	"github.com/lucidide/backend/internal/domain/channel"
	"github.com/lucidide/backend/internal/logging"
	"github.com/lucidide/backend/internal/providers/settings"
)

type memStore struct{ data map[string][]byte }

func (s *memStore) GetData(ctx context.Context, key string) ([]byte, error) {
	return s.data[key], nil
}

func (s *memStore) SetData(ctx context.Context, key string, data []byte) error {
	s.data[key] = data
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *channel.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prefs := settings.NewProvider(100)
	manager := channel.NewManager(prefs, &memStore{data: map[string][]byte{}}, logging.NewNop())
	registry := commands.NewRegistry()
	require.NoError(t, commands.RegisterOutputCommands(registry, manager))

	h := NewHandlers(manager, registry, prefs, nil)

	r := gin.New()
	r.GET("/channels", h.ListChannels)
	r.POST("/channels", h.CreateChannel)
	r.GET("/channels/:name/lines", h.GetChannelLines)
	r.POST("/channels/:name/append", h.Append)
	r.POST("/channels/:name/clear", h.ClearChannel)
	r.POST("/channels/:name/select", h.SelectChannel)
	r.POST("/channels/:name/visibility", h.SetVisibility)
	r.POST("/channels/:name/lock", h.ToggleLock)
	r.DELETE("/channels/:name", h.DeleteChannel)
	r.GET("/commands", h.ListCommands)
	r.POST("/commands/execute", h.ExecuteCommand)
	r.GET("/settings/:key", h.GetSetting)
	r.PUT("/settings/:key", h.PutSetting)
	return r, manager
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndListChannels(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/channels", `{"name":"build"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/channels", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Channels []struct {
			Name     string `json:"name"`
			Selected bool   `json:"selected"`
		} `json:"channels"`
		Selected *string `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Channels, 1)
	assert.Equal(t, "build", resp.Channels[0].Name)
	assert.True(t, resp.Channels[0].Selected)
	require.NotNil(t, resp.Selected)
	assert.Equal(t, "build", *resp.Selected)
}

func TestCreateChannelRequiresName(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/channels", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppendAndLines(t *testing.T) {
	r, _ := newTestRouter(t)

	do(t, r, http.MethodPost, "/channels/build/append", `{"text":"Hel","partial":true}`)
	do(t, r, http.MethodPost, "/channels/build/append", `{"text":"lo","partial":true}`)
	do(t, r, http.MethodPost, "/channels/build/append", `{"text":"!"}`)

	w := do(t, r, http.MethodGet, "/channels/build/lines", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Hello!"}, resp.Lines)
}

func TestUnknownChannelIsNotFound(t *testing.T) {
	r, m := newTestRouter(t)

	// Lookups and flag toggles must not create channels as a side effect
	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/channels/typo/lines", ""},
		{http.MethodPost, "/channels/typo/clear", ""},
		{http.MethodPost, "/channels/typo/lock", ""},
		{http.MethodPost, "/channels/typo/visibility", `{"visible":false}`},
	} {
		w := do(t, r, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.method, req.path)
	}

	assert.Empty(t, m.Channels())
	assert.Nil(t, m.Selected())
}

func TestClear(t *testing.T) {
	r, m := newTestRouter(t)

	m.GetChannel("build").AppendLine("a")
	w := do(t, r, http.MethodPost, "/channels/build/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, m.GetChannel("build").Lines())
}

func TestSelectAndDelete(t *testing.T) {
	r, m := newTestRouter(t)

	do(t, r, http.MethodPost, "/channels", `{"name":"one"}`)
	do(t, r, http.MethodPost, "/channels", `{"name":"two"}`)
	do(t, r, http.MethodPost, "/channels/two/select", "")
	require.Equal(t, "two", m.Selected().Name())

	w := do(t, r, http.MethodDelete, "/channels/two", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "one", m.Selected().Name())
}

func TestToggleLock(t *testing.T) {
	r, m := newTestRouter(t)

	do(t, r, http.MethodPost, "/channels", `{"name":"build"}`)
	w := do(t, r, http.MethodPost, "/channels/build/lock", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, m.GetChannel("build").Locked())

	var view struct {
		Locked bool `json:"locked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.True(t, view.Locked)
}

func TestVisibility(t *testing.T) {
	r, m := newTestRouter(t)

	do(t, r, http.MethodPost, "/channels", `{"name":"one"}`)
	do(t, r, http.MethodPost, "/channels", `{"name":"two"}`)

	w := do(t, r, http.MethodPost, "/channels/one/visibility", `{"visible":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "two", m.Selected().Name())
}

func TestExecuteCommand(t *testing.T) {
	r, m := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/commands/execute",
		`{"id":"output.appendLine","args":{"channel":"build","text":"done"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"done"}, m.GetChannel("build").Lines())

	w = do(t, r, http.MethodPost, "/commands/execute", `{"id":"no.such.command"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	r, m := newTestRouter(t)

	w := do(t, r, http.MethodPut, "/settings/output.maxChannelHistory", `{"value":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	// The bound is live: the next completed line enforces it
	ch := m.GetChannel("build")
	ch.AppendLine("a")
	ch.AppendLine("b")
	ch.AppendLine("c")
	assert.Equal(t, []string{"b", "c"}, ch.Lines())

	w = do(t, r, http.MethodGet, "/settings/output.maxChannelHistory", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/settings/unknown.key", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
