package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
	"github.com/DeepakDums1998/blog-app-skilldzire/socket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(t *testing.T, method, url, body string) (int, map[string]any, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return res.StatusCode, decoded, res.Header
}

func TestEndToEnd(t *testing.T) {
	server := httptest.NewServer(Setup(repository.NewMemoryStore(), nil, 0))
	defer server.Close()

	status, body, headers := send(t, http.MethodPost, server.URL+"/createPost", `{"title":"A","content":"B","author":"C"}`)
	require.Equal(t, http.StatusCreated, status)
	id, ok := body["id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, headers.Get("X-Request-ID"))

	status, body, _ = send(t, http.MethodGet, server.URL+"/getPostById?id="+id, "")
	require.Equal(t, http.StatusOK, status)
	post := body["post"].(map[string]any)
	assert.Equal(t, id, post["id"])
	assert.Equal(t, "A", post["title"])
	assert.Equal(t, "B", post["content"])
	assert.Equal(t, "C", post["author"])
	createdAt, ok := post["createdAt"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, createdAt)
	assert.NoError(t, err)

	status, body, _ = send(t, http.MethodPut, server.URL+"/updatePost?id="+id, `{"title":"A2","content":"B2","author":"C2"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"ok": true}, body)

	status, body, _ = send(t, http.MethodGet, server.URL+"/getPosts", "")
	require.Equal(t, http.StatusOK, status)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	first := posts[0].(map[string]any)
	assert.Equal(t, "A2", first["title"])
	assert.Equal(t, createdAt, first["createdAt"])

	status, _, _ = send(t, http.MethodDelete, server.URL+"/deletePost?id="+id, "")
	require.Equal(t, http.StatusOK, status)

	status, body, _ = send(t, http.MethodGet, server.URL+"/getPostById?id="+id, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found.", body["error"])

	status, _, _ = send(t, http.MethodDelete, server.URL+"/deletePost?id="+id, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownRoute(t *testing.T) {
	server := httptest.NewServer(Setup(repository.NewMemoryStore(), nil, 0))
	defer server.Close()

	res, err := http.Get(server.URL + "/nope")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPreflightThroughRouter(t *testing.T) {
	server := httptest.NewServer(Setup(repository.NewMemoryStore(), nil, 0))
	defer server.Close()

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/createPost", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestChangeFeed(t *testing.T) {
	hub := socket.NewHub()
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(Setup(repository.NewMemoryStore(), hub, 0))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(socket.AllPosts) == 1 }, time.Second, 5*time.Millisecond)

	status, body, _ := send(t, http.MethodPost, server.URL+"/createPost", `{"title":"live","content":"B","author":"C"}`)
	require.Equal(t, http.StatusCreated, status)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg socket.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "POST_CREATED", msg.Type)
	assert.Equal(t, body["id"], msg.PostID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "live", payload["title"])
}
