package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/model"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
	"github.com/DeepakDums1998/blog-app-skilldzire/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAgainstServer(t *testing.T) {
	server := httptest.NewServer(router.Setup(repository.NewMemoryStore(), nil, 0))
	defer server.Close()

	c := New(server.URL + "/")
	ctx := context.Background()

	posts, err := c.GetPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	id, err := c.CreatePost(ctx, model.PostFields{Title: "A", Content: "B", Author: "C"})
	require.NoError(t, err)

	post, err := c.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", post.Title)
	require.NotNil(t, post.CreatedAt)

	require.NoError(t, c.UpdatePost(ctx, id, model.PostFields{Title: "A2", Content: "B", Author: "C"}))
	posts, err = c.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "A2", posts[0].Title)

	require.NoError(t, c.DeletePost(ctx, id))

	_, err = c.GetPostByID(ctx, id)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Post not found.", apiErr.Error())
}

func TestClientSurfacesValidationErrors(t *testing.T) {
	server := httptest.NewServer(router.Setup(repository.NewMemoryStore(), nil, 0))
	defer server.Close()

	_, err := New(server.URL).CreatePost(context.Background(), model.PostFields{Title: "A"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing fields. Required: title, content, author", apiErr.Message)
}

func TestClientFallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL).GetPosts(context.Background())
	assert.EqualError(t, err, "Request failed: 502")
}

func TestClientSendsContentTypeOnlyWithBody(t *testing.T) {
	var contentTypes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":"x","posts":[],"ok":true}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.GetPosts(context.Background())
	require.NoError(t, err)
	_, err = c.CreatePost(context.Background(), model.PostFields{Title: "A", Content: "B", Author: "C"})
	require.NoError(t, err)
	require.NoError(t, c.DeletePost(context.Background(), "x"))

	assert.Equal(t, []string{"", "application/json", ""}, contentTypes)
}
