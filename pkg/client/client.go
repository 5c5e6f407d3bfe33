// Package client calls the posts API the same way the web frontend does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/model"
)

// APIError is a non-2xx response. Message is the server's "error" field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: http.DefaultClient}
}

func (c *Client) GetPosts(ctx context.Context) ([]model.Post, error) {
	var resp model.PostsResponse
	if err := c.do(ctx, http.MethodGet, "/getPosts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) GetPostByID(ctx context.Context, id string) (model.Post, error) {
	var resp model.PostResponse
	if err := c.do(ctx, http.MethodGet, "/getPostById?"+idQuery(id), nil, &resp); err != nil {
		return model.Post{}, err
	}
	return resp.Post, nil
}

func (c *Client) CreatePost(ctx context.Context, post model.PostFields) (string, error) {
	var resp model.CreatePostResponse
	if err := c.do(ctx, http.MethodPost, "/createPost", post, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, post model.PostFields) error {
	return c.do(ctx, http.MethodPut, "/updatePost?"+idQuery(id), post, nil)
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/deletePost?"+idQuery(id), nil, nil)
}

func idQuery(id string) string {
	return url.Values{"id": {id}}.Encode()
}

// do sends the request. Content-Type is only set when there is a body so
// plain GETs stay simple CORS requests.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var apiErr model.ErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = fmt.Sprintf("Request failed: %d", res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
